// Package schema is the single source of truth for the enumerated report
// fields. The /schema endpoint, payload validation, and the Discord command
// choices all derive from these definitions.
package schema

// Option pairs a machine value with its human label.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Schema groups every enumerated field the API accepts.
type Schema struct {
	Statuses      []Option `json:"statuses"`
	PerfTiers     []Option `json:"perfTiers"`
	Platforms     []Option `json:"platforms"`
	Architectures []Option `json:"architectures"`
	GPUBackends   []Option `json:"gpuBackends"`
}

const (
	StatusPlayable = "playable"
	StatusInGame   = "ingame"
	StatusIntro    = "intro"
	StatusLoads    = "loads"
	StatusNothing  = "nothing"

	PerfGreat = "great"
	PerfOK    = "ok"
	PerfPoor  = "poor"
	PerfNA    = "na"

	PlatformIOS   = "ios"
	PlatformMacOS = "macos"

	GPUBackendMSL = "msl"
	GPUBackendMSC = "msc"
)

// StatusOrder lists statuses from best to worst; the status board groups
// games in this order.
var StatusOrder = []string{StatusPlayable, StatusInGame, StatusIntro, StatusLoads, StatusNothing}

// Default returns the schema served by /schema.
func Default() Schema {
	return Schema{
		Statuses: []Option{
			{Value: StatusPlayable, Label: "Playable", Description: "Game can be played start to finish with minor issues"},
			{Value: StatusInGame, Label: "In-Game", Description: "Reaches gameplay but has significant issues"},
			{Value: StatusIntro, Label: "Intro", Description: "Gets past loading but crashes before or during gameplay"},
			{Value: StatusLoads, Label: "Loads", Description: "Boots and shows menus but can't reach gameplay"},
			{Value: StatusNothing, Label: "Nothing", Description: "Does not boot or crashes immediately"},
		},
		PerfTiers: []Option{
			{Value: PerfGreat, Label: "Great", Description: "Runs at or near full speed"},
			{Value: PerfOK, Label: "OK", Description: "Playable but with noticeable performance drops"},
			{Value: PerfPoor, Label: "Poor", Description: "Significant performance issues"},
			{Value: PerfNA, Label: "N/A", Description: "Not applicable; the game does not boot"},
		},
		Platforms: []Option{
			{Value: PlatformIOS, Label: "iOS", Description: "iOS and iPadOS devices"},
			{Value: PlatformMacOS, Label: "macOS", Description: "macOS devices"},
		},
		Architectures: []Option{
			{Value: "arm64", Label: "ARM64", Description: "Apple Silicon (all iOS, Apple Silicon Macs)"},
			{Value: "x86_64", Label: "x86_64", Description: "Intel (Intel Macs only)"},
		},
		GPUBackends: []Option{
			{Value: GPUBackendMSL, Label: "MSL", Description: "Metal Shading Language (all platforms)"},
			{Value: GPUBackendMSC, Label: "MSC", Description: "Metal Shader Converter (macOS 15+ only)"},
		},
	}
}

var (
	validStatuses    = valueSet(Default().Statuses)
	validPerfs       = valueSet(Default().PerfTiers)
	validPlatforms   = valueSet(Default().Platforms)
	validArchs       = valueSet(Default().Architectures)
	validGPUBackends = valueSet(Default().GPUBackends)
)

func valueSet(options []Option) map[string]struct{} {
	set := make(map[string]struct{}, len(options))
	for _, option := range options {
		set[option.Value] = struct{}{}
	}
	return set
}

// Values returns the machine values of options, in declaration order.
func Values(options []Option) []string {
	values := make([]string, len(options))
	for i, option := range options {
		values[i] = option.Value
	}
	return values
}

// StatusLabel returns the human label for a status value, or the value
// itself when unknown.
func StatusLabel(status string) string {
	return label(Default().Statuses, status)
}

// PerfLabel returns the human label for a perf tier value.
func PerfLabel(perf string) string {
	return label(Default().PerfTiers, perf)
}

// PlatformLabel returns the human label for a platform value.
func PlatformLabel(platform string) string {
	return label(Default().Platforms, platform)
}

func label(options []Option, value string) string {
	for _, option := range options {
		if option.Value == value {
			return option.Label
		}
	}
	return value
}
