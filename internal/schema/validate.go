package schema

import (
	"fmt"
	"strings"
	"time"
)

// RawReport is a report payload as it arrives on the wire, before any
// validation. Tags is loosely typed on purpose: submitters send mixed
// arrays and non-string entries are dropped rather than rejected.
type RawReport struct {
	TitleID    string `json:"titleId"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Perf       string `json:"perf"`
	Platform   string `json:"platform"`
	Device     string `json:"device"`
	OSVersion  string `json:"osVersion"`
	Arch       string `json:"arch"`
	GPUBackend string `json:"gpuBackend"`
	Notes      string `json:"notes"`
	Tags       []any  `json:"tags"`
	Resolution string `json:"resolution"`
	Framerate  string `json:"framerate"`
	Source     string `json:"source"`
}

// Report is a validated, normalized submission. Immutable once merged.
type Report struct {
	TitleID    string
	Title      string
	Status     string
	Perf       string
	Platform   string
	Device     string
	OSVersion  string
	Arch       string
	GPUBackend string
	Notes      string
	Tags       []string
	Resolution string
	Framerate  string
	Date       string
	Submitter  string
	Source     string
	ImageURL   string
}

// Validate checks a raw payload against the schema and returns the
// normalized report. It fails fast: the error describes the first
// violated rule only. The report date is fixed here so the downstream
// merge stays deterministic.
func Validate(raw RawReport) (Report, error) {
	if strings.TrimSpace(raw.TitleID) == "" {
		return Report{}, fmt.Errorf("titleId is required")
	}
	if strings.TrimSpace(raw.Title) == "" {
		return Report{}, fmt.Errorf("title is required")
	}
	if _, ok := validStatuses[raw.Status]; !ok {
		return Report{}, fmt.Errorf("status must be one of: %s", strings.Join(Values(Default().Statuses), ", "))
	}

	perf := raw.Perf
	if raw.Status == StatusNothing {
		// A game that does not boot has no meaningful perf tier.
		if perf == "" || perf == PerfNA {
			perf = PerfNA
		} else {
			return Report{}, fmt.Errorf("perf must be %s when status is %s", PerfNA, StatusNothing)
		}
	} else {
		if perf == PerfNA {
			return Report{}, fmt.Errorf("perf %s is only valid when status is %s", PerfNA, StatusNothing)
		}
		if _, ok := validPerfs[perf]; !ok {
			return Report{}, fmt.Errorf("perf must be one of: %s", strings.Join(Values(Default().PerfTiers), ", "))
		}
	}

	if _, ok := validPlatforms[raw.Platform]; !ok {
		return Report{}, fmt.Errorf("platform must be one of: %s", strings.Join(Values(Default().Platforms), ", "))
	}
	if strings.TrimSpace(raw.Device) == "" {
		return Report{}, fmt.Errorf("device is required")
	}
	if strings.TrimSpace(raw.OSVersion) == "" {
		return Report{}, fmt.Errorf("osVersion is required")
	}
	if _, ok := validArchs[raw.Arch]; !ok {
		return Report{}, fmt.Errorf("arch must be one of: %s", strings.Join(Values(Default().Architectures), ", "))
	}
	if _, ok := validGPUBackends[raw.GPUBackend]; !ok {
		return Report{}, fmt.Errorf("gpuBackend must be one of: %s", strings.Join(Values(Default().GPUBackends), ", "))
	}
	if strings.TrimSpace(raw.Notes) == "" {
		return Report{}, fmt.Errorf("notes is required")
	}

	// iOS ships only the MSL shader backend.
	if raw.Platform == PlatformIOS && raw.GPUBackend != GPUBackendMSL {
		return Report{}, fmt.Errorf("iOS platform only supports the MSL GPU backend")
	}

	return Report{
		TitleID:    strings.ToUpper(strings.TrimSpace(raw.TitleID)),
		Title:      strings.TrimSpace(raw.Title),
		Status:     raw.Status,
		Perf:       perf,
		Platform:   raw.Platform,
		Device:     strings.TrimSpace(raw.Device),
		OSVersion:  strings.TrimSpace(raw.OSVersion),
		Arch:       raw.Arch,
		GPUBackend: raw.GPUBackend,
		Notes:      strings.TrimSpace(raw.Notes),
		Tags:       stringTags(raw.Tags),
		Resolution: strings.TrimSpace(raw.Resolution),
		Framerate:  strings.TrimSpace(raw.Framerate),
		Date:       time.Now().UTC().Format("2006-01-02"),
	}, nil
}

func stringTags(tags []any) []string {
	var out []string
	for _, tag := range tags {
		if s, ok := tag.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// InferPlatform guesses the platform from a free-text device name.
// Discord reports have no platform dropdown; phones and tablets are iOS,
// everything else is treated as a Mac.
func InferPlatform(device string) string {
	lowered := strings.ToLower(strings.TrimSpace(device))
	if strings.HasPrefix(lowered, "iphone") || strings.HasPrefix(lowered, "ipad") {
		return PlatformIOS
	}
	return PlatformMacOS
}
