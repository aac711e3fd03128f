package games

import (
	"strings"

	"xenios/compat/internal/schema"
)

// Merge folds one validated report into the game list and returns the new
// list. Pure: the inputs are not mutated, and the same inputs always
// produce the same output (the report's date is fixed at validation time).
func Merge(list []Game, report schema.Report) []Game {
	entry := Report{
		Device:     report.Device,
		Platform:   report.Platform,
		OSVersion:  report.OSVersion,
		Arch:       report.Arch,
		GPUBackend: report.GPUBackend,
		Status:     report.Status,
		Date:       report.Date,
		Notes:      report.Notes,
	}

	idx := -1
	for i, game := range list {
		if strings.EqualFold(game.TitleID, report.TitleID) {
			idx = i
			break
		}
	}

	if idx < 0 {
		created := Game{
			Slug:      Slugify(report.Title),
			Title:     report.Title,
			TitleID:   report.TitleID,
			Status:    report.Status,
			Perf:      report.Perf,
			Tags:      append([]string{}, report.Tags...),
			Platforms: []string{report.Platform},
			LastReport: LastReport{
				Device:     report.Device,
				Platform:   report.Platform,
				OSVersion:  report.OSVersion,
				Arch:       report.Arch,
				GPUBackend: report.GPUBackend,
			},
			UpdatedAt: report.Date,
			Notes:     report.Notes,
			RecommendedSettings: RecommendedSettings{
				Resolution: valueOr(report.Resolution, "720p"),
				Framerate:  valueOr(report.Framerate, "30fps"),
			},
			Reports:     []Report{entry},
			Screenshots: screenshots(nil, report.ImageURL),
		}
		out := make([]Game, 0, len(list)+1)
		out = append(out, list...)
		return append(out, created)
	}

	game := list[idx]
	game.Reports = append([]Report{entry}, game.Reports...)
	game.LastReport = LastReport{
		Device:     report.Device,
		Platform:   report.Platform,
		OSVersion:  report.OSVersion,
		Arch:       report.Arch,
		GPUBackend: report.GPUBackend,
	}
	game.UpdatedAt = report.Date
	game.Status = report.Status
	game.Perf = report.Perf
	game.Notes = report.Notes
	game.Platforms = union(game.Platforms, []string{report.Platform})
	game.Tags = union(game.Tags, report.Tags)
	if report.Resolution != "" {
		game.RecommendedSettings.Resolution = report.Resolution
	}
	if report.Framerate != "" {
		game.RecommendedSettings.Framerate = report.Framerate
	}
	game.Screenshots = screenshots(game.Screenshots, report.ImageURL)

	out := make([]Game, len(list))
	copy(out, list)
	out[idx] = game
	return out
}

// union appends the values missing from existing, preserving insertion
// order so repeated merges stay byte-identical.
func union(existing, values []string) []string {
	out := append([]string{}, existing...)
	seen := make(map[string]struct{}, len(out))
	for _, v := range out {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func screenshots(existing []string, imageURL string) []string {
	if existing == nil {
		existing = []string{}
	}
	if imageURL == "" {
		return existing
	}
	return union(existing, []string{imageURL})
}

func valueOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
