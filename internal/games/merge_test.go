package games

import (
	"reflect"
	"testing"

	"xenios/compat/internal/schema"
)

func sampleReport() schema.Report {
	return schema.Report{
		TitleID:    "4D5307E6",
		Title:      "Halo 3",
		Status:     schema.StatusPlayable,
		Perf:       schema.PerfGreat,
		Platform:   schema.PlatformMacOS,
		Device:     "MacBook Pro M3",
		OSVersion:  "15.2",
		Arch:       "arm64",
		GPUBackend: schema.GPUBackendMSL,
		Notes:      "Full campaign completed",
		Tags:       []string{"campaign"},
		Date:       "2026-09-01",
	}
}

func TestMergeCreatesGame(t *testing.T) {
	list := Merge(nil, sampleReport())

	if len(list) != 1 {
		t.Fatalf("expected 1 game, got %d", len(list))
	}
	game := list[0]
	if game.Slug != "halo-3" {
		t.Errorf("expected slug halo-3, got %q", game.Slug)
	}
	if game.TitleID != "4D5307E6" {
		t.Errorf("expected titleId preserved, got %q", game.TitleID)
	}
	if game.Status != schema.StatusPlayable || game.Perf != schema.PerfGreat {
		t.Errorf("expected projections from the report, got %q/%q", game.Status, game.Perf)
	}
	if !reflect.DeepEqual(game.Platforms, []string{schema.PlatformMacOS}) {
		t.Errorf("expected platforms seeded from the report, got %v", game.Platforms)
	}
	if game.RecommendedSettings.Resolution != "720p" || game.RecommendedSettings.Framerate != "30fps" {
		t.Errorf("expected default recommended settings, got %+v", game.RecommendedSettings)
	}
	if len(game.Reports) != 1 || game.Reports[0].Device != "MacBook Pro M3" {
		t.Errorf("expected the report recorded, got %+v", game.Reports)
	}
	if game.UpdatedAt != "2026-09-01" {
		t.Errorf("expected updatedAt from the report date, got %q", game.UpdatedAt)
	}
}

func TestMergeUpdatesExistingGame(t *testing.T) {
	list := Merge(nil, sampleReport())

	second := sampleReport()
	second.TitleID = "4d5307e6" // matching is case-insensitive
	second.Status = schema.StatusInGame
	second.Perf = schema.PerfOK
	second.Platform = schema.PlatformIOS
	second.Device = "iPhone 15 Pro"
	second.GPUBackend = schema.GPUBackendMSL
	second.Tags = []string{"campaign", "multiplayer"}
	second.Resolution = "1080p"
	second.Date = "2026-09-02"

	merged := Merge(list, second)

	if len(merged) != 1 {
		t.Fatalf("expected the report folded into the existing game, got %d games", len(merged))
	}
	game := merged[0]

	if len(game.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(game.Reports))
	}
	if game.Reports[0].Device != "iPhone 15 Pro" {
		t.Errorf("expected most recent report first, got %q", game.Reports[0].Device)
	}
	if game.Status != schema.StatusInGame || game.Perf != schema.PerfOK {
		t.Errorf("expected projections overwritten, got %q/%q", game.Status, game.Perf)
	}
	if game.LastReport.Device != "iPhone 15 Pro" {
		t.Errorf("expected lastReport overwritten, got %q", game.LastReport.Device)
	}
	if !reflect.DeepEqual(game.Platforms, []string{schema.PlatformMacOS, schema.PlatformIOS}) {
		t.Errorf("expected platforms to grow, got %v", game.Platforms)
	}
	if !reflect.DeepEqual(game.Tags, []string{"campaign", "multiplayer"}) {
		t.Errorf("expected tags union, got %v", game.Tags)
	}
	if game.RecommendedSettings.Resolution != "1080p" {
		t.Errorf("expected resolution overwritten, got %q", game.RecommendedSettings.Resolution)
	}
	if game.RecommendedSettings.Framerate != "30fps" {
		t.Errorf("expected framerate untouched, got %q", game.RecommendedSettings.Framerate)
	}
	if game.UpdatedAt != "2026-09-02" {
		t.Errorf("expected updatedAt refreshed, got %q", game.UpdatedAt)
	}

	// The input list must not be mutated.
	if len(list[0].Reports) != 1 {
		t.Errorf("expected input list untouched, got %d reports", len(list[0].Reports))
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	report := sampleReport()
	first := Merge(nil, report)
	second := Merge(nil, report)

	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical output for identical input")
	}
}

func TestMergeRecordsScreenshots(t *testing.T) {
	report := sampleReport()
	report.ImageURL = "https://cdn.example.com/halo3.png"

	list := Merge(nil, report)
	if !reflect.DeepEqual(list[0].Screenshots, []string{"https://cdn.example.com/halo3.png"}) {
		t.Errorf("expected screenshot recorded, got %v", list[0].Screenshots)
	}

	// Re-reporting the same screenshot must not duplicate it.
	list = Merge(list, report)
	if len(list[0].Screenshots) != 1 {
		t.Errorf("expected screenshots deduplicated, got %v", list[0].Screenshots)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Halo 3":       "halo-3",
		"Halo 3: ODST": "halo-3-odst",
		"  Fable II  ": "fable-ii",
		"Crackdown!!!": "crackdown",
		"A  B":         "a-b",
	}
	for title, want := range cases {
		if got := Slugify(title); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", title, got, want)
		}
	}
}
