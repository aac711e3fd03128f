// Package games holds the canonical compatibility dataset: the entity
// model, the pure merge engine, and the document store client that reads
// and conditionally writes the hosted JSON array.
package games

import (
	"regexp"
	"strings"
)

// Report is one immutable compatibility submission as stored in a game's
// history. reports[0] is always the most recent submission.
type Report struct {
	Device     string `json:"device"`
	Platform   string `json:"platform"`
	OSVersion  string `json:"osVersion"`
	Arch       string `json:"arch"`
	GPUBackend string `json:"gpuBackend"`
	Status     string `json:"status"`
	Date       string `json:"date"`
	Notes      string `json:"notes"`
}

// LastReport is the device snapshot of the most recent report, projected
// onto the game record for list views.
type LastReport struct {
	Device     string `json:"device"`
	Platform   string `json:"platform"`
	OSVersion  string `json:"osVersion"`
	Arch       string `json:"arch"`
	GPUBackend string `json:"gpuBackend"`
}

// RecommendedSettings carries the in-app settings suggestion for a game.
type RecommendedSettings struct {
	Resolution string `json:"resolution"`
	Framerate  string `json:"framerate"`
}

// Game is one emulated title's aggregate compatibility record. The
// projection fields (status, perf, notes, updatedAt, lastReport) always
// mirror reports[0]; platforms and tags only ever grow.
type Game struct {
	Slug                string              `json:"slug"`
	Title               string              `json:"title"`
	TitleID             string              `json:"titleId"`
	Status              string              `json:"status"`
	Perf                string              `json:"perf"`
	Tags                []string            `json:"tags"`
	Platforms           []string            `json:"platforms"`
	LastReport          LastReport          `json:"lastReport"`
	UpdatedAt           string              `json:"updatedAt"`
	Notes               string              `json:"notes"`
	RecommendedSettings RecommendedSettings `json:"recommendedSettings"`
	Reports             []Report            `json:"reports"`
	Screenshots         []string            `json:"screenshots"`
}

var slugRuns = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the URL-safe slug for a title. Stable once created:
// the merge engine only calls this when synthesizing a new record.
func Slugify(title string) string {
	slug := slugRuns.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
