package issues

import (
	"fmt"
	"strings"

	"xenios/compat/internal/schema"
)

// CategoryLabel marks every compatibility thread; discovery lists open
// issues carrying it.
const CategoryLabel = "compat-report"

var statusEmoji = map[string]string{
	schema.StatusPlayable: "✅",
	schema.StatusInGame:   "\U0001F7E6",
	schema.StatusIntro:    "\U0001F7E8",
	schema.StatusLoads:    "\U0001F7E7",
	schema.StatusNothing:  "\U0001F534",
}

var sourceFooters = map[string]string{
	"app":     "*Submitted via XeniOS in-app reporter*",
	"discord": "*Submitted via Discord /report*",
	"github":  "*Submitted via GitHub issue*",
}

// IssueTitle is the thread title for a game; discovery matches on the
// "<titleId> " prefix, so the separator is load-bearing.
func IssueTitle(report schema.Report) string {
	return fmt.Sprintf("%s — %s", report.TitleID, report.Title)
}

// TitleMatchesGame reports whether an existing issue title belongs to the
// given title ID.
func TitleMatchesGame(issueTitle, titleID string) bool {
	return strings.HasPrefix(issueTitle, titleID+" ")
}

// BuildBody renders a report as the markdown body used for both new
// threads and follow-up comments.
func BuildBody(report schema.Report) string {
	platform := schema.PlatformLabel(report.Platform)

	lines := []string{
		"## Compatibility Report",
		"",
		"| Field | Value |",
		"|-------|-------|",
		fmt.Sprintf("| **Title** | %s |", report.Title),
		fmt.Sprintf("| **Title ID** | `%s` |", report.TitleID),
		fmt.Sprintf("| **Status** | %s %s |", statusEmoji[report.Status], report.Status),
		fmt.Sprintf("| **Performance** | %s |", report.Perf),
		fmt.Sprintf("| **Platform** | %s |", platform),
		fmt.Sprintf("| **Device** | %s |", report.Device),
		fmt.Sprintf("| **OS Version** | %s %s |", platform, report.OSVersion),
		fmt.Sprintf("| **Architecture** | %s |", report.Arch),
		fmt.Sprintf("| **GPU Backend** | %s |", strings.ToUpper(report.GPUBackend)),
		"",
		"### Notes",
		report.Notes,
	}
	if report.ImageURL != "" {
		lines = append(lines, "", fmt.Sprintf("![screenshot](%s)", report.ImageURL))
	}
	lines = append(lines, "", "---")
	if footer, ok := sourceFooters[report.Source]; ok {
		lines = append(lines, footer)
	} else {
		lines = append(lines, "*Submitted via the compatibility API*")
	}
	return strings.Join(lines, "\n")
}

// Labels returns the full label set for a fresh thread.
func Labels(report schema.Report) []string {
	return []string{
		CategoryLabel,
		"state:" + report.Status,
		"perf:" + report.Perf,
		"platform:" + report.Platform,
		"gpu:" + report.GPUBackend,
	}
}

// MergeLabels computes the replacement label set for an existing thread:
// state: and perf: labels reflect the new report, everything else is
// preserved. Applying it twice with the same report is a no-op.
func MergeLabels(existing []string, report schema.Report) []string {
	var kept []string
	seen := make(map[string]struct{})
	for _, l := range existing {
		if strings.HasPrefix(l, "state:") || strings.HasPrefix(l, "perf:") {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		kept = append(kept, l)
	}
	for _, l := range Labels(report) {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		kept = append(kept, l)
	}
	return kept
}
