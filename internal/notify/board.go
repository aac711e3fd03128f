package notify

import (
	"fmt"
	"strings"

	"xenios/compat/internal/games"
	"xenios/compat/internal/schema"
)

// boardLimit is the embed description cap. One message, truncated with a
// trailer when the list outgrows it; never split across messages.
const boardLimit = 4096

// BuildBoard renders the board text: every game grouped by status in
// severity order, best first.
func BuildBoard(list []games.Game, siteBaseURL string) string {
	if len(list) == 0 {
		return "No compatibility reports yet."
	}

	grouped := make(map[string][]games.Game)
	for _, game := range list {
		grouped[game.Status] = append(grouped[game.Status], game)
	}

	var b strings.Builder
	for _, status := range schema.StatusOrder {
		group := grouped[status]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "**%s** (%d)\n", StatusBadge(status), len(group))
		for _, game := range group {
			fmt.Fprintf(&b, "- [%s](%s/compatibility/%s) — %s\n", game.Title, siteBaseURL, game.Slug, game.LastReport.Device)
		}
		b.WriteString("\n")
	}

	return truncateBoard(strings.TrimRight(b.String(), "\n"), siteBaseURL)
}

func truncateBoard(text, siteBaseURL string) string {
	if len(text) <= boardLimit {
		return text
	}
	trailer := fmt.Sprintf("\n…\n[See the full list](%s/compatibility)", siteBaseURL)
	cut := boardLimit - len(trailer)
	// Cut on a line boundary so no entry renders half-written.
	if idx := strings.LastIndexByte(text[:cut], '\n'); idx > 0 {
		cut = idx
	}
	return text[:cut] + trailer
}
