// Package notify posts the Discord projections of the canonical dataset:
// a rich announcement per report and a rolling status board. Both are
// best-effort; a failed post never unwinds a committed report.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"xenios/compat/internal/games"
	"xenios/compat/internal/schema"
)

var statusColors = map[string]int{
	schema.StatusPlayable: 0x34d399,
	schema.StatusInGame:   0x60a5fa,
	schema.StatusIntro:    0xfbbf24,
	schema.StatusLoads:    0xfb923c,
	schema.StatusNothing:  0xf87171,
}

var statusBadges = map[string]string{
	schema.StatusPlayable: "✅ Playable",
	schema.StatusInGame:   "\U0001F7E6 In-Game",
	schema.StatusIntro:    "\U0001F7E8 Intro",
	schema.StatusLoads:    "\U0001F7E7 Loads",
	schema.StatusNothing:  "\U0001F534 Nothing",
}

var perfBadges = map[string]string{
	schema.PerfGreat: "\U0001F680 Great",
	schema.PerfOK:    "\U0001F44C OK",
	schema.PerfPoor:  "\U0001F422 Poor",
	schema.PerfNA:    "N/A",
}

var platformBadges = map[string]string{
	schema.PlatformIOS:   "\U0001F4F1 iOS",
	schema.PlatformMacOS: "\U0001F5A5️ macOS",
}

var sourceNames = map[string]string{
	"app":     "XeniOS App",
	"discord": "Discord /report",
	"github":  "GitHub Issue",
}

// StatusBadge returns the emoji-prefixed label for a status value.
func StatusBadge(status string) string {
	if badge, ok := statusBadges[status]; ok {
		return badge
	}
	return status
}

// Discord posts to a channel webhook.
type Discord struct {
	session        *discordgo.Session
	webhookID      string
	webhookToken   string
	boardMessageID string
	siteBaseURL    string
}

// NewDiscord parses the webhook URL and prepares a REST-only session.
// boardMessageID may be empty on first run; see RefreshBoard.
func NewDiscord(webhookURL, boardMessageID, siteBaseURL string) (*Discord, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{
		session:        session,
		webhookID:      id,
		webhookToken:   token,
		boardMessageID: boardMessageID,
		siteBaseURL:    strings.TrimRight(siteBaseURL, "/"),
	}, nil
}

func parseWebhookURL(webhookURL string) (id, token string, err error) {
	u, err := url.Parse(webhookURL)
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// .../api/webhooks/<id>/<token>
	if len(parts) < 2 {
		return "", "", fmt.Errorf("webhook url missing id/token")
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// Announce posts one rich embed summarizing a freshly merged report.
func (d *Discord) Announce(ctx context.Context, report schema.Report, issueURL string) error {
	platform := schema.PlatformLabel(report.Platform)

	issueField := "N/A"
	if issueURL != "" {
		issueField = fmt.Sprintf("[View](%s)", issueURL)
	}

	embed := &discordgo.MessageEmbed{
		Title:       report.Title,
		Description: report.Notes,
		Color:       statusColors[report.Status],
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: StatusBadge(report.Status), Inline: true},
			{Name: "Performance", Value: perfBadges[report.Perf], Inline: true},
			{Name: "Title ID", Value: fmt.Sprintf("`%s`", report.TitleID), Inline: true},
			{Name: "Platform", Value: platformBadges[report.Platform], Inline: true},
			{Name: "Device", Value: report.Device, Inline: true},
			{Name: "OS Version", Value: fmt.Sprintf("%s %s", platform, report.OSVersion), Inline: true},
			{Name: "Architecture", Value: strings.ToUpper(report.Arch), Inline: true},
			{Name: "GPU Backend", Value: strings.ToUpper(report.GPUBackend), Inline: true},
			{Name: "GitHub Issue", Value: issueField, Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "XeniOS Compatibility Report • via " + sourceName(report.Source)},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if report.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: report.ImageURL}
	}

	_, err := d.session.WebhookExecute(d.webhookID, d.webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("post announcement: %w", err)
	}
	return nil
}

// RefreshBoard rebuilds the status board from the full game list. With a
// configured board message ID the message is edited in place; otherwise a
// new message is posted once and its ID logged for the operator to
// configure, so restarts don't proliferate duplicate boards.
func (d *Discord) RefreshBoard(ctx context.Context, list []games.Game) error {
	embed := &discordgo.MessageEmbed{
		Title:       "XeniOS Compatibility Board",
		Description: BuildBoard(list, d.siteBaseURL),
		Color:       0x5865f2,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d games tracked", len(list))},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	embeds := []*discordgo.MessageEmbed{embed}

	if d.boardMessageID != "" {
		_, err := d.session.WebhookMessageEdit(d.webhookID, d.webhookToken, d.boardMessageID, &discordgo.WebhookEdit{
			Embeds: &embeds,
		}, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("edit board message: %w", err)
		}
		return nil
	}

	message, err := d.session.WebhookExecute(d.webhookID, d.webhookToken, true, &discordgo.WebhookParams{
		Embeds: embeds,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("post board message: %w", err)
	}
	log.Printf("notify: posted new board message %s; set DISCORD_BOARD_MESSAGE_ID to pin it", message.ID)
	return nil
}

func sourceName(source string) string {
	if name, ok := sourceNames[source]; ok {
		return name
	}
	return source
}
