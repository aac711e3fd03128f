package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"xenios/compat/internal/games"
	"xenios/compat/internal/interaction"
	"xenios/compat/internal/notify"
	"xenios/compat/internal/schema"
	"xenios/compat/internal/session"
)

const (
	modalPrefix = "report:"
	lookupLimit = 5
)

const supportMessage = "Need help with XeniOS?\n" +
	"- Compatibility list: https://xenios.jp/compatibility\n" +
	"- FAQ: https://xenios.jp/faq\n" +
	"- Submit a report with `/report`, look up a game with `/lookup`."

// handleDiscord drives the interaction state machine. The signature has
// already been verified by the router; this only sees a raw body.
func (s *HTTPServer) handleDiscord(w http.ResponseWriter, r *http.Request) {
	var in discordgo.Interaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid interaction payload")
		return
	}

	event, err := interaction.Parse(&in)
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_INTERACTION", err.Error())
		return
	}

	switch ev := event.(type) {
	case interaction.Ping:
		interaction.Write(w, interaction.Pong())
	case interaction.Command:
		s.handleCommand(w, r.Context(), ev)
	case interaction.FormSubmit:
		s.handleFormSubmit(w, r.Context(), ev)
	}
}

func (s *HTTPServer) handleCommand(w http.ResponseWriter, ctx context.Context, cmd interaction.Command) {
	switch cmd.Name {
	case "support":
		interaction.Write(w, interaction.Ephemeral(supportMessage))

	case "lookup":
		list, err := s.service.Games(ctx)
		if err != nil {
			interaction.Write(w, interaction.Ephemeral("❌ Could not load the compatibility list, please try again later."))
			return
		}
		interaction.Write(w, interaction.Ephemeral(lookupContent(list, cmd.Options["query"])))

	case "report":
		pending := session.PendingReport{
			Status:        cmd.Options["status"],
			Perf:          cmd.Options["perf"],
			Device:        cmd.Options["device"],
			OSVersion:     cmd.Options["os_version"],
			Arch:          cmd.Options["arch"],
			GPUBackend:    cmd.Options["gpu"],
			Submitter:     cmd.Submitter,
			AttachmentURL: cmd.AttachmentURL,
		}
		if err := s.service.sessions.Put(ctx, cmd.ID, pending); err != nil {
			log.Printf("session: store pending report: %v", err)
			interaction.Write(w, interaction.Ephemeral("❌ Could not start the report, please try again."))
			return
		}
		interaction.Write(w, interaction.ReportModal(modalPrefix+cmd.ID))

	default:
		interaction.Write(w, interaction.Ephemeral(fmt.Sprintf("Unknown command `/%s`.", cmd.Name)))
	}
}

func (s *HTTPServer) handleFormSubmit(w http.ResponseWriter, ctx context.Context, submit interaction.FormSubmit) {
	if !strings.HasPrefix(submit.CorrelationID, modalPrefix) {
		interaction.Write(w, interaction.Ephemeral("❌ Invalid submission. Please use the `/report` command again."))
		return
	}
	key := strings.TrimPrefix(submit.CorrelationID, modalPrefix)

	pending, err := s.service.sessions.Take(ctx, key)
	if errors.Is(err, session.ErrNotFound) {
		interaction.Write(w, interaction.Ephemeral("⌛ Your report session expired. Please run `/report` again."))
		return
	}
	if err != nil {
		log.Printf("session: take pending report: %v", err)
		interaction.Write(w, interaction.Ephemeral("❌ Could not resume the report, please run `/report` again."))
		return
	}

	raw := schema.RawReport{
		TitleID:    submit.Fields["title_id"],
		Title:      submit.Fields["game_name"],
		Status:     pending.Status,
		Perf:       pending.Perf,
		Platform:   schema.InferPlatform(pending.Device),
		Device:     pending.Device,
		OSVersion:  pending.OSVersion,
		Arch:       pending.Arch,
		GPUBackend: pending.GPUBackend,
		Notes:      submit.Fields["notes"],
	}

	report, err := schema.Validate(raw)
	if err != nil {
		interaction.Write(w, interaction.Ephemeral("❌ Validation error: "+err.Error()))
		return
	}
	report.Source = "discord"
	report.Submitter = firstNonBlank(pending.Submitter, submit.Submitter)
	report.ImageURL = pending.AttachmentURL

	// Acknowledge inside the platform's three-second window; the slow part
	// runs detached and patches this placeholder when it finishes.
	appID, token := submit.AppID, submit.Token
	s.service.spawn(func(ctx context.Context) {
		result, err := s.service.ProcessReport(ctx, report)

		var content string
		if err != nil {
			content = "❌ Failed to process report: " + err.Error()
		} else {
			content = fmt.Sprintf("✅ **%s** — %s", result.Game, notify.StatusBadge(result.Status))
			if result.IssueURL != "" {
				content += "\n[View on GitHub](" + result.IssueURL + ")"
			}
		}
		if err := s.service.followup.EditOriginal(ctx, appID, token, content); err != nil {
			log.Printf("discord: deferred follow-up failed: %v", err)
		}
	})

	interaction.Write(w, interaction.Deferred())
}

// lookupContent renders the /lookup reply: an aggregate summary without a
// query, otherwise up to five best matches.
func lookupContent(list []games.Game, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		counts := make(map[string]int)
		for _, game := range list {
			counts[game.Status]++
		}
		parts := make([]string, 0, len(schema.StatusOrder))
		for _, status := range schema.StatusOrder {
			if counts[status] > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", notify.StatusBadge(status), counts[status]))
			}
		}
		if len(parts) == 0 {
			return "No compatibility reports yet."
		}
		return fmt.Sprintf("Tracking **%d** games: %s", len(list), strings.Join(parts, " · "))
	}

	needle := strings.ToLower(query)
	var lines []string
	for _, game := range list {
		if !strings.Contains(strings.ToLower(game.Title), needle) &&
			!strings.Contains(strings.ToLower(game.TitleID), needle) {
			continue
		}
		lines = append(lines, fmt.Sprintf("`%s` **%s** — %s · %s (%s)",
			game.TitleID, game.Title, notify.StatusBadge(game.Status), game.Perf, game.UpdatedAt))
		if len(lines) == lookupLimit {
			break
		}
	}
	if len(lines) == 0 {
		return fmt.Sprintf("No games matching `%s`.", query)
	}
	return strings.Join(lines, "\n")
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
