package interaction

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Followup patches the deferred acknowledgement of a form submission with
// the pipeline outcome. Webhook-style endpoints authenticate with the
// interaction token itself, so the session carries no bot credentials.
type Followup struct {
	session *discordgo.Session
}

// NewFollowup prepares a REST-only session for response edits.
func NewFollowup() (*Followup, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Followup{session: session}, nil
}

// EditOriginal replaces the content of the original deferred response.
func (f *Followup) EditOriginal(ctx context.Context, appID, token, content string) error {
	_, err := f.session.WebhookMessageEdit(appID, token, "@original", &discordgo.WebhookEdit{
		Content: &content,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit deferred response: %w", err)
	}
	return nil
}
