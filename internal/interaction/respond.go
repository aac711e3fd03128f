package interaction

import (
	"encoding/json"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Pong answers a handshake probe.
func Pong() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
}

// Ephemeral sends a private message to the invoking user. All command
// replies and errors are ephemeral; announcements go through the channel
// webhook instead.
func Ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

// Deferred acknowledges within the platform's three-second window; the final
// outcome patches this placeholder once the pipeline finishes.
func Deferred() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}
}

// ReportModal builds the free-text form completing a /report command.
// customID carries the pending-session key back on submission.
func ReportModal(customID string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID,
			Title:    "XeniOS Compatibility Report",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "title_id",
						Label:       "Title ID",
						Style:       discordgo.TextInputShort,
						Placeholder: "e.g., 4D5307E6",
						MinLength:   1,
						MaxLength:   16,
						Required:    true,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "game_name",
						Label:       "Game Name",
						Style:       discordgo.TextInputShort,
						Placeholder: "e.g., Halo 3",
						MinLength:   1,
						MaxLength:   100,
						Required:    true,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "notes",
						Label:       "Notes",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "Describe what works, what doesn't, and any workarounds...",
						MinLength:   1,
						MaxLength:   1000,
						Required:    true,
					},
				}},
			},
		},
	}
}

// Write serializes an interaction response onto the HTTP reply.
func Write(w http.ResponseWriter, response *discordgo.InteractionResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
