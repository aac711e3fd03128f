// Package interaction is the boundary to the Discord interactions
// webhook: request verification, parsing of the platform payload into a
// closed set of variants, and response builders. The raw payload never
// leaves this package.
package interaction

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Event is one parsed inbound interaction. Exactly one of Ping, Command,
// or FormSubmit.
type Event interface {
	isEvent()
}

// Ping is the platform's handshake probe.
type Ping struct{}

// Command is a slash command invocation with its structured options.
type Command struct {
	ID            string
	Name          string
	Options       map[string]string
	AttachmentURL string
	Submitter     string
}

// FormSubmit is a modal submission; CorrelationID carries the session key
// the originating command embedded in the modal's custom id. AppID and
// Token address the deferred response for the later patch.
type FormSubmit struct {
	CorrelationID string
	Fields        map[string]string
	Submitter     string
	AppID         string
	Token         string
}

func (Ping) isEvent()       {}
func (Command) isEvent()    {}
func (FormSubmit) isEvent() {}

// ParseKey decodes the hex-encoded Ed25519 verification key.
func ParseKey(hexKey string) (ed25519.PublicKey, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return ed25519.PublicKey(key), nil
}

// Verify checks the request signature headers against the raw body. It
// must run before any interaction semantics: the signature doubles as
// CSRF protection for an otherwise open endpoint.
func Verify(r *http.Request, key ed25519.PublicKey) bool {
	return discordgo.VerifyInteraction(r, key)
}

// Parse maps a decoded interaction onto the internal variant set.
func Parse(in *discordgo.Interaction) (Event, error) {
	switch in.Type {
	case discordgo.InteractionPing:
		return Ping{}, nil

	case discordgo.InteractionApplicationCommand:
		data := in.ApplicationCommandData()
		cmd := Command{
			ID:        in.ID,
			Name:      data.Name,
			Options:   make(map[string]string, len(data.Options)),
			Submitter: submitter(in),
		}
		for _, opt := range data.Options {
			switch opt.Type {
			case discordgo.ApplicationCommandOptionAttachment:
				id, ok := opt.Value.(string)
				if !ok || data.Resolved == nil {
					continue
				}
				if att, ok := data.Resolved.Attachments[id]; ok {
					cmd.AttachmentURL = att.URL
				}
			default:
				if value, ok := opt.Value.(string); ok {
					cmd.Options[opt.Name] = value
				}
			}
		}
		return cmd, nil

	case discordgo.InteractionModalSubmit:
		data := in.ModalSubmitData()
		submit := FormSubmit{
			CorrelationID: data.CustomID,
			Fields:        make(map[string]string),
			Submitter:     submitter(in),
			AppID:         in.AppID,
			Token:         in.Token,
		}
		for _, row := range data.Components {
			actionsRow, ok := row.(*discordgo.ActionsRow)
			if !ok {
				continue
			}
			for _, component := range actionsRow.Components {
				if input, ok := component.(*discordgo.TextInput); ok {
					submit.Fields[input.CustomID] = input.Value
				}
			}
		}
		return submit, nil
	}

	return nil, fmt.Errorf("unsupported interaction type %d", in.Type)
}

func submitter(in *discordgo.Interaction) string {
	if in.Member != nil && in.Member.User != nil {
		return in.Member.User.Username
	}
	if in.User != nil {
		return in.User.Username
	}
	return ""
}
