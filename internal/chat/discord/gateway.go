// Package discord connects the dispatcher to a Discord bot session.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/nwtnni/mc-suite/internal/chat"
	"github.com/nwtnni/mc-suite/internal/dispatch"
	"github.com/nwtnni/mc-suite/internal/presence"
)

// MaxMessageLength is Discord's limit on message content, in characters.
const MaxMessageLength = 2000

type Options struct {
	// Channels whose messages are relayed. Empty relays no messages.
	Channels []string
	// Voice relays voice state updates.
	Voice  bool
	Logger *log.Logger
}

// Gateway is both an event source for the dispatcher and its chat.Platform.
type Gateway struct {
	session  *discordgo.Session
	channels map[string]bool
	voice    bool
	log      *log.Logger
}

func New(token string, opts Options) (*Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuilds
	if len(opts.Channels) > 0 {
		session.Identify.Intents |= discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	}
	if opts.Voice {
		session.Identify.Intents |= discordgo.IntentGuildVoiceStates
	}
	// Handlers run in gateway order, one at a time, so a full queue stalls
	// the gateway instead of reordering events.
	session.SyncEvents = true

	channels := make(map[string]bool, len(opts.Channels))
	for _, id := range opts.Channels {
		channels[id] = true
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{session: session, channels: channels, voice: opts.Voice, log: logger}, nil
}

// Run opens the gateway and relays events to queue until ctx is cancelled
// or an event cannot be enqueued.
func (g *Gateway) Run(ctx context.Context, queue dispatch.Sender) error {
	errs := make(chan error, 1)
	fail := func(err error) {
		if ctx.Err() != nil {
			return
		}
		select {
		case errs <- err:
		default:
		}
	}

	removeMessages := g.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if ev, ok := g.message(s, m); ok {
			if err := queue.Send(ctx, ev); err != nil {
				fail(err)
			}
		}
	})
	defer removeMessages()

	if g.voice {
		removeVoice := g.session.AddHandler(func(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
			if err := queue.Send(ctx, voiceTransition(v)); err != nil {
				fail(err)
			}
		})
		defer removeVoice()
	}

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer g.session.Close()
	g.log.Info("discord gateway open")

	select {
	case <-ctx.Done():
		return nil
	case err := <-errs:
		return fmt.Errorf("relay discord event: %w", err)
	}
}

func (g *Gateway) message(s *discordgo.Session, m *discordgo.MessageCreate) (dispatch.ChatMessage, bool) {
	if m.Author == nil || !g.channels[m.ChannelID] {
		return dispatch.ChatMessage{}, false
	}
	self := s.State != nil && s.State.User != nil && s.State.User.ID == m.Author.ID
	return dispatch.ChatMessage{Message: chat.Message{
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Author:    m.Author.Username,
		Body:      m.Content,
		Origin:    chat.FromPlatform,
		Self:      self,
	}}, true
}

func voiceTransition(v *discordgo.VoiceStateUpdate) dispatch.VoiceTransition {
	var t presence.Transition
	if v.BeforeUpdate != nil {
		t.Previous = v.BeforeUpdate.ChannelID
	}
	if v.VoiceState != nil {
		t.Current = v.ChannelID
	}
	return dispatch.VoiceTransition{Transition: t}
}

func (g *Gateway) Send(ctx context.Context, channelID, text string) (string, error) {
	msg, err := g.session.ChannelMessageSend(channelID, truncate(text), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

func (g *Gateway) Delete(ctx context.Context, channelID, messageID string) error {
	err := g.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == 404 {
		// Someone deleted it first.
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", messageID, err)
	}
	return nil
}

func (g *Gateway) Typing(ctx context.Context, channelID string) error {
	if err := g.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("typing in %s: %w", channelID, err)
	}
	return nil
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxMessageLength {
		return text
	}
	return string(runes[:MaxMessageLength-1]) + "…"
}

var _ chat.Platform = (*Gateway)(nil)
