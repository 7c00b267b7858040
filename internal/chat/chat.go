// Package chat defines the chat platform as seen by the dispatcher.
package chat

import "context"

type Origin int

const (
	// FromPlatform messages come from the chat platform.
	FromPlatform Origin = iota
	// Console messages come from the local operator (HTTP API).
	Console
)

func (o Origin) String() string {
	if o == Console {
		return "console"
	}
	return "platform"
}

type Message struct {
	ChannelID string
	AuthorID  string
	Author    string
	Body      string
	Origin    Origin
	// Self is set when the platform authenticated the author as this bot.
	Self bool
}

// Platform is the outbound side of the chat platform.
type Platform interface {
	// Send posts text to channelID and returns the new message id.
	Send(ctx context.Context, channelID, text string) (string, error)
	Delete(ctx context.Context, channelID, messageID string) error
	// Typing shows a typing indicator in channelID for a few seconds.
	Typing(ctx context.Context, channelID string) error
}
