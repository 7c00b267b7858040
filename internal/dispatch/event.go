package dispatch

import (
	"github.com/nwtnni/mc-suite/internal/chat"
	"github.com/nwtnni/mc-suite/internal/presence"
)

// Event is anything the dispatcher consumes: ChatMessage, ServerLine,
// ConsoleLine, VoiceTransition, Shutdown or StatusRequest.
type Event interface {
	event()
}

// ChatMessage is a message from the chat platform or the operator.
type ChatMessage struct {
	chat.Message
}

// ServerLine is one line of server output.
type ServerLine struct {
	Line string
}

// ConsoleLine is an operator command forwarded verbatim to the server.
type ConsoleLine struct {
	Line string
}

// VoiceTransition is one user's voice state change.
type VoiceTransition struct {
	presence.Transition
}

// Shutdown asks the dispatcher to stop the server and exit.
type Shutdown struct {
	Reason string
}

// StatusRequest asks for a snapshot of the dispatcher's state. Reply must
// have room for one value.
type StatusRequest struct {
	Reply chan<- Status
}

type Status struct {
	Online    []string `json:"online"`
	Count     int      `json:"count"`
	Listeners uint     `json:"listeners"`
	Power     string   `json:"power,omitempty"`
}

func (ChatMessage) event()     {}
func (ServerLine) event()      {}
func (ConsoleLine) event()     {}
func (VoiceTransition) event() {}
func (Shutdown) event()        {}
func (StatusRequest) event()   {}
