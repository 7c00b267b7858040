package game

import "fmt"

// Event is a structured server log event: one of Join, Quit, Achievement
// or Chat. String renders the sentence relayed to the chat platform.
type Event interface {
	fmt.Stringer
	Player() string
	event()
}

type Join struct {
	Name string
}

type Quit struct {
	Name string
}

type Achievement struct {
	Name string
	Text string
}

type Chat struct {
	Name string
	Text string
}

func (e Join) Player() string        { return e.Name }
func (e Quit) Player() string        { return e.Name }
func (e Achievement) Player() string { return e.Name }
func (e Chat) Player() string        { return e.Name }

func (e Join) String() string { return e.Name + " has joined the server!" }
func (e Quit) String() string { return e.Name + " has left the server." }
func (e Achievement) String() string {
	return fmt.Sprintf("%s unlocked achievement [%s]!", e.Name, e.Text)
}
func (e Chat) String() string { return fmt.Sprintf("[%s]: %s", e.Name, e.Text) }

func (Join) event()        {}
func (Quit) event()        {}
func (Achievement) event() {}
func (Chat) event()        {}
