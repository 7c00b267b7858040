package game

import (
	"slices"

	"github.com/samber/lo"
)

// Players is the set of players currently online. It is not safe for
// concurrent use; the dispatcher is its only reader and writer.
type Players struct {
	online map[string]struct{}
}

func NewPlayers() *Players {
	return &Players{online: make(map[string]struct{})}
}

func (p *Players) Join(name string) {
	p.online[name] = struct{}{}
}

func (p *Players) Quit(name string) {
	delete(p.online, name)
}

// Apply updates the set from a log event. Only Join and Quit change it.
func (p *Players) Apply(event Event) {
	switch e := event.(type) {
	case Join:
		p.Join(e.Name)
	case Quit:
		p.Quit(e.Name)
	}
}

func (p *Players) Contains(name string) bool {
	_, ok := p.online[name]
	return ok
}

// List returns the number of players online and their names, sorted.
func (p *Players) List() (int, []string) {
	names := lo.Keys(p.online)
	slices.Sort(names)
	return len(names), names
}
