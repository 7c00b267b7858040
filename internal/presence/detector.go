// Package presence turns voice-channel membership updates into power
// lifecycle triggers.
//
// A Transition is one user's voice state change. Only joins (no channel to
// some channel) and leaves (some channel to no channel) move the listener
// count; switching channels or toggling mute does not. The Detector reports
// an Edge when the count crosses zero in either direction.
package presence

import "math"

// Transition is one user's voice state change. An empty channel id means
// the user was (or is) not connected.
type Transition struct {
	Previous string
	Current  string
}

type Kind int

const (
	Ignored Kind = iota
	Joined
	Left
)

// Kind classifies the transition.
func (t Transition) Kind() Kind {
	switch {
	case t.Previous == "" && t.Current != "":
		return Joined
	case t.Previous != "" && t.Current == "":
		return Left
	default:
		return Ignored
	}
}

type Edge int

const (
	None Edge = iota
	Activate
	Deactivate
)

func (e Edge) String() string {
	switch e {
	case Activate:
		return "activate"
	case Deactivate:
		return "deactivate"
	default:
		return "none"
	}
}

// Detector counts connected listeners. The zero value is ready to use. It is
// not safe for concurrent use.
type Detector struct {
	count uint
}

// Observe applies t and reports whether the count crossed zero.
func (d *Detector) Observe(t Transition) Edge {
	before := d.count
	switch t.Kind() {
	case Joined:
		if d.count < math.MaxUint {
			d.count++
		}
	case Left:
		if d.count > 0 {
			d.count--
		}
	default:
		return None
	}

	switch {
	case before == 0 && d.count > 0:
		return Activate
	case before > 0 && d.count == 0:
		return Deactivate
	default:
		return None
	}
}

// Count returns the number of connected listeners.
func (d *Detector) Count() uint {
	return d.count
}
