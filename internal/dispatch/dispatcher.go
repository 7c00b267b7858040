// Package dispatch merges every event source into one ordered loop.
//
// Adapters (chat gateway, server output, console, shutdown listener, HTTP
// API) push events into a single bounded Queue. The Dispatcher consumes
// them one at a time, to completion, and is the only code that touches the
// online players, the voice listener count and the power state. That
// serialization is the whole synchronization story: none of that state is
// locked.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/nwtnni/mc-suite/internal/chat"
	"github.com/nwtnni/mc-suite/internal/game"
	"github.com/nwtnni/mc-suite/internal/power"
	"github.com/nwtnni/mc-suite/internal/presence"
)

const onlineCommand = "!online"

// Server is the wrapped game server's console.
type Server interface {
	WriteLine(line string) error
	Shutdown() error
}

// Power is the remote instance lifecycle.
type Power interface {
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
	State() power.State
}

// Journal persists player sessions and power transitions.
type Journal interface {
	RecordPlayer(ctx context.Context, player, action string) error
	RecordPower(ctx context.Context, from, to string) error
}

// LineSink receives every raw server line.
type LineSink interface {
	WriteLine(ctx context.Context, line string) error
}

// Config wires the dispatcher. Chat is required; every other collaborator
// is optional and its routing rules are skipped when it is nil.
type Config struct {
	Chat           chat.Platform
	GeneralChannel string
	// IgnoredAuthors are display names never relayed, in addition to
	// messages the platform authenticated as our own.
	IgnoredAuthors []string

	Adapter game.Adapter
	Server  Server
	Verbose []LineSink

	Power   Power
	Journal Journal

	// PowerOff runs after the server stopped on a shutdown request.
	PowerOff func(ctx context.Context) error

	Logger *log.Logger
}

type Dispatcher struct {
	cfg      Config
	queue    *Queue
	players  *game.Players
	presence presence.Detector
	log      *log.Logger
}

func New(queue *Queue, cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		cfg:     cfg,
		queue:   queue,
		players: game.NewPlayers(),
		log:     logger,
	}
}

// Run consumes events until ctx is cancelled, a shutdown event has been
// handled, or handling an event fails. The queue is closed on return.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.queue.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-d.queue.events:
			stop, err := d.handle(ctx, ev)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) (stop bool, err error) {
	switch ev := ev.(type) {
	case ChatMessage:
		return false, d.chatMessage(ctx, ev.Message)
	case ServerLine:
		return false, d.serverLine(ctx, ev.Line)
	case ConsoleLine:
		return false, d.consoleLine(ev.Line)
	case VoiceTransition:
		return false, d.voice(ctx, ev.Transition)
	case StatusRequest:
		select {
		case ev.Reply <- d.status():
		default:
			d.log.Warn("status reply dropped")
		}
		return false, nil
	case Shutdown:
		return true, d.shutdown(ctx, ev.Reason)
	default:
		return false, fmt.Errorf("unknown event %T", ev)
	}
}

func (d *Dispatcher) chatMessage(ctx context.Context, msg chat.Message) error {
	if msg.Self || lo.Contains(d.cfg.IgnoredAuthors, msg.Author) {
		return nil
	}

	if strings.TrimSpace(msg.Body) == onlineCommand {
		text := onlineText(d.players.List())
		if msg.Origin == chat.Console {
			d.log.Info(text)
			return nil
		}
		channel := msg.ChannelID
		if channel == "" {
			channel = d.cfg.GeneralChannel
		}
		if _, err := d.cfg.Chat.Send(ctx, channel, text); err != nil {
			return fmt.Errorf("answer %s: %w", onlineCommand, err)
		}
		return nil
	}

	if d.cfg.Server == nil {
		return nil
	}
	return d.cfg.Server.WriteLine(d.cfg.Adapter.SayCommand(msg.Author, msg.Body))
}

func onlineText(count int, names []string) string {
	if count == 0 {
		return "Nobody is online."
	}
	return fmt.Sprintf("%d online: %s", count, strings.Join(names, ", "))
}

func (d *Dispatcher) serverLine(ctx context.Context, line string) error {
	for _, sink := range d.cfg.Verbose {
		if err := sink.WriteLine(ctx, line); err != nil {
			return fmt.Errorf("verbose relay: %w", err)
		}
	}

	if d.cfg.Adapter == nil {
		return nil
	}
	event, ok := d.cfg.Adapter.ParseLogLine(line)
	if !ok {
		return nil
	}

	d.players.Apply(event)
	switch event.(type) {
	case game.Join:
		d.recordPlayer(ctx, event.Player(), "join")
	case game.Quit:
		d.recordPlayer(ctx, event.Player(), "quit")
	}

	if _, err := d.cfg.Chat.Send(ctx, d.cfg.GeneralChannel, event.String()); err != nil {
		return fmt.Errorf("relay event: %w", err)
	}
	return nil
}

func (d *Dispatcher) consoleLine(line string) error {
	if d.cfg.Server == nil {
		d.log.Warn("no server to receive console input", "line", line)
		return nil
	}
	return d.cfg.Server.WriteLine(line)
}

func (d *Dispatcher) voice(ctx context.Context, t presence.Transition) error {
	edge := d.presence.Observe(t)
	d.log.Debug("voice transition", "listeners", d.presence.Count(), "edge", edge)

	if d.cfg.Power == nil {
		return nil
	}
	switch edge {
	case presence.Activate:
		return d.changePower(ctx, power.Stopped, d.cfg.Power.Activate,
			"Server is starting...", "Server is up.")
	case presence.Deactivate:
		return d.changePower(ctx, power.Running, d.cfg.Power.Deactivate,
			"Server is stopping...", "Server is down.")
	}
	return nil
}

// changePower runs change if the power state is from, with a transient
// notice in the general channel while it is in progress.
func (d *Dispatcher) changePower(ctx context.Context, from power.State, change func(context.Context) error, pending, done string) error {
	if d.cfg.Power.State() != from {
		return nil
	}

	if err := d.cfg.Chat.Typing(ctx, d.cfg.GeneralChannel); err != nil {
		d.log.Warn("typing indicator failed", "err", err)
	}
	notice, err := d.cfg.Chat.Send(ctx, d.cfg.GeneralChannel, pending)
	if err != nil {
		return fmt.Errorf("post notice: %w", err)
	}

	if err := change(ctx); err != nil {
		if ctx.Err() != nil {
			d.log.Info("power change interrupted", "err", err)
			return nil
		}
		return err
	}
	to := d.cfg.Power.State()
	d.recordPower(ctx, from, to)

	if err := d.cfg.Chat.Delete(ctx, d.cfg.GeneralChannel, notice); err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	if _, err := d.cfg.Chat.Send(ctx, d.cfg.GeneralChannel, done); err != nil {
		return fmt.Errorf("post status: %w", err)
	}
	return nil
}

func (d *Dispatcher) shutdown(ctx context.Context, reason string) error {
	d.log.Info("shutdown requested", "reason", reason)

	if d.cfg.Server != nil {
		if err := d.cfg.Server.Shutdown(); err != nil {
			d.log.Warn("server shutdown", "err", err)
		}
	}
	if d.cfg.PowerOff != nil {
		// Other tasks may already be tearing down; powering off must not
		// be cut short by that.
		if err := d.cfg.PowerOff(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("power off: %w", err)
		}
	}
	return nil
}

func (d *Dispatcher) status() Status {
	count, names := d.players.List()
	s := Status{Online: names, Count: count, Listeners: d.presence.Count()}
	if d.cfg.Power != nil {
		s.Power = d.cfg.Power.State().String()
	}
	return s
}

func (d *Dispatcher) recordPlayer(ctx context.Context, player, action string) {
	if d.cfg.Journal == nil {
		return
	}
	if err := d.cfg.Journal.RecordPlayer(ctx, player, action); err != nil {
		d.log.Warn("journal player event", "player", player, "err", err)
	}
}

func (d *Dispatcher) recordPower(ctx context.Context, from, to power.State) {
	if d.cfg.Journal == nil || from == to {
		return
	}
	if err := d.cfg.Journal.RecordPower(ctx, from.String(), to.String()); err != nil {
		d.log.Warn("journal power event", "err", err)
	}
}
