// Package power drives the remote instance hosting the game server through
// Stopped -> Starting -> Running -> Stopping -> Stopped.
//
// Every remote call is idempotent and progress is observed by polling the
// instance status at a fixed interval. Failed status polls are retried
// without bound; only the start and stop calls themselves are fatal. Polling
// stops as soon as the context is cancelled.
package power

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// Instance state codes, see
	// https://docs.aws.amazon.com/AWSEC2/latest/APIReference/API_InstanceState.html
	CodeRunning int32 = 16
	CodeStopped int32 = 80

	// The high byte of a state code is reserved for internal use.
	codeMask = 0xFF

	DefaultInterval = 5 * time.Second
)

// State is the power lifecycle state of the instance.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// InstanceStatus is one entry of a status response.
type InstanceStatus struct {
	ID   string
	Code int32
}

// Is reports whether the status is code, ignoring the reserved bits.
func (s InstanceStatus) Is(code int32) bool {
	return s.Code&codeMask == code
}

// API is the remote compute lifecycle API.
type API interface {
	StartInstance(ctx context.Context, id string) error
	StopInstance(ctx context.Context, id string, hibernate bool) error
	DescribeStatus(ctx context.Context, id string) ([]InstanceStatus, error)
}

type Options struct {
	InstanceID string
	// Interval between polls. Defaults to DefaultInterval.
	Interval time.Duration
	// Hibernate instead of stopping.
	Hibernate bool
	// SkipStop leaves stopping to the instance itself (e.g. the server
	// wrapper powering the host off) and only waits for it.
	SkipStop bool
	// ShutdownAddr is dialed until a connection succeeds before stopping;
	// the accepted connection asks the remote wrapper to stop the server.
	ShutdownAddr string
	// GameAddr, when set, must refuse connections before the instance is
	// stopped.
	GameAddr string
	Logger   *log.Logger
}

// Controller is not safe for concurrent use; the dispatcher owns it.
type Controller struct {
	api    API
	opts   Options
	state  State
	dialer net.Dialer
	log    *log.Logger
}

func NewController(api API, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		api:    api,
		opts:   opts,
		state:  Stopped,
		dialer: net.Dialer{Timeout: opts.Interval},
		log:    logger.With("instance", opts.InstanceID),
	}
}

func (c *Controller) State() State {
	return c.state
}

// Activate starts the instance and waits until it is running. It is a no-op
// unless the controller is Stopped.
func (c *Controller) Activate(ctx context.Context) error {
	if c.state != Stopped {
		return nil
	}
	c.state = Starting
	c.log.Info("starting instance")

	if err := c.api.StartInstance(ctx, c.opts.InstanceID); err != nil {
		c.state = Stopped
		return fmt.Errorf("start instance: %w", err)
	}
	if err := c.poll(ctx, "running", c.statusIs(CodeRunning)); err != nil {
		return err
	}

	c.state = Running
	c.log.Info("instance running")
	return nil
}

// Deactivate stops the instance and waits until it is stopped. It is a
// no-op unless the controller is Running.
func (c *Controller) Deactivate(ctx context.Context) error {
	if c.state != Running {
		return nil
	}
	c.state = Stopping
	c.log.Info("stopping instance")

	if c.opts.ShutdownAddr != "" {
		err := c.poll(ctx, "remote shutdown", func(ctx context.Context) (bool, error) {
			conn, err := c.dialer.DialContext(ctx, "tcp", c.opts.ShutdownAddr)
			if err != nil {
				return false, err
			}
			return true, conn.Close()
		})
		if err != nil {
			return err
		}
	}

	if c.opts.GameAddr != "" {
		err := c.poll(ctx, "game port closed", func(ctx context.Context) (bool, error) {
			return !Accepting(ctx, &c.dialer, c.opts.GameAddr), nil
		})
		if err != nil {
			return err
		}
	}

	if !c.opts.SkipStop {
		if err := c.api.StopInstance(ctx, c.opts.InstanceID, c.opts.Hibernate); err != nil {
			c.state = Running
			return fmt.Errorf("stop instance: %w", err)
		}
	}
	if err := c.poll(ctx, "stopped", c.statusIs(CodeStopped)); err != nil {
		return err
	}

	c.state = Stopped
	c.log.Info("instance stopped")
	return nil
}

func (c *Controller) statusIs(code int32) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		statuses, err := c.api.DescribeStatus(ctx, c.opts.InstanceID)
		if err != nil {
			return false, err
		}
		for _, status := range statuses {
			if status.ID == c.opts.InstanceID && status.Is(code) {
				return true, nil
			}
		}
		return false, nil
	}
}

// poll calls check until it reports done, waiting Interval between calls.
// Errors are logged and retried.
func (c *Controller) poll(ctx context.Context, step string, check func(context.Context) (bool, error)) error {
	for {
		done, err := check(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			c.log.Warn("poll failed, retrying", "step", step, "err", err)
		case err == nil && done:
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", step, ctx.Err())
		case <-time.After(c.opts.Interval):
		}
	}
}
