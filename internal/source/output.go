// Package source holds the producers that feed the dispatcher's queue from
// local inputs: server output, the operator console and the shutdown port.
package source

import (
	"context"
	"fmt"
	"iter"

	"github.com/nwtnni/mc-suite/internal/dispatch"
)

// ServerOutput forwards every line the server prints as a ServerLine event.
// It returns when the server closes its output.
type ServerOutput struct {
	Lines iter.Seq2[string, error]
	Queue dispatch.Sender
}

func (o *ServerOutput) Run(ctx context.Context) error {
	done := make(chan error, 1)
	report := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	// The reader outlives ctx: the server blocks on a full output pipe, so
	// lines are drained and dropped until it exits.
	go func() {
		var failed bool
		for line, err := range o.Lines {
			if err != nil {
				report(err)
				return
			}
			if failed || ctx.Err() != nil {
				continue
			}
			if err := o.Queue.Send(ctx, dispatch.ServerLine{Line: line}); err != nil && ctx.Err() == nil {
				failed = true
				report(err)
			}
		}
		report(nil)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("server output: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
