package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nwtnni/mc-suite/internal/dispatch"
)

// Console forwards operator input lines as ConsoleLine events. It returns
// at end of input.
type Console struct {
	Input io.Reader
	Queue dispatch.Sender
}

func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(c.Input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err != nil {
				return fmt.Errorf("read console: %w", err)
			}
			return nil
		case line := <-lines:
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := c.Queue.Send(ctx, dispatch.ConsoleLine{Line: line}); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
