// Package process supervises the game server's console.
//
// The server's input and output are owned separately: WriteLine serializes
// every writer through one buffered writer so lines never interleave, and
// Lines yields the server's output one line at a time. Shutdown writes the
// graceful stop command at most once and kills the server if it has not
// exited within the stop timeout.
package process

import (
	"bufio"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const DefaultStopTimeout = 60 * time.Second

// exitGrace is how long a failed stop command waits for the exit to be
// observed before it is reported. The server's output closes before Wait
// returns, so a server that quit on its own can briefly look alive.
const exitGrace = 2 * time.Second

var (
	ErrAlreadySubscribed = errors.New("server output already subscribed")
	ErrKilled            = errors.New("server did not stop in time and was killed")
)

type Options struct {
	StopCommand string
	StopTimeout time.Duration
	Logger      *log.Logger
}

type Supervisor struct {
	child       Child
	stopCommand string
	stopTimeout time.Duration
	log         *log.Logger

	mu    sync.Mutex
	stdin *bufio.Writer

	subscribed atomic.Bool

	stopOnce sync.Once

	exited  chan struct{}
	exitErr error
}

// New supervises child, which must already be running.
func New(child Child, opts Options) *Supervisor {
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Supervisor{
		child:       child,
		stopCommand: opts.StopCommand,
		stopTimeout: opts.StopTimeout,
		log:         logger,
		stdin:       bufio.NewWriter(child.Stdin()),
		exited:      make(chan struct{}),
	}
	go func() {
		s.exitErr = child.Wait()
		s.log.Info("server exited", "err", s.exitErr)
		close(s.exited)
	}()
	return s
}

// WriteLine writes line and a newline to the server's console and flushes.
func (s *Supervisor) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stdin.WriteString(line); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	if err := s.stdin.WriteByte('\n'); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	if err := s.stdin.Flush(); err != nil {
		return fmt.Errorf("flush console: %w", err)
	}
	return nil
}

// Lines yields the server's output lines until it closes its output. Only
// the first call reads the output; later calls yield ErrAlreadySubscribed.
func (s *Supervisor) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !s.subscribed.CompareAndSwap(false, true) {
			yield("", ErrAlreadySubscribed)
			return
		}
		scanner := bufio.NewScanner(s.child.Stdout())
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			if !yield(scanner.Text(), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("read console: %w", err))
		}
	}
}

// Exited is closed once the server has exited.
func (s *Supervisor) Exited() <-chan struct{} {
	return s.exited
}

// Err returns the server's exit error once Exited is closed.
func (s *Supervisor) Err() error {
	<-s.exited
	return s.exitErr
}

// Shutdown sends the stop command (only once across all callers) and waits
// for the server to exit, killing it after the stop timeout.
func (s *Supervisor) Shutdown() error {
	s.stopOnce.Do(func() {
		select {
		case <-s.exited:
			return
		default:
		}
		s.log.Info("stopping server", "command", s.stopCommand)
		if err := s.WriteLine(s.stopCommand); err != nil {
			select {
			case <-s.exited:
				s.log.Debug("server exited before the stop command", "err", err)
			case <-time.After(exitGrace):
				s.log.Warn("stop command failed", "err", err)
			}
		}
	})

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()

	select {
	case <-s.exited:
		return nil
	case <-timer.C:
	}

	s.log.Warn("server did not stop in time, killing", "timeout", s.stopTimeout)
	if err := s.child.Kill(); err != nil {
		return fmt.Errorf("kill server: %w", err)
	}
	<-s.exited
	return ErrKilled
}
