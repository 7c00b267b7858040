package process

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

// fakeChild records console input and exits when told to stop, if obedient.
type fakeChild struct {
	stdinR, stdoutR *io.PipeReader
	stdinW, stdoutW *io.PipeWriter

	obedient bool
	exit     chan struct{}
	exitOnce sync.Once
	killed   atomic.Bool

	mu    sync.Mutex
	input []string
	read  chan struct{}
}

func newFakeChild(obedient bool) *fakeChild {
	c := &fakeChild{obedient: obedient, exit: make(chan struct{}), read: make(chan struct{})}
	c.stdinR, c.stdinW = io.Pipe()
	c.stdoutR, c.stdoutW = io.Pipe()
	go func() {
		defer close(c.read)
		scanner := bufio.NewScanner(c.stdinR)
		for scanner.Scan() {
			c.mu.Lock()
			c.input = append(c.input, scanner.Text())
			c.mu.Unlock()
			if c.obedient && scanner.Text() == "/stop" {
				c.terminate()
			}
		}
	}()
	return c
}

func (c *fakeChild) Stdin() io.Writer  { return c.stdinW }
func (c *fakeChild) Stdout() io.Reader { return c.stdoutR }

func (c *fakeChild) Wait() error {
	<-c.exit
	return nil
}

func (c *fakeChild) Kill() error {
	c.killed.Store(true)
	c.terminate()
	return nil
}

func (c *fakeChild) terminate() {
	c.exitOnce.Do(func() {
		c.stdoutW.Close()
		c.stdinR.Close()
		close(c.exit)
	})
}

func (c *fakeChild) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.input...)
}

func newSupervisor(child Child, timeout time.Duration) *Supervisor {
	return New(child, Options{
		StopCommand: "/stop",
		StopTimeout: timeout,
		Logger:      log.New(io.Discard),
	})
}

func TestWriteLine_NoInterleaving(t *testing.T) {
	req := require.New(t)
	child := newFakeChild(false)
	sup := newSupervisor(child, time.Second)

	// Given many concurrent writers of long lines
	errs := make(chan error, 16)
	for i := range 16 {
		go func() {
			errs <- sup.WriteLine(strings.Repeat(string(rune('a'+i)), 8*1024))
		}()
	}
	for range 16 {
		req.NoError(<-errs)
	}
	child.stdinW.Close()
	<-child.read

	// Then every line arrives whole
	lines := child.lines()
	req.Len(lines, 16)
	for _, line := range lines {
		req.Len(line, 8*1024)
		req.Equal(strings.Repeat(line[:1], len(line)), line)
	}
}

func TestLines(t *testing.T) {
	req := require.New(t)
	child := newFakeChild(false)
	sup := newSupervisor(child, time.Second)

	go func() {
		io.WriteString(child.stdoutW, "first\nsecond\nthird")
		child.terminate()
	}()

	var got []string
	for line, err := range sup.Lines() {
		req.NoError(err)
		got = append(got, line)
	}
	req.Equal([]string{"first", "second", "third"}, got)

	// Output can only be consumed once
	for _, err := range sup.Lines() {
		req.ErrorIs(err, ErrAlreadySubscribed)
	}
}

func TestShutdown_StopsOnce(t *testing.T) {
	req := require.New(t)
	child := newFakeChild(true)
	sup := newSupervisor(child, time.Second)

	// When shutdown is requested from several places at once
	errs := make(chan error, 3)
	for range 3 {
		go func() { errs <- sup.Shutdown() }()
	}
	for range 3 {
		req.NoError(<-errs)
	}
	<-child.read

	// Then the stop command was written exactly once and nothing was killed
	req.Equal([]string{"/stop"}, child.lines())
	req.False(child.killed.Load())

	select {
	case <-sup.Exited():
	default:
		req.Fail("supervisor did not observe the exit")
	}
}

func TestShutdown_KillsAfterTimeout(t *testing.T) {
	req := require.New(t)
	child := newFakeChild(false)
	sup := newSupervisor(child, 20*time.Millisecond)

	err := sup.Shutdown()

	req.ErrorIs(err, ErrKilled)
	req.True(child.killed.Load())
	req.NoError(sup.Err())
}

func TestShutdown_AfterExit(t *testing.T) {
	req := require.New(t)
	child := newFakeChild(true)
	sup := newSupervisor(child, time.Second)

	// Given the server already exited on its own
	child.terminate()
	<-sup.Exited()

	// When shutdown runs, no stop command is sent
	req.NoError(sup.Shutdown())
	<-child.read
	req.Empty(child.lines())
}

func TestShutdown_ExitRacesStopCommand(t *testing.T) {
	req := require.New(t)
	child := newFakeChild(false)
	var logs bytes.Buffer
	sup := New(child, Options{
		StopCommand: "/stop",
		StopTimeout: time.Second,
		Logger:      log.New(&logs),
	})

	// Given a server whose console is already gone but whose exit has not
	// been observed yet
	child.stdinR.Close()
	<-child.read
	time.AfterFunc(50*time.Millisecond, child.terminate)

	// When shutdown runs, it waits for the exit instead of reporting the
	// failed write
	req.NoError(sup.Shutdown())
	req.False(child.killed.Load())
	req.NotContains(logs.String(), "stop command failed")
}
