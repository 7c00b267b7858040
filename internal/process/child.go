package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/docker/docker/pkg/stdcopy"

	"github.com/nwtnni/mc-suite/internal/docker"
)

// Child is a running game server seen through its console.
type Child interface {
	Stdin() io.Writer
	Stdout() io.Reader
	// Wait blocks until the child exits. It is called exactly once.
	Wait() error
	Kill() error
}

type execChild struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *io.PipeReader
	pipe   *io.PipeWriter
}

// Spawn starts command with piped stdin and stdout. Stderr is inherited.
// Stdout must be read until EOF for Wait to return.
func Spawn(command string, args ...string) (Child, error) {
	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr

	pr, pw := io.Pipe()
	cmd.Stdout = pw

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", command, err)
	}
	return &execChild{cmd: cmd, stdin: stdin, stdout: pr, pipe: pw}, nil
}

func (c *execChild) Stdin() io.Writer  { return c.stdin }
func (c *execChild) Stdout() io.Reader { return c.stdout }

func (c *execChild) Wait() error {
	err := c.cmd.Wait()
	c.pipe.Close()
	return err
}

func (c *execChild) Kill() error {
	return c.cmd.Process.Kill()
}

type containerChild struct {
	docker *docker.Client
	id     string
	conn   io.WriteCloser
	stdout io.Reader
	close  func()
}

// Attach connects to the console of an already running container. The
// container must have been created with an open stdin.
func Attach(ctx context.Context, client *docker.Client, id string) (Child, error) {
	inspect, err := client.InspectContainer(ctx, id)
	if err != nil {
		return nil, err
	}
	if inspect.State == nil || !inspect.State.Running {
		return nil, fmt.Errorf("container %s is not running", id)
	}
	if inspect.Config == nil || !inspect.Config.OpenStdin {
		return nil, fmt.Errorf("container %s does not accept stdin", id)
	}

	attach, err := client.Attach(ctx, id)
	if err != nil {
		return nil, err
	}

	c := &containerChild{docker: client, id: id, conn: attach.Conn, close: attach.Close}
	if inspect.Config.Tty {
		c.stdout = attach.Reader
		return c, nil
	}

	// Without a TTY the stream is multiplexed with 8-byte frame headers.
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, attach.Reader)
		pw.CloseWithError(err)
	}()
	c.stdout = pr
	return c, nil
}

func (c *containerChild) Stdin() io.Writer  { return c.conn }
func (c *containerChild) Stdout() io.Reader { return c.stdout }

func (c *containerChild) Wait() error {
	code, err := c.docker.Wait(context.Background(), c.id)
	c.close()
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("container exited with status %d", code)
	}
	return nil
}

func (c *containerChild) Kill() error {
	if err := c.docker.Kill(context.Background(), c.id); err != nil {
		return fmt.Errorf("kill container: %w", err)
	}
	return nil
}
