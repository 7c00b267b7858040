package docker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

type Client struct {
	cli *client.Client
}

func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func (c *Client) InspectContainer(ctx context.Context, id string) (*types.ContainerJSON, error) {
	resp, err := c.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("inspect container: %w", err)
	}
	return &resp, nil
}

// Attach to the container's main process stdin/stdout
func (c *Client) Attach(ctx context.Context, id string) (types.HijackedResponse, error) {
	resp, err := c.cli.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return resp, fmt.Errorf("attach container: %w", err)
	}
	return resp, nil
}

// Wait blocks until the container is no longer running and returns its
// exit code.
func (c *Client) Wait(ctx context.Context, id string) (int64, error) {
	statusCh, errCh := c.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return status.StatusCode, fmt.Errorf("wait container: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	case err := <-errCh:
		return -1, fmt.Errorf("wait container: %w", err)
	}
}

func (c *Client) Kill(ctx context.Context, id string) error {
	return c.cli.ContainerKill(ctx, id, "SIGKILL")
}

// PublishedPort returns the host address the container's TCP port is
// published on.
func (c *Client) PublishedPort(ctx context.Context, id string, port int) (string, error) {
	inspect, err := c.InspectContainer(ctx, id)
	if err != nil {
		return "", err
	}
	p, err := nat.NewPort("tcp", strconv.Itoa(port))
	if err != nil {
		return "", err
	}
	if inspect.NetworkSettings == nil {
		return "", fmt.Errorf("container %s has no network settings", id)
	}
	bindings := inspect.NetworkSettings.Ports[p]
	if len(bindings) == 0 {
		return "", fmt.Errorf("port %s of container %s is not published", p, id)
	}
	host := bindings[0].HostIP
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return host + ":" + bindings[0].HostPort, nil
}
