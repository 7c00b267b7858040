// Package config loads the settings of both binaries from the environment,
// with command-line flags taking precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	flag "github.com/spf13/pflag"
)

var validate = validator.New()

// DefaultIgnoredAuthors are the display names of the two bots.
var DefaultIgnoredAuthors = []string{"mc-sync", "mc-boot"}

var ErrNoCommand = errors.New("no server command and no container given")

// Sync configures mc-sync.
type Sync struct {
	DiscordToken   string `env:"DISCORD_TOKEN" validate:"required"`
	GeneralChannel string `env:"DISCORD_GENERAL_CHANNEL_ID" validate:"required"`
	VerboseChannel string `env:"DISCORD_VERBOSE_CHANNEL_ID"`
	// IgnoredAuthors is a comma separated list.
	IgnoredAuthors string `env:"IGNORED_AUTHORS"`

	ShutdownPort int    `env:"MINECRAFT_SERVER_PORT" validate:"min=1,max=65535"`
	Game         string `env:"GAME,default=minecraft" validate:"required"`
	Container    string `env:"MINECRAFT_CONTAINER"`
	// GamePort is the container port reported as the server address.
	GamePort int `env:"MINECRAFT_GAME_PORT,default=25565" validate:"min=1,max=65535"`
	// Command is the server command line, from the positional arguments.
	Command []string

	StopTimeout     time.Duration `env:"STOP_TIMEOUT,default=60s" validate:"gt=0"`
	PowerOffCommand string        `env:"POWEROFF_COMMAND"`
	Console         bool          `env:"CONSOLE,default=true"`

	QueueDepth   int    `env:"QUEUE_DEPTH,default=10" validate:"min=1,max=1024"`
	APIListen    string `env:"API_LISTEN" validate:"omitempty,hostname_port"`
	APITokenHash string `env:"API_TOKEN_HASH" validate:"required_with=APIListen"`
	DatabasePath string `env:"DATABASE_PATH"`
	LogLevel     string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
}

// Boot configures mc-boot.
type Boot struct {
	DiscordToken   string `env:"DISCORD_TOKEN" validate:"required"`
	GeneralChannel string `env:"DISCORD_GENERAL_CHANNEL_ID" validate:"required"`

	InstanceID      string `env:"AWS_INSTANCE_ID" validate:"required"`
	Region          string `env:"AWS_REGION,default=us-east-2" validate:"required"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" validate:"required_with=AccessKeyID"`

	ServerURL    string        `env:"MINECRAFT_SERVER_URL"`
	ShutdownPort int           `env:"MINECRAFT_SERVER_PORT" validate:"omitempty,min=1,max=65535"`
	GamePort     int           `env:"MINECRAFT_GAME_PORT" validate:"omitempty,min=1,max=65535"`
	PollInterval time.Duration `env:"POLL_INTERVAL,default=5s" validate:"gt=0"`
	Hibernate    bool          `env:"HIBERNATE,default=false"`
	StopInstance bool          `env:"STOP_INSTANCE,default=true"`

	QueueDepth   int    `env:"QUEUE_DEPTH,default=10" validate:"min=1,max=1024"`
	APIListen    string `env:"API_LISTEN" validate:"omitempty,hostname_port"`
	APITokenHash string `env:"API_TOKEN_HASH" validate:"required_with=APIListen"`
	DatabasePath string `env:"DATABASE_PATH"`
	LogLevel     string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
}

// LoadSync reads mc-sync's settings from the environment and then args.
func LoadSync(args []string) (*Sync, error) {
	var cfg Sync
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	flags := flag.NewFlagSet("mc-sync", flag.ContinueOnError)
	flags.StringVar(&cfg.DiscordToken, "token", cfg.DiscordToken, "Discord bot token")
	flags.StringVar(&cfg.GeneralChannel, "general-id", cfg.GeneralChannel, "channel for interesting server events")
	flags.StringVar(&cfg.VerboseChannel, "verbose-id", cfg.VerboseChannel, "channel for all server output (optional)")
	flags.IntVar(&cfg.ShutdownPort, "server-port", cfg.ShutdownPort, "port that stops the server when connected to")
	flags.StringVar(&cfg.Game, "game", cfg.Game, "game adapter")
	flags.StringVar(&cfg.Container, "container", cfg.Container, "attach to this Docker container instead of running a command")
	flags.IntVar(&cfg.GamePort, "game-port", cfg.GamePort, "game port inside the container")
	flags.DurationVar(&cfg.StopTimeout, "stop-timeout", cfg.StopTimeout, "time to wait for the server to stop before killing it")
	flags.StringVar(&cfg.PowerOffCommand, "poweroff", cfg.PowerOffCommand, "command run after the server stopped on request")
	flags.BoolVar(&cfg.Console, "console", cfg.Console, "forward standard input to the server")
	flags.StringVar(&cfg.APIListen, "api", cfg.APIListen, "HTTP API address (optional)")
	flags.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "journal database path (optional)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	cfg.Command = flags.Args()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Container == "" && len(cfg.Command) == 0 {
		return nil, ErrNoCommand
	}
	return &cfg, nil
}

// Ignored returns the author names never relayed into the game.
func (c *Sync) Ignored() []string {
	if strings.TrimSpace(c.IgnoredAuthors) == "" {
		return DefaultIgnoredAuthors
	}
	names := lo.Map(strings.Split(c.IgnoredAuthors, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(names)
}

func (c *Sync) ShutdownAddr() string {
	return net.JoinHostPort("", strconv.Itoa(c.ShutdownPort))
}

// LoadBoot reads mc-boot's settings from the environment and then args.
func LoadBoot(args []string) (*Boot, error) {
	var cfg Boot
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	flags := flag.NewFlagSet("mc-boot", flag.ContinueOnError)
	flags.StringVar(&cfg.DiscordToken, "token", cfg.DiscordToken, "Discord bot token")
	flags.StringVar(&cfg.GeneralChannel, "general-id", cfg.GeneralChannel, "channel for server status updates")
	flags.StringVar(&cfg.InstanceID, "instance-id", cfg.InstanceID, "EC2 instance running the server")
	flags.StringVar(&cfg.Region, "region", cfg.Region, "AWS region")
	flags.StringVar(&cfg.ServerURL, "server-url", cfg.ServerURL, "server host, for the shutdown and game ports")
	flags.IntVar(&cfg.ShutdownPort, "server-port", cfg.ShutdownPort, "mc-sync shutdown port")
	flags.IntVar(&cfg.GamePort, "game-port", cfg.GamePort, "wait for this port to close before stopping (optional)")
	flags.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "instance status poll interval")
	flags.BoolVar(&cfg.Hibernate, "hibernate", cfg.Hibernate, "hibernate instead of stopping")
	flags.BoolVar(&cfg.StopInstance, "stop-instance", cfg.StopInstance, "stop the instance; disable when the host powers itself off")
	flags.StringVar(&cfg.APIListen, "api", cfg.APIListen, "HTTP API address (optional)")
	flags.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "journal database path (optional)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if (cfg.ShutdownPort != 0 || cfg.GamePort != 0) && cfg.ServerURL == "" {
		return nil, errors.New("invalid config: server url required with a server or game port")
	}
	return &cfg, nil
}

func (c *Boot) ShutdownAddr() string {
	if c.ShutdownPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.ServerURL, strconv.Itoa(c.ShutdownPort))
}

func (c *Boot) GameAddr() string {
	if c.GamePort == 0 {
		return ""
	}
	return net.JoinHostPort(c.ServerURL, strconv.Itoa(c.GamePort))
}
