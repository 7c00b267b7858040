// Command mc-sync wraps a game server and synchronizes its chat with
// Discord.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/nwtnni/mc-suite/internal/chat/discord"
	"github.com/nwtnni/mc-suite/internal/config"
	"github.com/nwtnni/mc-suite/internal/dispatch"
	"github.com/nwtnni/mc-suite/internal/docker"
	"github.com/nwtnni/mc-suite/internal/game"
	"github.com/nwtnni/mc-suite/internal/hub"
	"github.com/nwtnni/mc-suite/internal/logging"
	"github.com/nwtnni/mc-suite/internal/process"
	"github.com/nwtnni/mc-suite/internal/server"
	"github.com/nwtnni/mc-suite/internal/source"
	"github.com/nwtnni/mc-suite/internal/task"

	// Register game adapters
	_ "github.com/nwtnni/mc-suite/internal/game/minecraft"
	_ "github.com/nwtnni/mc-suite/internal/game/vintagestory"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mc-sync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg, err := config.LoadSync(os.Args[1:])
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	adapter, err := game.Get(cfg.Game)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := source.Listen(ctx, cfg.ShutdownAddr())
	if err != nil {
		return err
	}
	defer listener.Close()

	gateway, err := discord.New(cfg.DiscordToken, discord.Options{
		Channels: []string{cfg.GeneralChannel},
		Logger:   logging.Component(logger, "discord"),
	})
	if err != nil {
		return err
	}

	child, closeChild, err := launch(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeChild()

	sup := process.New(child, process.Options{
		StopCommand: adapter.StopCommand(),
		StopTimeout: cfg.StopTimeout,
		Logger:      logging.Component(logger, "server"),
	})
	// Whatever ends the task group, the server gets its stop command.
	defer func() {
		if err := sup.Shutdown(); err != nil {
			logger.Error("server shutdown", "err", err)
		}
	}()

	queue := dispatch.NewQueue(cfg.QueueDepth)
	lines := hub.New()
	verbose := []dispatch.LineSink{dispatch.NewWriterSink(os.Stdout), lines}
	if cfg.VerboseChannel != "" {
		verbose = append(verbose, dispatch.ChannelSink{Chat: gateway, ChannelID: cfg.VerboseChannel})
	}

	dispatchCfg := dispatch.Config{
		Chat:           gateway,
		GeneralChannel: cfg.GeneralChannel,
		IgnoredAuthors: cfg.Ignored(),
		Adapter:        adapter,
		Server:         sup,
		Verbose:        verbose,
		Logger:         logging.Component(logger, "dispatcher"),
	}
	if cfg.PowerOffCommand != "" {
		dispatchCfg.PowerOff = powerOff(cfg.PowerOffCommand, logger)
	}

	apiOpts := server.APIOptions{
		Addr:      cfg.APIListen,
		TokenHash: cfg.APITokenHash,
		Queue:     queue,
		Console:   lines,
		Logger:    logging.Component(logger, "api"),
	}
	if cfg.DatabasePath != "" {
		journal, closeJournal, err := server.OpenJournal(ctx, cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer closeJournal()
		dispatchCfg.Journal = journal
		apiOpts.Journal = journal
	}

	group := task.NewGroup(logging.Component(logger, "tasks")).
		Add(
			dispatch.New(queue, dispatchCfg),
			&source.ServerOutput{Lines: sup.Lines(), Queue: queue},
			&source.ShutdownListener{Listener: listener, Queue: queue, Logger: logger},
		).
		AddFunc("discord", func(ctx context.Context) error { return gateway.Run(ctx, queue) })
	if cfg.Console {
		group.Add(&source.Console{Input: os.Stdin, Queue: queue})
	}
	if cfg.APIListen != "" {
		httpServer, err := server.NewAPI(apiOpts)
		if err != nil {
			return err
		}
		group.Add(httpServer)
	}

	logger.Info("mc-sync running", "game", adapter.Game(), "shutdown", cfg.ShutdownAddr())
	return group.Run(ctx)
}

// launch starts the server command or attaches to its container.
func launch(ctx context.Context, cfg *config.Sync, logger *log.Logger) (process.Child, func(), error) {
	if cfg.Container == "" {
		child, err := process.Spawn(cfg.Command[0], cfg.Command[1:]...)
		return child, func() {}, err
	}

	client, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}
	child, err := process.Attach(ctx, client, cfg.Container)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if addr, err := client.PublishedPort(ctx, cfg.Container, cfg.GamePort); err != nil {
		logger.Warn("game port lookup", "err", err)
	} else {
		logger.Info("game server published", "addr", addr)
	}
	return child, func() { client.Close() }, nil
}

func powerOff(command string, logger *log.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Info("powering off", "command", command)
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
}
