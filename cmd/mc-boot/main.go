// Command mc-boot starts and stops the game server's EC2 instance as people
// join and leave Discord voice channels.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nwtnni/mc-suite/internal/chat/discord"
	"github.com/nwtnni/mc-suite/internal/config"
	"github.com/nwtnni/mc-suite/internal/dispatch"
	"github.com/nwtnni/mc-suite/internal/logging"
	"github.com/nwtnni/mc-suite/internal/power"
	"github.com/nwtnni/mc-suite/internal/server"
	"github.com/nwtnni/mc-suite/internal/task"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mc-boot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg, err := config.LoadBoot(os.Args[1:])
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ec2, err := power.NewEC2(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return err
	}
	controller := power.NewController(ec2, power.Options{
		InstanceID:   cfg.InstanceID,
		Interval:     cfg.PollInterval,
		Hibernate:    cfg.Hibernate,
		SkipStop:     !cfg.StopInstance,
		ShutdownAddr: cfg.ShutdownAddr(),
		GameAddr:     cfg.GameAddr(),
		Logger:       logging.Component(logger, "power"),
	})

	gateway, err := discord.New(cfg.DiscordToken, discord.Options{
		Voice:  true,
		Logger: logging.Component(logger, "discord"),
	})
	if err != nil {
		return err
	}

	queue := dispatch.NewQueue(cfg.QueueDepth)
	dispatchCfg := dispatch.Config{
		Chat:           gateway,
		GeneralChannel: cfg.GeneralChannel,
		Power:          controller,
		Logger:         logging.Component(logger, "dispatcher"),
	}
	apiOpts := server.APIOptions{
		Addr:      cfg.APIListen,
		TokenHash: cfg.APITokenHash,
		Queue:     queue,
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
		Add(dispatch.New(queue, dispatchCfg)).
		AddFunc("discord", func(ctx context.Context) error { return gateway.Run(ctx, queue) })
	if cfg.APIListen != "" {
		httpServer, err := server.NewAPI(apiOpts)
		if err != nil {
			return err
		}
		group.Add(httpServer)
	}

	logger.Info("mc-boot running", "instance", cfg.InstanceID, "region", cfg.Region)
	return group.Run(ctx)
}
