// Package server holds the wiring mc-sync and mc-boot share: the journal
// database and the HTTP API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nwtnni/mc-suite/internal/api"
	"github.com/nwtnni/mc-suite/internal/auth"
	"github.com/nwtnni/mc-suite/internal/db"
	"github.com/nwtnni/mc-suite/internal/dispatch"
	"github.com/nwtnni/mc-suite/internal/journal"
)

const shutdownTimeout = 10 * time.Second

// OpenJournal opens and migrates the journal at path. The returned close
// function is never nil.
func OpenJournal(ctx context.Context, path string) (*journal.Journal, func() error, error) {
	database, err := db.Open(ctx, path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, func() error { return nil }, fmt.Errorf("migrate journal: %w", err)
	}
	return journal.New(database), database.Close, nil
}

type APIOptions struct {
	Addr      string
	TokenHash string
	Queue     dispatch.Sender
	// Journal and Console are optional.
	Journal *journal.Journal
	Console api.Lines
	Logger  *log.Logger
}

// NewAPI builds the HTTP API server.
func NewAPI(opts APIOptions) (*HTTP, error) {
	verifier, err := auth.NewVerifier(opts.TokenHash)
	if err != nil {
		return nil, fmt.Errorf("api token: %w", err)
	}
	routerOpts := api.Options{
		Queue:    opts.Queue,
		Verifier: verifier,
		Console:  opts.Console,
		Logger:   opts.Logger,
	}
	if opts.Journal != nil {
		routerOpts.History = opts.Journal
	}
	return &HTTP{Addr: opts.Addr, Handler: api.NewRouter(routerOpts), Logger: opts.Logger}, nil
}

// HTTP serves Handler on Addr until its context is cancelled.
type HTTP struct {
	Addr    string
	Handler http.Handler
	Logger  *log.Logger
}

func (s *HTTP) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr,
		Handler:      s.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		if s.Logger != nil {
			s.Logger.Info("api listening", "addr", s.Addr)
		}
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api: %w", err)
	}
	return nil
}
