// Package task runs the long-lived tasks of a binary as one unit: when any
// task returns, with or without an error, every other task is cancelled.
package task

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrFinished cancels the group when a task returns without error.
	ErrFinished = errors.New("task finished")
	ErrPanic    = errors.New("task panicked")
)

type Worker interface {
	Run(ctx context.Context) error
}

// Name returns the type name of w, used in logs.
func Name(w Worker) string {
	if w == nil {
		return "nil"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

type funcWorker func(ctx context.Context) error

func (f funcWorker) Run(ctx context.Context) error { return f(ctx) }

type named struct {
	name   string
	worker Worker
}

type Group struct {
	log   *log.Logger
	tasks []named
}

func NewGroup(logger *log.Logger) *Group {
	if logger == nil {
		logger = log.Default()
	}
	return &Group{log: logger}
}

func (g *Group) Add(workers ...Worker) *Group {
	for _, w := range workers {
		g.tasks = append(g.tasks, named{name: Name(w), worker: w})
	}
	return g
}

func (g *Group) AddFunc(name string, fn func(ctx context.Context) error) *Group {
	g.tasks = append(g.tasks, named{name: name, worker: funcWorker(fn)})
	return g
}

// Run starts every task and returns once all of them have returned. The
// result is the first error that was not caused by the group's own
// cancellation, or nil.
func (g *Group) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	var (
		mu    sync.Mutex
		first error
	)
	for _, t := range g.tasks {
		eg.Go(func() error {
			err := g.run(ctx, t)
			switch {
			case err == nil:
				g.log.Info("task finished", "task", t.name)
				return ErrFinished
			case errors.Is(err, context.Canceled) && ctx.Err() != nil:
				g.log.Debug("task cancelled", "task", t.name)
				return ErrFinished
			}

			g.log.Error("task failed", "task", t.name, "err", err)
			err = fmt.Errorf("%s: %w", t.name, err)
			mu.Lock()
			if first == nil {
				first = err
			}
			mu.Unlock()
			return err
		})
	}
	_ = eg.Wait()
	return first
}

func (g *Group) run(ctx context.Context, t named) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	g.log.Debug("task started", "task", t.name)
	return t.worker.Run(ctx)
}
