package game

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

var (
	mu       sync.RWMutex
	adapters = map[string]Adapter{}
)

func Register(adapter Adapter) {
	mu.Lock()
	defer mu.Unlock()
	adapters[adapter.Game()] = adapter
}

// Get returns the adapter registered for game.
func Get(game string) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()
	adapter, ok := adapters[game]
	if !ok {
		return nil, fmt.Errorf("unknown game %q (known: %v)", game, names())
	}
	return adapter, nil
}

// Names lists the registered games in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return names()
}

func names() []string {
	result := lo.Keys(adapters)
	slices.Sort(result)
	return result
}
