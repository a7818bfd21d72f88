package entities

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry = make(map[string]Entity)
	mu       sync.RWMutex
)

// Register adds an entity to the registry.
func Register(e Entity) {
	mu.Lock()
	defer mu.Unlock()
	registry[e.Name()] = e
}

// Get retrieves an entity by name.
func Get(name string) (Entity, error) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown entity: %s", name)
	}
	return e, nil
}

// List returns all registered entity names in run order.
func List() []string {
	all := All()
	names := make([]string, len(all))
	for i, e := range all {
		names[i] = e.Name()
	}
	return names
}

// All returns all registered entities in run order.
func All() []Entity {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Entity, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sortByOrder(out)
	return out
}

// Select returns the named entities in run order; no names selects all.
func Select(names ...string) ([]Entity, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]Entity, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		e, err := Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sortByOrder(out)
	return out, nil
}

func sortByOrder(es []Entity) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].Order() != es[j].Order() {
			return es[i].Order() < es[j].Order()
		}
		return es[i].Name() < es[j].Name()
	})
}
