package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Schema)
	// ordered preserves registration order so All() and Match() are
	// deterministic across runs.
	ordered []string
)

// Register adds a schema to the registry.
// Panics if the schema is malformed, its name is taken, or another schema
// already claims an identical required-column set: two schemas with the same
// required set could never be told apart during classification.
func Register(s Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if s.Name == "" {
		panic("schema with empty name")
	}
	if _, exists := registry[s.Name]; exists {
		panic(fmt.Sprintf("schema already registered: %s", s.Name))
	}
	if len(s.Required) == 0 {
		panic(fmt.Sprintf("schema %s has no required columns", s.Name))
	}

	cols := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		cols[strings.ToLower(f.Column)] = struct{}{}
	}
	for _, req := range s.Required {
		if _, ok := cols[strings.ToLower(req)]; !ok {
			panic(fmt.Sprintf("schema %s: required column %q not in field list", s.Name, req))
		}
	}

	key := requiredKey(s.Required)
	for _, name := range ordered {
		if requiredKey(registry[name].Required) == key {
			panic(fmt.Sprintf("schema %s duplicates required columns of %s", s.Name, name))
		}
	}

	registry[s.Name] = s
	ordered = append(ordered, s.Name)
}

// Get returns a schema by name.
func Get(name string) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[name]
	return s, ok
}

// All returns every registered schema in registration order.
func All() []Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Schema, 0, len(ordered))
	for _, name := range ordered {
		result = append(result, registry[name])
	}
	return result
}

// SchemaCount returns the number of registered schemas.
func SchemaCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered schemas. Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Schema)
	ordered = nil
}

// Match classifies a file by its observed column set. Among schemas whose
// required columns are all present, the one with the largest required set
// wins; a tie between two distinct schemas is an AmbiguousMatchError rather
// than a silent registration-order pick. Column matching is case-insensitive.
func Match(columns []string) (Schema, error) {
	observed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		observed[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	var candidates []Schema
	for _, name := range ordered {
		s := registry[name]
		if containsAll(observed, s.Required) {
			candidates = append(candidates, s)
		}
	}

	if len(candidates) == 0 {
		cols := append([]string(nil), columns...)
		sort.Strings(cols)
		return Schema{}, &UnclassifiedError{Columns: cols}
	}

	best := candidates[0]
	tied := []string{best.Name}
	for _, c := range candidates[1:] {
		switch {
		case len(c.Required) > len(best.Required):
			best = c
			tied = []string{c.Name}
		case len(c.Required) == len(best.Required):
			tied = append(tied, c.Name)
		}
	}
	if len(tied) > 1 {
		sort.Strings(tied)
		return Schema{}, &AmbiguousMatchError{Schemas: tied}
	}

	return best, nil
}

func containsAll(observed map[string]struct{}, required []string) bool {
	for _, r := range required {
		if _, ok := observed[strings.ToLower(r)]; !ok {
			return false
		}
	}
	return true
}

func requiredKey(required []string) string {
	cols := make([]string, len(required))
	for i, c := range required {
		cols[i] = strings.ToLower(c)
	}
	sort.Strings(cols)
	return strings.Join(cols, "\x00")
}
