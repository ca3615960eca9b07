// Package livequery re-runs named read queries whenever the tables they read change
// and pushes the fresh results to subscribed clients.
package livequery

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Args are the client-supplied query arguments.
type Args map[string]interface{}

// Int returns args[key] as an int bounded to [1, max], or def when absent or invalid.
func (a Args) Int(key string, def, max int) int {
	var n int
	switch v := a[key].(type) {
	case float64:
		n = int(v)
	case float32:
		n = int(v)
	case int:
		n = v
	case int8:
		n = int(v)
	case int16:
		n = int(v)
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case uint8:
		n = int(v)
	case uint16:
		n = int(v)
	case uint32:
		n = int(v)
	case uint64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if n <= 0 {
		return def
	}
	return min(n, max)
}

// String returns args[key] when it is a string, otherwise "".
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// RunFunc executes a query and returns its JSON-serializable result.
type RunFunc func(args Args) (interface{}, error)

// Query is a named read with the tables it depends on.
type Query struct {
	Name   string
	Tables []string
	Run    RunFunc
}

// DependsOn reports whether the query reads table.
func (q *Query) DependsOn(table string) bool {
	for _, t := range q.Tables {
		if t == table {
			return true
		}
	}
	return false
}

// Registry holds the queries clients may subscribe to.
type Registry struct {
	mu      sync.RWMutex
	queries map[string]*Query
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{queries: make(map[string]*Query)}
}

// Register adds q. Names must be unique and every query needs at least one table.
func (r *Registry) Register(q Query) error {
	if q.Name == "" || q.Run == nil {
		return fmt.Errorf("query needs a name and a run function")
	}
	if len(q.Tables) == 0 {
		return fmt.Errorf("query %s declares no tables", q.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.queries[q.Name]; exists {
		return fmt.Errorf("query %s already registered", q.Name)
	}
	r.queries[q.Name] = &q
	return nil
}

// Get returns the named query or nil.
func (r *Registry) Get(name string) *Query {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.queries[name]
}

// Names returns the registered query names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.queries))
	for name := range r.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
