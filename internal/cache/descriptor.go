package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// QueryDef describes a read. ProvidesTags is called with the zero result when
// the query failed, so list queries can still provide their LIST tag.
type QueryDef[P, T any] struct {
	Name         string
	Execute      func(ctx context.Context, params P) (T, error)
	ProvidesTags func(result T, params P) []Tag
}

// MutationDef describes a write. InvalidatesTags is only consulted on success.
type MutationDef[P, R any] struct {
	Name            string
	Execute         func(ctx context.Context, params P) (R, error)
	InvalidatesTags func(result R, params P) []Tag
}

func (q QueryDef[P, T]) name() string    { return q.Name }
func (q QueryDef[P, T]) kind() string    { return "query" }
func (m MutationDef[P, R]) name() string { return m.Name }
func (m MutationDef[P, R]) kind() string { return "mutation" }

// Descriptor is implemented by QueryDef and MutationDef.
type Descriptor interface {
	name() string
	kind() string
}

// Registry holds endpoint descriptors by name.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]string
}

func NewRegistry() *Registry {
	return &Registry{byKey: map[string]string{}}
}

// Register adds descriptors, rejecting empty names, missing executors and duplicates.
func (r *Registry) Register(defs ...Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range defs {
		name := strings.TrimSpace(d.name())
		if name == "" {
			return fmt.Errorf("register %s: name is required", d.kind())
		}
		if prev, ok := r.byKey[name]; ok {
			return fmt.Errorf("register %s %q: name already registered as %s", d.kind(), name, prev)
		}
		if err := checkExecutor(d); err != nil {
			return err
		}
		r.byKey[name] = d.kind()
	}
	return nil
}

func checkExecutor(d Descriptor) error {
	if v, ok := d.(interface{ hasExecutor() bool }); ok && !v.hasExecutor() {
		return fmt.Errorf("register %s %q: Execute is required", d.kind(), d.name())
	}
	return nil
}

func (q QueryDef[P, T]) hasExecutor() bool    { return q.Execute != nil }
func (m MutationDef[P, R]) hasExecutor() bool { return m.Execute != nil }

// Kind reports whether name is a registered query or mutation.
func (r *Registry) Kind(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byKey[name]
	return k, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byKey))
	for name := range r.byKey {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
