package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnsubscribed is returned by Wait and Refetch after Unsubscribe.
var ErrUnsubscribed = errors.New("subscription closed")

// Result is a snapshot of a cache entry. Data keeps the last successful value
// while a re-fetch is loading.
type Result[T any] struct {
	Status    Status
	Data      T
	Err       error
	UpdatedAt time.Time
}

func (r Result[T]) IsLoading() bool { return r.Status == StatusLoading || r.Status == StatusUninitialized }

type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	pollEvery time.Duration
}

// WithPollingInterval re-fetches the entry every d while the subscription is open.
func WithPollingInterval(d time.Duration) SubscribeOption {
	return func(c *subscribeConfig) { c.pollEvery = d }
}

// Subscription is one consumer's interest in a query result.
type Subscription[T any] struct {
	m   *Manager
	e   *entry
	id  uint64
	sub *subscriber
}

// Subscribe registers interest in q(params), starting a fetch when the entry is
// missing, failed or stale. Concurrent subscribers to the same key share a fetch.
func Subscribe[P, T any](m *Manager, q QueryDef[P, T], params P, opts ...SubscribeOption) (*Subscription[T], error) {
	if q.Execute == nil {
		return nil, fmt.Errorf("query %q has no Execute", q.Name)
	}
	key, err := QueryKey(q.Name, params)
	if err != nil {
		return nil, err
	}
	cfg := subscribeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	run := func(ctx context.Context) (any, []Tag, error) {
		data, err := q.Execute(ctx, params)
		var tags []Tag
		if q.ProvidesTags != nil {
			if err != nil {
				var zero T
				tags = q.ProvidesTags(zero, params)
			} else {
				tags = q.ProvidesTags(data, params)
			}
		}
		return data, tags, err
	}

	m.mu.Lock()
	e := m.entryLocked(key, q.Name, run)
	id, sub := m.subscribeLocked(e)
	if m.needsFetchLocked(e) {
		m.startFetchLocked(e)
	}
	m.mu.Unlock()

	s := &Subscription[T]{m: m, e: e, id: id, sub: sub}
	if cfg.pollEvery > 0 {
		go s.poll(cfg.pollEvery)
	}
	return s, nil
}

// Key is the cache key the subscription is attached to.
func (s *Subscription[T]) Key() string { return s.e.key }

func (s *Subscription[T]) Result() Result[T] {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.resultLocked()
}

func (s *Subscription[T]) resultLocked() Result[T] {
	out := Result[T]{Status: s.e.status, Err: s.e.err, UpdatedAt: s.e.updatedAt}
	if v, ok := s.e.data.(T); ok {
		out.Data = v
	}
	return out
}

// Changes signals after each status change. Signals coalesce; read Result for state.
func (s *Subscription[T]) Changes() <-chan struct{} { return s.sub.changes }

// Wait blocks until no fetch is in flight and returns the settled result.
func (s *Subscription[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	for {
		s.m.mu.Lock()
		if !s.activeLocked() {
			s.m.mu.Unlock()
			return zero, ErrUnsubscribed
		}
		f := s.e.flight
		if f == nil {
			res := s.resultLocked()
			s.m.mu.Unlock()
			if res.Status == StatusError {
				return zero, res.Err
			}
			return res.Data, nil
		}
		s.m.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-s.sub.stop:
			return zero, ErrUnsubscribed
		case <-f.done:
		}
	}
}

// Refetch forces a fetch unless one is already in flight, then waits for it.
func (s *Subscription[T]) Refetch(ctx context.Context) (T, error) {
	s.m.mu.Lock()
	if !s.activeLocked() {
		s.m.mu.Unlock()
		var zero T
		return zero, ErrUnsubscribed
	}
	s.m.startFetchLocked(s.e)
	s.m.mu.Unlock()
	return s.Wait(ctx)
}

func (s *Subscription[T]) Unsubscribe() {
	s.m.unsubscribe(s.e, s.id)
}

func (s *Subscription[T]) activeLocked() bool {
	_, ok := s.e.subs[s.id]
	return ok
}

func (s *Subscription[T]) poll(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.sub.stop:
			return
		case <-ticker.C:
			s.m.mu.Lock()
			if s.activeLocked() && s.m.entries[s.e.key] == s.e {
				s.m.startFetchLocked(s.e)
			}
			s.m.mu.Unlock()
		}
	}
}

// Fetch subscribes, waits for the settled result and unsubscribes. Fresh data
// kept from an earlier subscription is returned without a request.
func Fetch[P, T any](ctx context.Context, m *Manager, q QueryDef[P, T], params P) (T, error) {
	sub, err := Subscribe(m, q, params)
	if err != nil {
		var zero T
		return zero, err
	}
	defer sub.Unsubscribe()
	return sub.Wait(ctx)
}

// Mutate runs a mutation and, when it succeeds, invalidates the tags it declares.
func Mutate[P, R any](ctx context.Context, m *Manager, def MutationDef[P, R], params P) (R, error) {
	if def.Execute == nil {
		var zero R
		return zero, fmt.Errorf("mutation %q has no Execute", def.Name)
	}
	started := m.now()
	res, err := def.Execute(ctx, params)
	ev := MutationEvent{Name: def.Name, Err: err, Started: started, Duration: m.now().Sub(started)}
	if err == nil && def.InvalidatesTags != nil {
		ev.Invalidated = def.InvalidatesTags(res, params)
		m.Invalidate(ev.Invalidated...)
	}
	if err != nil {
		m.logger.Debug("mutation failed", "mutation", def.Name, "error", err.Error())
	} else {
		m.logger.Debug("mutation succeeded", "mutation", def.Name, "invalidated", len(ev.Invalidated))
	}
	m.observe(ctx, ev)
	return res, err
}
