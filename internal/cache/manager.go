package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ayatskii/panel-sub002/internal/logging"
)

// DefaultKeepUnusedFor is how long data without subscribers stays cached.
const DefaultKeepUnusedFor = 60 * time.Second

type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "uninitialized"
	}
}

// MutationEvent describes a settled mutation.
type MutationEvent struct {
	Name        string
	Invalidated []Tag
	Err         error
	Started     time.Time
	Duration    time.Duration
}

// MutationObserver is told about every settled mutation.
type MutationObserver interface {
	ObserveMutation(ctx context.Context, ev MutationEvent)
}

type Options struct {
	// KeepUnusedFor defaults to DefaultKeepUnusedFor. A negative value evicts
	// unused data as soon as its last subscriber leaves.
	KeepUnusedFor time.Duration
	Logger        *slog.Logger
	Observer      MutationObserver
}

// Manager is the query cache: entries keyed by endpoint name and canonical
// params, indexed by the tags they provide.
type Manager struct {
	mu       sync.Mutex
	entries  map[string]*entry
	tags     *tagIndex
	group    singleflight.Group
	nextID   uint64
	keepFor  time.Duration
	logger   *slog.Logger
	observer MutationObserver
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

type fetchFunc func(ctx context.Context) (any, []Tag, error)

type entry struct {
	key    string
	name   string
	run    fetchFunc
	status Status
	data   any
	err    error
	tags   []Tag

	updatedAt time.Time
	stale     bool

	flight   *flight
	followUp bool
	// prev is the status to restore when a flight is discarded.
	prev Status

	subs  map[uint64]*subscriber
	evict *time.Timer
}

type flight struct {
	id     uint64
	cancel context.CancelFunc
	done   chan struct{}
}

type subscriber struct {
	changes chan struct{}
	stop    chan struct{}
}

type fetchOutcome struct {
	data any
	tags []Tag
	err  error
}

func NewManager(opts Options) *Manager {
	keep := opts.KeepUnusedFor
	if keep == 0 {
		keep = DefaultKeepUnusedFor
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		entries:  map[string]*entry{},
		tags:     newTagIndex(),
		keepFor:  keep,
		logger:   logger,
		observer: opts.Observer,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// QueryKey is the cache key for name called with params.
func QueryKey(name string, params any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode %s params: %w", name, err)
	}
	// Round-trip through a generic value so map keys come out sorted.
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("canonicalize %s params: %w", name, err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s params: %w", name, err)
	}
	return name + "(" + string(canonical) + ")", nil
}

// Invalidate re-fetches subscribed entries providing any of tags and marks
// unsubscribed ones stale.
func (m *Manager) Invalidate(tags ...Tag) int {
	if len(tags) == 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.tags.match(tags)
	for key := range keys {
		e := m.entries[key]
		if e == nil {
			continue
		}
		if len(e.subs) == 0 {
			e.stale = true
			continue
		}
		if e.flight != nil {
			e.followUp = true
			continue
		}
		m.startFetchLocked(e)
	}
	m.logger.Debug("cache invalidated", "tags", fmt.Sprint(tags), "entries", len(keys))
	return len(keys)
}

// Reset drops every entry and cancels in-flight fetches.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropAllLocked()
	m.logger.Debug("cache reset")
}

// Close resets the cache and stops all background work.
func (m *Manager) Close() {
	m.mu.Lock()
	m.dropAllLocked()
	m.mu.Unlock()
	m.cancel()
}

func (m *Manager) dropAllLocked() {
	for key, e := range m.entries {
		if e.flight != nil {
			e.flight.cancel()
			m.group.Forget(key)
			close(e.flight.done)
			e.flight = nil
		}
		if e.evict != nil {
			e.evict.Stop()
		}
		for _, sub := range e.subs {
			close(sub.stop)
		}
		e.subs = nil
	}
	m.entries = map[string]*entry{}
	m.tags = newTagIndex()
}

// Len reports the number of cached entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Lookup reports the status of a cached entry without subscribing.
func (m *Manager) Lookup(key string) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return StatusUninitialized, false
	}
	return e.status, true
}

func (m *Manager) entryLocked(key, name string, run fetchFunc) *entry {
	if e, ok := m.entries[key]; ok {
		return e
	}
	e := &entry{
		key:  key,
		name: name,
		run:  run,
		subs: map[uint64]*subscriber{},
	}
	m.entries[key] = e
	return e
}

func (m *Manager) startFetchLocked(e *entry) {
	if e.flight != nil {
		return
	}
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	m.nextID++
	ctx, cancel := context.WithCancel(m.ctx)
	f := &flight{id: m.nextID, cancel: cancel, done: make(chan struct{})}
	e.flight = f
	e.followUp = false
	e.prev = e.status
	e.status = StatusLoading
	e.stale = false

	// e.flight already admits one fetch per entry. The group runs it off the
	// lock, and Forget on drop keeps a replacement entry from joining a
	// cancelled call under the same key.
	run := e.run
	ch := m.group.DoChan(e.key, func() (any, error) {
		data, tags, err := run(ctx)
		return fetchOutcome{data: data, tags: tags, err: err}, nil
	})
	m.logger.Debug("cache fetch started", "key", e.key)
	m.notifyLocked(e)
	go m.settle(e, f, ch)
}

func (m *Manager) settle(e *entry, f *flight, ch <-chan singleflight.Result) {
	res := <-ch
	f.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[e.key] != e || e.flight != f {
		return
	}
	e.flight = nil
	close(f.done)

	out, _ := res.Val.(fetchOutcome)
	if res.Err != nil {
		out.err = res.Err
	}
	m.tags.remove(e.key, e.tags)
	if out.err != nil {
		e.status = StatusError
		e.err = out.err
		m.logger.Debug("cache fetch failed", "key", e.key, "error", out.err.Error())
	} else {
		e.status = StatusSuccess
		e.err = nil
		e.data = out.data
		m.logger.Debug("cache fetch succeeded", "key", e.key)
	}
	e.tags = out.tags
	e.updatedAt = m.now()
	m.tags.add(e.key, e.tags)
	m.notifyLocked(e)

	switch {
	case e.followUp && len(e.subs) > 0:
		m.startFetchLocked(e)
	case e.followUp:
		e.followUp = false
		e.stale = true
		m.scheduleEvictLocked(e)
	case len(e.subs) == 0:
		m.scheduleEvictLocked(e)
	}
}

func (m *Manager) notifyLocked(e *entry) {
	for _, sub := range e.subs {
		select {
		case sub.changes <- struct{}{}:
		default:
		}
	}
}

func (m *Manager) scheduleEvictLocked(e *entry) {
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	if m.keepFor < 0 {
		m.removeLocked(e)
		return
	}
	e.evict = time.AfterFunc(m.keepFor, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.entries[e.key] == e && len(e.subs) == 0 && e.flight == nil {
			m.removeLocked(e)
			m.logger.Debug("cache entry evicted", "key", e.key)
		}
	})
}

func (m *Manager) removeLocked(e *entry) {
	if m.entries[e.key] != e {
		return
	}
	m.tags.remove(e.key, e.tags)
	delete(m.entries, e.key)
}

func (m *Manager) subscribeLocked(e *entry) (uint64, *subscriber) {
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	m.nextID++
	sub := &subscriber{changes: make(chan struct{}, 1), stop: make(chan struct{})}
	e.subs[m.nextID] = sub
	return m.nextID, sub
}

func (m *Manager) unsubscribe(e *entry, id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := e.subs[id]
	if !ok {
		return
	}
	delete(e.subs, id)
	close(sub.stop)
	if len(e.subs) > 0 || m.entries[e.key] != e {
		return
	}
	if f := e.flight; f != nil {
		// Nobody is left to read the response: drop it.
		f.cancel()
		m.group.Forget(e.key)
		close(f.done)
		e.flight = nil
		e.followUp = false
		m.logger.Debug("cache fetch discarded", "key", e.key)
		if e.prev == StatusUninitialized {
			m.removeLocked(e)
			return
		}
		e.status = e.prev
		e.stale = true
	}
	m.scheduleEvictLocked(e)
}

// needsFetchLocked reports whether a new subscriber should trigger a fetch.
func (m *Manager) needsFetchLocked(e *entry) bool {
	if e.flight != nil {
		return false
	}
	switch e.status {
	case StatusUninitialized, StatusError:
		return true
	}
	return e.stale
}

func (m *Manager) observe(ctx context.Context, ev MutationEvent) {
	if m.observer != nil {
		m.observer.ObserveMutation(ctx, ev)
	}
}
