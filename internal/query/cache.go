// Package query is a keyed cache of remote reads. Each entry is a small state
// machine with observers; at most one fetch per entry is in flight.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atinyakov/TrailKeeper/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Kind names a family of reads.
type Kind string

// Key identifies one entry. Parameters a kind does not use stay empty.
type Key struct {
	Kind    Kind
	HikeID  string
	RouteID string
}

func (k Key) String() string {
	return string(k.Kind) + "/" + k.HikeID + "/" + k.RouteID
}

// Status is the lifecycle position of an entry.
type Status int

const (
	// StatusIdle has never been fetched, or is disabled.
	StatusIdle Status = iota
	// StatusLoading has a fetch in flight.
	StatusLoading
	// StatusSuccess holds data from the last fetch.
	StatusSuccess
	// StatusError holds the error of the last fetch.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of an entry. Data survives a later failed fetch.
type State struct {
	Status    Status
	Data      any
	Err       error
	UpdatedAt time.Time
	// Stale is set by invalidation and cleared by the next completed fetch.
	Stale bool
}

// IsLoading reports whether a fetch is in flight.
func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

// FetchFunc loads the data of an entry.
type FetchFunc func(ctx context.Context) (any, error)

// EnabledFunc reports whether an entry may fetch right now.
type EnabledFunc func() bool

// Cache holds entries by key.
type Cache struct {
	log *zap.Logger
	m   *metrics.Metrics
	now func() time.Time

	mu      sync.Mutex
	entries map[Key]*Entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithMetrics counts fetches and tracks the entry gauge in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.m = m }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		log:     zap.NewNop(),
		now:     time.Now,
		entries: make(map[Key]*Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Entry returns the entry for key, creating it idle if needed. fetch and
// enabled replace the ones held by an existing entry, so callers always
// supply the current parameters.
func (c *Cache) Entry(key Key, fetch FetchFunc, enabled EnabledFunc) *Entry {
	if enabled == nil {
		enabled = func() bool { return true }
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &Entry{cache: c, key: key, listeners: make(map[int]func(State))}
		c.entries[key] = e
	}
	n := len(c.entries)
	c.mu.Unlock()

	e.mu.Lock()
	e.fetch = fetch
	e.enabled = enabled
	e.lastUsed = c.now()
	e.mu.Unlock()

	if !ok {
		c.m.SetCacheEntries(n)
	}
	return e
}

// Lookup returns the entry for key if one exists.
func (c *Cache) Lookup(key Key) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Find returns the keys of the entries match accepts, given their current
// state.
func (c *Cache) Find(match func(Key, State) bool) []Key {
	var keys []Key
	for _, e := range c.snapshot() {
		if match(e.key, e.State()) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Invalidate marks every entry match accepts as stale. Entries that are
// enabled and were fetched before are refetched concurrently, and Invalidate
// waits for them; the rest load on their next Fetch. The returned error
// joins the refetch failures, which are also recorded on the entries.
func (c *Cache) Invalidate(ctx context.Context, match func(Key) bool) error {
	var active []*Entry
	for _, e := range c.snapshot() {
		if !match(e.key) {
			continue
		}
		if e.markStale() {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return nil
	}

	c.log.Debug("invalidating cache entries", zap.Int("refetch", len(active)))
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, e := range active {
		g.Go(func() error {
			if st := e.Refetch(ctx); st.Status == StatusError {
				mu.Lock()
				errs = append(errs, st.Err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Remove drops the entries match accepts. Their observers get no further
// updates.
func (c *Cache) Remove(match func(Key) bool) int {
	c.mu.Lock()
	var removed []*Entry
	for k, e := range c.entries {
		if match(k) {
			delete(c.entries, k)
			removed = append(removed, e)
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	for _, e := range removed {
		e.detach()
	}
	if len(removed) > 0 {
		c.m.SetCacheEntries(n)
		c.log.Debug("removed cache entries", zap.Int("count", len(removed)))
	}
	return len(removed)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	n := c.Remove(func(Key) bool { return true })
	c.log.Info("cache cleared", zap.Int("entries", n))
}

func (c *Cache) snapshot() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// Entry is one cached read.
type Entry struct {
	cache *Cache
	key   Key
	group singleflight.Group

	mu        sync.Mutex
	fetch     FetchFunc
	enabled   EnabledFunc
	state     State
	listeners map[int]func(State)
	nextID    int
	lastUsed  time.Time
	detached  bool
}

// Key returns the entry key.
func (e *Entry) Key() Key {
	return e.key
}

// State returns a snapshot of the entry.
func (e *Entry) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Enabled reports whether the entry may fetch.
func (e *Entry) Enabled() bool {
	e.mu.Lock()
	enabled := e.enabled
	e.mu.Unlock()
	return enabled()
}

// Fetch returns fresh data without a network call, or loads it. A disabled
// entry returns its state untouched.
func (e *Entry) Fetch(ctx context.Context) State {
	st := e.State()
	if st.Status == StatusSuccess && !st.Stale {
		e.touch()
		return st
	}
	return e.Refetch(ctx)
}

// Refetch loads the entry unless it is disabled. Concurrent calls share one
// fetch. The fetch itself does not observe ctx cancellation, so a caller
// that gives up leaves the result to the other observers; Refetch then
// returns the current state with ctx's error.
func (e *Entry) Refetch(ctx context.Context) State {
	if !e.Enabled() {
		return e.State()
	}

	ch := e.group.DoChan(e.key.String(), func() (any, error) {
		return e.load(context.WithoutCancel(ctx)), nil
	})
	select {
	case res := <-ch:
		return res.Val.(State)
	case <-ctx.Done():
		st := e.State()
		st.Err = ctx.Err()
		return st
	}
}

func (e *Entry) load(ctx context.Context) State {
	e.mu.Lock()
	fetch := e.fetch
	e.state.Status = StatusLoading
	loading := e.state
	e.mu.Unlock()
	e.notify(loading)

	data, err := fetch(ctx)

	e.mu.Lock()
	now := e.cache.now()
	if err != nil {
		e.state.Status = StatusError
		e.state.Err = err
	} else {
		e.state = State{Status: StatusSuccess, Data: data}
	}
	e.state.UpdatedAt = now
	e.state.Stale = false
	e.lastUsed = now
	st := e.state
	detached := e.detached
	e.mu.Unlock()

	outcome := "success"
	if err != nil {
		outcome = "error"
		e.cache.log.Debug("fetch failed", zap.String("key", e.key.String()), zap.Error(err))
	}
	e.cache.m.ObserveFetch(string(e.key.Kind), outcome)
	if !detached {
		e.notify(st)
	}
	return st
}

// Subscribe calls fn on every state change until the returned function is
// called. Unsubscribing does not cancel a fetch in flight.
func (e *Entry) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.lastUsed = e.cache.now()
			e.mu.Unlock()
		})
	}
}

// markStale flags the entry and reports whether it should be refetched now.
func (e *Entry) markStale() bool {
	e.mu.Lock()
	e.state.Stale = true
	st := e.state
	enabled := e.enabled
	e.mu.Unlock()
	e.notify(st)
	return st.Status != StatusIdle && enabled()
}

func (e *Entry) touch() {
	e.mu.Lock()
	e.lastUsed = e.cache.now()
	e.mu.Unlock()
}

func (e *Entry) detach() {
	e.mu.Lock()
	e.detached = true
	e.listeners = make(map[int]func(State))
	e.mu.Unlock()
}

func (e *Entry) notify(st State) {
	e.mu.Lock()
	fns := make([]func(State), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
