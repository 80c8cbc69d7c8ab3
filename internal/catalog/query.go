package catalog

import (
	"context"

	"github.com/atinyakov/TrailKeeper/internal/query"
)

// Result is the typed view of a cache entry.
type Result[T any] struct {
	IsLoading bool
	Data      T
	Err       error
	Stale     bool
	Status    query.Status
}

// Query is a typed handle on one cache entry.
type Query[T any] struct {
	entry *query.Entry
}

// Key returns the cache key.
func (q Query[T]) Key() query.Key {
	return q.entry.Key()
}

// Enabled reports whether the query may reach the network.
func (q Query[T]) Enabled() bool {
	return q.entry.Enabled()
}

// Fetch returns cached fresh data or loads it.
func (q Query[T]) Fetch(ctx context.Context) Result[T] {
	return toResult[T](q.entry.Fetch(ctx))
}

// Refetch always loads, unless disabled.
func (q Query[T]) Refetch(ctx context.Context) Result[T] {
	return toResult[T](q.entry.Refetch(ctx))
}

// Result returns the current state without loading.
func (q Query[T]) Result() Result[T] {
	return toResult[T](q.entry.State())
}

// Subscribe calls fn on every change until unsubscribed.
func (q Query[T]) Subscribe(fn func(Result[T])) (unsubscribe func()) {
	return q.entry.Subscribe(func(st query.State) {
		fn(toResult[T](st))
	})
}

func toResult[T any](st query.State) Result[T] {
	r := Result[T]{
		IsLoading: st.IsLoading(),
		Err:       st.Err,
		Stale:     st.Stale,
		Status:    st.Status,
	}
	if data, ok := st.Data.(T); ok {
		r.Data = data
	}
	return r
}
