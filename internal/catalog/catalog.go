// Package catalog exposes the four entity reads of the trail catalog as
// cached, observable queries.
package catalog

import (
	"context"

	"github.com/atinyakov/TrailKeeper/internal/authretry"
	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/atinyakov/TrailKeeper/internal/query"
	"github.com/atinyakov/TrailKeeper/internal/session"
)

// Cache entry kinds.
const (
	KindHikes           query.Kind = "hikes"
	KindCreatorHikes    query.Kind = "creatorHikes"
	KindHikeWithRoutes  query.Kind = "hikeWithRoutes"
	KindRouteWithPoints query.Kind = "routeWithPoints"
)

// API is the subset of the remote client the catalog reads through.
type API interface {
	ListHikes(ctx context.Context, token string) ([]models.Hike, error)
	ListCreatorHikes(ctx context.Context, token string) ([]models.Hike, error)
	GetHikeWithRoutes(ctx context.Context, token, hikeID string) (*models.HikeWithRoutes, error)
	GetRouteWithPoints(ctx context.Context, token, routeID string) (*models.RouteWithPoints, error)
}

// Session is what the catalog needs from the session manager.
type Session interface {
	AccessToken() string
	OnLogout(fn func())
	Policy() *authretry.Policy
}

// Catalog builds the queries. Every query is disabled while the session
// holds no access token.
type Catalog struct {
	cache *query.Cache
	sess  Session
	api   API
}

// New returns a Catalog and ties the cache lifetime to the session: every
// logout clears it.
func New(cache *query.Cache, sess Session, api API) *Catalog {
	sess.OnLogout(cache.Clear)
	return &Catalog{cache: cache, sess: sess, api: api}
}

// Cache returns the underlying cache.
func (c *Catalog) Cache() *query.Cache {
	return c.cache
}

// Hikes is the whole catalog listing.
func (c *Catalog) Hikes() Query[[]models.Hike] {
	op := authretry.Operation{Kind: replayKind(KindHikes)}
	return newQuery(c, query.Key{Kind: KindHikes}, op, nil,
		func(ctx context.Context, token string, _ authretry.Operation) ([]models.Hike, error) {
			return c.api.ListHikes(ctx, token)
		})
}

// CreatorHikes lists the hikes owned by the signed-in user.
func (c *Catalog) CreatorHikes() Query[[]models.Hike] {
	op := authretry.Operation{Kind: replayKind(KindCreatorHikes)}
	return newQuery(c, query.Key{Kind: KindCreatorHikes}, op, nil,
		func(ctx context.Context, token string, _ authretry.Operation) ([]models.Hike, error) {
			return c.api.ListCreatorHikes(ctx, token)
		})
}

// HikeWithRoutes is the detail view of one hike.
func (c *Catalog) HikeWithRoutes(hikeID string) Query[*models.HikeWithRoutes] {
	op := authretry.Operation{Kind: replayKind(KindHikeWithRoutes), ID: hikeID}
	return newQuery(c, query.Key{Kind: KindHikeWithRoutes, HikeID: hikeID}, op, []string{hikeID},
		func(ctx context.Context, token string, op authretry.Operation) (*models.HikeWithRoutes, error) {
			return c.api.GetHikeWithRoutes(ctx, token, op.ID)
		})
}

// RouteWithPoints is the detail view of one route. The hike id is part of
// the key but not of the request.
func (c *Catalog) RouteWithPoints(hikeID, routeID string) Query[*models.RouteWithPoints] {
	op := authretry.Operation{Kind: replayKind(KindRouteWithPoints), ID: routeID, ParentID: hikeID}
	key := query.Key{Kind: KindRouteWithPoints, HikeID: hikeID, RouteID: routeID}
	return newQuery(c, key, op, []string{hikeID, routeID},
		func(ctx context.Context, token string, op authretry.Operation) (*models.RouteWithPoints, error) {
			return c.api.GetRouteWithPoints(ctx, token, op.ID)
		})
}

func replayKind(k query.Kind) authretry.Kind {
	return authretry.Kind("query." + string(k))
}

type call[T any] func(ctx context.Context, token string, op authretry.Operation) (T, error)

func newQuery[T any](c *Catalog, key query.Key, op authretry.Operation, params []string, fn call[T]) Query[T] {
	enabled := func() bool {
		if c.sess.AccessToken() == "" {
			return false
		}
		for _, p := range params {
			if p == "" {
				return false
			}
		}
		return true
	}
	fetch := func(ctx context.Context) (any, error) {
		return authretry.Do(ctx, c.sess.Policy(), op, func(ctx context.Context, op authretry.Operation) (T, error) {
			// read per attempt, so the replay carries the refreshed token
			token := c.sess.AccessToken()
			if token == "" {
				var zero T
				return zero, session.ErrNotAuthenticated
			}
			return fn(ctx, token, op)
		})
	}
	return Query[T]{entry: c.cache.Entry(key, fetch, enabled)}
}
