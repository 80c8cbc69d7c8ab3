// Package mutation runs the create, update and delete operations of the
// catalog and keeps the query cache consistent with their results.
package mutation

import (
	"context"

	"github.com/atinyakov/TrailKeeper/internal/authretry"
	"github.com/atinyakov/TrailKeeper/internal/catalog"
	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/atinyakov/TrailKeeper/internal/query"
	"github.com/atinyakov/TrailKeeper/internal/session"
	"go.uber.org/zap"
)

// Replay kinds of the nine mutations.
const (
	KindCreateHike  authretry.Kind = "hike.create"
	KindUpdateHike  authretry.Kind = "hike.update"
	KindDeleteHike  authretry.Kind = "hike.delete"
	KindCreateRoute authretry.Kind = "route.create"
	KindUpdateRoute authretry.Kind = "route.update"
	KindDeleteRoute authretry.Kind = "route.delete"
	KindCreatePoint authretry.Kind = "point.create"
	KindUpdatePoint authretry.Kind = "point.update"
	KindDeletePoint authretry.Kind = "point.delete"
)

// API is the subset of the remote client used for writes.
type API interface {
	CreateHike(ctx context.Context, token string, req models.HikeRequest) (*models.Hike, error)
	UpdateHike(ctx context.Context, token, hikeID string, req models.HikeRequest) (*models.Hike, error)
	DeleteHike(ctx context.Context, token, hikeID string) (*models.Hike, error)
	CreateRoute(ctx context.Context, token string, req models.RouteRequest) (*models.Route, error)
	UpdateRoute(ctx context.Context, token, routeID string, req models.RouteRequest) (*models.Route, error)
	DeleteRoute(ctx context.Context, token, routeID string) (*models.Route, error)
	CreatePoint(ctx context.Context, token string, req models.PointRequest) (*models.Point, error)
	UpdatePoint(ctx context.Context, token, pointID string, req models.PointRequest) (*models.Point, error)
	DeletePoint(ctx context.Context, token, pointID string) (*models.Point, error)
}

// Session is what the coordinator needs from the session manager.
type Session interface {
	AccessToken() string
	Policy() *authretry.Policy
}

// Coordinator executes mutations. Distinct calls may overlap; the last
// response to arrive decides the final cache state.
type Coordinator struct {
	cache *query.Cache
	sess  Session
	api   API
	nav   session.Navigator
	log   *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNavigator sets where the Back signal goes.
func WithNavigator(nav session.Navigator) Option {
	return func(c *Coordinator) { c.nav = nav }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// New returns a Coordinator writing through api and invalidating cache.
func New(cache *query.Cache, sess Session, api API, opts ...Option) *Coordinator {
	c := &Coordinator{
		cache: cache,
		sess:  sess,
		api:   api,
		nav:   session.NopNavigator{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

type exec[T any] func(ctx context.Context, token string, op authretry.Operation) (T, error)

// run executes op through the retry policy. The token is read per attempt
// so a replay carries the refreshed one.
func run[T any](ctx context.Context, c *Coordinator, op authretry.Operation, fn exec[T]) (T, error) {
	res, err := authretry.Do(ctx, c.sess.Policy(), op, func(ctx context.Context, op authretry.Operation) (T, error) {
		token := c.sess.AccessToken()
		if token == "" {
			var zero T
			return zero, session.ErrNotAuthenticated
		}
		return fn(ctx, token, op)
	})
	if err != nil {
		c.log.Info("mutation failed", zap.String("kind", string(op.Kind)), zap.Error(err))
	}
	return res, err
}

// settle applies the cache effects of a successful mutation and pops one
// navigation level.
func (c *Coordinator) settle(ctx context.Context, op authretry.Operation, remove, invalidate func(query.Key) bool) {
	if remove != nil {
		c.cache.Remove(remove)
	}
	if invalidate != nil {
		if err := c.cache.Invalidate(ctx, invalidate); err != nil {
			// the write itself went through; entries carry the error
			c.log.Warn("refetch after mutation failed", zap.String("kind", string(op.Kind)), zap.Error(err))
		}
	}
	c.log.Debug("mutation applied", zap.String("op", op.String()))
	c.nav.Back()
}

// CreateHike adds a hike.
func (c *Coordinator) CreateHike(ctx context.Context, req models.HikeRequest) (*models.Hike, error) {
	op := authretry.Operation{Kind: KindCreateHike, Payload: req}
	hike, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Hike, error) {
		return c.api.CreateHike(ctx, token, op.Payload.(models.HikeRequest))
	})
	if err != nil {
		return nil, err
	}
	c.settle(ctx, op, nil, kinds(catalog.KindHikes, catalog.KindCreatorHikes))
	return hike, nil
}

// UpdateHike replaces hike hikeID.
func (c *Coordinator) UpdateHike(ctx context.Context, hikeID string, req models.HikeRequest) (*models.Hike, error) {
	op := authretry.Operation{Kind: KindUpdateHike, ID: hikeID, Payload: req}
	hike, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Hike, error) {
		return c.api.UpdateHike(ctx, token, op.ID, op.Payload.(models.HikeRequest))
	})
	if err != nil {
		return nil, err
	}
	c.settle(ctx, op, nil, anyOf(
		kinds(catalog.KindHikes, catalog.KindCreatorHikes),
		hikeDetail(hikeID),
	))
	return hike, nil
}

// DeleteHike removes hike hikeID. Its detail entries, and those of its
// routes, are dropped rather than refetched.
func (c *Coordinator) DeleteHike(ctx context.Context, hikeID string) (*models.Hike, error) {
	op := authretry.Operation{Kind: KindDeleteHike, ID: hikeID}
	hike, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Hike, error) {
		return c.api.DeleteHike(ctx, token, op.ID)
	})
	if err != nil {
		return nil, err
	}
	c.settle(ctx, op,
		func(k query.Key) bool {
			return k.HikeID == hikeID && (k.Kind == catalog.KindHikeWithRoutes || k.Kind == catalog.KindRouteWithPoints)
		},
		kinds(catalog.KindHikes, catalog.KindCreatorHikes),
	)
	return hike, nil
}

// CreateRoute adds a route to req.HikeID.
func (c *Coordinator) CreateRoute(ctx context.Context, req models.RouteRequest) (*models.Route, error) {
	op := authretry.Operation{Kind: KindCreateRoute, ParentID: req.HikeID, Payload: req}
	route, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Route, error) {
		return c.api.CreateRoute(ctx, token, op.Payload.(models.RouteRequest))
	})
	if err != nil {
		return nil, err
	}
	c.settle(ctx, op, nil, hikeDetail(req.HikeID))
	return route, nil
}

// UpdateRoute replaces route routeID. A route moved to another hike also
// refreshes the hike it left.
func (c *Coordinator) UpdateRoute(ctx context.Context, routeID string, req models.RouteRequest) (*models.Route, error) {
	op := authretry.Operation{Kind: KindUpdateRoute, ID: routeID, ParentID: req.HikeID, Payload: req}
	route, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Route, error) {
		return c.api.UpdateRoute(ctx, token, op.ID, op.Payload.(models.RouteRequest))
	})
	if err != nil {
		return nil, err
	}
	parents := c.hikesWithRoute(routeID)
	c.settle(ctx, op, nil, anyOf(
		hikeDetail(req.HikeID),
		keyIn(parents),
		routeDetail(routeID),
	))
	return route, nil
}

// DeleteRoute removes route routeID. The parent hike comes from the
// response, else from the cached hike details listing the route.
func (c *Coordinator) DeleteRoute(ctx context.Context, routeID string) (*models.Route, error) {
	op := authretry.Operation{Kind: KindDeleteRoute, ID: routeID}
	route, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Route, error) {
		return c.api.DeleteRoute(ctx, token, op.ID)
	})
	if err != nil {
		return nil, err
	}
	parents := c.hikesWithRoute(routeID)
	var parent string
	if route != nil {
		parent = route.HikeID
	}
	c.settle(ctx, op, routeDetail(routeID), anyOf(hikeDetail(parent), keyIn(parents)))
	return route, nil
}

// CreatePoint adds a point to req.RouteID.
func (c *Coordinator) CreatePoint(ctx context.Context, req models.PointRequest) (*models.Point, error) {
	op := authretry.Operation{Kind: KindCreatePoint, ParentID: req.RouteID, Payload: req}
	point, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Point, error) {
		return c.api.CreatePoint(ctx, token, op.Payload.(models.PointRequest))
	})
	if err != nil {
		return nil, err
	}
	c.settle(ctx, op, nil, routeDetail(req.RouteID))
	return point, nil
}

// UpdatePoint replaces point pointID. A point moved to another route also
// refreshes the route it left.
func (c *Coordinator) UpdatePoint(ctx context.Context, pointID string, req models.PointRequest) (*models.Point, error) {
	op := authretry.Operation{Kind: KindUpdatePoint, ID: pointID, ParentID: req.RouteID, Payload: req}
	point, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Point, error) {
		return c.api.UpdatePoint(ctx, token, op.ID, op.Payload.(models.PointRequest))
	})
	if err != nil {
		return nil, err
	}
	c.settle(ctx, op, nil, anyOf(routeDetail(req.RouteID), keyIn(c.routesWithPoint(pointID))))
	return point, nil
}

// DeletePoint removes point pointID. The route comes from the response, else
// from the cached route details listing the point.
func (c *Coordinator) DeletePoint(ctx context.Context, pointID string) (*models.Point, error) {
	op := authretry.Operation{Kind: KindDeletePoint, ID: pointID}
	point, err := run(ctx, c, op, func(ctx context.Context, token string, op authretry.Operation) (*models.Point, error) {
		return c.api.DeletePoint(ctx, token, op.ID)
	})
	if err != nil {
		return nil, err
	}
	var route string
	if point != nil {
		route = point.RouteID
	}
	c.settle(ctx, op, nil, anyOf(routeDetail(route), keyIn(c.routesWithPoint(pointID))))
	return point, nil
}

// hikesWithRoute returns the cached hike details whose routes include routeID.
func (c *Coordinator) hikesWithRoute(routeID string) []query.Key {
	return c.cache.Find(func(k query.Key, st query.State) bool {
		hwr, ok := st.Data.(*models.HikeWithRoutes)
		return k.Kind == catalog.KindHikeWithRoutes && ok && hwr.HasRoute(routeID)
	})
}

// routesWithPoint returns the cached route details whose points include
// pointID.
func (c *Coordinator) routesWithPoint(pointID string) []query.Key {
	return c.cache.Find(func(k query.Key, st query.State) bool {
		rwp, ok := st.Data.(*models.RouteWithPoints)
		return k.Kind == catalog.KindRouteWithPoints && ok && rwp.HasPoint(pointID)
	})
}

func kinds(ks ...query.Kind) func(query.Key) bool {
	return func(k query.Key) bool {
		for _, kind := range ks {
			if k.Kind == kind {
				return true
			}
		}
		return false
	}
}

func hikeDetail(hikeID string) func(query.Key) bool {
	return func(k query.Key) bool {
		return hikeID != "" && k.Kind == catalog.KindHikeWithRoutes && k.HikeID == hikeID
	}
}

// routeDetail matches the route detail under any hike.
func routeDetail(routeID string) func(query.Key) bool {
	return func(k query.Key) bool {
		return routeID != "" && k.Kind == catalog.KindRouteWithPoints && k.RouteID == routeID
	}
}

func keyIn(keys []query.Key) func(query.Key) bool {
	return func(k query.Key) bool {
		for _, key := range keys {
			if k == key {
				return true
			}
		}
		return false
	}
}

func anyOf(matchers ...func(query.Key) bool) func(query.Key) bool {
	return func(k query.Key) bool {
		for _, m := range matchers {
			if m(k) {
				return true
			}
		}
		return false
	}
}
