package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/atinyakov/TrailKeeper/internal/models"
)

// ListHikes returns the whole catalog.
func (c *Client) ListHikes(ctx context.Context, token string) ([]models.Hike, error) {
	var hikes []models.Hike
	err := c.do(ctx, "hikes.list", http.MethodGet, "/Hikes", token, nil, &hikes)
	return hikes, err
}

// ListCreatorHikes returns the hikes owned by the token's user.
func (c *Client) ListCreatorHikes(ctx context.Context, token string) ([]models.Hike, error) {
	var hikes []models.Hike
	err := c.do(ctx, "hikes.creator", http.MethodGet, "/Hikes/creator-hikes", token, nil, &hikes)
	return hikes, err
}

// GetHikeWithRoutes returns a hike with its routes.
func (c *Client) GetHikeWithRoutes(ctx context.Context, token, hikeID string) (*models.HikeWithRoutes, error) {
	var hwr models.HikeWithRoutes
	if err := c.do(ctx, "hikes.detail", http.MethodGet, "/Hikes/"+url.PathEscape(hikeID)+"/Routes", token, nil, &hwr); err != nil {
		return nil, err
	}
	return &hwr, nil
}

// CreateHike posts a new hike.
func (c *Client) CreateHike(ctx context.Context, token string, req models.HikeRequest) (*models.Hike, error) {
	var hike models.Hike
	if err := c.do(ctx, "hikes.create", http.MethodPost, "/Hikes", token, req, &hike); err != nil {
		return nil, err
	}
	return &hike, nil
}

// UpdateHike replaces the hike with the given id.
func (c *Client) UpdateHike(ctx context.Context, token, hikeID string, req models.HikeRequest) (*models.Hike, error) {
	var hike models.Hike
	if err := c.do(ctx, "hikes.update", http.MethodPut, "/Hikes/"+url.PathEscape(hikeID), token, req, &hike); err != nil {
		return nil, err
	}
	return &hike, nil
}

// DeleteHike removes the hike with the given id. The returned hike is the
// server's echo of the deleted entity and is zero when it sent none.
func (c *Client) DeleteHike(ctx context.Context, token, hikeID string) (*models.Hike, error) {
	var hike models.Hike
	if err := c.do(ctx, "hikes.delete", http.MethodDelete, "/Hikes/"+url.PathEscape(hikeID), token, nil, &hike); err != nil {
		return nil, err
	}
	return &hike, nil
}

// GetRouteWithPoints returns a route with its points.
func (c *Client) GetRouteWithPoints(ctx context.Context, token, routeID string) (*models.RouteWithPoints, error) {
	var rwp models.RouteWithPoints
	if err := c.do(ctx, "routes.detail", http.MethodGet, "/Routes/"+url.PathEscape(routeID)+"/Points", token, nil, &rwp); err != nil {
		return nil, err
	}
	return &rwp, nil
}

// CreateRoute posts a new route.
func (c *Client) CreateRoute(ctx context.Context, token string, req models.RouteRequest) (*models.Route, error) {
	var route models.Route
	if err := c.do(ctx, "routes.create", http.MethodPost, "/Routes", token, req, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// UpdateRoute replaces the route with the given id.
func (c *Client) UpdateRoute(ctx context.Context, token, routeID string, req models.RouteRequest) (*models.Route, error) {
	var route models.Route
	if err := c.do(ctx, "routes.update", http.MethodPut, "/Routes/"+url.PathEscape(routeID), token, req, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// DeleteRoute removes the route with the given id.
func (c *Client) DeleteRoute(ctx context.Context, token, routeID string) (*models.Route, error) {
	var route models.Route
	if err := c.do(ctx, "routes.delete", http.MethodDelete, "/Routes/"+url.PathEscape(routeID), token, nil, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// CreatePoint posts a new point.
func (c *Client) CreatePoint(ctx context.Context, token string, req models.PointRequest) (*models.Point, error) {
	var point models.Point
	if err := c.do(ctx, "points.create", http.MethodPost, "/Points", token, req, &point); err != nil {
		return nil, err
	}
	return &point, nil
}

// UpdatePoint replaces the point with the given id.
func (c *Client) UpdatePoint(ctx context.Context, token, pointID string, req models.PointRequest) (*models.Point, error) {
	var point models.Point
	if err := c.do(ctx, "points.update", http.MethodPut, "/Points/"+url.PathEscape(pointID), token, req, &point); err != nil {
		return nil, err
	}
	return &point, nil
}

// DeletePoint removes the point with the given id.
func (c *Client) DeletePoint(ctx context.Context, token, pointID string) (*models.Point, error) {
	var point models.Point
	if err := c.do(ctx, "points.delete", http.MethodDelete, "/Points/"+url.PathEscape(pointID), token, nil, &point); err != nil {
		return nil, err
	}
	return &point, nil
}
