package remotetest

import (
	"net/http"
	"sort"
	"strings"

	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Stub) listHikes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hikes := s.hikesLocked(func(*hikeRecord) bool { return true })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, hikes)
}

func (s *Stub) listCreatorHikes(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	s.mu.Lock()
	hikes := s.hikesLocked(func(h *hikeRecord) bool { return h.ownerID == userID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, hikes)
}

func (s *Stub) hikeWithRoutes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.hikes[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Hike not found")
		return
	}
	routes := []models.Route{}
	for _, rt := range s.routes {
		if rt.HikeID == id {
			routes = append(routes, rt)
		}
	}
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].OrderInHike != routes[j].OrderInHike {
			return routes[i].OrderInHike < routes[j].OrderInHike
		}
		return routes[i].ID < routes[j].ID
	})
	writeJSON(w, http.StatusOK, models.HikeWithRoutes{Hike: rec.hike, Routes: routes})
}

func (s *Stub) createHike(w http.ResponseWriter, r *http.Request) {
	var req models.HikeRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := hikeFieldErrors(req); len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	userID := UserIDFromContext(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, _ := s.userByIDLocked(userID); u.Role == models.RoleHiker {
		writeMessage(w, http.StatusForbidden, "Only creators can add hikes")
		return
	}
	h := hikeFromRequest(uuid.NewString(), req)
	s.hikes[h.ID] = &hikeRecord{hike: h, ownerID: userID}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Stub) updateHike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.HikeRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := hikeFieldErrors(req); len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedHikeLocked(w, r, id)
	if !ok {
		return
	}
	rec.hike = hikeFromRequest(id, req)
	writeJSON(w, http.StatusOK, rec.hike)
}

func (s *Stub) deleteHike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedHikeLocked(w, r, id)
	if !ok {
		return
	}
	for rid, rt := range s.routes {
		if rt.HikeID == id {
			s.deleteRouteLocked(rid)
		}
	}
	delete(s.hikes, id)
	writeJSON(w, http.StatusOK, rec.hike)
}

func (s *Stub) routeWithPoints(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.routes[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Route not found")
		return
	}
	points := []models.Point{}
	for _, p := range s.points {
		if p.RouteID == id {
			points = append(points, p)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].OrderInRoute != points[j].OrderInRoute {
			return points[i].OrderInRoute < points[j].OrderInRoute
		}
		return points[i].ID < points[j].ID
	})
	writeJSON(w, http.StatusOK, models.RouteWithPoints{Route: rt, Points: points})
}

func (s *Stub) createRoute(w http.ResponseWriter, r *http.Request) {
	var req models.RouteRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := routeFieldErrors(req); len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ownedHikeLocked(w, r, req.HikeID); !ok {
		return
	}
	rt := routeFromRequest(uuid.NewString(), req)
	s.routes[rt.ID] = rt
	writeJSON(w, http.StatusCreated, rt)
}

func (s *Stub) updateRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.RouteRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := routeFieldErrors(req); len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ownedRouteLocked(w, r, id); !ok {
		return
	}
	if _, ok := s.ownedHikeLocked(w, r, req.HikeID); !ok {
		return
	}
	rt := routeFromRequest(id, req)
	s.routes[id] = rt
	writeJSON(w, http.StatusOK, rt)
}

func (s *Stub) deleteRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.ownedRouteLocked(w, r, id)
	if !ok {
		return
	}
	s.deleteRouteLocked(id)
	writeJSON(w, http.StatusOK, rt)
}

func (s *Stub) createPoint(w http.ResponseWriter, r *http.Request) {
	var req models.PointRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := pointFieldErrors(req); len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ownedRouteLocked(w, r, req.RouteID); !ok {
		return
	}
	p := pointFromRequest(uuid.NewString(), req)
	s.points[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (s *Stub) updatePoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.PointRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := pointFieldErrors(req); len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ownedPointLocked(w, r, id); !ok {
		return
	}
	if _, ok := s.ownedRouteLocked(w, r, req.RouteID); !ok {
		return
	}
	p := pointFromRequest(id, req)
	s.points[id] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Stub) deletePoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ownedPointLocked(w, r, id)
	if !ok {
		return
	}
	delete(s.points, id)
	writeJSON(w, http.StatusOK, p)
}

func (s *Stub) hikesLocked(keep func(*hikeRecord) bool) []models.Hike {
	hikes := []models.Hike{}
	for _, rec := range s.hikes {
		if keep(rec) {
			hikes = append(hikes, rec.hike)
		}
	}
	sort.Slice(hikes, func(i, j int) bool {
		if hikes[i].Name != hikes[j].Name {
			return hikes[i].Name < hikes[j].Name
		}
		return hikes[i].ID < hikes[j].ID
	})
	return hikes
}

// ownedHikeLocked finds hike id and checks the caller may edit it. On
// failure it has already answered the request.
func (s *Stub) ownedHikeLocked(w http.ResponseWriter, r *http.Request, id string) (*hikeRecord, bool) {
	rec, ok := s.hikes[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Hike not found")
		return nil, false
	}
	userID := UserIDFromContext(r.Context())
	if rec.ownerID != userID {
		if u, _ := s.userByIDLocked(userID); u.Role != models.RoleAdmin {
			writeMessage(w, http.StatusForbidden, "You do not own this hike")
			return nil, false
		}
	}
	return rec, true
}

func (s *Stub) ownedRouteLocked(w http.ResponseWriter, r *http.Request, id string) (models.Route, bool) {
	rt, ok := s.routes[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Route not found")
		return rt, false
	}
	if _, ok := s.ownedHikeLocked(w, r, rt.HikeID); !ok {
		return rt, false
	}
	return rt, true
}

func (s *Stub) ownedPointLocked(w http.ResponseWriter, r *http.Request, id string) (models.Point, bool) {
	p, ok := s.points[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Point not found")
		return p, false
	}
	if _, ok := s.ownedRouteLocked(w, r, p.RouteID); !ok {
		return p, false
	}
	return p, true
}

func (s *Stub) deleteRouteLocked(id string) {
	for pid, p := range s.points {
		if p.RouteID == id {
			delete(s.points, pid)
		}
	}
	delete(s.routes, id)
}

func hikeFieldErrors(req models.HikeRequest) map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["Name"] = []string{"The Name field is required."}
	}
	if req.TotalDistance < 0 {
		fields["TotalDistance"] = []string{"Total distance cannot be negative."}
	}
	return fields
}

func routeFieldErrors(req models.RouteRequest) map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(req.HikeID) == "" {
		fields["HikeId"] = []string{"The HikeId field is required."}
	}
	if req.Distance < 0 {
		fields["Distance"] = []string{"Distance cannot be negative."}
	}
	return fields
}

func pointFieldErrors(req models.PointRequest) map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(req.RouteID) == "" {
		fields["RouteId"] = []string{"The RouteId field is required."}
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		fields["Latitude"] = []string{"Latitude must be between -90 and 90."}
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		fields["Longitude"] = []string{"Longitude must be between -180 and 180."}
	}
	return fields
}

func hikeFromRequest(id string, req models.HikeRequest) models.Hike {
	return models.Hike{
		ID:                     id,
		Name:                   req.Name,
		Description:            req.Description,
		DifficultyLevel:        req.DifficultyLevel,
		TotalDistance:          req.TotalDistance,
		TotalDurationInMinutes: req.TotalDurationInMinutes,
		TotalElevationGain:     req.TotalElevationGain,
		Seasonality:            req.Seasonality,
		TerrainType:            req.TerrainType,
		SuitableForBeginners:   req.SuitableForBeginners,
		Accessibility:          req.Accessibility,
	}
}

func routeFromRequest(id string, req models.RouteRequest) models.Route {
	return models.Route{
		ID:                id,
		HikeID:            req.HikeID,
		OrderInHike:       req.OrderInHike,
		Description:       req.Description,
		Distance:          req.Distance,
		DurationInMinutes: req.DurationInMinutes,
		ElevationChange:   req.ElevationChange,
		NavigationNotes:   req.NavigationNotes,
		TerrainType:       req.TerrainType,
		SurfaceType:       req.SurfaceType,
	}
}

func pointFromRequest(id string, req models.PointRequest) models.Point {
	return models.Point{
		ID:                 id,
		RouteID:            req.RouteID,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Altitude:           req.Altitude,
		Feature:            req.Feature,
		FeatureDescription: req.FeatureDescription,
		PointType:          req.PointType,
		Image:              req.Image,
		OrderInRoute:       req.OrderInRoute,
	}
}
