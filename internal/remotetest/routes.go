package remotetest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handler returns the router serving the catalog API.
//
// Routes:
//
//	POST   /Auth/login, /Auth/register, /Auth/refresh   (public)
//	GET    /Auth/current-user                           (bearer)
//	GET    /Hikes, /Hikes/creator-hikes, /Hikes/{id}/Routes
//	POST   /Hikes; PUT, DELETE /Hikes/{id}
//	GET    /Routes/{id}/Points
//	POST   /Routes; PUT, DELETE /Routes/{id}
//	POST   /Points; PUT, DELETE /Points/{id}
//
// Middleware chain (applied in order):
//  1. Recoverer        turns panics into 500s
//  2. request counting every call, including rejected ones
//  3. request logging  zap line per request
//  4. Bearer           on the protected group only
func (s *Stub) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(s.counting)
	r.Use(s.requestLogging)

	r.Route("/Auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.Post("/refresh", s.refreshTokens)
		r.With(s.Bearer).Get("/current-user", s.currentUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.Bearer)

		r.Get("/Hikes", s.listHikes)
		r.Get("/Hikes/creator-hikes", s.listCreatorHikes)
		r.Get("/Hikes/{id}/Routes", s.hikeWithRoutes)
		r.Post("/Hikes", s.createHike)
		r.Put("/Hikes/{id}", s.updateHike)
		r.Delete("/Hikes/{id}", s.deleteHike)

		r.Get("/Routes/{id}/Points", s.routeWithPoints)
		r.Post("/Routes", s.createRoute)
		r.Put("/Routes/{id}", s.updateRoute)
		r.Delete("/Routes/{id}", s.deleteRoute)

		r.Post("/Points", s.createPoint)
		r.Put("/Points/{id}", s.updatePoint)
		r.Delete("/Points/{id}", s.deletePoint)
	})

	return r
}

func (s *Stub) counting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		next.ServeHTTP(w, r)
	})
}

func (s *Stub) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeFieldErrors answers with the validation-problem shape.
func writeFieldErrors(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"title":  "One or more validation errors occurred.",
		"errors": fields,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}
