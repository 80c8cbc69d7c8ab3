package remotetest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/TrailKeeper/internal/models"
)

// dummyHandler records whether it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func TestBearer_NoHeader(t *testing.T) {
	dummy := &dummyHandler{}
	h := New(nil).Bearer(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/Hikes", nil)
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestBearer_UnknownToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := New(nil).Bearer(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/Hikes", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called for an unknown token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestBearer_ExpiredToken(t *testing.T) {
	s := New(nil)
	s.Grant("u1", models.TokenPair{AccessToken: "t1", RefreshToken: "r1"})
	s.Expire("t1")

	dummy := &dummyHandler{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/Hikes", nil)
	req.Header.Set("Authorization", "Bearer t1")
	s.Bearer(dummy).ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called for an expired token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestBearer_ValidToken(t *testing.T) {
	s := New(nil)
	s.Grant("alice", models.TokenPair{AccessToken: "t1", RefreshToken: "r1"})

	dummy := &dummyHandler{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/Hikes", nil)
	req.Header.Set("Authorization", "Bearer t1")
	s.Bearer(dummy).ServeHTTP(rec, req)

	if !dummy.called {
		t.Error("expected next handler to be called with a valid token")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
	if user := UserIDFromContext(dummy.ctx); user != "alice" {
		t.Errorf("expected context user 'alice', got '%s'", user)
	}
}

func TestUserIDFromContext(t *testing.T) {
	if empty := UserIDFromContext(context.Background()); empty != "" {
		t.Errorf("expected empty string for missing user, got '%s'", empty)
	}
	ctx := context.WithValue(context.Background(), userKey, "bob")
	if val := UserIDFromContext(ctx); val != "bob" {
		t.Errorf("expected 'bob', got '%s'", val)
	}
}
