// Package remotetest is an in-memory stand-in for the trail catalog service.
// It implements the client contract closely enough for tests and local
// development, and counts every call it receives.
package remotetest

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccessTTL is the lifetime stamped into minted access tokens.
const AccessTTL = 15 * time.Minute

type account struct {
	user     models.User
	password string
}

type grant struct {
	userID  string
	access  string
	expired bool
}

type hikeRecord struct {
	hike    models.Hike
	ownerID string
}

// Call is one request seen by the stub.
type Call struct {
	Method        string
	Path          string
	Authorization string
}

// Stub holds the fake service state.
type Stub struct {
	log    *zap.Logger
	secret []byte

	mu          sync.Mutex
	accounts    map[string]*account // by email
	access      map[string]*grant   // by access token
	refresh     map[string]*grant   // by refresh token
	queued      []models.TokenPair
	failRefresh bool
	hikes       map[string]*hikeRecord
	routes      map[string]models.Route
	points      map[string]models.Point
	calls       []Call
}

// New returns an empty stub.
func New(log *zap.Logger) *Stub {
	if log == nil {
		log = zap.NewNop()
	}
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	return &Stub{
		log:      log,
		secret:   secret,
		accounts: make(map[string]*account),
		access:   make(map[string]*grant),
		refresh:  make(map[string]*grant),
		hikes:    make(map[string]*hikeRecord),
		routes:   make(map[string]models.Route),
		points:   make(map[string]models.Point),
	}
}

// NewServer starts the stub behind an httptest server. Callers close it.
func NewServer() (*Stub, *httptest.Server) {
	s := New(nil)
	return s, httptest.NewServer(s.Handler())
}

// AddUser registers an account and returns it.
func (s *Stub) AddUser(email, password, userName string, role models.Role) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, userName, role)
}

func (s *Stub) addUserLocked(email, password, userName string, role models.Role) models.User {
	u := models.User{ID: uuid.NewString(), Email: email, UserName: userName, Role: role}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

// Grant makes pair valid for userID, as if it had been minted earlier.
func (s *Stub) Grant(userID string, pair models.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &grant{userID: userID, access: pair.AccessToken}
	s.access[pair.AccessToken] = g
	s.refresh[pair.RefreshToken] = g
}

// Expire makes accessToken answer 401 while its refresh token stays usable.
func (s *Stub) Expire(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.access[accessToken]; ok {
		g.expired = true
	}
}

// QueueTokens makes the next minted pairs use these literal values.
func (s *Stub) QueueTokens(pairs ...models.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = append(s.queued, pairs...)
}

// FailRefresh makes every refresh call answer 401.
func (s *Stub) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// SeedHike stores h owned by ownerID, assigning an id when empty.
func (s *Stub) SeedHike(ownerID string, h models.Hike) models.Hike {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	s.hikes[h.ID] = &hikeRecord{hike: h, ownerID: ownerID}
	return h
}

// SeedRoute stores r, assigning an id when empty.
func (s *Stub) SeedRoute(r models.Route) models.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.routes[r.ID] = r
	return r
}

// SeedPoint stores p, assigning an id when empty.
func (s *Stub) SeedPoint(p models.Point) models.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.points[p.ID] = p
	return p
}

// Calls returns how many requests matched method and path.
func (s *Stub) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// Requests returns every recorded call matching method and path, oldest first.
func (s *Stub) Requests(method, path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded calls.
func (s *Stub) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Stub) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
	})
}

// mintLocked issues a new pair for userID. Callers hold s.mu.
func (s *Stub) mintLocked(userID string) (models.TokenPair, error) {
	var pair models.TokenPair
	if len(s.queued) > 0 {
		pair, s.queued = s.queued[0], s.queued[1:]
	} else {
		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
			ID:        uuid.NewString(),
		})
		signed, err := token.SignedString(s.secret)
		if err != nil {
			return pair, fmt.Errorf("sign access token: %w", err)
		}
		pair = models.TokenPair{AccessToken: signed, RefreshToken: uuid.NewString()}
	}
	g := &grant{userID: userID, access: pair.AccessToken}
	s.access[pair.AccessToken] = g
	s.refresh[pair.RefreshToken] = g
	return pair, nil
}

func (s *Stub) userByIDLocked(id string) (models.User, bool) {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return models.User{}, false
}
