package remotetest

import (
	"net/http"
	"strings"

	"github.com/atinyakov/TrailKeeper/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserName string `json:"userName"`
}

// login answers a token pair for known credentials.
func (s *Stub) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[req.Email]
	if !ok || a.password != req.Password {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.answerPairLocked(w, a.user.ID)
}

// register creates a Hiker account and signs into it.
func (s *Stub) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}

	fields := map[string][]string{}
	if strings.TrimSpace(req.Email) == "" {
		fields["Email"] = []string{"The Email field is required."}
	}
	if req.Password == "" {
		fields["Password"] = []string{"The Password field is required."}
	}
	if strings.TrimSpace(req.UserName) == "" {
		fields["UserName"] = []string{"The UserName field is required."}
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		writeMessage(w, http.StatusConflict, "User already exists")
		return
	}
	u := s.addUserLocked(req.Email, req.Password, req.UserName, models.RoleHiker)
	s.answerPairLocked(w, u.ID)
}

// refreshTokens rotates a pair. The refresh token must be current; the
// access token may be expired.
func (s *Stub) refreshTokens(w http.ResponseWriter, r *http.Request) {
	var req models.TokenPair
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.refresh[req.RefreshToken]
	if s.failRefresh || !ok || g.access != req.AccessToken {
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refresh, req.RefreshToken)
	delete(s.access, g.access)
	s.answerPairLocked(w, g.userID)
}

func (s *Stub) currentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u, ok := s.userByIDLocked(UserIDFromContext(r.Context()))
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Stub) answerPairLocked(w http.ResponseWriter, userID string) {
	pair, err := s.mintLocked(userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
