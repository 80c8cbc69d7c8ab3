package remotetest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodePair(t *testing.T, rec *httptest.ResponseRecorder) models.TokenPair {
	t.Helper()
	var pair models.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func TestLogin(t *testing.T) {
	s := New(nil)
	s.AddUser("a@b.com", "pw", "alice", models.RoleHiker)
	h := s.Handler()

	tests := []struct {
		name           string
		body           string
		expectedCode   int
		expectedSubstr string
	}{
		{name: "invalid JSON", body: `not a json`, expectedCode: http.StatusBadRequest, expectedSubstr: "invalid request"},
		{name: "unknown user", body: `{"email":"x@b.com","password":"pw"}`, expectedCode: http.StatusUnauthorized, expectedSubstr: "Invalid email or password"},
		{name: "wrong password", body: `{"email":"a@b.com","password":"nope"}`, expectedCode: http.StatusUnauthorized, expectedSubstr: "Invalid email or password"},
		{name: "success", body: `{"email":"a@b.com","password":"pw"}`, expectedCode: http.StatusOK, expectedSubstr: "accessToken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, http.MethodPost, "/Auth/login", "", tt.body)
			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedSubstr)
		})
	}
}

func TestLogin_MintsJWTWithSubject(t *testing.T) {
	s := New(nil)
	u := s.AddUser("a@b.com", "pw", "alice", models.RoleHiker)

	rec := serve(t, s.Handler(), http.MethodPost, "/Auth/login", "", `{"email":"a@b.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodePair(t, rec)
	require.True(t, pair.Complete())

	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, &claims)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestLogin_QueuedTokens(t *testing.T) {
	s := New(nil)
	s.AddUser("a@b.com", "pw", "alice", models.RoleHiker)
	s.QueueTokens(models.TokenPair{AccessToken: "t1", RefreshToken: "r1"})

	rec := serve(t, s.Handler(), http.MethodPost, "/Auth/login", "", `{"email":"a@b.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TokenPair{AccessToken: "t1", RefreshToken: "r1"}, decodePair(t, rec))

	rec = serve(t, s.Handler(), http.MethodGet, "/Auth/current-user", "t1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userName":"alice"`)
}

func TestRegister(t *testing.T) {
	s := New(nil)
	s.AddUser("taken@b.com", "pw", "bob", models.RoleHiker)
	h := s.Handler()

	tests := []struct {
		name           string
		body           string
		expectedCode   int
		expectedSubstr string
	}{
		{name: "missing fields", body: `{"email":"","password":"","userName":""}`, expectedCode: http.StatusBadRequest, expectedSubstr: "The Email field is required."},
		{name: "duplicate", body: `{"email":"taken@b.com","password":"Pw1!","userName":"bob"}`, expectedCode: http.StatusConflict, expectedSubstr: "User already exists"},
		{name: "success", body: `{"email":"new@b.com","password":"Pw1!","userName":"carol"}`, expectedCode: http.StatusOK, expectedSubstr: "refreshToken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, http.MethodPost, "/Auth/register", "", tt.body)
			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedSubstr)
		})
	}
}

func TestRefresh_RotatesPair(t *testing.T) {
	s := New(nil)
	u := s.AddUser("a@b.com", "pw", "alice", models.RoleHiker)
	s.Grant(u.ID, models.TokenPair{AccessToken: "t1", RefreshToken: "r1"})
	s.Expire("t1")
	s.QueueTokens(models.TokenPair{AccessToken: "t2", RefreshToken: "r2"})
	h := s.Handler()

	rec := serve(t, h, http.MethodPost, "/Auth/refresh", "", `{"accessToken":"t1","refreshToken":"r1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TokenPair{AccessToken: "t2", RefreshToken: "r2"}, decodePair(t, rec))

	// the old refresh token is spent
	rec = serve(t, h, http.MethodPost, "/Auth/refresh", "", `{"accessToken":"t1","refreshToken":"r1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, h, http.MethodGet, "/Hikes", "t2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_Failures(t *testing.T) {
	s := New(nil)
	s.Grant("u1", models.TokenPair{AccessToken: "t1", RefreshToken: "r1"})
	h := s.Handler()

	rec := serve(t, h, http.MethodPost, "/Auth/refresh", "", `{"accessToken":"other","refreshToken":"r1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "mismatched pair")

	s.FailRefresh(true)
	rec = serve(t, h, http.MethodPost, "/Auth/refresh", "", `{"accessToken":"t1","refreshToken":"r1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 2, s.Calls(http.MethodPost, "/Auth/refresh"))
}

func TestCurrentUser_RequiresBearer(t *testing.T) {
	s := New(nil)
	rec := serve(t, s.Handler(), http.MethodGet, "/Auth/current-user", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "missing bearer token"))
}

func TestCalls_RecordsAuthorization(t *testing.T) {
	s := New(nil)
	h := s.Handler()
	serve(t, h, http.MethodGet, "/Hikes", "t9", "")
	serve(t, h, http.MethodGet, "/Hikes", "", "")

	reqs := s.Requests(http.MethodGet, "/Hikes")
	require.Len(t, reqs, 2)
	assert.Equal(t, "Bearer t9", reqs[0].Authorization)
	assert.Equal(t, "", reqs[1].Authorization)

	s.ResetCalls()
	assert.Equal(t, 0, s.Calls(http.MethodGet, "/Hikes"))
}
