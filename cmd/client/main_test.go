package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinyakov/TrailKeeper/internal/config"
	"github.com/atinyakov/TrailKeeper/internal/credstore"
	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/atinyakov/TrailKeeper/internal/prompt"
	"github.com/atinyakov/TrailKeeper/internal/remotetest"
	"github.com/atinyakov/TrailKeeper/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	stub  *remotetest.Stub
	url   string
	store *credstore.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("CONFIG", "")
	stub, srv := remotetest.NewServer()
	t.Cleanup(srv.Close)
	return &harness{stub: stub, url: srv.URL, store: credstore.NewMemoryStore()}
}

// run executes one process worth of the client. The memory store outlives
// the call, the way a credential file outlives a process.
func (h *harness) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	c := &cli{
		in:  strings.NewReader(input),
		out: out,
		open: func(context.Context, *config.Options, *prompt.Prompter, *zap.Logger) (credstore.Store, func(), error) {
			return h.store, func() {}, nil
		},
	}
	root := newRootCmd(c)
	root.SetArgs(append([]string{
		"--url", h.url,
		"--store", "memory",
		"--log-level", "error",
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
	}, args...))
	err := root.ExecuteContext(context.Background())
	if c.app != nil {
		c.app.Close()
	}
	return out.String(), err
}

func TestVersion_Offline(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: N/A")
	assert.Equal(t, 0, len(h.stub.Requests(http.MethodPost, "/Auth/login")))
}

func TestLogin_PersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)
	u := h.stub.AddUser("a@b.com", "pw", "alice", models.RoleCreator)
	h.stub.QueueTokens(models.TokenPair{AccessToken: "t1", RefreshToken: "r1"})
	h.stub.SeedHike(u.ID, models.Hike{ID: "H1", Name: "Ridge"})

	out, err := h.run(t, "a@b.com\npw\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in.")

	out, err = h.run(t, "", "hikes")
	require.NoError(t, err)
	assert.Contains(t, out, "Ridge")

	reqs := h.stub.Requests(http.MethodGet, "/Hikes")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer t1", reqs[0].Authorization)
}

func TestLogin_InvalidEmailNeverReachesServer(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "not-an-email\npw\n", "login")
	require.Error(t, err)
	assert.Contains(t, describeError(err), "email: Please enter a valid email address")
	assert.NotContains(t, out, "Signed in.")
	assert.Equal(t, 0, h.stub.Calls(http.MethodPost, "/Auth/login"))
}

func TestHikes_WithoutSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "hikes")
	assert.ErrorIs(t, err, errNotSignedIn)
	assert.Equal(t, 0, h.stub.Calls(http.MethodGet, "/Hikes"))
}

func TestStatus_ShowsExpiry(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "pw", "alice", models.RoleHiker)
	_, err := h.run(t, "a@b.com\npw\n", "login")
	require.NoError(t, err)

	out, err := h.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: authenticated")
	assert.Contains(t, out, "Access token expires:")
}

func TestLogout_WipesStore(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "pw", "alice", models.RoleHiker)
	_, err := h.run(t, "a@b.com\npw\n", "login")
	require.NoError(t, err)
	require.Equal(t, 2, h.store.Len())

	out, err := h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
	assert.Equal(t, 0, h.store.Len())

	out, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestDelete_Cancelled(t *testing.T) {
	h := newHarness(t)
	u := h.stub.AddUser("a@b.com", "pw", "alice", models.RoleCreator)
	h.stub.SeedHike(u.ID, models.Hike{ID: "H1", Name: "Ridge"})
	_, err := h.run(t, "a@b.com\npw\n", "login")
	require.NoError(t, err)

	out, err := h.run(t, "n\n", "delete", "hike", "H1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Equal(t, 0, h.stub.Calls(http.MethodDelete, "/Hikes/H1"))

	out, err = h.run(t, "", "delete", "hike", "H1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted hike H1.")
}

func TestShell_CachesBetweenCommands(t *testing.T) {
	h := newHarness(t)
	u := h.stub.AddUser("a@b.com", "pw", "alice", models.RoleCreator)
	h.stub.SeedHike(u.ID, models.Hike{ID: "H1", Name: "Ridge", Description: "Up high"})
	h.stub.SeedRoute(models.Route{ID: "R1", HikeID: "H1", Description: "First leg", NavigationNotes: "cairns"})

	script := strings.Join([]string{
		"login", "a@b.com", "pw",
		"hikes",
		"hikes",
		"hike H1",
		"route H1 R1",
		"back",
		"frobnicate",
		"exit",
	}, "\n") + "\n"
	out, err := h.run(t, script, "shell")
	require.NoError(t, err)

	assert.Equal(t, 1, h.stub.Calls(http.MethodGet, "/Hikes"), "second listing served from cache")
	assert.Contains(t, out, "Up high")
	assert.Contains(t, out, "First leg")
	assert.Contains(t, out, "trailkeeper hike:H1/route:R1> ")
	assert.Contains(t, out, "trailkeeper hike:H1> ")
	assert.Contains(t, out, "Error: unknown command")
	assert.Contains(t, out, "Bye")
}

func TestShell_CreateHikeRefreshesListing(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "pw", "alice", models.RoleCreator)

	form := []string{"Lakeside", "Flat loop", "", "5", "90", "", "", "", "y", ""}
	script := strings.Join(append(append([]string{
		"login", "a@b.com", "pw",
		"hikes",
		"create hike",
	}, form...), "my-hikes", "exit"), "\n") + "\n"

	out, err := h.run(t, script, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "No hikes.")
	assert.Contains(t, out, "Created hike ")
	assert.Contains(t, out, "Lakeside")
	assert.Equal(t, 2, h.stub.Calls(http.MethodGet, "/Hikes"), "listing refetched after create")
	assert.Equal(t, 1, h.stub.Calls(http.MethodPost, "/Hikes"))
}

func TestShell_ServerRejection(t *testing.T) {
	h := newHarness(t)
	owner := h.stub.AddUser("o@b.com", "pw", "owner", models.RoleCreator)
	h.stub.SeedHike(owner.ID, models.Hike{ID: "H1", Name: "Ridge"})
	h.stub.AddUser("a@b.com", "pw", "alice", models.RoleCreator)

	script := "login\na@b.com\npw\ndelete hike H1 -y\nexit\n"
	out, err := h.run(t, script, "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Error: server rejected the request (403): You do not own this hike")
}

func TestCorruptCredentialFile_StartsSignedOut(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "pw", "alice", models.RoleHiker)
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o600))

	opts := config.Defaults()
	opts.BaseURL = h.url
	opts.Store = config.StoreFile
	opts.StorePath = path
	opts.Passphrase = "pw"
	opts.LogLevel = "error"

	out := &bytes.Buffer{}
	a, err := newApp(context.Background(), opts, strings.NewReader(""), out, openStore)
	require.NoError(t, err)
	assert.Equal(t, session.Unauthenticated, a.sess.State())
	require.NoError(t, a.sess.Login(context.Background(), "a@b.com", "pw"))
	a.Close()

	a, err = newApp(context.Background(), opts, strings.NewReader(""), out, openStore)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, session.Authenticated, a.sess.State(), "login rewrote the broken file")
}
