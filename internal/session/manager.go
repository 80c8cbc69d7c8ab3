// Package session owns the token pair: it restores it at startup, obtains it
// through login, register and refresh, and discards it on logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/TrailKeeper/internal/authretry"
	"github.com/atinyakov/TrailKeeper/internal/credstore"
	"github.com/atinyakov/TrailKeeper/internal/metrics"
	"github.com/atinyakov/TrailKeeper/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrSessionEnded is returned by Refresh when it failed and the session was
// logged out.
var ErrSessionEnded = authretry.ErrSessionEnded

// ErrNotAuthenticated is returned by reads that need an access token when
// none is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// KindCurrentUser is the replay kind of the current-user lookup.
const KindCurrentUser authretry.Kind = "auth.currentUser"

// AuthAPI is the subset of the remote client the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (models.TokenPair, error)
	Register(ctx context.Context, email, password, userName string) (models.TokenPair, error)
	Refresh(ctx context.Context, current models.TokenPair) (models.TokenPair, error)
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

// Navigator receives the navigation signals emitted by the core. The core
// never knows the depth of the UI stack.
type Navigator interface {
	// ToAuthenticated moves to the signed-in area.
	ToAuthenticated()
	// ToLogin moves to the sign-in screen.
	ToLogin()
	// Back pops one level.
	Back()
}

// NopNavigator ignores every signal.
type NopNavigator struct{}

func (NopNavigator) ToAuthenticated() {}
func (NopNavigator) ToLogin()         {}
func (NopNavigator) Back()            {}

// Manager is the only component allowed to change the token pair.
type Manager struct {
	store credstore.Store
	api   AuthAPI
	nav   Navigator
	log   *zap.Logger
	m     *metrics.Metrics

	policy *authretry.Policy
	group  singleflight.Group

	mu          sync.Mutex
	state       State
	tokens      models.TokenPair
	user        *models.User
	userToken   string
	listeners   map[int]func(State)
	nextID      int
	logoutHooks []func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithNavigator sets where navigation signals go.
func WithNavigator(nav Navigator) Option {
	return func(m *Manager) { m.nav = nav }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithMetrics records refresh outcomes in mt.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.m = mt }
}

// New returns an unauthenticated Manager. Call Restore to pick up a
// previously persisted pair.
func New(store credstore.Store, api AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		api:       api,
		nav:       NopNavigator{},
		log:       zap.NewNop(),
		state:     Unauthenticated,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	m.policy = authretry.New(m, m.log, m.m)
	return m
}

// Policy returns the retry policy bound to this session, for the cache and
// the mutation coordinator to share.
func (m *Manager) Policy() *authretry.Policy {
	return m.policy
}

// OnLogout registers fn to run on every logout that clears a session.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutHooks = append(m.logoutHooks, fn)
}

// Restore loads the persisted pair. With both tokens it moves straight to
// Authenticated without checking them against the server. A store failure
// counts as an absent token.
func (m *Manager) Restore(ctx context.Context) State {
	access := m.load(ctx, credstore.AccessTokenKey)
	refresh := m.load(ctx, credstore.RefreshTokenKey)

	if access == "" || refresh == "" {
		m.log.Debug("no persisted session")
		return m.State()
	}
	m.setSession(models.TokenPair{AccessToken: access, RefreshToken: refresh}, Authenticated)
	m.log.Info("session restored")
	return Authenticated
}

func (m *Manager) load(ctx context.Context, key string) string {
	v, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.log.Warn("credential read failed, treating as absent", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// Login authenticates with email and password.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, "login", func(ctx context.Context) (models.TokenPair, error) {
		return m.api.Login(ctx, email, password)
	})
}

// Register creates an account and signs into it.
func (m *Manager) Register(ctx context.Context, email, password, userName string) error {
	return m.authenticate(ctx, "register", func(ctx context.Context) (models.TokenPair, error) {
		return m.api.Register(ctx, email, password, userName)
	})
}

func (m *Manager) authenticate(ctx context.Context, op string, call func(context.Context) (models.TokenPair, error)) error {
	m.transition(Authenticating)

	pair, err := call(ctx)
	if err == nil && !pair.Complete() {
		err = fmt.Errorf("%s: server returned an incomplete token pair", op)
	}
	if err != nil {
		m.log.Info("authentication failed", zap.String("op", op), zap.Error(err))
		m.settleFailed(ctx, false)
		return err
	}
	if err := m.persist(ctx, pair); err != nil {
		m.log.Info("authentication failed", zap.String("op", op), zap.Error(err))
		m.settleFailed(ctx, true)
		return err
	}

	m.setSession(pair, Authenticated)
	m.log.Info("authenticated", zap.String("op", op))
	m.nav.ToAuthenticated()
	return nil
}

// settleFailed moves to the state the held pair supports after a failed
// login or register. A failed persist has wiped the store, so a held pair is
// written back; if that fails too the session ends.
func (m *Manager) settleFailed(ctx context.Context, wiped bool) {
	held := m.Tokens()
	if !held.Complete() {
		m.transition(Unauthenticated)
		return
	}
	if wiped {
		if err := m.persist(context.WithoutCancel(ctx), held); err != nil {
			m.log.Warn("previous session could not be restored, logging out", zap.Error(err))
			m.Logout(ctx)
			return
		}
	}
	m.transition(Authenticated)
}

// persist writes both tokens or, on failure, neither.
func (m *Manager) persist(ctx context.Context, pair models.TokenPair) error {
	err := m.store.Put(ctx, credstore.AccessTokenKey, pair.AccessToken)
	if err == nil {
		err = m.store.Put(ctx, credstore.RefreshTokenKey, pair.RefreshToken)
	}
	if err != nil {
		m.wipeStore(ctx)
		return fmt.Errorf("persist tokens: %w", err)
	}
	return nil
}

// Refresh exchanges the current pair for a new one. Concurrent callers share
// a single remote call, which does not stop when the first caller's ctx is
// canceled. Any failure logs the session out and returns ErrSessionEnded.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.group.Do("refresh", func() (any, error) {
		return nil, m.refresh(context.WithoutCancel(ctx))
	})
	return err
}

func (m *Manager) refresh(ctx context.Context) error {
	m.mu.Lock()
	current := m.tokens
	if m.state == Authenticated {
		m.state = Refreshing
	}
	state := m.state
	m.mu.Unlock()
	m.notify(state)

	if !current.Complete() {
		m.m.ObserveRefresh("no_session")
		m.Logout(ctx)
		return fmt.Errorf("%w: no refresh token", ErrSessionEnded)
	}

	pair, err := m.api.Refresh(ctx, current)
	if err == nil && !pair.Complete() {
		err = errors.New("server returned an incomplete token pair")
	}
	if err == nil {
		err = m.persist(ctx, pair)
	}
	if err != nil {
		m.m.ObserveRefresh("failure")
		m.log.Warn("token refresh failed, ending session", zap.Error(err))
		m.Logout(ctx)
		return fmt.Errorf("%w: %w", ErrSessionEnded, err)
	}

	m.m.ObserveRefresh("success")
	m.setSession(pair, Authenticated)
	m.log.Debug("tokens refreshed")
	return nil
}

// Logout discards the session everywhere: memory, the credential store and
// the query cache. With no session held it does nothing.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	if m.state == Unauthenticated && m.tokens == (models.TokenPair{}) {
		m.mu.Unlock()
		return
	}
	m.tokens = models.TokenPair{}
	m.user = nil
	m.userToken = ""
	m.state = Unauthenticated
	hooks := append([]func(){}, m.logoutHooks...)
	m.mu.Unlock()

	m.wipeStore(ctx)
	for _, fn := range hooks {
		fn()
	}
	m.log.Info("logged out")
	m.notify(Unauthenticated)
	m.nav.ToLogin()
}

func (m *Manager) wipeStore(ctx context.Context) {
	// a canceled caller must not leave tokens behind
	ctx = context.WithoutCancel(ctx)
	for _, key := range []string{credstore.AccessTokenKey, credstore.RefreshTokenKey} {
		if err := m.store.Delete(ctx, key); err != nil {
			m.log.Error("failed to delete credential", zap.String("key", key), zap.Error(err))
		}
	}
}

// CurrentUser returns the signed-in account. It is disabled without an
// access token and cached until the token pair changes. A 401 goes through
// the retry policy.
func (m *Manager) CurrentUser(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	token := m.tokens.AccessToken
	if token == "" {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	if m.user != nil && m.userToken == token {
		u := *m.user
		m.mu.Unlock()
		return &u, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do("currentUser", func() (any, error) {
		return authretry.Do(ctx, m.policy, authretry.Operation{Kind: KindCurrentUser},
			func(ctx context.Context, _ authretry.Operation) (*models.User, error) {
				token := m.AccessToken()
				if token == "" {
					return nil, ErrNotAuthenticated
				}
				u, err := m.api.CurrentUser(ctx, token)
				if err != nil {
					return nil, err
				}
				m.mu.Lock()
				if m.tokens.AccessToken == token {
					m.user, m.userToken = u, token
				}
				m.mu.Unlock()
				return u, nil
			})
	})
	if err != nil {
		return nil, err
	}
	u := *v.(*models.User)
	return &u, nil
}

// AccessToken returns the bearer token, or "" without a session.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.AccessToken
}

// Tokens returns a copy of the in-memory pair.
func (m *Manager) Tokens() models.TokenPair {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsLoggedIn reports whether tokens are held and believed valid or being
// revalidated.
func (m *Manager) IsLoggedIn() bool {
	return m.State().LoggedIn()
}

// Subscribe calls fn on every state change until the returned function is
// called.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// setSession installs pair and moves to state. The cached user belongs to
// the old pair and is dropped.
func (m *Manager) setSession(pair models.TokenPair, state State) {
	m.mu.Lock()
	m.tokens = pair
	m.user = nil
	m.userToken = ""
	m.state = state
	m.mu.Unlock()
	m.notify(state)
}

func (m *Manager) transition(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	m.notify(state)
}

func (m *Manager) notify(state State) {
	m.mu.Lock()
	fns := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}
