package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/atinyakov/TrailKeeper/internal/catalog"
	"github.com/atinyakov/TrailKeeper/internal/config"
	"github.com/atinyakov/TrailKeeper/internal/credstore"
	"github.com/atinyakov/TrailKeeper/internal/logger"
	"github.com/atinyakov/TrailKeeper/internal/metrics"
	"github.com/atinyakov/TrailKeeper/internal/mutation"
	"github.com/atinyakov/TrailKeeper/internal/prompt"
	"github.com/atinyakov/TrailKeeper/internal/query"
	"github.com/atinyakov/TrailKeeper/internal/remote"
	"github.com/atinyakov/TrailKeeper/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// gcInterval is how often the query cache is swept for idle entries.
const gcInterval = time.Minute

// storeOpener opens the credential store selected by opts.
type storeOpener func(ctx context.Context, opts *config.Options, p *prompt.Prompter, log *zap.Logger) (credstore.Store, func(), error)

// app is the wired client core for one command invocation.
type app struct {
	opts   *config.Options
	log    *zap.Logger
	reg    *prometheus.Registry
	store  credstore.Store
	client *remote.Client
	sess   *session.Manager
	cache  *query.Cache
	cat    *catalog.Catalog
	mut    *mutation.Coordinator
	nav    *navigator
	prompt *prompt.Prompter
	out    io.Writer

	closers []func()
}

// newApp builds the core in dependency order: store, session, cache,
// catalog, coordinator.
func newApp(ctx context.Context, opts *config.Options, in io.Reader, out io.Writer, open storeOpener) (*app, error) {
	l := logger.New()
	if err := l.Init(opts.LogLevel); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{
		opts:   opts,
		log:    l.Log,
		reg:    prometheus.NewRegistry(),
		prompt: prompt.New(in, out),
		out:    out,
	}
	a.closers = append(a.closers, func() { _ = a.log.Sync() })
	m := metrics.New(a.reg)

	store, closeStore, err := open(ctx, opts, a.prompt, a.log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	hc, err := remote.NewHTTPClient(opts.CAFile, opts.Timeout)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.client = remote.New(opts.BaseURL,
		remote.WithHTTPClient(hc),
		remote.WithLogger(a.log),
		remote.WithMetrics(m),
	)

	a.nav = newNavigator(out)
	a.sess = session.New(store, a.client,
		session.WithNavigator(a.nav),
		session.WithLogger(a.log),
		session.WithMetrics(m),
	)
	a.sess.Restore(ctx)

	a.cache = query.New(query.WithLogger(a.log), query.WithMetrics(m))
	gcCtx, stopGC := context.WithCancel(context.Background())
	a.cache.StartGC(gcCtx, gcInterval, opts.CacheMaxIdle)
	a.closers = append(a.closers, stopGC)

	a.cat = catalog.New(a.cache, a.sess, a.client)
	a.mut = mutation.New(a.cache, a.sess, a.client,
		mutation.WithNavigator(a.nav),
		mutation.WithLogger(a.log),
	)

	a.log.Debug("client ready",
		zap.String("url", a.client.BaseURL()),
		zap.String("store", opts.Store),
		zap.Stringer("session", a.sess.State()),
	)
	return a, nil
}

// Close releases everything newApp acquired, last first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openStore is the storeOpener used outside tests.
func openStore(ctx context.Context, opts *config.Options, p *prompt.Prompter, log *zap.Logger) (credstore.Store, func(), error) {
	if opts.Store == config.StoreMemory {
		return credstore.NewMemoryStore(), func() {}, nil
	}

	pass := opts.Passphrase
	if pass == "" {
		var err error
		if pass, err = p.Passphrase(); err != nil {
			return nil, nil, err
		}
	}

	switch opts.Store {
	case config.StorePostgres:
		db, err := credstore.InitPostgres(opts.StoreDSN)
		if err != nil {
			return nil, nil, err
		}
		s, err := credstore.NewPostgresStore(ctx, db, []byte(pass))
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, func() { _ = db.Close() }, nil
	default:
		s, err := credstore.OpenFileStore(opts.StorePath, []byte(pass), log)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}
