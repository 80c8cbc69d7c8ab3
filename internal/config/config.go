// Package config provides functionality for managing configuration options
// for the client using a JSON file, a .env file, environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Credential store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRAILKEEPER_"

// Options holds the configuration values for the client.
type Options struct {
	// BaseURL is the catalog service root, e.g. https://api.example.com/api.
	BaseURL string `json:"base_url"`

	// CAFile is an optional PEM bundle trusted in addition to the system pool.
	CAFile string `json:"ca_file"`

	// Store selects the credential backend: file, postgres or memory.
	Store string `json:"store"`

	// StorePath is the encrypted credential file used by the file backend.
	StorePath string `json:"store_path"`

	// StoreDSN is the connection string used by the postgres backend.
	StoreDSN string `json:"store_dsn"`

	// Passphrase unlocks the credential store. It is never read from the
	// JSON file.
	Passphrase string `json:"-"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`

	// Timeout bounds every remote call.
	Timeout time.Duration `json:"-"`

	// CacheMaxIdle is how long an unobserved cache entry survives.
	CacheMaxIdle time.Duration `json:"-"`

	// Config is the path to the JSON config file.
	Config string `json:"-"`

	// EnvFile is the path to the .env file.
	EnvFile string `json:"-"`
}

// fileOptions is the JSON shape; durations are written as "10s".
type fileOptions struct {
	*Options
	Timeout      string `json:"timeout"`
	CacheMaxIdle string `json:"cache_max_idle"`
}

// Defaults returns the built-in configuration.
func Defaults() *Options {
	return &Options{
		BaseURL:      "http://localhost:8080/api",
		Store:        StoreFile,
		StorePath:    defaultStorePath(),
		LogLevel:     "Warn",
		Timeout:      10 * time.Second,
		CacheMaxIdle: 5 * time.Minute,
		EnvFile:      ".env",
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".trailkeeper-credentials.json"
	}
	return filepath.Join(dir, "trailkeeper", "credentials.json")
}

// Bind registers the flags Load understands on fs.
func Bind(fs *pflag.FlagSet) {
	d := Defaults()
	fs.StringP("config", "c", "", "path to JSON config file (env CONFIG)")
	fs.String("env-file", d.EnvFile, "path to .env file")
	fs.String("url", d.BaseURL, "catalog service base URL")
	fs.String("ca", "", "path to an extra CA bundle")
	fs.String("store", d.Store, "credential store: file | postgres | memory")
	fs.String("store-path", d.StorePath, "credential file for the file store")
	fs.String("store-dsn", "", "database DSN for the postgres store")
	fs.String("log-level", d.LogLevel, "log level: debug | info | warn | error")
	fs.Duration("timeout", d.Timeout, "remote call timeout")
	fs.Duration("cache-max-idle", d.CacheMaxIdle, "evict unobserved cache entries after this long")
}

// Load resolves the configuration. fs may be nil, in which case flags are
// not consulted.
func Load(fs *pflag.FlagSet) (*Options, error) {
	opts := Defaults()

	opts.Config = os.Getenv("CONFIG")
	if v, ok := changedString(fs, "config"); ok {
		opts.Config = v
	}
	if opts.Config != "" {
		if err := loadFile(opts.Config, opts); err != nil {
			return nil, err
		}
	}

	if v, ok := changedString(fs, "env-file"); ok {
		opts.EnvFile = v
	}
	// godotenv never overrides variables that are already set
	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
	}

	if err := applyEnv(opts); err != nil {
		return nil, err
	}
	if err := applyFlags(fs, opts); err != nil {
		return nil, err
	}
	return opts, opts.Validate()
}

func loadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	fo := fileOptions{Options: opts}
	if err := json.Unmarshal(data, &fo); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	if fo.Timeout != "" {
		if opts.Timeout, err = time.ParseDuration(fo.Timeout); err != nil {
			return fmt.Errorf("config file timeout: %w", err)
		}
	}
	if fo.CacheMaxIdle != "" {
		if opts.CacheMaxIdle, err = time.ParseDuration(fo.CacheMaxIdle); err != nil {
			return fmt.Errorf("config file cache_max_idle: %w", err)
		}
	}
	return nil
}

func applyEnv(opts *Options) error {
	strs := map[string]*string{
		"BASE_URL":   &opts.BaseURL,
		"CA_FILE":    &opts.CAFile,
		"STORE":      &opts.Store,
		"STORE_PATH": &opts.StorePath,
		"STORE_DSN":  &opts.StoreDSN,
		"PASSPHRASE": &opts.Passphrase,
		"LOG_LEVEL":  &opts.LogLevel,
	}
	for name, dst := range strs {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"TIMEOUT":        &opts.Timeout,
		"CACHE_MAX_IDLE": &opts.CacheMaxIdle,
	}
	for name, dst := range durations {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
	}
	return nil
}

func applyFlags(fs *pflag.FlagSet, opts *Options) error {
	strs := map[string]*string{
		"url":        &opts.BaseURL,
		"ca":         &opts.CAFile,
		"store":      &opts.Store,
		"store-path": &opts.StorePath,
		"store-dsn":  &opts.StoreDSN,
		"log-level":  &opts.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := changedString(fs, name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"timeout":        &opts.Timeout,
		"cache-max-idle": &opts.CacheMaxIdle,
	}
	for name, dst := range durations {
		if fs == nil || fs.Lookup(name) == nil || !fs.Changed(name) {
			continue
		}
		d, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = d
	}
	return nil
}

func changedString(fs *pflag.FlagSet, name string) (string, bool) {
	if fs == nil || fs.Lookup(name) == nil || !fs.Changed(name) {
		return "", false
	}
	v, err := fs.GetString(name)
	if err != nil {
		return "", false
	}
	return v, true
}

// Validate checks the resolved options.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.BaseURL) == "" {
		return errors.New("base URL is required")
	}
	switch o.Store {
	case StoreFile:
		if o.StorePath == "" {
			return errors.New("store path is required for the file store")
		}
	case StorePostgres:
		if o.StoreDSN == "" {
			return errors.New("store DSN is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", o.Store)
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if o.CacheMaxIdle <= 0 {
		return errors.New("cache max idle must be positive")
	}
	return nil
}

// NeedsPassphrase reports whether the selected store encrypts at rest.
func (o *Options) NeedsPassphrase() bool {
	return o.Store == StoreFile || o.Store == StorePostgres
}
