package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"pulsescore-backend/internal/shared/telemetry"
)

// Profile names the kind of process that owns a pool.
type Profile string

const (
	ProfileAPI     Profile = "api"
	ProfileWorker  Profile = "worker"
	ProfileMigrate Profile = "migrate"
)

// Options controls pool sizing and the connect-time ping.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ErrNoDatabaseURL is returned when no connection string is configured.
var ErrNoDatabaseURL = errors.New("DATABASE_URL is empty")

// driverName is swapped in tests.
var driverName = "pgx"

var (
	sharedMu sync.Mutex
	sharedDB *sql.DB
)

// IsLambdaRuntime reports whether the current process is running in AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// PoolOptions sizes a pool for p. A worker holds up to two connections per
// certificate job in flight (load and status update). Lambda instances handle
// one event at a time and keep two connections regardless of profile.
func PoolOptions(p Profile, concurrency int, lambda bool) Options {
	opts := Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
	switch p {
	case ProfileWorker:
		n := max(1, concurrency)
		opts.MaxOpenConns = 2 * n
		opts.MaxIdleConns = n
	case ProfileMigrate:
		opts.MaxOpenConns = 1
		opts.MaxIdleConns = 1
	}
	if lambda {
		opts.MaxOpenConns = 2
		opts.MaxIdleConns = 1
		opts.ConnMaxIdleTime = 30 * time.Second
		opts.ConnMaxLifetime = 15 * time.Minute
		opts.PingTimeout = 3 * time.Second
	}
	return opts
}

// WithEnv applies DB_* overrides found through lookup. Unparseable values are
// logged and ignored.
func (o Options) WithEnv(lookup func(string) (string, bool)) Options {
	if lookup == nil {
		return o
	}
	if v, ok := envInt(lookup, "DB_MAX_OPEN_CONNS"); ok {
		o.MaxOpenConns = v
	}
	if v, ok := envInt(lookup, "DB_MAX_IDLE_CONNS"); ok {
		o.MaxIdleConns = v
	}
	if v, ok := envDuration(lookup, "DB_CONN_MAX_LIFETIME"); ok {
		o.ConnMaxLifetime = v
	}
	if v, ok := envDuration(lookup, "DB_CONN_MAX_IDLE_TIME"); ok {
		o.ConnMaxIdleTime = v
	}
	if v, ok := envDuration(lookup, "DB_PING_TIMEOUT"); ok {
		o.PingTimeout = v
	}
	return o
}

// Connect opens a pool for databaseURL and pings it before returning.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}
	target := redact(databaseURL)

	pool, err := sql.Open(driverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", target, err)
	}
	open := max(1, opts.MaxOpenConns)
	pool.SetMaxOpenConns(open)
	pool.SetMaxIdleConns(max(0, min(opts.MaxIdleConns, open)))
	if opts.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database %s: %w", target, err)
	}

	telemetry.Info("db.connected", map[string]any{
		"target":   target,
		"max_open": pool.Stats().MaxOpenConnections,
	})
	return pool, nil
}

// Shared returns the process-wide pool, connecting on first use. Warm Lambda
// invocations reuse it; a failed connect is not cached so the next call retries.
func Shared(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedDB != nil {
		return sharedDB, nil
	}
	pool, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	sharedDB = pool
	return pool, nil
}

// redact renders a connection string as host/database without credentials.
func redact(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Host == "" {
		return "postgres"
	}
	return u.Host + u.Path
}

func envInt(lookup func(string) (string, bool), key string) (int, bool) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err})
		return 0, false
	}
	return v, true
}

func envDuration(lookup func(string) (string, bool), key string) (time.Duration, bool) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err})
		return 0, false
	}
	return v, true
}
