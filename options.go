package keifu

import (
	"log/slog"
	"time"
)

// Option configures an App at construction time. Options override values
// loaded from the environment, which makes them convenient for tests and
// for embedding consumers that manage their own configuration.
type Option func(*resolvedOptions)

type resolvedOptions struct {
	port         int
	logger       *slog.Logger
	version      string
	idPrefix     string
	snapshotPath string
	clock        func() time.Time
}

// WithPort overrides the HTTP listen port (KEIFU_PORT).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithLogger sets the logger used by all subsystems. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported by the health endpoint and
// telemetry. Typically injected at build time via -ldflags.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithIDPrefix overrides the decision ID prefix (KEIFU_ID_PREFIX).
func WithIDPrefix(prefix string) Option {
	return func(o *resolvedOptions) { o.idPrefix = prefix }
}

// WithSnapshotPath overrides the SQLite snapshot path (KEIFU_SNAPSHOT_PATH).
func WithSnapshotPath(path string) Option {
	return func(o *resolvedOptions) { o.snapshotPath = path }
}

// WithClock replaces the wall clock used for decision timestamps. Tests use
// this to make timestamps deterministic.
func WithClock(now func() time.Time) Option {
	return func(o *resolvedOptions) { o.clock = now }
}
