package badger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const sequenceBandwidth = 100

// Backend owns the BadgerDB handle shared by every collection in a Store.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// Option configures how a Backend is opened.
type Option func(*backendConfig)

type backendConfig struct {
	inMemory   bool
	syncWrites bool
	logger     *slog.Logger
}

// WithInMemory keeps all data in memory. The path is ignored.
func WithInMemory() Option {
	return func(c *backendConfig) {
		c.inMemory = true
	}
}

// WithSyncWrites fsyncs every commit.
func WithSyncWrites(enabled bool) Option {
	return func(c *backendConfig) {
		c.syncWrites = enabled
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *backendConfig) {
		c.logger = logger
	}
}

// badgerLogger routes badger's printf-style logging into slog. Badger reports
// routine compaction and replay progress at info, which is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBackend opens the database at path, creating the directory if needed.
func OpenBackend(path string, opts ...Option) (*Backend, error) {
	cfg := &backendConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	logger := cfg.logger.With("component", "badger-store")

	var bopts badger.Options
	if cfg.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		bopts = badger.DefaultOptions(path).WithSyncWrites(cfg.syncWrites)
	}
	bopts.Logger = &badgerLogger{logger: logger}
	bopts.Compression = options.None

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	logger.Debug("badger opened", "path", path, "in_memory", cfg.inMemory)

	return &Backend{db: db, logger: logger}, nil
}

func ensureDir(path string) error {
	if path == "" {
		return fmt.Errorf("badger path is required")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// View runs fn in a read-only transaction.
func (b *Backend) View(fn func(tx *badger.Txn) error) error {
	return b.db.View(fn)
}

// Update runs fn in a read-write transaction and commits it when fn succeeds.
// A concurrent write to a key fn read fails the commit with badger.ErrConflict.
func (b *Backend) Update(fn func(tx *badger.Txn) error) error {
	return b.db.Update(fn)
}

// Sequence leases a block of monotonically increasing integers stored under key.
func (b *Backend) Sequence(key []byte) (*badger.Sequence, error) {
	return b.db.GetSequence(key, sequenceBandwidth)
}
