package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/event-publisher/internal/persistence"
	"github.com/example/event-publisher/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool     *sqlite.ConnectionPool
	Owners   persistence.EventOwnerRepository
	Requests persistence.DelegatedEventRequestRepository
	Posted   persistence.PostedEventRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. A cleanup callback is registered with the provided
// testing.TB; Close may also be called directly.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	pool, err := sqlite.Open(filepath.Join(dir, "publisher.db"))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:     pool,
		Owners:   sqlite.NewEventOwnerRepository(pool),
		Requests: sqlite.NewDelegatedEventRequestRepository(pool),
		Posted:   sqlite.NewPostedEventRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
