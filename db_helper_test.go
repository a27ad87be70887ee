package auth_test

import (
	"context"
	"database/sql"
	"testing"

	auth "github.com/goliatone/go-auth-signup"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	auth.RegisterModels(db)

	require.NoError(t, auth.CreateSchema(context.Background(), db))

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}

// setupSeededRepo returns a repository manager over a schema with the
// predefined roles and permissions in place.
func setupSeededRepo(t *testing.T) (auth.RepositoryManager, *bun.DB, func()) {
	t.Helper()

	db, cleanup := setupTestDB(t)
	repo := auth.NewRepositoryManager(db, auth.WithRepositoryLogger(&captureLogger{}))

	_, err := auth.NewSeeder(repo).Seed(context.Background())
	require.NoError(t, err)

	return repo, db, cleanup
}

func countRows(t *testing.T, db bun.IDB, table string) int {
	t.Helper()

	n, err := db.NewSelect().Table(table).Count(context.Background())
	require.NoError(t, err)
	return n
}

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

func (l *captureLogger) levels() []string {
	out := make([]string, 0, len(l.calls))
	for _, c := range l.calls {
		out = append(out, c.level)
	}
	return out
}
