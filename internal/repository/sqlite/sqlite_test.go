package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB returns a fresh in-memory database, closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// tableSchema returns "name type notnull default" for each column, in order.
func tableSchema(t *testing.T, conn *sql.DB, table string) []string {
	t.Helper()
	rows, err := conn.Query(`SELECT name, type, "notnull", COALESCE(dflt_value, '') FROM pragma_table_info(?) ORDER BY cid`, table)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name, typ, dflt string
		var notnull int
		require.NoError(t, rows.Scan(&name, &typ, &notnull, &dflt))
		cols = append(cols, name+" "+typ+" "+map[int]string{0: "null", 1: "notnull"}[notnull]+" "+dflt)
	}
	require.NoError(t, rows.Err())
	return cols
}

func TestNew_CreatesSchema(t *testing.T) {
	db := newTestDB(t)

	cols := tableSchema(t, db.conn, "scheduled_posts")
	assert.Contains(t, cols, "reminder_minutes INTEGER notnull 60")
	assert.Contains(t, cols, "reminder_sent BOOLEAN notnull 0")
}

func TestUpgrade_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	before := tableSchema(t, db.conn, "scheduled_posts")

	require.NoError(t, db.Upgrade(context.Background()))
	require.NoError(t, db.Upgrade(context.Background()))

	assert.Equal(t, before, tableSchema(t, db.conn, "scheduled_posts"))
}

// TestNew_UpgradesLegacyDatabase opens a file created before the reminder
// columns existed and checks existing rows survive with the documented defaults.
func TestNew_UpgradesLegacyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy", "users.db")

	// New creates the directory; build the legacy file through a first
	// throwaway open, then replace the table with the old shape.
	seed, err := New(path)
	require.NoError(t, err)
	_, err = seed.conn.Exec(`
		DROP TABLE scheduled_posts;
		CREATE TABLE scheduled_posts (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email    TEXT NOT NULL,
			platform      TEXT NOT NULL,
			content       TEXT NOT NULL,
			schedule_time TEXT NOT NULL
		);
		INSERT INTO scheduled_posts (user_email, platform, content, schedule_time)
		VALUES ('old@example.com', 'twitter', 'vintage post', '2025-06-01T10:00:00+05:30');
	`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	db, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	posts, err := db.ListPostsByUser(context.Background(), "old@example.com")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "vintage post", posts[0].Content)
	assert.Equal(t, 60, posts[0].ReminderMinutes)
	assert.False(t, posts[0].ReminderSent)

	// A second upgraded consumer opening the same file is fine too.
	again, err := New(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestNew_SharedFileSeenByTwoHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")

	app, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	job, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { job.Close() })

	post := newPost("ann@example.com", "2025-06-01T10:00:00+05:30", 60)
	require.NoError(t, app.CreatePost(context.Background(), post))

	require.NoError(t, job.MarkReminderSent(context.Background(), post.ID))

	got, err := app.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)
}
