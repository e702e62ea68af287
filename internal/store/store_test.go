package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spellbook.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenReopensExistingData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "spellbook.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteSession(ctx, createTestSession("kept")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.ReadSession(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "kept", rec.ID)
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	sessions, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestOpenMissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "spellbook.db"))
	assert.Error(t, err)
}

func TestCloseZeroStore(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestPragmasApplied(t *testing.T) {
	s := createTestStore(t)

	want := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	}
	for name, value := range want {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, value, got, "pragma %s", name)
	}
}

func TestSchemaColumns(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		table   string
		columns []string
	}{
		{"sessions", []string{"id", "mode", "max_commands", "engine_version", "ir_version"}},
		{"commands", []string{"id", "session_id", "seq", "verb", "line"}},
		{"outputs", []string{"command_id", "position", "text"}},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.columns, tableColumns(t, s.db, tt.table))
		})
	}
}

func TestCommandNeedsSession(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO commands (id, session_id, seq, verb, line) VALUES ('c1', 'ghost', 1, 'ENUM', 'ENUM')`)
	assert.Error(t, err, "foreign key to sessions")
}

func TestSeqUniquePerSession(t *testing.T) {
	s := createTestStore(t)
	_, err := s.db.Exec(`INSERT INTO sessions VALUES ('s1', 'plain', 10, '0.1.0', '1')`)
	require.NoError(t, err)
	_, err = s.db.Exec(`INSERT INTO commands VALUES ('c1', 's1', 1, 'ENUM', 'ENUM')`)
	require.NoError(t, err)

	_, err = s.db.Exec(`INSERT INTO commands VALUES ('c2', 's1', 1, 'ENUM', 'ENUM')`)
	assert.Error(t, err)
}

func TestMigrationsReachSchemaVersion(t *testing.T) {
	s := createTestStore(t)

	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
	assert.Contains(t, tableIndexes(t, s.db, "commands"), "idx_commands_verb")
}

func TestMigrationsUpgradeUnversionedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
	assert.Contains(t, tableIndexes(t, s.db, "commands"), "idx_commands_verb")
}

func TestReopenKeepsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spellbook.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		v, err := s.Version(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SchemaVersion, v, "open %d", i)
		require.NoError(t, s.Close())
	}
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	return columns
}

func tableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}
