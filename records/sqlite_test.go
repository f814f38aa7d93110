package records

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(memberSchema, []Record{{"1", "Ann"}}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	out, err := s.Load(memberSchema)
	require.NoError(t, err)
	assert.Equal(t, []Record{{"1", "Ann"}}, out)
}

func TestSQLiteUnreadableSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE meta SET value='not-a-number' WHERE key='schema_version'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewSQLiteStore(dir)
	assert.ErrorContains(t, err, "read schema version")
}
