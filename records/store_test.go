package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookSchema = Schema{
	Name: "books",
	Fields: []Field{
		{Name: "id", Kind: Identifier},
		{Name: "title", Kind: Text},
		{Name: "author", Kind: Text},
		{Name: "copies", Kind: Integer},
	},
}

var memberSchema = Schema{
	Name:   "members",
	Fields: []Field{{Name: "id", Kind: Identifier}, {Name: "name", Kind: Text}},
}

// eachBackend runs fn against a fresh store of every backend.
func eachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	for _, backend := range []string{BackendFile, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			s, err := Open(backend, t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

func TestLoadMissingResourceIsEmpty(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		recs, err := s.Load(bookSchema)
		require.NoError(t, err)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		in := []Record{
			{"1", "Dune", "Frank Herbert", "3"},
			{"2", "Gödel, Escher, Bach", "Douglas \"Doug\" Hofstadter", "1"},
			{"3", " leading space", "", "0"},
		}
		require.NoError(t, s.Save(bookSchema, in))

		out, err := s.Load(bookSchema)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestSaveOverwrites(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Save(memberSchema, []Record{{"1", "Ann"}, {"2", "Bo"}}))
		require.NoError(t, s.Save(memberSchema, []Record{{"2", "Bo"}}))

		out, err := s.Load(memberSchema)
		require.NoError(t, err)
		assert.Equal(t, []Record{{"2", "Bo"}}, out)
	})
}

func TestSaveAllRejectsWrongArityWithoutWriting(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Save(memberSchema, []Record{{"1", "Ann"}}))

		err := s.SaveAll(
			Snapshot{Schema: memberSchema, Records: []Record{{"1", "Changed"}}},
			Snapshot{Schema: bookSchema, Records: []Record{{"1", "short"}}},
		)
		require.ErrorIs(t, err, ErrMalformedRecord)

		out, err := s.Load(memberSchema)
		require.NoError(t, err)
		assert.Equal(t, []Record{{"1", "Ann"}}, out)
	})
}

func TestSaveAllWritesEveryResource(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		require.NoError(t, s.SaveAll(
			Snapshot{Schema: memberSchema, Records: []Record{{"7", "Ann"}}},
			Snapshot{Schema: bookSchema, Records: []Record{{"1", "T", "A", "2"}}},
		))

		members, err := s.Load(memberSchema)
		require.NoError(t, err)
		books, err := s.Load(bookSchema)
		require.NoError(t, err)
		assert.Len(t, members, 1)
		assert.Len(t, books, 1)
	})
}

func TestFileStoreLegacyFormat(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(bookSchema, []Record{{"1", "Dune", "Frank Herbert", "3"}}))
	raw, err := os.ReadFile(filepath.Join(dir, "books.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1,Dune,Frank Herbert,3\n", string(raw))

	// Files written by hand (or by older versions) load as-is.
	legacy := "1,The \"Best\" Book,Someone,2\n\n2,Other,Else,0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.txt"), []byte(legacy), 0o644))
	out, err := s.Load(bookSchema)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "The \"Best\" Book", out[0][1])
}

func TestFileStoreLegacyLeadingQuote(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	legacy := "1,\"Quoted\" Title,Auth,1\r\n2,Other,Else,3\n3,\"Dune, Part 1\",Frank Herbert,2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.txt"), []byte(legacy), 0o644))

	out, err := s.Load(bookSchema)
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{"1", "\"Quoted\" Title", "Auth", "1"},
		{"2", "Other", "Else", "3"},
		{"3", "Dune, Part 1", "Frank Herbert", "2"},
	}, out)

	// Saving and loading again keeps the quotes.
	require.NoError(t, s.Save(bookSchema, out))
	again, err := s.Load(bookSchema)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestFileStoreMultilineField(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	recs := []Record{
		{"1", "Line one\nLine two", "Someone", "1"},
		{"2", "Plain", "Else", "0"},
	}
	require.NoError(t, s.Save(bookSchema, recs))
	out, err := s.Load(bookSchema)
	require.NoError(t, err)
	assert.Equal(t, recs, out)
}

func TestFileStoreMalformedLine(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "members.txt"), []byte("1,Ann\n2\n"), 0o644))

	_, err = s.Load(memberSchema)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveAll(
		Snapshot{Schema: memberSchema, Records: []Record{{"1", "Ann"}}},
		Snapshot{Schema: bookSchema, Records: nil},
	))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"books.txt", "members.txt"}, names)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("postgres", t.TempDir())
	assert.Error(t, err)
}
