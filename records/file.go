package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".txt"

// FileStore keeps one comma-separated text file per resource in a directory,
// one record per line and no header line. Fields containing commas, quotes or
// line breaks are quoted, so they survive a round trip; plain fields are
// written bare.
//
// Every write goes to a temporary file in the same directory which is synced
// and then renamed over the previous file. SaveAll stages all of its files
// before renaming any of them, in the order given, so a failure while staging
// leaves every resource as it was.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing the named resource.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *FileStore) Load(schema Schema) ([]Record, error) {
	f, err := os.Open(s.Path(schema.Name))
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", schema.Name, err)
	}
	defer f.Close()
	return decode(schema, f)
}

func (s *FileStore) Save(schema Schema, records []Record) error {
	return s.SaveAll(Snapshot{Schema: schema, Records: records})
}

func (s *FileStore) SaveAll(snapshots ...Snapshot) error {
	for _, snap := range snapshots {
		if err := snap.Schema.check(snap.Records); err != nil {
			return err
		}
	}

	staged := make([]string, 0, len(snapshots))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}
	for _, snap := range snapshots {
		tmp, err := s.stage(snap)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, snap := range snapshots {
		if err := os.Rename(staged[i], s.Path(snap.Schema.Name)); err != nil {
			cleanup()
			return fmt.Errorf("replace %s: %w", snap.Schema.Name, err)
		}
	}
	return nil
}

// Close is a no-op; files are closed after every operation.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) stage(snap Snapshot) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+snap.Schema.Name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", snap.Schema.Name, err)
	}
	tmp := f.Name()
	fail := func(err error) (string, error) {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("stage %s: %w", snap.Schema.Name, err)
	}

	if err := encode(f, snap.Records); err != nil {
		return fail(err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("stage %s: %w", snap.Schema.Name, err)
	}
	return tmp, nil
}

func encode(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// decode reads one record per line. A line that is not valid CSV but splits
// into exactly the schema's arity on bare commas is a legacy unescaped row
// (for example a title starting with a quote) and is taken verbatim. A quoted
// field may continue onto following lines.
func decode(schema Schema, r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", schema.Name, err)
	}
	lines := strings.Split(string(data), "\n")

	out := []Record{}
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if line == "" {
			continue
		}
		if rec, ok := parseCSV(line, schema.Arity()); ok {
			out = append(out, rec)
			continue
		}
		if fields := strings.Split(line, ","); len(fields) == schema.Arity() {
			out = append(out, Record(fields))
			continue
		}

		rec, end, ok := parseMultiline(lines, i, schema.Arity())
		if !ok {
			return nil, fmt.Errorf("%s line %d: want %d fields: %w",
				schema.Name, i+1, schema.Arity(), ErrMalformedRecord)
		}
		out = append(out, rec)
		i = end
	}
	return out, nil
}

// parseMultiline joins lines[start:] one at a time until they form a single
// CSV record. It returns the index of the last line consumed.
func parseMultiline(lines []string, start, arity int) (Record, int, bool) {
	if !strings.Contains(lines[start], `"`) {
		return nil, 0, false
	}
	joined := lines[start]
	for j := start + 1; j < len(lines); j++ {
		joined += "\n" + lines[j]
		if rec, ok := parseCSV(joined, arity); ok {
			return rec, j, true
		}
	}
	return nil, 0, false
}

// parseCSV reports whether s is exactly one well-formed record of arity fields.
func parseCSV(s string, arity int) (Record, bool) {
	cr := csv.NewReader(strings.NewReader(s))
	cr.FieldsPerRecord = arity
	fields, err := cr.Read()
	if err != nil {
		return nil, false
	}
	if _, err := cr.Read(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return Record(fields), true
}
