package records

import "fmt"

// Store loads and saves whole resources.
//
// Load of a resource that was never saved yields an empty slice. Save rewrites
// the resource completely. SaveAll writes several resources as one unit; how
// strong that unit is depends on the backend (see FileStore and SQLiteStore).
// A Store provides no locking between concurrent writers.
type Store interface {
	Load(schema Schema) ([]Record, error)
	Save(schema Schema, records []Record) error
	SaveAll(snapshots ...Snapshot) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return NewSQLiteStore(dir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
