package library

import (
	"fmt"
	"os"
	"strings"
)

// ListEBooks returns the names of the files in dir, sorted. The directory is
// created on first use.
func ListEBooks(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ebooks dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read ebooks dir: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
