package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-ledger/internal/app"
	"library-ledger/internal/config"
	"library-ledger/library"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := newImportCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "import_books <manifest.csv>",
		Short:        "Add the books listed in a title,author,copies CSV manifest to the catalog",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			a := app.New(cfg)
			defer a.Close()

			lib, err := a.Library()
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Importing books from %s...\n", args[0])
			imported, failed, err := importManifest(f, out, lib)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nImport complete!\n")
			fmt.Fprintf(out, "Successfully imported: %d books\n", imported)
			fmt.Fprintf(out, "Errors: %d\n", failed)
			if imported > 0 {
				printCatalog(out, lib)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the library records")
	cmd.Flags().StringVar(&cfg.Store, "store", cfg.Store, "record store backend: file or sqlite")
	return cmd
}

// importManifest adds one book per manifest row. A leading header row is
// skipped. Bad rows are reported and counted; only an unreadable manifest is
// an error.
func importManifest(r io.Reader, out io.Writer, lib *library.LibraryManager) (imported, failed int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return imported, failed, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) {
				fmt.Fprintf(out, "Line %d: ERROR - expected title,author,copies\n", line)
				failed++
				continue
			}
			return imported, failed, fmt.Errorf("read manifest: %w", err)
		}
		if line == 1 && strings.EqualFold(row[0], "title") {
			continue
		}

		title, author := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		fmt.Fprintf(out, "Importing: %s by %s... ", title, author)

		copies, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			fmt.Fprintf(out, "ERROR - invalid copies %q\n", row[2])
			failed++
			continue
		}
		id, err := lib.AddBook(title, author, copies)
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			failed++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", id)
		imported++
	}
}

func printCatalog(out io.Writer, lib *library.LibraryManager) {
	books, err := lib.GetAllBooks()
	if err != nil {
		fmt.Fprintf(out, "Error retrieving books: %v\n", err)
		return
	}
	fmt.Fprintln(out, "\nCatalog:")
	fmt.Fprintf(out, "%-4s %-50s %-30s %s\n", "ID", "Title", "Author", "Copies")
	fmt.Fprintln(out, strings.Repeat("-", 95))
	for _, b := range books {
		fmt.Fprintf(out, "%-4d %-50s %-30s %d\n", b.ID, truncateString(b.Title, 50), truncateString(b.Author, 30), b.Copies)
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
