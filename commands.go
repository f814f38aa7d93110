package main

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"library-ledger/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const barWidth = 40

func (c *cli) reportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the most borrowed books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := c.app.Library()
			if err != nil {
				return err
			}
			ranked, err := lib.RankBorrowed()
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), ranked, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

func (c *cli) ebooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ebooks",
		Short: "List the e-book directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := library.ListEBooks(c.cfg.EBooksPath())
			if err != nil {
				return err
			}
			printEBooks(cmd.OutOrStdout(), names, c.cfg.EBooksPath())
			return nil
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by title or author",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := c.app.Library()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			books, err := lib.SearchBooks(query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintf(out, "No books found matching '%s'.\n", query)
				return nil
			}
			fmt.Fprintf(out, "Found %d book(s) matching '%s':\n", len(books), query)
			printBooks(out, books)
			return nil
		},
	}
}

// renderReport writes the ranked borrow counts as a bar chart or as JSON.
func renderReport(w io.Writer, ranked []library.BorrowCount, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	case "text":
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	if len(ranked) == 0 {
		fmt.Fprintln(w, "No books have been borrowed yet.")
		return nil
	}

	fmt.Fprintln(w, "Most Borrowed Books:")
	fmt.Fprintf(w, "%-5s %-30s %-8s\n", "ID", "Title", "Borrows")
	fmt.Fprintln(w, strings.Repeat("-", 45+barWidth))
	top := ranked[0].Count
	for _, bc := range ranked {
		title := bc.Title
		if title == "" {
			title = "(removed)"
		}
		fmt.Fprintf(w, "%-5d %-30s %-8d %s\n", bc.BookID, truncateString(title, 30), bc.Count, bar(bc.Count, top))
	}
	return nil
}

func bar(n, top int) string {
	width := n * barWidth / top
	if width == 0 && n > 0 {
		width = 1
	}
	return strings.Repeat("#", width)
}

func printBooks(w io.Writer, books []library.Book) {
	fmt.Fprintf(w, "%-5s %-30s %-25s %s\n", "ID", "Title", "Author", "Copies")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, b := range books {
		fmt.Fprintf(w, "%-5d %-30s %-25s %d\n",
			b.ID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			b.Copies)
	}
}

func printEBooks(w io.Writer, names []string, dir string) {
	if len(names) == 0 {
		fmt.Fprintf(w, "No e-books in %s.\n", dir)
		return
	}
	fmt.Fprintln(w, "Available E-Books:")
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
}

// truncateString shortens s to maxLength characters, never splitting a rune.
func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
