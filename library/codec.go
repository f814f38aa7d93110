package library

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"time"

	"library-ledger/records"
)

const (
	dateLayout        = "2006-01-02"
	statusOutstanding = "Not Returned"
)

var returnedStatus = regexp.MustCompile(`^Returned on (\d{4}-\d{2}-\d{2}) \(Fine: \$(\d+)\)$`)

// Persisted resources.
var (
	BooksSchema = records.Schema{
		Name: "books",
		Fields: []records.Field{
			{Name: "id", Kind: records.Identifier},
			{Name: "title", Kind: records.Text},
			{Name: "author", Kind: records.Text},
			{Name: "copies", Kind: records.Integer},
		},
	}
	MembersSchema = records.Schema{
		Name: "members",
		Fields: []records.Field{
			{Name: "id", Kind: records.Identifier},
			{Name: "name", Kind: records.Text},
		},
	}
	TransactionsSchema = records.Schema{
		Name: "transactions",
		Fields: []records.Field{
			{Name: "member_id", Kind: records.Identifier},
			{Name: "book_id", Kind: records.Identifier},
			{Name: "issue_date", Kind: records.Date},
			{Name: "due_date", Kind: records.Date},
			{Name: "status", Kind: records.Text},
		},
	}
	// SequencesSchema holds the next-id counters. Ids are never derived from
	// the current length of a collection, so removed ids are never reissued.
	SequencesSchema = records.Schema{
		Name: "sequences",
		Fields: []records.Field{
			{Name: "name", Kind: records.Text},
			{Name: "next", Kind: records.Integer},
		},
	}
)

func malformed(resource string, row int, format string, args ...any) error {
	return fmt.Errorf("%s record %d: %s: %w", resource, row+1, fmt.Sprintf(format, args...), records.ErrMalformedRecord)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

// civil truncates t to its calendar date in t's own location, expressed as
// midnight UTC so that date arithmetic never crosses a DST boundary.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func decodeBooks(recs []records.Record) ([]Book, error) {
	books := make([]Book, 0, len(recs))
	for i, r := range recs {
		id, err := parseID(r[0])
		if err != nil {
			return nil, malformed(BooksSchema.Name, i, "id %q", r[0])
		}
		copies, err := strconv.Atoi(r[3])
		if err != nil {
			return nil, malformed(BooksSchema.Name, i, "copies %q", r[3])
		}
		books = append(books, Book{ID: id, Title: r[1], Author: r[2], Copies: copies})
	}
	return books, nil
}

func encodeBooks(books []Book) []records.Record {
	out := make([]records.Record, len(books))
	for i, b := range books {
		out[i] = records.Record{formatID(b.ID), b.Title, b.Author, strconv.Itoa(b.Copies)}
	}
	return out
}

func decodeMembers(recs []records.Record) ([]Member, error) {
	members := make([]Member, 0, len(recs))
	for i, r := range recs {
		id, err := parseID(r[0])
		if err != nil {
			return nil, malformed(MembersSchema.Name, i, "id %q", r[0])
		}
		members = append(members, Member{ID: id, Name: r[1]})
	}
	return members, nil
}

func encodeMembers(members []Member) []records.Record {
	out := make([]records.Record, len(members))
	for i, m := range members {
		out[i] = records.Record{formatID(m.ID), m.Name}
	}
	return out
}

func decodeLoans(recs []records.Record) ([]Loan, error) {
	loans := make([]Loan, 0, len(recs))
	for i, r := range recs {
		var (
			l   Loan
			err error
		)
		l.MemberID = r[0]
		if l.BookID, err = parseID(r[1]); err != nil {
			return nil, malformed(TransactionsSchema.Name, i, "book id %q", r[1])
		}
		if l.IssueDate, err = parseDate(r[2]); err != nil {
			return nil, malformed(TransactionsSchema.Name, i, "issue date %q", r[2])
		}
		if l.DueDate, err = parseDate(r[3]); err != nil {
			return nil, malformed(TransactionsSchema.Name, i, "due date %q", r[3])
		}
		if r[4] != statusOutstanding {
			m := returnedStatus.FindStringSubmatch(r[4])
			if m == nil {
				return nil, malformed(TransactionsSchema.Name, i, "status %q", r[4])
			}
			l.Returned = true
			if l.ReturnDate, err = parseDate(m[1]); err != nil {
				return nil, malformed(TransactionsSchema.Name, i, "return date %q", m[1])
			}
			if l.Fine, err = strconv.Atoi(m[2]); err != nil {
				return nil, malformed(TransactionsSchema.Name, i, "fine %q", m[2])
			}
		}
		loans = append(loans, l)
	}
	return loans, nil
}

func encodeLoans(loans []Loan) []records.Record {
	out := make([]records.Record, len(loans))
	for i, l := range loans {
		out[i] = records.Record{
			l.MemberID,
			formatID(l.BookID),
			l.IssueDate.Format(dateLayout),
			l.DueDate.Format(dateLayout),
			l.Status(),
		}
	}
	return out
}

// sequences maps a counter name to the next id it will hand out.
type sequences map[string]int64

const (
	seqBooks   = "books"
	seqMembers = "members"
)

func decodeSequences(recs []records.Record) (sequences, error) {
	seqs := make(sequences, len(recs))
	for i, r := range recs {
		next, err := parseID(r[1])
		if err != nil {
			return nil, malformed(SequencesSchema.Name, i, "next %q", r[1])
		}
		seqs[r[0]] = next
	}
	return seqs, nil
}

func (s sequences) encode() []records.Record {
	out := make([]records.Record, 0, len(s))
	for _, name := range slices.Sorted(maps.Keys(s)) {
		out = append(out, records.Record{name, formatID(s[name])})
	}
	return out
}

// take hands out the next id for name. maxExisting covers collections written
// before the counter existed.
func (s sequences) take(name string, maxExisting int64) int64 {
	id := s[name]
	if id <= maxExisting {
		id = maxExisting + 1
	}
	s[name] = id + 1
	return id
}
