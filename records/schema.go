// Package records persists named collections of fixed-arity text records.
//
// A record is an ordered tuple of strings. The store checks that every record
// has the arity its Schema declares and nothing else: callers parse and format
// field values themselves.
package records

import (
	"errors"
	"fmt"
)

// Kind describes the logical type of a field. The store does not coerce values;
// kinds document the format callers are expected to use.
type Kind int

const (
	Identifier Kind = iota
	Text
	Integer
	Date
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is a named, typed column of a schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema names a resource and fixes the arity of its records.
type Schema struct {
	Name   string
	Fields []Field
}

// Arity is the number of fields every record of the resource carries.
func (s Schema) Arity() int { return len(s.Fields) }

// Record is one row of a resource.
type Record []string

// Snapshot pairs a schema with the full set of records to write for it.
type Snapshot struct {
	Schema  Schema
	Records []Record
}

var (
	// ErrMalformedRecord is returned when a persisted record does not match its schema.
	ErrMalformedRecord = errors.New("malformed record")
)

func (s Schema) check(records []Record) error {
	if s.Name == "" {
		return fmt.Errorf("schema has no name")
	}
	for i, rec := range records {
		if len(rec) != s.Arity() {
			return fmt.Errorf("%s record %d: want %d fields, got %d: %w",
				s.Name, i+1, s.Arity(), len(rec), ErrMalformedRecord)
		}
	}
	return nil
}
