package library

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"library-ledger/internal/logger"
	"library-ledger/internal/validation"
	"library-ledger/records"
)

// Defaults for the circulation policy.
const (
	DefaultLoanDays = 14
	DefaultFineRate = 2
)

// Policy holds the tunable circulation rules.
type Policy struct {
	// LoanDays is added to the issue date to get the due date.
	LoanDays int
	// FineRate is charged per full day late.
	FineRate int
	// OneLoanPerPair refuses to issue a book to a member who already has an
	// outstanding loan of it.
	OneLoanPerPair bool
}

// DefaultPolicy returns the standard loan rules.
func DefaultPolicy() Policy {
	return Policy{LoanDays: DefaultLoanDays, FineRate: DefaultFineRate, OneLoanPerPair: true}
}

// LibraryManager owns the catalog and the circulation ledger. Every mutating
// operation loads what it needs, works on a private copy, and persists the
// result in one SaveAll while holding mu, so two callers can never interleave
// a read-modify-write and a failed save leaves nothing half applied.
type LibraryManager struct {
	store records.Store
	log   *logger.Logger
	valid *validation.Validator

	policy Policy
	now    func() time.Time

	mu sync.Mutex
}

// Option configures a LibraryManager.
type Option func(*LibraryManager)

// WithPolicy overrides the circulation rules.
func WithPolicy(p Policy) Option { return func(lm *LibraryManager) { lm.policy = p } }

// WithClock sets the source of "today".
func WithClock(now func() time.Time) Option { return func(lm *LibraryManager) { lm.now = now } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(lm *LibraryManager) { lm.log = l } }

// NewLibraryManager wires a manager to store.
func NewLibraryManager(store records.Store, opts ...Option) *LibraryManager {
	lm := &LibraryManager{
		store:  store,
		log:    logger.Discard(),
		valid:  validation.New(),
		policy: DefaultPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(lm)
	}
	return lm
}

// Policy returns the rules in effect.
func (lm *LibraryManager) Policy() Policy { return lm.policy }

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

func (lm *LibraryManager) today() time.Time { return civil(lm.now()) }

func (lm *LibraryManager) validate(v any) error {
	err := lm.valid.Validate(v)
	if err == nil {
		return nil
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return fmt.Errorf("%w: %s", ErrValidation, verr.Error())
	}
	return err
}

// ------------------ Loaders ------------------

func (lm *LibraryManager) loadBooks() ([]Book, error) {
	recs, err := lm.store.Load(BooksSchema)
	if err != nil {
		return nil, err
	}
	return decodeBooks(recs)
}

func (lm *LibraryManager) loadMembers() ([]Member, error) {
	recs, err := lm.store.Load(MembersSchema)
	if err != nil {
		return nil, err
	}
	return decodeMembers(recs)
}

func (lm *LibraryManager) loadLoans() ([]Loan, error) {
	recs, err := lm.store.Load(TransactionsSchema)
	if err != nil {
		return nil, err
	}
	return decodeLoans(recs)
}

func (lm *LibraryManager) loadSequences() (sequences, error) {
	recs, err := lm.store.Load(SequencesSchema)
	if err != nil {
		return nil, err
	}
	return decodeSequences(recs)
}

// saveCirculation persists the ledger and the catalog together. The ledger is
// listed first so that the file backend, which renames in order, never shows
// a changed copy count without the transaction that caused it.
func (lm *LibraryManager) saveCirculation(books []Book, loans []Loan) error {
	return lm.store.SaveAll(
		records.Snapshot{Schema: TransactionsSchema, Records: encodeLoans(loans)},
		records.Snapshot{Schema: BooksSchema, Records: encodeBooks(books)},
	)
}
