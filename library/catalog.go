package library

import (
	"fmt"
	"slices"

	"library-ledger/records"
)

// ------------------ Books ------------------

// AddBook stores a new book and returns its id. Ids come from a persisted
// counter and are never reused after a removal.
func (lm *LibraryManager) AddBook(title, author string, copies int) (int64, error) {
	book := Book{Title: title, Author: author, Copies: copies}
	if err := lm.validate(book); err != nil {
		return 0, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.loadBooks()
	if err != nil {
		return 0, err
	}
	seqs, err := lm.loadSequences()
	if err != nil {
		return 0, err
	}

	var maxID int64
	for _, b := range books {
		maxID = max(maxID, b.ID)
	}
	book.ID = seqs.take(seqBooks, maxID)
	books = append(books, book)

	err = lm.store.SaveAll(
		records.Snapshot{Schema: SequencesSchema, Records: seqs.encode()},
		records.Snapshot{Schema: BooksSchema, Records: encodeBooks(books)},
	)
	if err != nil {
		return 0, fmt.Errorf("save book: %w", err)
	}
	lm.log.Info("book added", "book_id", book.ID, "title", title, "copies", copies)
	return book.ID, nil
}

// RemoveBook deletes the book. Removing an unknown id is a no-op. Outstanding
// loans of the book stay in the ledger and can still be returned.
func (lm *LibraryManager) RemoveBook(id int64) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.loadBooks()
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(books), func(b Book) bool { return b.ID == id })
	if len(kept) == len(books) {
		return nil
	}
	if err := lm.store.Save(BooksSchema, encodeBooks(kept)); err != nil {
		return fmt.Errorf("remove book %d: %w", id, err)
	}
	lm.log.Info("book removed", "book_id", id)
	return nil
}

// AdjustCopies adds delta to the book's copy count.
func (lm *LibraryManager) AdjustCopies(id int64, delta int) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.loadBooks()
	if err != nil {
		return err
	}
	if err := adjustCopies(books, id, delta); err != nil {
		return err
	}
	return lm.store.Save(BooksSchema, encodeBooks(books))
}

// adjustCopies applies delta in place. It refuses any change that would
// leave a negative count.
func adjustCopies(books []Book, id int64, delta int) error {
	i := slices.IndexFunc(books, func(b Book) bool { return b.ID == id })
	if i < 0 {
		return fmt.Errorf("book %d: %w", id, ErrBookNotFound)
	}
	next := books[i].Copies + delta
	if next < 0 {
		return fmt.Errorf("book %d: %d copies %+d would be negative: %w",
			id, books[i].Copies, delta, ErrInvariantViolation)
	}
	books[i].Copies = next
	return nil
}

func (lm *LibraryManager) GetBook(id int64) (*Book, error) {
	books, err := lm.loadBooks()
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("book %d: %w", id, ErrBookNotFound)
}

// GetAllBooks returns the catalog in stored order.
func (lm *LibraryManager) GetAllBooks() ([]Book, error) { return lm.loadBooks() }

// ------------------ Members ------------------

// AddMember registers a member and returns the new id.
func (lm *LibraryManager) AddMember(name string) (int64, error) {
	member := Member{Name: name}
	if err := lm.validate(member); err != nil {
		return 0, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	members, err := lm.loadMembers()
	if err != nil {
		return 0, err
	}
	seqs, err := lm.loadSequences()
	if err != nil {
		return 0, err
	}

	var maxID int64
	for _, m := range members {
		maxID = max(maxID, m.ID)
	}
	member.ID = seqs.take(seqMembers, maxID)
	members = append(members, member)

	err = lm.store.SaveAll(
		records.Snapshot{Schema: SequencesSchema, Records: seqs.encode()},
		records.Snapshot{Schema: MembersSchema, Records: encodeMembers(members)},
	)
	if err != nil {
		return 0, fmt.Errorf("save member: %w", err)
	}
	lm.log.Info("member added", "member_id", member.ID)
	return member.ID, nil
}

func (lm *LibraryManager) GetMember(id int64) (*Member, error) {
	members, err := lm.loadMembers()
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("member %d: %w", id, ErrMemberNotFound)
}

func (lm *LibraryManager) GetAllMembers() ([]Member, error) { return lm.loadMembers() }
