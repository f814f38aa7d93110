package library

import (
	"cmp"
	"slices"
)

// MostBorrowed counts ledger rows per book. Outstanding and returned loans
// both count: a borrow is a borrow.
func (lm *LibraryManager) MostBorrowed() (map[int64]int, error) {
	loans, err := lm.loadLoans()
	if err != nil {
		return nil, err
	}
	return countBorrows(loans), nil
}

// RankBorrowed returns MostBorrowed as a list ordered by count (highest
// first) then book id, with titles filled in for books still in the catalog.
func (lm *LibraryManager) RankBorrowed() ([]BorrowCount, error) {
	counts, err := lm.MostBorrowed()
	if err != nil {
		return nil, err
	}
	books, err := lm.loadBooks()
	if err != nil {
		return nil, err
	}
	titles := make(map[int64]string, len(books))
	for _, b := range books {
		titles[b.ID] = b.Title
	}

	ranked := make([]BorrowCount, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, BorrowCount{BookID: id, Title: titles[id], Count: n})
	}
	slices.SortFunc(ranked, func(a, b BorrowCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.BookID, b.BookID)
	})
	return ranked, nil
}

func countBorrows(loans []Loan) map[int64]int {
	counts := make(map[int64]int)
	for _, l := range loans {
		counts[l.BookID]++
	}
	return counts
}
