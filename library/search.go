package library

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

type bookDocument struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

func buildBookMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "standard"
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = "standard"
	docMapping.AddFieldMappingsAt("author", authorFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// SearchBooks matches q against titles and authors, tolerating prefixes and
// small typos. Results are ordered by relevance. An empty query matches
// nothing.
func (lm *LibraryManager) SearchBooks(q string) ([]Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Book{}, nil
	}

	books, err := lm.loadBooks()
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return []Book{}, nil
	}

	index, err := bleve.NewMemOnly(buildBookMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	defer index.Close()

	byID := make(map[string]Book, len(books))
	batch := index.NewBatch()
	for _, b := range books {
		id := formatID(b.ID)
		byID[id] = b
		if err := batch.Index(id, bookDocument{Title: b.Title, Author: b.Author}); err != nil {
			return nil, fmt.Errorf("index book %d: %w", b.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("index books: %w", err)
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(q), len(books), 0, false)
	result, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	found := make([]Book, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if b, ok := byID[hit.ID]; ok {
			found = append(found, b)
		}
	}
	return found, nil
}

func buildSearchQuery(q string) query.Query {
	var queries []query.Query
	for _, field := range []string{"title", "author"} {
		match := bleve.NewMatchQuery(q)
		match.SetField(field)
		queries = append(queries, match)

		for _, term := range strings.Fields(strings.ToLower(q)) {
			prefix := bleve.NewPrefixQuery(term)
			prefix.SetField(field)
			queries = append(queries, prefix)

			fuzzy := bleve.NewFuzzyQuery(term)
			fuzzy.SetField(field)
			fuzzy.SetFuzziness(1)
			queries = append(queries, fuzzy)
		}
	}
	return bleve.NewDisjunctionQuery(queries...)
}
