// Package search looks up occupation titles by substring.
package search

import (
	"context"
	"fmt"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// TitleSearcher is the slice of the record store that title search needs
type TitleSearcher interface {
	TitlesContaining(ctx context.Context, keyword string, lang models.Language) ([]string, error)
}

var _ TitleSearcher = (database.TaskRecordRepositoryInterface)(nil)

// Index answers keyword lookups against one language's title column
type Index struct {
	store TitleSearcher
}

// NewIndex creates a new title index over the record store
func NewIndex(store TitleSearcher) *Index {
	return &Index{store: store}
}

// SearchTitles returns distinct titles in lang containing keyword (case-sensitive),
// in storage order. An empty keyword matches nothing and never reaches the store.
// The result is unbounded.
func (i *Index) SearchTitles(ctx context.Context, keyword string, lang models.Language) ([]string, error) {
	if keyword == "" {
		return []string{}, nil
	}
	if !lang.Valid() {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}

	titles, err := i.store.TitlesContaining(ctx, keyword, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to search titles: %w", err)
	}
	return titles, nil
}
