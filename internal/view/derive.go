// Package view turns the raw link collection and the user's query into the
// ordered list the UI renders.
package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/nikbrunner/linkhub/internal/model"
)

// Query is the user-chosen view state. It is never persisted.
type Query struct {
	Search   string
	Sort     model.SortOption
	Filter   model.FilterOption
	Category *string // only used with FilterCategory; nil means every category
}

// DefaultQuery shows every link, newest first.
func DefaultQuery() Query {
	return Query{Sort: model.SortDateDesc, Filter: model.FilterAll}
}

// Derive filters, searches and sorts. It never modifies its inputs and
// always returns a fresh, non-nil slice.
func Derive(all, favorites []model.Link, q Query) []model.Link {
	base := baseSet(all, favorites, q)

	result := make([]model.Link, 0, len(base))
	if strings.TrimSpace(q.Search) == "" {
		result = append(result, base...)
	} else {
		needle := strings.ToLower(q.Search)
		for _, l := range base {
			if matches(l, needle) {
				result = append(result, l)
			}
		}
	}

	slices.SortStableFunc(result, compareFor(q.Sort))
	return result
}

func baseSet(all, favorites []model.Link, q Query) []model.Link {
	switch q.Filter {
	case model.FilterFavorites:
		return favorites
	case model.FilterCategory:
		if q.Category == nil {
			return all
		}
		var in []model.Link
		for _, l := range all {
			if l.Category == *q.Category {
				in = append(in, l)
			}
		}
		return in
	default:
		return all
	}
}

func matches(l model.Link, needle string) bool {
	return strings.Contains(strings.ToLower(l.Title), needle) ||
		strings.Contains(strings.ToLower(l.URL), needle) ||
		strings.Contains(strings.ToLower(l.Category), needle)
}

func compareFor(sort model.SortOption) func(a, b model.Link) int {
	switch sort {
	case model.SortDateAsc:
		return func(a, b model.Link) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) }
	case model.SortTitleAsc:
		return func(a, b model.Link) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case model.SortMostVisited:
		return func(a, b model.Link) int { return cmp.Compare(b.ClickCount, a.ClickCount) }
	default:
		return func(a, b model.Link) int { return cmp.Compare(b.CreatedAt, a.CreatedAt) }
	}
}
