// Package search ranks links for quick-open.
package search

import (
	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/sahilm/fuzzy"
)

// Result is a fuzzy match of a link title.
type Result struct {
	Link           model.Link
	MatchedIndexes []int
	Score          int
}

// linkTitles implements fuzzy.Source.
type linkTitles []model.Link

func (lt linkTitles) String(i int) string {
	return lt[i].Title
}

func (lt linkTitles) Len() int {
	return len(lt)
}

// FuzzyLinks matches query against link titles.
// Returns results sorted by match score (best first); nil for an empty query.
func FuzzyLinks(links []model.Link, query string) []Result {
	if query == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, linkTitles(links))

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Link:           links[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}
