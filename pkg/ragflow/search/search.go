// Package search retrieves web search results used to augment generation.
//
// Searchers never fail: a missing key or a provider error yields an empty
// result list, and the workflow proceeds without web augmentation.
package search

import (
	"context"
	"fmt"
	"strings"
)

// DefaultNumResults is the number of results requested per query.
const DefaultNumResults = 5

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher returns up to DefaultNumResults results for a query.
type Searcher interface {
	Search(ctx context.Context, apiKey, query string) []Result
}

// FormatResults renders results as a numbered block for a prompt.
// No results yield "".
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	parts := []string{"Web Search Results:\n"}
	for i, r := range results {
		parts = append(parts,
			fmt.Sprintf("%d. %s", i+1, r.Title),
			"   "+r.Snippet,
			"   Source: "+r.Link+"\n",
		)
	}
	return strings.Join(parts, "\n")
}
