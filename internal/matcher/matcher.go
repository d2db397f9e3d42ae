// Package matcher selects the catalog item that best fits a request. Match is
// a pure function: identical inputs always yield the same item.
package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"songdrop/internal/domain"
)

// Scoring weights. These encode product intent and are pinned by tests.
const (
	// KeywordHitScore is added per keyword found verbatim in the story.
	KeywordHitScore = 10.0
	// FuzzyWeight scales the best word similarity of a keyword without a literal hit.
	FuzzyWeight = 5.0
	// FuzzyThreshold is the similarity a story word must exceed to count.
	FuzzyThreshold = 0.7
	// ModeBoost is added when the item's mode equals the requested mode.
	ModeBoost = 5.0
	// MinConfidentScore is the floor the best score must exceed.
	MinConfidentScore = 2.0
)

// Scored pairs a catalog item with its score.
type Scored struct {
	Item  domain.CatalogItem
	Score float64
}

// Match returns the best candidate for filters and story. It reports false
// when no candidate scores above MinConfidentScore.
func Match(catalog []domain.CatalogItem, filters domain.MatchFilters, story string) (domain.CatalogItem, bool) {
	ranked := Rank(catalog, filters, story)
	if len(ranked) == 0 {
		return domain.CatalogItem{}, false
	}
	best := ranked[0]
	for _, candidate := range ranked[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	if best.Score <= MinConfidentScore {
		return domain.CatalogItem{}, false
	}
	return best.Item, true
}

// Rank scores the candidate set in catalog order.
func Rank(catalog []domain.CatalogItem, filters domain.MatchFilters, story string) []Scored {
	fold := cases.Fold()
	mode := strings.TrimSpace(fold.String(filters.Mode))
	style := strings.TrimSpace(fold.String(filters.MusicStyle))
	text := normalize(fold.String(story))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	candidates := narrow(catalog, mode, style)
	out := make([]Scored, 0, len(candidates))
	for _, item := range candidates {
		out = append(out, Scored{Item: item, Score: score(item, mode, text, words)})
	}
	return out
}

func narrow(catalog []domain.CatalogItem, mode, style string) []domain.CatalogItem {
	if mode == "" && style == "" {
		return catalog
	}
	fold := cases.Fold()
	var filtered []domain.CatalogItem
	for _, item := range catalog {
		if mode != "" && fold.String(item.Mode) != mode {
			continue
		}
		if style != "" && fold.String(item.MusicStyle) != style {
			continue
		}
		filtered = append(filtered, item)
	}
	if len(filtered) == 0 {
		return catalog
	}
	return filtered
}

func score(item domain.CatalogItem, mode, text string, words []string) float64 {
	fold := cases.Fold()
	var total float64
	for _, raw := range item.Keywords {
		keyword := normalize(fold.String(raw))
		if keyword == "" {
			continue
		}
		if strings.Contains(text, keyword) {
			total += KeywordHitScore
			continue
		}
		var best float64
		for _, word := range words {
			if sim := Similarity(keyword, word); sim > best {
				best = sim
			}
		}
		if best > FuzzyThreshold {
			total += FuzzyWeight * best
		}
	}
	if mode != "" && fold.String(item.Mode) == mode {
		total += ModeBoost
	}
	return total
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
