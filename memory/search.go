package memory

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// identityQuery matches questions about the user's name or how they want to
// be addressed, in both languages.
var identityQuery = regexp.MustCompile(`(?i)(ad[ıi]m|ismim|benim ad[ıi]|nas[ıi]l hitap|bana ne diye|my name|call me|who am i|how should you (call|address) me)`)

// identityContent matches memory content that carries a name or addressing
// preference. Used to boost identity-bearing records for identity queries
// instead of matching any particular literal name.
var identityContent = regexp.MustCompile(`(?i)(diye hitap|hitap et|ad[ıi]|ismi|ismim|ça[ğg][ıi]r|call (him|her|them|me)|name is|address (him|her|them|me) as)`)

// identityTopic matches topics that typically hold addressing preferences.
var identityTopic = regexp.MustCompile(`(?i)(kullan[ıi]c[ıi] talebi|isim|kimlik|name|identity)`)

// SearchKeyword fetches the owner's full set, decrypts it, and
// case-insensitively matches every whitespace-split query token against
// content and topic. Results are sorted by importance descending and
// truncated to the page size.
func (s *Store) SearchKeyword(ctx context.Context, owner, query string) ([]*Record, error) {
	recs, err := s.ListImportant(ctx, owner, 0)
	if err != nil {
		return nil, err
	}

	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	var matched []*Record
	for _, rec := range recs {
		content := strings.ToLower(rec.Content)
		topic := strings.ToLower(rec.Topic)
		for _, token := range tokens {
			if strings.Contains(content, token) || strings.Contains(topic, token) {
				matched = append(matched, rec)
				break
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Importance > matched[j].Importance
	})
	if len(matched) > s.pageSize {
		matched = matched[:s.pageSize]
	}
	return matched, nil
}

// SearchSmart scores the owner's records against the query with a keyword
// heuristic tuned for identity questions ("what is my name?"). Identity
// queries require a score of at least 4 so only genuinely identity-bearing
// records surface; other queries accept any positive score. Failures fall
// back to SearchKeyword.
func (s *Store) SearchSmart(ctx context.Context, owner, query string) ([]*Record, error) {
	recs, err := s.ListImportant(ctx, owner, 0)
	if err != nil {
		// The keyword path may hit a recovered backend.
		return s.SearchKeyword(ctx, owner, query)
	}

	tokens := queryTokens(query)
	isIdentity := identityQuery.MatchString(query)

	type scored struct {
		rec   *Record
		score int
	}
	var results []scored

	for _, rec := range recs {
		score := 0
		content := strings.ToLower(rec.Content)
		topic := strings.ToLower(rec.Topic)

		if isIdentity {
			if identityContent.MatchString(rec.Content) {
				score += 3
			}
			if identityTopic.MatchString(rec.Topic) {
				score += 2
			}
		}
		for _, token := range tokens {
			if strings.Contains(content, token) {
				score += 2
			}
			if strings.Contains(topic, token) {
				score++
			}
		}

		if isIdentity && score >= 4 {
			results = append(results, scored{rec, score})
		} else if !isIdentity && score > 0 {
			results = append(results, scored{rec, score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].rec.Importance > results[j].rec.Importance
	})

	out := make([]*Record, 0, len(results))
	for _, r := range results {
		out = append(out, r.rec)
		if len(out) == s.pageSize {
			break
		}
	}
	return out, nil
}

// queryTokens splits a query into lowered tokens of three or more runes.
func queryTokens(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		trimmed := strings.Trim(field, "?!.,:;\"'")
		if len([]rune(trimmed)) >= 3 {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}
