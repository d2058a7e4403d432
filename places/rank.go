package places

import (
	"fmt"
	"sort"
	"strings"
)

// scoreFor computes a candidate's relevance score: twice the rating, with a
// half-point bonus for well-reviewed places and a half-point penalty for
// barely-reviewed ones. Counts in [10,100] get no adjustment.
func scoreFor(rating float64, reviewCount int) float64 {
	score := rating * 2
	if reviewCount > 100 {
		score += 0.5
	} else if reviewCount < 10 {
		score -= 0.5
	}
	return score
}

// sortByScore orders candidates by descending score. The sort is stable so
// equally scored candidates keep the provider's relative order.
func sortByScore(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// VoiceSummary renders the ranked top candidates as a spoken response.
func VoiceSummary(top []Candidate) string {
	if len(top) == 0 {
		return "I couldn't find matching restaurants. Want to try a different search?"
	}

	var intro string
	switch len(top) {
	case 1:
		intro = "I found one spot you might like. "
	case 2:
		intro = "Here are two places that fit what you asked for. "
	default:
		intro = "Here are the top three I found. "
	}

	lines := make([]string, 0, len(top))
	for i, place := range top {
		parts := []string{fmt.Sprintf("Number %d, %s", i+1, place.Name)}
		if place.Rating > 0 {
			parts = append(parts, fmt.Sprintf("rated %v stars", place.Rating))
		}
		if place.Travel != nil && place.Travel.DurationText != "" {
			parts = append(parts, fmt.Sprintf("about %s away", place.Travel.DurationText))
		}
		lines = append(lines, strings.Join(parts, ", ")+".")
	}

	prompt := "Want more details on any of these, or should I send the list to your phone?"
	return intro + strings.Join(lines, " ") + " " + prompt
}
