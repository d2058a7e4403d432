package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

// Pattern is a network-free heuristic extractor. It covers common phrasings
// well enough for local runs and tests; production deployments use the
// openai or gemini strategies.
type Pattern struct{}

// NewPattern builds the heuristic extractor.
func NewPattern() *Pattern {
	return &Pattern{}
}

var knownCuisines = []string{
	"thai", "italian", "japanese", "sushi", "ramen", "mexican", "chinese",
	"indian", "korean", "vietnamese", "mediterranean", "greek", "french",
	"pizza", "burger", "bbq", "barbecue", "seafood", "vegan", "vegetarian",
	"ethiopian", "spanish", "tapas", "dim sum",
}

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"ten": 10, "fifteen": 15, "twenty": 20, "thirty": 30,
	"forty": 40, "forty five": 45, "sixty": 60,
}

var (
	minutesRe   = regexp.MustCompile(`(\d{1,3})\s*(?:min(?:ute)?s?)`)
	locationRe  = regexp.MustCompile(`\b(?:in|near|around|by)\s+([a-z0-9][a-z0-9\s']{1,40}?)(?:[.,!?]|$| and | with | for )`)
	openUntilRe = regexp.MustCompile(`open (?:un)?til+\s+([0-9]{1,2}(?::[0-9]{2})?\s*(?:am|pm)?)`)
	dollarsRe   = regexp.MustCompile(`\${1,4}`)
)

func (p *Pattern) Extract(_ context.Context, utterance string, _ session.Slots) (session.Slots, error) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	out := make(session.Slots)

	for _, cuisine := range knownCuisines {
		if strings.Contains(text, cuisine) {
			out["cuisine"] = cuisine
			break
		}
	}

	if m := locationRe.FindStringSubmatch(text); len(m) == 2 {
		out["location"] = strings.TrimSpace(m[1])
	}

	if budget := matchBudget(text); budget != "" {
		out["budget"] = budget
	}

	switch {
	case strings.Contains(text, "walk"):
		out["travel_mode"] = "walking"
	case strings.Contains(text, "transit"), strings.Contains(text, "train"),
		strings.Contains(text, "subway"), strings.Contains(text, "bus"):
		out["travel_mode"] = "transit"
	}

	if m := minutesRe.FindStringSubmatch(text); len(m) == 2 {
		out["travel_minutes"] = m[1]
	} else {
		for word, n := range wordNumbers {
			if strings.Contains(text, word+" minute") {
				out["travel_minutes"] = strconv.Itoa(n)
				break
			}
		}
	}

	if strings.Contains(text, "open now") || strings.Contains(text, "open right now") {
		out["open_now"] = "true"
	}
	if m := openUntilRe.FindStringSubmatch(text); len(m) == 2 {
		out["open_until"] = strings.TrimSpace(m[1])
	}

	return out, nil
}

func matchBudget(text string) string {
	if m := dollarsRe.FindString(text); m != "" {
		return m
	}
	switch {
	case strings.Contains(text, "cheap"), strings.Contains(text, "inexpensive"),
		strings.Contains(text, "budget friendly"):
		return "$"
	case strings.Contains(text, "moderate"), strings.Contains(text, "mid range"),
		strings.Contains(text, "mid-range"):
		return "$$"
	case strings.Contains(text, "upscale"), strings.Contains(text, "fancy"):
		return "$$$"
	case strings.Contains(text, "very expensive"), strings.Contains(text, "splurge"),
		strings.Contains(text, "fine dining"):
		return "$$$$"
	case strings.Contains(text, "expensive"):
		return "$$$"
	}
	return ""
}
