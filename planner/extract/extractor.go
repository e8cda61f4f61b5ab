// Package extract turns raw group-chat text into a partial constraint record
// using ordered, deterministic pattern tables. First match wins everywhere;
// fields with no match stay absent so merge semantics are well defined.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	statex "github.com/supperclub/concierge/planner/state"
)

// keywordEntry maps a lowercase trigger substring to its normalized result.
// Table order defines priority.
type keywordEntry struct {
	trigger string
	result  string
}

var dayWords = []keywordEntry{
	{"tomorrow", "tomorrow"},
	{"tonight", "tonight"},
	{"today", "today"},
	{"monday", "Monday"},
	{"tuesday", "Tuesday"},
	{"wednesday", "Wednesday"},
	{"thursday", "Thursday"},
	{"friday", "Friday"},
	{"saturday", "Saturday"},
	{"sunday", "Sunday"},
}

var monthDayPattern = regexp.MustCompile(`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{1,2})\b`)

var (
	timeToken          = `(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`
	timeBetweenPattern = regexp.MustCompile(`between\s+` + timeToken + `\s+and\s+` + timeToken)
	timeAfterPattern   = regexp.MustCompile(`after\s+` + timeToken)
	timeAroundPattern  = regexp.MustCompile(`around\s+` + timeToken)
	timeIshPattern     = regexp.MustCompile(`(\d{1,2}(?::\d{2})?)\s*-?ish`)
)

// gazetteer is checked in order; the first substring present wins.
var gazetteer = []keywordEntry{
	{"palo alto", "Palo Alto"},
	{"san francisco", "San Francisco"},
	{"mountain view", "Mountain View"},
	{"menlo park", "Menlo Park"},
	{"redwood city", "Redwood City"},
	{"san jose", "San Jose"},
	{"berkeley", "Berkeley"},
	{"oakland", "Oakland"},
	{"the mission", "Mission District"},
	{"sf", "San Francisco"},
}

var partySizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`party of (\d+)`),
	regexp.MustCompile(`we have (\d+)`),
	regexp.MustCompile(`(\d+)\s*(?:people|ppl|pax|of us)`),
}

var (
	budgetCapPattern   = regexp.MustCompile(`(?:under|max|budget)\s*(?:of\s*)?\$?(\d+)`)
	budgetExactPattern = regexp.MustCompile(`\$(\d+)`)
)

var dietaryWords = []keywordEntry{
	{"vegan", "vegan"},
	{"vegetarian", "vegetarian"},
	{"gluten", "gluten-free"},
	{"halal", "halal"},
	{"kosher", "kosher"},
	{"pescatarian", "pescatarian"},
	{"dairy free", "dairy-free"},
	{"dairy-free", "dairy-free"},
	{"nut allergy", "nut-free"},
	{"nut-free", "nut-free"},
}

var avoidWords = []keywordEntry{
	{"no seafood", "seafood"},
	{"avoid seafood", "seafood"},
	{"no shellfish", "shellfish"},
	{"avoid shellfish", "shellfish"},
	{"no sushi", "sushi"},
	{"no raw fish", "raw fish"},
	{"not spicy", "spicy"},
	{"no spicy", "spicy"},
	{"avoid spicy", "spicy"},
	{"no cilantro", "cilantro"},
	{"hate cilantro", "cilantro"},
}

var vibeWords = []keywordEntry{
	{"chill", "chill"},
	{"casual", "casual"},
	{"fancy", "upscale"},
	{"upscale", "upscale"},
	{"romantic", "date-night"},
	{"date night", "date-night"},
	{"rooftop", "rooftop"},
	{"cozy", "cozy"},
	{"lively", "lively"},
	{"quiet", "quiet"},
	{"boba", "boba"},
	{"karaoke", "karaoke"},
	{"arcade", "arcade"},
}

// Extract detects each constraint independently and never errors. Values are
// short descriptive strings, not machine times.
func Extract(text string) statex.Constraints {
	lower := strings.ToLower(text)

	return statex.Constraints{
		DateHint:     extractDateHint(lower),
		TimeWindow:   extractTimeWindow(lower),
		LocationArea: firstMatch(lower, gazetteer),
		PartySize:    extractPartySize(lower),
		BudgetHint:   extractBudgetHint(lower),
		Dietary:      allMatches(lower, dietaryWords),
		Avoid:        allMatches(lower, avoidWords),
		Vibe:         allMatches(lower, vibeWords),
	}
}

func extractDateHint(lower string) string {
	if hit := firstMatch(lower, dayWords); hit != "" {
		return hit
	}
	if m := monthDayPattern.FindStringSubmatch(lower); m != nil {
		return strings.ToUpper(m[1][:1]) + m[1][1:] + " " + m[2]
	}
	return ""
}

func extractTimeWindow(lower string) string {
	if m := timeBetweenPattern.FindStringSubmatch(lower); m != nil {
		return "between " + tidyTime(m[1]) + " and " + tidyTime(m[2])
	}
	if m := timeAfterPattern.FindStringSubmatch(lower); m != nil {
		return "after " + tidyTime(m[1])
	}
	if m := timeAroundPattern.FindStringSubmatch(lower); m != nil {
		return "around " + tidyTime(m[1])
	}
	if m := timeIshPattern.FindStringSubmatch(lower); m != nil {
		return "around " + tidyTime(m[1])
	}
	return ""
}

func extractPartySize(lower string) int {
	for _, p := range partySizePatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

func extractBudgetHint(lower string) string {
	if m := budgetCapPattern.FindStringSubmatch(lower); m != nil {
		return "<=$" + m[1]
	}
	if m := budgetExactPattern.FindStringSubmatch(lower); m != nil {
		return "$" + m[1]
	}
	return ""
}

func firstMatch(lower string, table []keywordEntry) string {
	for _, entry := range table {
		if strings.Contains(lower, entry.trigger) {
			return entry.result
		}
	}
	return ""
}

func allMatches(lower string, table []keywordEntry) []string {
	var out []string
	seen := map[string]bool{}
	for _, entry := range table {
		if strings.Contains(lower, entry.trigger) && !seen[entry.result] {
			seen[entry.result] = true
			out = append(out, entry.result)
		}
	}
	return out
}

func tidyTime(tok string) string {
	return strings.Join(strings.Fields(tok), "")
}
