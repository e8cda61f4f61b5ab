// Package propose builds the two-option itinerary offered to the group once
// enough constraints are known, or the clarification prompt when they are not.
package propose

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/supperclub/concierge/planner/contract"
	statex "github.com/supperclub/concierge/planner/state"
)

// Fixed time-of-day defaults for the two dinner slots and their dessert
// follow-ups.
const (
	dinnerTimeA  = "7:30 PM"
	dinnerTimeB  = "7:45 PM"
	dessertTimeA = "9:00 PM"
	dessertTimeB = "9:15 PM"
)

var clarifyQuestions = map[string]string{
	"date_hint":     "What day are we aiming for?",
	"time_window":   "What time window works best?",
	"location_area": "Which area should we look in?",
	"party_size":    "How many people are coming?",
	"budget_hint":   "What's the budget per person?",
}

const maxClarifyQuestions = 3

// ClarificationPrompt joins at most three missing-field questions in required
// field order.
func ClarificationPrompt(missing []string) string {
	var questions []string
	for _, field := range missing {
		if q, ok := clarifyQuestions[field]; ok {
			questions = append(questions, q)
		}
		if len(questions) == maxClarifyQuestions {
			break
		}
	}
	return strings.Join(questions, " ")
}

// Build creates the proposal from a complete constraint set, using up to two
// restaurant candidates for the dinner slots and generic cuisine placeholders
// otherwise. The constraint snapshot is frozen into the proposal.
func Build(c statex.Constraints, candidates []contractx.Candidate, now time.Time) (*statex.Proposal, string) {
	area := c.LocationArea

	optionA := statex.Option{
		ID: "A",
		Dinner: statex.Slot{
			Name:     "A cozy Italian spot",
			Location: area,
			Time:     dinnerTimeA,
		},
		After: statex.Slot{
			Name:     "Dessert & boba nearby",
			Location: area,
			Time:     dessertTimeA,
		},
	}
	optionB := statex.Option{
		ID: "B",
		Dinner: statex.Slot{
			Name:     "A lively izakaya",
			Location: area,
			Time:     dinnerTimeB,
		},
		After: statex.Slot{
			Name:     "Late-night dessert walk",
			Location: area,
			Time:     dessertTimeB,
		},
	}

	if len(candidates) > 0 {
		applyCandidate(&optionA, candidates[0], area)
	}
	if len(candidates) > 1 {
		applyCandidate(&optionB, candidates[1], area)
	}

	proposal := &statex.Proposal{
		ID:                  uuid.NewString(),
		Options:             []statex.Option{optionA, optionB},
		ConstraintsSnapshot: c,
		CreatedAt:           now.UTC(),
	}

	return proposal, groupMessage(c, proposal)
}

func applyCandidate(opt *statex.Option, cand contractx.Candidate, fallbackArea string) {
	if name := strings.TrimSpace(cand.Name); name != "" {
		opt.Dinner.Name = name
	}
	opt.Dinner.URL = strings.TrimSpace(cand.URL)
	if area := strings.TrimSpace(cand.Area); area != "" {
		opt.Dinner.Location = area
	} else if opt.Dinner.Location == "" {
		opt.Dinner.Location = fallbackArea
	}
}

func groupMessage(c statex.Constraints, p *statex.Proposal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dinner plan for %s (%s, %d people, %s):\n",
		c.DateHint, c.LocationArea, c.PartySize, c.BudgetHint)
	for _, opt := range p.Options {
		fmt.Fprintf(&b, "Option %s — %s in %s at %s, then %s around %s.\n",
			opt.ID, opt.Dinner.Name, opt.Dinner.Location, opt.Dinner.Time,
			opt.After.Name, opt.After.Time)
	}
	b.WriteString("Reply 'A' or 'B' if one works, or tell me what to change (time/place/vibe).")
	return b.String()
}
