package propose

import (
	"strings"
	"testing"
	"time"

	contractx "github.com/supperclub/concierge/planner/contract"
	statex "github.com/supperclub/concierge/planner/state"
)

func completeConstraints() statex.Constraints {
	return statex.Constraints{
		DateHint:     "Friday",
		TimeWindow:   "after 7pm",
		LocationArea: "San Francisco",
		PartySize:    5,
		BudgetHint:   "<=$30",
		Dietary:      []string{"vegan"},
	}
}

func TestClarificationPromptCapsAtThree(t *testing.T) {
	t.Parallel()

	prompt := ClarificationPrompt([]string{"date_hint", "time_window", "location_area", "party_size", "budget_hint"})
	if got := strings.Count(prompt, "?"); got != 3 {
		t.Fatalf("expected 3 questions, got %d in %q", got, prompt)
	}
}

func TestClarificationPromptAsksAboutPartySize(t *testing.T) {
	t.Parallel()

	prompt := ClarificationPrompt([]string{"party_size"})
	if !strings.Contains(prompt, "How many people") {
		t.Fatalf("expected party size question, got %q", prompt)
	}
}

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	proposal, message := Build(completeConstraints(), nil, time.Now())

	if len(proposal.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(proposal.Options))
	}
	a, b := proposal.Options[0], proposal.Options[1]
	if a.ID != "A" || b.ID != "B" {
		t.Fatalf("unexpected option ids: %s %s", a.ID, b.ID)
	}
	if a.Dinner.Time != "7:30 PM" || b.Dinner.Time != "7:45 PM" {
		t.Fatalf("unexpected dinner times: %s %s", a.Dinner.Time, b.Dinner.Time)
	}
	if a.After.Name == "" || b.After.Name == "" {
		t.Fatal("both options need an after-dinner slot")
	}
	if a.Dinner.Location != "San Francisco" {
		t.Fatalf("dinner slot must use the constraint area, got %q", a.Dinner.Location)
	}
	if !strings.Contains(message, "Option A") || !strings.Contains(message, "Option B") {
		t.Fatalf("message must enumerate both options: %q", message)
	}
	if !strings.Contains(message, "tell me what to change") {
		t.Fatalf("message must carry the confirmation instruction: %q", message)
	}
}

func TestBuildUsesCandidates(t *testing.T) {
	t.Parallel()

	candidates := []contractx.Candidate{
		{Name: "Nari", URL: "https://www.opentable.com/nari", Area: "Japantown"},
		{Name: "Shizen"},
	}
	proposal, _ := Build(completeConstraints(), candidates, time.Now())

	a, b := proposal.Options[0], proposal.Options[1]
	if a.Dinner.Name != "Nari" || a.Dinner.URL != "https://www.opentable.com/nari" || a.Dinner.Location != "Japantown" {
		t.Fatalf("candidate not applied to option A: %+v", a.Dinner)
	}
	if b.Dinner.Name != "Shizen" {
		t.Fatalf("candidate not applied to option B: %+v", b.Dinner)
	}
	if b.Dinner.Location != "San Francisco" {
		t.Fatalf("candidate without area falls back to the constraint area, got %q", b.Dinner.Location)
	}
}

func TestBuildFreezesSnapshot(t *testing.T) {
	t.Parallel()

	c := completeConstraints()
	proposal, _ := Build(c, nil, time.Now())

	c.LocationArea = "Oakland"
	if proposal.ConstraintsSnapshot.LocationArea != "San Francisco" {
		t.Fatalf("snapshot must not track later edits, got %q", proposal.ConstraintsSnapshot.LocationArea)
	}
	if proposal.ID == "" {
		t.Fatal("proposal needs an id")
	}
}
