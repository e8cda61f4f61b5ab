package state

import (
	"testing"
	"time"
)

func TestMergeDeduplicatesCaseInsensitively(t *testing.T) {
	t.Parallel()

	c := Constraints{Dietary: []string{"vegan"}}
	c.Merge(Constraints{Dietary: []string{"Vegan", "gluten-free"}})

	if len(c.Dietary) != 2 {
		t.Fatalf("expected 2 dietary entries, got %v", c.Dietary)
	}
	if c.Dietary[0] != "vegan" || c.Dietary[1] != "gluten-free" {
		t.Fatalf("unexpected order or values: %v", c.Dietary)
	}
}

func TestMergeScalarOverwriteAndAbsence(t *testing.T) {
	t.Parallel()

	c := Constraints{LocationArea: "Palo Alto", PartySize: 4}
	c.Merge(Constraints{LocationArea: "San Francisco"})

	if c.LocationArea != "San Francisco" {
		t.Fatalf("expected overwrite, got %s", c.LocationArea)
	}
	if c.PartySize != 4 {
		t.Fatalf("absent field must not clear existing value, got %d", c.PartySize)
	}
}

func TestMissingRequiredAndConfidence(t *testing.T) {
	t.Parallel()

	c := Constraints{LocationArea: "San Francisco", PartySize: 5, BudgetHint: "<=$30"}
	missing := c.MissingRequired()

	if len(missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", missing)
	}
	if missing[0] != "date_hint" || missing[1] != "time_window" {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
	if got := c.Confidence(); got != 0.6 {
		t.Fatalf("expected confidence 0.6, got %v", got)
	}
}

func TestAdvanceToFollowsTransitionGraph(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p := NewPlan("p1", now)

	steps := []Stage{StageProposed, StageBooking, StageBooked, StageCalendared}
	for _, next := range steps {
		if err := p.AdvanceTo(next, now); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if err := p.AdvanceTo(StageProposed, now); err == nil {
		t.Fatal("calendared is terminal; expected transition error")
	}
}

func TestAdvanceToRejectsSkips(t *testing.T) {
	t.Parallel()

	p := NewPlan("p1", time.Now())
	if err := p.AdvanceTo(StageBooking, time.Now()); err == nil {
		t.Fatal("expected error skipping proposed")
	}
	if p.Stage != StageCollecting {
		t.Fatalf("failed transition must not change stage, got %s", p.Stage)
	}
}

func TestRepropose(t *testing.T) {
	t.Parallel()

	p := NewPlan("p1", time.Now())
	if err := p.AdvanceTo(StageProposed, time.Now()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := p.AdvanceTo(StageProposed, time.Now()); err != nil {
		t.Fatalf("re-propose must be allowed: %v", err)
	}
}

func TestResetKeepsConstraints(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p := NewPlan("p1", now)
	p.Constraints = Constraints{LocationArea: "Berkeley", Dietary: []string{"vegan"}}
	_ = p.AdvanceTo(StageProposed, now)
	p.Proposal = &Proposal{ID: "prop1", Options: []Option{{ID: "A"}, {ID: "B"}}}
	_ = p.AdvanceTo(StageBooking, now)
	_ = p.AdvanceTo(StageBooked, now)
	p.Reservation = &Reservation{RestaurantName: "Nari"}

	p.Reset(now)

	if p.Stage != StageCollecting {
		t.Fatalf("expected collecting, got %s", p.Stage)
	}
	if p.Proposal != nil || p.Reservation != nil {
		t.Fatal("reset must discard proposal and reservation")
	}
	if p.Constraints.LocationArea != "Berkeley" || len(p.Constraints.Dietary) != 1 {
		t.Fatalf("reset must keep constraints, got %+v", p.Constraints)
	}
}

func TestProposalOptionLookup(t *testing.T) {
	t.Parallel()

	p := &Proposal{Options: []Option{{ID: "A"}, {ID: "B"}}}
	if _, ok := p.Option("b"); !ok {
		t.Fatal("lookup must be case-insensitive")
	}
	if _, ok := p.Option("C"); ok {
		t.Fatal("unknown option must not match")
	}
}
