package booking

import (
	"strings"
	"testing"
	"time"

	statex "github.com/supperclub/concierge/planner/state"
)

func TestBuildJobUsesSnapshotOnly(t *testing.T) {
	t.Parallel()

	snapshot := statex.Constraints{
		DateHint:   "Friday",
		PartySize:  5,
		BudgetHint: "<=$30",
		Dietary:    []string{"vegan"},
		Vibe:       []string{"cozy"},
	}
	opt := statex.Option{
		ID:     "A",
		Dinner: statex.Slot{Name: "Nari", Location: "San Francisco", Time: "7:30 PM", URL: "https://www.opentable.com/nari"},
	}

	job := BuildJob("plan1", snapshot, opt, time.Now())

	if job.ID == "" || job.PlanID != "plan1" {
		t.Fatalf("job identity: %+v", job)
	}
	if job.Status != statex.JobCreated {
		t.Fatalf("status: got %s", job.Status)
	}
	p := job.Payload
	if p.URL != "https://www.opentable.com/nari" || p.TimeText != "7:30 PM" || p.PartySize != 5 || p.DateHint != "Friday" {
		t.Fatalf("payload: %+v", p)
	}
	if p.Instructions != Instruction {
		t.Fatalf("instructions: got %q", p.Instructions)
	}
	for _, want := range []string{"Nari", "in San Francisco", "budget <=$30", "dietary: vegan", "vibe: cozy"} {
		if !strings.Contains(p.VenueQuery, want) {
			t.Fatalf("venue query missing %q: %q", want, p.VenueQuery)
		}
	}
}

func TestVenueQuerySkipsEmptyParts(t *testing.T) {
	t.Parallel()

	got := venueQuery(statex.Constraints{}, statex.Option{Dinner: statex.Slot{Name: "Nari"}})
	if got != "Nari" {
		t.Fatalf("got %q", got)
	}
}

func TestDispatchMessage(t *testing.T) {
	t.Parallel()

	msg := DispatchMessage(
		statex.Option{ID: "B", Dinner: statex.Slot{Name: "Shizen", Time: "7:45 PM"}},
		statex.Constraints{PartySize: 6},
	)
	for _, want := range []string{"Option B", "Shizen", "7:45 PM", "for 6"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q: %q", want, msg)
		}
	}
}

func TestFilterEstimates(t *testing.T) {
	t.Parallel()

	result := map[string]any{
		"status": "success",
		"estimates": []any{
			map[string]any{"service": "UberX", "duration": "12 min", "price": "$14"},
			map[string]any{"service": "uberxl", "duration": "unavailable"},
			map[string]any{"service": "black", "duration": "10 min"},
			map[string]any{"service": "share", "duration": "15 min"},
			"garbage",
		},
	}

	filtered := FilterEstimates(result)

	estimates, _ := filtered["estimates"].([]any)
	if len(estimates) != 2 {
		t.Fatalf("expected 2 estimates, got %v", estimates)
	}
	first, _ := estimates[0].(map[string]any)
	if first["service"] != "UberX" {
		t.Fatalf("ordering must be preserved, got %v", estimates)
	}
	if filtered["status"] != "success" {
		t.Fatal("non-estimate fields must pass through")
	}
}

func TestFilterEstimatesWithoutList(t *testing.T) {
	t.Parallel()

	result := map[string]any{"status": "failed", "error": "timeout"}
	if got := FilterEstimates(result); got["error"] != "timeout" {
		t.Fatalf("got %v", got)
	}
}
