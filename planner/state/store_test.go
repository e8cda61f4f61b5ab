package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStorePlanRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	p := NewPlan("p1", time.Now())
	p.Constraints.LocationArea = "Oakland"
	if err := store.SavePlan(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the saved pointer must not leak into the stored snapshot.
	p.Constraints.LocationArea = "mutated"

	loaded, err := store.LoadPlan(ctx, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Constraints.LocationArea != "Oakland" {
		t.Fatalf("expected snapshot semantics, got %s", loaded.Constraints.LocationArea)
	}
}

func TestMemoryStorePlanNotFound(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.LoadPlan(context.Background(), "nope"); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestMemoryStoreDeletePlan(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.SavePlan(ctx, NewPlan("p1", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.DeletePlan(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.LoadPlan(ctx, "p1"); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreJobRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	job := &BookingJob{ID: "j1", PlanID: "p1", Status: JobCreated}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("save job: %v", err)
	}
	loaded, err := store.LoadJob(ctx, "j1")
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if loaded.PlanID != "p1" || loaded.Status != JobCreated {
		t.Fatalf("unexpected job: %+v", loaded)
	}
	if _, err := store.LoadJob(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
