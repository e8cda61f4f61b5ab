// Package booking turns a chosen itinerary option into a booking job and
// bridges to the external automation executor.
package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	statex "github.com/supperclub/concierge/planner/state"
)

const (
	ModeDryRun = "dry_run"
	ModeLive   = "live"
)

// Instruction is the fixed brief handed to the execution agent alongside the
// payload fields.
const Instruction = "Book a table matching this payload. Confirm the time and party size before submitting, prefer the exact venue when a URL is given, and report the confirmation code."

// BuildJob creates a booking job from the proposal's frozen snapshot and the
// chosen option. The plan's live constraints are deliberately not consulted.
func BuildJob(planID string, snapshot statex.Constraints, opt statex.Option, now time.Time) *statex.BookingJob {
	return &statex.BookingJob{
		ID:     uuid.NewString(),
		PlanID: planID,
		Payload: statex.BookingPayload{
			PlanID:       planID,
			URL:          opt.Dinner.URL,
			DateHint:     snapshot.DateHint,
			TimeText:     opt.Dinner.Time,
			PartySize:    snapshot.PartySize,
			VenueQuery:   venueQuery(snapshot, opt),
			Instructions: Instruction,
		},
		Status:    statex.JobCreated,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func venueQuery(c statex.Constraints, opt statex.Option) string {
	parts := []string{opt.Dinner.Name}
	if opt.Dinner.Location != "" {
		parts = append(parts, "in "+opt.Dinner.Location)
	}
	if c.BudgetHint != "" {
		parts = append(parts, "budget "+c.BudgetHint)
	}
	if len(c.Dietary) > 0 {
		parts = append(parts, "dietary: "+strings.Join(c.Dietary, ", "))
	}
	if len(c.Avoid) > 0 {
		parts = append(parts, "avoid: "+strings.Join(c.Avoid, ", "))
	}
	if len(c.Vibe) > 0 {
		parts = append(parts, "vibe: "+strings.Join(c.Vibe, ", "))
	}
	return strings.Join(parts, "; ")
}

// DispatchMessage is the group-facing confirmation that a booking run started.
func DispatchMessage(opt statex.Option, c statex.Constraints) string {
	return fmt.Sprintf("Booking Option %s: %s at %s for %d — I'll report back with a confirmation.",
		opt.ID, opt.Dinner.Name, opt.Dinner.Time, c.PartySize)
}
