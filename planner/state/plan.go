// Package state holds the per-session planning record, its stage machine, and
// the persistence contract behind it.
package state

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Stage string

const (
	StageCollecting Stage = "collecting"
	StageProposed   Stage = "proposed"
	StageConverging Stage = "converging"
	StageBlocked    Stage = "blocked"
	StageBooking    Stage = "booking"
	StageBooked     Stage = "booked"
	StageCalendared Stage = "calendared"
)

// Persisted stage advances. converging/blocked are detector-reported signal
// stages and never written here; reset is handled by Plan.Reset.
var transitions = map[Stage][]Stage{
	StageCollecting: {StageProposed},
	StageProposed:   {StageProposed, StageBooking},
	StageBooking:    {StageBooked},
	StageBooked:     {StageCalendared},
	StageCalendared: {},
}

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrJobNotFound       = errors.New("booking job not found")
	ErrNilPlan           = errors.New("plan is nil")
	ErrInvalidPlanID     = errors.New("plan id is empty")
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// RequiredFields are the constraint fields a proposal needs, in reporting
// order.
var RequiredFields = []string{"date_hint", "time_window", "location_area", "party_size", "budget_hint"}

// Constraints is the accumulated, partial constraint record. Missing scalar
// fields are zero values, never placeholder strings.
type Constraints struct {
	DateHint     string   `json:"date_hint,omitempty"`
	TimeWindow   string   `json:"time_window,omitempty"`
	LocationArea string   `json:"location_area,omitempty"`
	PartySize    int      `json:"party_size,omitempty"`
	BudgetHint   string   `json:"budget_hint,omitempty"`
	Dietary      []string `json:"dietary,omitempty"`
	Avoid        []string `json:"avoid,omitempty"`
	Vibe         []string `json:"vibe,omitempty"`
	MustHaves    []string `json:"must_haves,omitempty"`
}

// Merge folds a newer partial extraction into c: non-empty scalars overwrite,
// list fields are unioned and deduplicated case-insensitively, keeping first
// occurrence order.
func (c *Constraints) Merge(in Constraints) {
	if in.DateHint != "" {
		c.DateHint = in.DateHint
	}
	if in.TimeWindow != "" {
		c.TimeWindow = in.TimeWindow
	}
	if in.LocationArea != "" {
		c.LocationArea = in.LocationArea
	}
	if in.PartySize > 0 {
		c.PartySize = in.PartySize
	}
	if in.BudgetHint != "" {
		c.BudgetHint = in.BudgetHint
	}
	c.Dietary = mergeSet(c.Dietary, in.Dietary)
	c.Avoid = mergeSet(c.Avoid, in.Avoid)
	c.Vibe = mergeSet(c.Vibe, in.Vibe)
	c.MustHaves = mergeSet(c.MustHaves, in.MustHaves)
}

func mergeSet(dst, add []string) []string {
	merged := append(append([]string(nil), dst...), add...)
	merged = lo.Filter(merged, func(s string, _ int) bool {
		return strings.TrimSpace(s) != ""
	})
	if len(merged) == 0 {
		return nil
	}
	return lo.UniqBy(merged, strings.ToLower)
}

// MissingRequired reports which required fields are still absent.
func (c Constraints) MissingRequired() []string {
	var missing []string
	for _, field := range RequiredFields {
		switch field {
		case "date_hint":
			if c.DateHint == "" {
				missing = append(missing, field)
			}
		case "time_window":
			if c.TimeWindow == "" {
				missing = append(missing, field)
			}
		case "location_area":
			if c.LocationArea == "" {
				missing = append(missing, field)
			}
		case "party_size":
			if c.PartySize <= 0 {
				missing = append(missing, field)
			}
		case "budget_hint":
			if c.BudgetHint == "" {
				missing = append(missing, field)
			}
		}
	}
	return missing
}

// Confidence is 1 - missing/required, rounded to 2 decimals.
func (c Constraints) Confidence() float64 {
	missing := float64(len(c.MissingRequired()))
	total := float64(len(RequiredFields))
	return math.Round((1-missing/total)*100) / 100
}

// Slot is one itinerary stop.
type Slot struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Time     string `json:"time"`
	URL      string `json:"url,omitempty"`
}

// Option is one of the two itinerary choices offered to the group.
type Option struct {
	ID     string `json:"id"`
	Dinner Slot   `json:"dinner"`
	After  Slot   `json:"after"`
}

// Proposal freezes the two options and the constraints they were built from,
// so later edits never retroactively change an issued proposal.
type Proposal struct {
	ID                  string      `json:"id"`
	Options             []Option    `json:"options"`
	ConstraintsSnapshot Constraints `json:"constraints_snapshot"`
	CreatedAt           time.Time   `json:"created_at"`
}

// Option finds an option by id, case-insensitively.
func (p *Proposal) Option(id string) (Option, bool) {
	if p == nil {
		return Option{}, false
	}
	for _, opt := range p.Options {
		if strings.EqualFold(opt.ID, strings.TrimSpace(id)) {
			return opt, true
		}
	}
	return Option{}, false
}

// Reservation holds externally obtained booking confirmation fields.
type Reservation struct {
	RestaurantName   string `json:"restaurant_name,omitempty"`
	Address          string `json:"address,omitempty"`
	Time             string `json:"time,omitempty"`
	PartySize        int    `json:"party_size,omitempty"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// Plan is one group dinner-planning session.
type Plan struct {
	ID               string       `json:"id"`
	Stage            Stage        `json:"stage"`
	Constraints      Constraints  `json:"constraints"`
	LatestTranscript string       `json:"latest_transcript,omitempty"`
	Proposal         *Proposal    `json:"proposal,omitempty"`
	Reservation      *Reservation `json:"reservation,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func NewPlan(id string, now time.Time) *Plan {
	return &Plan{
		ID:        id,
		Stage:     StageCollecting,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (p *Plan) Touch(now time.Time) {
	p.UpdatedAt = now.UTC()
}

// AdvanceTo moves the plan through the transition graph. No stage is skipped.
func (p *Plan) AdvanceTo(next Stage, now time.Time) error {
	if p == nil {
		return ErrNilPlan
	}
	for _, allowed := range transitions[p.Stage] {
		if allowed == next {
			p.Stage = next
			p.Touch(now)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Stage, next)
}

// Reset returns the plan to collecting from any stage, discarding the proposal
// and reservation. Constraints survive.
func (p *Plan) Reset(now time.Time) {
	p.Stage = StageCollecting
	p.Proposal = nil
	p.Reservation = nil
	p.Touch(now)
}

type JobStatus string

const (
	JobCreated    JobStatus = "created"
	JobSent       JobStatus = "sent"
	JobSendFailed JobStatus = "send_failed"
	JobCompleted  JobStatus = "completed"
)

// BookingPayload is the request handed to the external booking executor.
type BookingPayload struct {
	PlanID       string `json:"plan_id"`
	URL          string `json:"url,omitempty"`
	DateHint     string `json:"date_hint,omitempty"`
	TimeText     string `json:"time_text"`
	PartySize    int    `json:"party_size"`
	VenueQuery   string `json:"venue_query"`
	Instructions string `json:"instructions"`
}

// BookingJob tracks one dispatch of a chosen option to the executor.
type BookingJob struct {
	ID        string         `json:"job_id"`
	PlanID    string         `json:"plan_id"`
	Payload   BookingPayload `json:"payload"`
	Status    JobStatus      `json:"status"`
	Result    map[string]any `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
