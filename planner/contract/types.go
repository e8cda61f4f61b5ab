package contract

import (
	statex "github.com/supperclub/concierge/planner/state"
	"github.com/supperclub/concierge/pkg/forward"
)

type ExtractResult struct {
	PlanID        string             `json:"plan_id"`
	Constraints   statex.Constraints `json:"constraints"`
	MissingFields []string           `json:"missing_fields"`
	Confidence    float64            `json:"confidence"`
	Stage         statex.Stage       `json:"stage"`
}

// ProposeResult carries either a full proposal or a clarification relay when
// required constraints are still missing.
type ProposeResult struct {
	PlanID        string          `json:"plan_id"`
	ProposalID    string          `json:"proposal_id,omitempty"`
	Options       []statex.Option `json:"options,omitempty"`
	Clarification string          `json:"clarification,omitempty"`
	Relay         Relay           `json:"relay"`
}

// Signals groups classified consensus lines, capped per category.
type Signals struct {
	Approvals    []string `json:"approvals"`
	Objections   []string `json:"objections"`
	CantMakeItOK []string `json:"cant_make_it_ok"`
	Unknown      []string `json:"unknown"`
}

type ConsensusResult struct {
	Stage        string  `json:"stage"`
	ChosenOption string  `json:"chosen_option,omitempty"`
	Confidence   float64 `json:"confidence"`
	Signals      Signals `json:"signals"`
	SafeToBook   bool    `json:"safe_to_book"`
	NextAction   string  `json:"next_action"`
	Relay        *Relay  `json:"relay,omitempty"`
}

type DispatchResult struct {
	JobID          string                `json:"job_id"`
	BookingPayload statex.BookingPayload `json:"booking_payload"`
	PostResult     *forward.Result       `json:"post_result,omitempty"`
	Relay          Relay                 `json:"relay"`
}

// BookingResult is the caller-supplied outcome of the external booking
// automation, copied verbatim into the reservation.
type BookingResult struct {
	RestaurantName   string `json:"restaurant_name,omitempty"`
	Address          string `json:"address,omitempty"`
	Time             string `json:"time,omitempty"`
	PartySize        int    `json:"party_size,omitempty"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

type FinalizeResult struct {
	Reservation statex.Reservation `json:"reservation"`
	Relay       Relay              `json:"relay"`
}

// CalendarEvent is the derived calendar artifact plus its share link.
type CalendarEvent struct {
	Title       string `json:"title"`
	StartISO    string `json:"start_iso,omitempty"`
	EndISO      string `json:"end_iso,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link"`
	ICS         string `json:"ics,omitempty"`
}

type CalendarResult struct {
	CalendarEvent CalendarEvent `json:"calendar_event"`
	Relay         Relay         `json:"relay"`
}

// Candidate is a restaurant suggestion supplied to the proposer, typically
// found by a teammate or an upstream search.
type Candidate struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Area string `json:"area,omitempty"`
}
