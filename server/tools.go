package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/supperclub/concierge/planner"
	"github.com/supperclub/concierge/planner/booking"
	"github.com/supperclub/concierge/planner/calendar"
	contractx "github.com/supperclub/concierge/planner/contract"
	statex "github.com/supperclub/concierge/planner/state"
)

type toolSet struct {
	svc *planner.Service
}

// jsonResult marshals v into the text payload of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// errResult reports a violated precondition as a record, per the tool
// contract; transport-level errors are reserved for malformed requests.
func errResult(err error) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]string{"error": err.Error()})
}

/* ---------------------------- extract_constraints ---------------------------- */

func (t *toolSet) extractConstraintsDefinition() mcp.Tool {
	return mcp.NewTool("extract_constraints",
		mcp.WithDescription("Extract structured planning constraints from a chunk of group chat text and merge them into the plan, creating the plan when no id is given."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw group chat text")),
		mcp.WithString("plan_id", mcp.Description("Existing plan id; omit on the first call")),
	)
}

func (t *toolSet) handleExtractConstraints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.svc.ExtractConstraints(ctx, text, req.GetString("plan_id", ""))
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

/* ----------------------------- propose_itinerary ----------------------------- */

func (t *toolSet) proposeItineraryDefinition() mcp.Tool {
	return mcp.NewTool("propose_itinerary",
		mcp.WithDescription("Build two itinerary options and a confirmation prompt for the group, or relay clarification questions while required constraints are missing."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan to propose for")),
		mcp.WithObject("constraints", mcp.Description("Extra constraint fields to merge before proposing")),
		mcp.WithArray("candidates", mcp.Description("Up to two restaurant candidates ({name, url, area}) for the dinner slots")),
		mcp.WithString("request_id", mcp.Description("Correlation id echoed on the relay")),
	)
}

func (t *toolSet) handleProposeItinerary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		PlanID      string                `json:"plan_id"`
		Constraints *statex.Constraints   `json:"constraints,omitempty"`
		Candidates  []contractx.Candidate `json:"candidates,omitempty"`
		RequestID   string                `json:"request_id,omitempty"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.svc.ProposeItinerary(ctx, args.PlanID, args.Constraints, args.Candidates, args.RequestID)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

/* --------------------------- detect_group_consensus -------------------------- */

func (t *toolSet) detectConsensusDefinition() mcp.Tool {
	return mcp.NewTool("detect_group_consensus",
		mcp.WithDescription("Classify the group messages sent since the proposal (one per line) into approvals, objections, and absences, and decide whether booking is safe."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan with an active proposal")),
		mcp.WithString("messages_text", mcp.Required(), mcp.Description("All group messages since the proposal, one logical message per line")),
		mcp.WithString("request_id", mcp.Description("Correlation id echoed on the relay")),
	)
}

func (t *toolSet) handleDetectConsensus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	messages, err := req.RequireString("messages_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.svc.DetectGroupConsensus(ctx, planID, messages, req.GetString("request_id", ""))
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

/* ---------------------------- dispatch_booking_job --------------------------- */

func (t *toolSet) dispatchBookingDefinition() mcp.Tool {
	return mcp.NewTool("dispatch_booking_job",
		mcp.WithDescription("Turn the chosen option into a booking job and, in live mode, forward it to the execution service. Delivery failure is recorded, not raised."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan with an active proposal")),
		mcp.WithString("chosen_option", mcp.Required(), mcp.Description("Option id from the proposal (A or B)")),
		mcp.WithString("mode", mcp.Enum("dry_run", "live"), mcp.Description("dry_run builds the job only; live also delivers it")),
		mcp.WithString("request_id", mcp.Description("Correlation id echoed on the relay")),
	)
}

func (t *toolSet) handleDispatchBooking(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	chosen, err := req.RequireString("chosen_option")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.svc.DispatchBookingJob(ctx, planID, chosen, req.GetString("request_id", ""), req.GetString("mode", ""))
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

/* ---------------------------- finalize_reservation --------------------------- */

func (t *toolSet) finalizeReservationDefinition() mcp.Tool {
	return mcp.NewTool("finalize_reservation",
		mcp.WithDescription("Merge the booking automation's result into the plan and mark the job completed."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan the job belongs to")),
		mcp.WithString("job_id", mcp.Required(), mcp.Description("Booking job id")),
		mcp.WithObject("booking_result", mcp.Required(), mcp.Description("Confirmation fields: restaurant_name, address, time, party_size, confirmation_code, notes")),
		mcp.WithString("request_id", mcp.Description("Correlation id echoed on the relay")),
	)
}

func (t *toolSet) handleFinalizeReservation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		PlanID        string                  `json:"plan_id"`
		JobID         string                  `json:"job_id"`
		BookingResult contractx.BookingResult `json:"booking_result"`
		RequestID     string                  `json:"request_id,omitempty"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.svc.FinalizeReservation(ctx, args.PlanID, args.JobID, args.BookingResult, args.RequestID)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

/* ---------------------------- build_calendar_event --------------------------- */

func (t *toolSet) buildCalendarDefinition() mcp.Tool {
	return mcp.NewTool("build_calendar_event",
		mcp.WithDescription("Derive the calendar artifact and share link from the final plan state. Unset fields are derived from the reservation or constraints."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan to calendar")),
		mcp.WithString("title", mcp.Description("Event title override")),
		mcp.WithString("start_iso", mcp.Description("ISO-8601 start, e.g. 2026-02-14T19:30:00Z")),
		mcp.WithString("end_iso", mcp.Description("ISO-8601 end; defaults to start plus two hours")),
		mcp.WithString("location", mcp.Description("Event location override")),
		mcp.WithArray("description_lines", mcp.Description("Description lines, joined with newlines")),
		mcp.WithArray("attendees_emails", mcp.Description("Attendee emails for the ICS artifact")),
		mcp.WithString("request_id", mcp.Description("Correlation id echoed on the relay")),
	)
}

func (t *toolSet) handleBuildCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		PlanID           string   `json:"plan_id"`
		Title            string   `json:"title,omitempty"`
		StartISO         string   `json:"start_iso,omitempty"`
		EndISO           string   `json:"end_iso,omitempty"`
		Location         string   `json:"location,omitempty"`
		DescriptionLines []string `json:"description_lines,omitempty"`
		AttendeesEmails  []string `json:"attendees_emails,omitempty"`
		RequestID        string   `json:"request_id,omitempty"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.svc.BuildCalendarEvent(ctx, args.PlanID, calendar.Input{
		Title:            args.Title,
		StartISO:         args.StartISO,
		EndISO:           args.EndISO,
		Location:         args.Location,
		DescriptionLines: args.DescriptionLines,
		Attendees:        args.AttendeesEmails,
	}, args.RequestID)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

/* ------------------------------- get_plan_state ------------------------------ */

func (t *toolSet) getPlanStateDefinition() mcp.Tool {
	return mcp.NewTool("get_plan_state",
		mcp.WithDescription("Return the current plan record with the transcript truncated."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan id")),
	)
}

func (t *toolSet) handleGetPlanState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	plan, err := t.svc.GetPlanState(ctx, planID)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(plan)
}

/* --------------------------------- reset_plan -------------------------------- */

func (t *toolSet) resetPlanDefinition() mcp.Tool {
	return mcp.NewTool("reset_plan",
		mcp.WithDescription("Return the plan to collecting, discarding its proposal and reservation. Constraints are kept."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan id")),
	)
}

func (t *toolSet) handleResetPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.svc.ResetPlan(ctx, planID); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]bool{"ok": true})
}

/* ------------------------------- book_restaurant ----------------------------- */

func (t *toolSet) bookRestaurantDefinition() mcp.Tool {
	return mcp.NewTool("book_restaurant",
		mcp.WithDescription("Drive the booking automation against a reservation page: fill the form for the given time and party size, optionally resuming at the phone verification step."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Reservation page URL")),
		mcp.WithString("time_text", mcp.Required(), mcp.Description("Reservation time as shown on the page, e.g. 7:30 PM")),
		mcp.WithNumber("party_size", mcp.Required(), mcp.Description("Number of seats")),
		mcp.WithString("phone", mcp.Description("Phone number for the confirmation step")),
		mcp.WithString("otp_code", mcp.Description("One-time code when resuming a run waiting on verification")),
		mcp.WithBoolean("skip_to_otp", mcp.Description("Resume directly at the verification step")),
	)
}

func (t *toolSet) handleBookRestaurant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args booking.BookingRequest
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.svc.BookRestaurant(ctx, args)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

/* ------------------------------ estimate_rideshare --------------------------- */

func (t *toolSet) estimateRideshareDefinition() mcp.Tool {
	return mcp.NewTool("estimate_rideshare",
		mcp.WithDescription("Get live rideshare price estimates between two places, filtered to commonly used services."),
		mcp.WithString("origin", mcp.Required(), mcp.Description("Full pickup address or place name")),
		mcp.WithString("destination", mcp.Required(), mcp.Description("Full dropoff address or place name")),
	)
}

func (t *toolSet) handleEstimateRideshare(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	origin, err := req.RequireString("origin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	destination, err := req.RequireString("destination")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.svc.EstimateRideshare(ctx, origin, destination)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}
