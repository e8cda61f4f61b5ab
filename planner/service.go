// Package planner exposes one method per tool operation, enforcing plan
// preconditions and the stage persistence rules around the component packages.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/supperclub/concierge/pkg/forward"
	"github.com/supperclub/concierge/planner/booking"
	"github.com/supperclub/concierge/planner/calendar"
	"github.com/supperclub/concierge/planner/consensus"
	contractx "github.com/supperclub/concierge/planner/contract"
	"github.com/supperclub/concierge/planner/extract"
	"github.com/supperclub/concierge/planner/propose"
	statex "github.com/supperclub/concierge/planner/state"
)

// Config holds service-level knobs. The transcript tail default is a carried
// constant, kept configurable on purpose.
type Config struct {
	TranscriptTail int    `envconfig:"TRANSCRIPT_TAIL" split_words:"true" default:"1500"`
	DefaultMode    string `envconfig:"DEFAULT_MODE" split_words:"true" default:"dry_run"`
}

// Service coordinates the planning workflow against the injected store.
// Callers serialize operations per plan id.
type Service struct {
	store     statex.Store
	detector  consensus.Config
	forwarder *forward.Client
	executor  *booking.Executor
	cfg       Config

	now func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithForwarder sets the live-mode delivery client.
func WithForwarder(c *forward.Client) Option {
	return func(s *Service) { s.forwarder = c }
}

// WithExecutor sets the automation subprocess bridge used by the rideshare
// estimate.
func WithExecutor(e *booking.Executor) Option {
	return func(s *Service) { s.executor = e }
}

// WithClock overrides the time source; tests use this.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(store statex.Store, detector consensus.Config, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if cfg.TranscriptTail <= 0 {
		cfg.TranscriptTail = 1500
	}
	if strings.TrimSpace(cfg.DefaultMode) == "" {
		cfg.DefaultMode = booking.ModeDryRun
	}

	s := &Service{
		store:    store,
		detector: detector,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// ExtractConstraints merges a new extraction into the plan, creating the plan
// when no id is supplied. Extraction itself never errors.
func (s *Service) ExtractConstraints(ctx context.Context, text, planID string) (contractx.ExtractResult, error) {
	now := s.now()

	var plan *statex.Plan
	if strings.TrimSpace(planID) == "" {
		plan = statex.NewPlan(uuid.NewString(), now)
	} else {
		loaded, err := s.loadPlan(ctx, planID)
		if err != nil {
			return contractx.ExtractResult{}, err
		}
		plan = loaded
	}

	partial := extract.Extract(text)
	plan.Constraints.Merge(partial)
	plan.LatestTranscript = text
	plan.Touch(now)

	if err := s.store.SavePlan(ctx, plan); err != nil {
		return contractx.ExtractResult{}, err
	}

	missing := plan.Constraints.MissingRequired()
	if missing == nil {
		missing = []string{}
	}
	log.Debug().Str("plan_id", plan.ID).Strs("missing", missing).Msg("constraints extracted")

	return contractx.ExtractResult{
		PlanID:        plan.ID,
		Constraints:   plan.Constraints,
		MissingFields: missing,
		Confidence:    plan.Constraints.Confidence(),
		Stage:         plan.Stage,
	}, nil
}

// ProposeItinerary builds the two-option proposal, or relays clarification
// questions while required fields are missing.
func (s *Service) ProposeItinerary(
	ctx context.Context,
	planID string,
	extra *statex.Constraints,
	candidates []contractx.Candidate,
	requestID string,
) (contractx.ProposeResult, error) {
	now := s.now()

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return contractx.ProposeResult{}, err
	}

	if extra != nil {
		plan.Constraints.Merge(*extra)
		plan.Touch(now)
	}

	if missing := plan.Constraints.MissingRequired(); len(missing) > 0 {
		prompt := propose.ClarificationPrompt(missing)
		if err := s.store.SavePlan(ctx, plan); err != nil {
			return contractx.ProposeResult{}, err
		}
		return contractx.ProposeResult{
			PlanID:        plan.ID,
			Clarification: prompt,
			Relay:         contractx.GroupRelay(prompt, requestID, plan.ID, string(plan.Stage)),
		}, nil
	}

	proposal, message := propose.Build(plan.Constraints, candidates, now)
	if err := plan.AdvanceTo(statex.StageProposed, now); err != nil {
		return contractx.ProposeResult{}, err
	}
	plan.Proposal = proposal

	if err := s.store.SavePlan(ctx, plan); err != nil {
		return contractx.ProposeResult{}, err
	}
	log.Info().Str("plan_id", plan.ID).Str("proposal_id", proposal.ID).Msg("itinerary proposed")

	return contractx.ProposeResult{
		PlanID:     plan.ID,
		ProposalID: proposal.ID,
		Options:    proposal.Options,
		Relay:      contractx.GroupRelay(message, requestID, plan.ID, string(plan.Stage)),
	}, nil
}

// DetectGroupConsensus classifies the messages since the proposal. The
// reported stage is a signal for the caller; the plan record is not advanced.
func (s *Service) DetectGroupConsensus(ctx context.Context, planID, messagesText, requestID string) (contractx.ConsensusResult, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return contractx.ConsensusResult{}, err
	}
	if plan.Proposal == nil {
		return contractx.ConsensusResult{}, fmt.Errorf("%w: plan %s has no proposal to confirm", contractx.ErrNoProposal, plan.ID)
	}

	outcome := consensus.Detect(plan.Proposal, messagesText, s.detector)

	plan.LatestTranscript = messagesText
	plan.Touch(s.now())
	if err := s.store.SavePlan(ctx, plan); err != nil {
		return contractx.ConsensusResult{}, err
	}

	result := contractx.ConsensusResult{
		Stage:        outcome.Stage,
		ChosenOption: outcome.ChosenOption,
		Confidence:   outcome.Confidence,
		Signals:      outcome.Signals,
		SafeToBook:   outcome.SafeToBook,
		NextAction:   outcome.NextAction,
	}
	if outcome.AutoMessage != "" {
		relay := contractx.GroupRelay(outcome.AutoMessage, requestID, plan.ID, outcome.Stage)
		result.Relay = &relay
	}
	return result, nil
}

// DispatchBookingJob builds the booking job from the frozen snapshot and
// optionally forwards it. Delivery failure is recorded, never aborting.
func (s *Service) DispatchBookingJob(ctx context.Context, planID, chosenOption, requestID, mode string) (contractx.DispatchResult, error) {
	now := s.now()

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return contractx.DispatchResult{}, err
	}
	if plan.Proposal == nil {
		return contractx.DispatchResult{}, fmt.Errorf("%w: plan %s has no proposal to book", contractx.ErrNoProposal, plan.ID)
	}
	opt, ok := plan.Proposal.Option(chosenOption)
	if !ok {
		return contractx.DispatchResult{}, fmt.Errorf("%w: %q", contractx.ErrInvalidOption, chosenOption)
	}

	if err := plan.AdvanceTo(statex.StageBooking, now); err != nil {
		return contractx.DispatchResult{}, err
	}

	job := booking.BuildJob(plan.ID, plan.Proposal.ConstraintsSnapshot, opt, now)

	if strings.TrimSpace(mode) == "" {
		mode = s.cfg.DefaultMode
	}

	var postResult *forward.Result
	if mode == booking.ModeLive && s.forwarder != nil {
		res, postErr := s.forwarder.Post(ctx, job.Payload)
		if postErr != nil {
			return contractx.DispatchResult{}, postErr
		}
		postResult = &res
		if res.Delivered {
			job.Status = statex.JobSent
		} else {
			job.Status = statex.JobSendFailed
			log.Warn().Str("job_id", job.ID).Str("reason", res.Err).Msg("booking job delivery failed")
		}
		job.UpdatedAt = now.UTC()
	}

	if err := s.store.SaveJob(ctx, job); err != nil {
		return contractx.DispatchResult{}, err
	}
	if err := s.store.SavePlan(ctx, plan); err != nil {
		return contractx.DispatchResult{}, err
	}
	log.Info().Str("plan_id", plan.ID).Str("job_id", job.ID).Str("mode", mode).Msg("booking job dispatched")

	return contractx.DispatchResult{
		JobID:          job.ID,
		BookingPayload: job.Payload,
		PostResult:     postResult,
		Relay: contractx.GroupRelay(
			booking.DispatchMessage(opt, plan.Proposal.ConstraintsSnapshot),
			requestID, plan.ID, string(plan.Stage),
		),
	}, nil
}

// FinalizeReservation copies the booking result into the plan and completes
// the job.
func (s *Service) FinalizeReservation(ctx context.Context, planID, jobID string, result contractx.BookingResult, requestID string) (contractx.FinalizeResult, error) {
	now := s.now()

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return contractx.FinalizeResult{}, err
	}
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return contractx.FinalizeResult{}, err
	}
	if job.PlanID != plan.ID {
		return contractx.FinalizeResult{}, fmt.Errorf("%w: job %s does not belong to plan %s", statex.ErrJobNotFound, jobID, planID)
	}

	if err := plan.AdvanceTo(statex.StageBooked, now); err != nil {
		return contractx.FinalizeResult{}, err
	}

	plan.Reservation = &statex.Reservation{
		RestaurantName:   result.RestaurantName,
		Address:          result.Address,
		Time:             result.Time,
		PartySize:        result.PartySize,
		ConfirmationCode: result.ConfirmationCode,
		Notes:            result.Notes,
	}

	job.Status = statex.JobCompleted
	job.Result = toMap(result)
	job.UpdatedAt = now.UTC()

	if err := s.store.SaveJob(ctx, job); err != nil {
		return contractx.FinalizeResult{}, err
	}
	if err := s.store.SavePlan(ctx, plan); err != nil {
		return contractx.FinalizeResult{}, err
	}

	message := fmt.Sprintf("Booked! %s at %s for %d", result.RestaurantName, result.Time, result.PartySize)
	if result.ConfirmationCode != "" {
		message += " — confirmation " + result.ConfirmationCode
	}
	return contractx.FinalizeResult{
		Reservation: *plan.Reservation,
		Relay:       contractx.GroupRelay(message, requestID, plan.ID, string(plan.Stage)),
	}, nil
}

// BuildCalendarEvent derives the calendar artifact and advances the plan to
// its terminal stage.
func (s *Service) BuildCalendarEvent(ctx context.Context, planID string, in calendar.Input, requestID string) (contractx.CalendarResult, error) {
	now := s.now()

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return contractx.CalendarResult{}, err
	}

	event := calendar.Build(plan, in)

	if err := plan.AdvanceTo(statex.StageCalendared, now); err != nil {
		return contractx.CalendarResult{}, err
	}
	if err := s.store.SavePlan(ctx, plan); err != nil {
		return contractx.CalendarResult{}, err
	}

	message := fmt.Sprintf("%s is on the calendar: %s", event.Title, event.Link)
	return contractx.CalendarResult{
		CalendarEvent: event,
		Relay:         contractx.GroupRelay(message, requestID, plan.ID, string(plan.Stage)),
	}, nil
}

// GetPlanState returns the plan record with the transcript truncated for
// display.
func (s *Service) GetPlanState(ctx context.Context, planID string) (*statex.Plan, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if runes := []rune(plan.LatestTranscript); len(runes) > s.cfg.TranscriptTail {
		plan.LatestTranscript = string(runes[len(runes)-s.cfg.TranscriptTail:])
	}
	return plan, nil
}

// ResetPlan returns the plan to collecting, discarding proposal and
// reservation while keeping constraints.
func (s *Service) ResetPlan(ctx context.Context, planID string) error {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return err
	}
	plan.Reset(s.now())
	return s.store.SavePlan(ctx, plan)
}

// EstimateRideshare proxies to the automation bridge. The result record format
// follows the executor contract; failures are values inside it.
func (s *Service) EstimateRideshare(ctx context.Context, origin, destination string) (map[string]any, error) {
	if s.executor == nil {
		return nil, errors.New("rideshare estimator is not configured")
	}
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", contractx.ErrValidation)
	}
	return s.executor.EstimateRideshare(ctx, booking.EstimateRequest{
		Origin:      origin,
		Destination: destination,
	}), nil
}

// BookRestaurant drives the booking automation directly against a reservation
// page. The result record format follows the executor contract; automation
// failures are values inside it.
func (s *Service) BookRestaurant(ctx context.Context, req booking.BookingRequest) (map[string]any, error) {
	if s.executor == nil {
		return nil, errors.New("booking executor is not configured")
	}
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.TimeText) == "" {
		return nil, fmt.Errorf("%w: url and time_text are required", contractx.ErrValidation)
	}
	if req.PartySize <= 0 {
		return nil, fmt.Errorf("%w: party_size must be positive", contractx.ErrValidation)
	}
	return s.executor.Book(ctx, req), nil
}

func (s *Service) loadPlan(ctx context.Context, planID string) (*statex.Plan, error) {
	plan, err := s.store.LoadPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, statex.ErrPlanNotFound) || errors.Is(err, statex.ErrInvalidPlanID) {
			return nil, fmt.Errorf("%w: unknown plan id %q", statex.ErrPlanNotFound, planID)
		}
		return nil, err
	}
	return plan, nil
}

func (s *Service) loadJob(ctx context.Context, jobID string) (*statex.BookingJob, error) {
	job, err := s.store.LoadJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, statex.ErrJobNotFound) {
			return nil, fmt.Errorf("%w: unknown job id %q", statex.ErrJobNotFound, jobID)
		}
		return nil, err
	}
	return job, nil
}

func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
