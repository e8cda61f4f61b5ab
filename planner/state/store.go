package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the persistence contract for plans and booking jobs. Callers are
// expected to serialize mutations per plan id; the store itself only promises
// snapshot semantics (Save persists a copy, Load returns a copy).
type Store interface {
	LoadPlan(ctx context.Context, planID string) (*Plan, error)
	SavePlan(ctx context.Context, p *Plan) error
	DeletePlan(ctx context.Context, planID string) error

	LoadJob(ctx context.Context, jobID string) (*BookingJob, error)
	SaveJob(ctx context.Context, j *BookingJob) error
}

const (
	planKeyPrefix = "concierge:plan:"
	jobKeyPrefix  = "concierge:job:"
)

// MemoryStore keeps plans and jobs for the process lifetime. No expiry.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

func (s *MemoryStore) LoadPlan(_ context.Context, planID string) (*Plan, error) {
	if strings.TrimSpace(planID) == "" {
		return nil, ErrInvalidPlanID
	}
	raw, ok := s.cache.Get(planKeyPrefix + planID)
	if !ok {
		return nil, ErrPlanNotFound
	}
	var p Plan
	if err := decodeSnapshot(raw, &p); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", planID, err)
	}
	return &p, nil
}

func (s *MemoryStore) SavePlan(_ context.Context, p *Plan) error {
	if p == nil {
		return ErrNilPlan
	}
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidPlanID
	}
	raw, err := encodeSnapshot(p)
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", p.ID, err)
	}
	s.cache.Set(planKeyPrefix+p.ID, raw, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) DeletePlan(_ context.Context, planID string) error {
	if strings.TrimSpace(planID) == "" {
		return ErrInvalidPlanID
	}
	s.cache.Delete(planKeyPrefix + planID)
	return nil
}

func (s *MemoryStore) LoadJob(_ context.Context, jobID string) (*BookingJob, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, ErrJobNotFound
	}
	raw, ok := s.cache.Get(jobKeyPrefix + jobID)
	if !ok {
		return nil, ErrJobNotFound
	}
	var j BookingJob
	if err := decodeSnapshot(raw, &j); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &j, nil
}

func (s *MemoryStore) SaveJob(_ context.Context, j *BookingJob) error {
	if j == nil {
		return fmt.Errorf("%w: nil job", ErrJobNotFound)
	}
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("%w: empty job id", ErrJobNotFound)
	}
	raw, err := encodeSnapshot(j)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", j.ID, err)
	}
	s.cache.Set(jobKeyPrefix+j.ID, raw, gocache.NoExpiration)
	return nil
}

// Snapshots are stored as JSON so cached records never alias live pointers.
func encodeSnapshot(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decodeSnapshot(raw any, out any) error {
	payload, ok := raw.([]byte)
	if !ok {
		return fmt.Errorf("unexpected cache payload type %T", raw)
	}
	return json.Unmarshal(payload, out)
}
