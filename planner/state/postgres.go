package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresConfig configures the optional durable registry backend.
type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type planRow struct {
	bun.BaseModel `bun:"table:concierge_plans"`

	PlanID    string    `bun:"plan_id,pk"`
	Payload   []byte    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type jobRow struct {
	bun.BaseModel `bun:"table:concierge_jobs"`

	JobID     string    `bun:"job_id,pk"`
	PlanID    string    `bun:"plan_id,notnull"`
	Payload   []byte    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func newPlanRow(p *Plan) (planRow, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return planRow{}, fmt.Errorf("marshal plan %s: %w", p.ID, err)
	}
	return planRow{PlanID: p.ID, Payload: payload, UpdatedAt: p.UpdatedAt}, nil
}

func (r planRow) plan() (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return nil, fmt.Errorf("unmarshal plan %s: %w", r.PlanID, err)
	}
	return &p, nil
}

func newJobRow(j *BookingJob) (jobRow, error) {
	payload, err := json.Marshal(j)
	if err != nil {
		return jobRow{}, fmt.Errorf("marshal job %s: %w", j.ID, err)
	}
	return jobRow{JobID: j.ID, PlanID: j.PlanID, Payload: payload, UpdatedAt: j.UpdatedAt}, nil
}

func (r jobRow) job() (*BookingJob, error) {
	var j BookingJob
	if err := json.Unmarshal(r.Payload, &j); err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", r.JobID, err)
	}
	return &j, nil
}

// scanErr maps an absent row onto the sentinel and wraps everything else.
func scanErr(err, notFound error, op, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

// PostgresStore persists plans and jobs as JSON payload rows via bun. It
// satisfies the same snapshot semantics as MemoryStore.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	store := &PostgresStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*planRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.NewCreateTable().Model((*jobRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) LoadPlan(ctx context.Context, planID string) (*Plan, error) {
	if strings.TrimSpace(planID) == "" {
		return nil, ErrInvalidPlanID
	}
	var row planRow
	if err := s.db.NewSelect().Model(&row).Where("plan_id = ?", planID).Scan(ctx); err != nil {
		return nil, scanErr(err, ErrPlanNotFound, "select plan", planID)
	}
	return row.plan()
}

func (s *PostgresStore) SavePlan(ctx context.Context, p *Plan) error {
	if p == nil {
		return ErrNilPlan
	}
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidPlanID
	}
	row, err := newPlanRow(p)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().
		Model(&row).
		On("CONFLICT (plan_id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert plan %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresStore) DeletePlan(ctx context.Context, planID string) error {
	if strings.TrimSpace(planID) == "" {
		return ErrInvalidPlanID
	}
	_, err := s.db.NewDelete().Model((*planRow)(nil)).Where("plan_id = ?", planID).Exec(ctx)
	return err
}

func (s *PostgresStore) LoadJob(ctx context.Context, jobID string) (*BookingJob, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, ErrJobNotFound
	}
	var row jobRow
	if err := s.db.NewSelect().Model(&row).Where("job_id = ?", jobID).Scan(ctx); err != nil {
		return nil, scanErr(err, ErrJobNotFound, "select job", jobID)
	}
	return row.job()
}

func (s *PostgresStore) SaveJob(ctx context.Context, j *BookingJob) error {
	if j == nil {
		return fmt.Errorf("%w: nil job", ErrJobNotFound)
	}
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("%w: empty job id", ErrJobNotFound)
	}
	row, err := newJobRow(j)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().
		Model(&row).
		On("CONFLICT (job_id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", j.ID, err)
	}
	return nil
}
