package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/transit-complaints/backend/internal/models"
	"github.com/transit-complaints/backend/internal/priority"
	"github.com/transit-complaints/backend/internal/worker"
)

const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

var (
	ErrInvalidInput  = errors.New("invalid complaint")
	ErrInvalidStatus = errors.New("invalid status")
)

// Repository is the persistence the service needs. *db.Store satisfies it.
type Repository interface {
	InsertComplaint(ctx context.Context, c models.Complaint) error
	GetComplaint(ctx context.Context, id string) (models.Complaint, error)
	ListComplaints(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error)
	UpdateAnalysis(ctx context.Context, id string, a models.PriorityAnalysis) error
	// UpdateStatus changes the status and returns the record as stored.
	UpdateStatus(ctx context.Context, id string, status string) (models.Complaint, error)
}

type Scheduler interface {
	Schedule(name string, delay time.Duration, fn worker.Task) error
}

type CreateInput struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description" validate:"required,max=5000"`
	Category      string     `json:"category" validate:"required,oneof=service safety accessibility cleanliness staff vehicle schedule other"`
	DateTime      *time.Time `json:"dateTime"`
	Location      string     `json:"location" validate:"max=200"`
	VehicleNumber string     `json:"vehicleNumber" validate:"max=50"`
}

type ComplaintService struct {
	Repo      Repository
	Engine    priority.Prioritizer
	Runner    Scheduler
	Validator *validator.Validate
	Logger    zerolog.Logger
	// Mode is ModeSync or ModeAsync. Async without a Runner behaves as sync.
	Mode  string
	Delay time.Duration
	Now   func() time.Time
}

// Create stores a new complaint with medium priority and then analyzes it,
// inline or in the background depending on Mode. Analysis never fails the
// request; the record keeps its default priority when the update is lost.
func (s *ComplaintService) Create(ctx context.Context, in CreateInput, submittedBy string) (models.Complaint, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.VehicleNumber = strings.TrimSpace(in.VehicleNumber)
	if err := s.validator().Struct(in); err != nil {
		return models.Complaint{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now()
	c := models.Complaint{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		DateTime:      now,
		Location:      in.Location,
		VehicleNumber: in.VehicleNumber,
		SubmittedBy:   submittedBy,
		Status:        models.StatusOpen,
		Priority:      models.PriorityMedium,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.DateTime != nil && !in.DateTime.IsZero() {
		c.DateTime = in.DateTime.UTC()
	}
	if err := s.Repo.InsertComplaint(ctx, c); err != nil {
		return models.Complaint{}, err
	}

	log := s.Logger.With().Str("complaint_id", c.ID).Logger()
	if s.Mode == ModeAsync && s.Runner != nil {
		snap := c.Snapshot()
		id := c.ID
		err := s.Runner.Schedule("analyze:"+id, s.Delay, func(ctx context.Context) error {
			return s.analyze(ctx, id, snap)
		})
		if err != nil {
			log.Warn().Err(err).Msg("analysis not scheduled, keeping default priority")
		}
		return c, nil
	}

	a := s.Engine.Prioritize(ctx, c.Snapshot())
	if err := s.Repo.UpdateAnalysis(ctx, c.ID, a); err != nil {
		log.Error().Err(err).Msg("failed to store analysis, keeping default priority")
		return c, nil
	}
	c.Analysis = &a
	c.Priority = a.Priority
	return c, nil
}

func (s *ComplaintService) analyze(ctx context.Context, id string, snap models.ComplaintSnapshot) error {
	a := s.Engine.Prioritize(ctx, snap)
	if err := s.Repo.UpdateAnalysis(ctx, id, a); err != nil {
		return fmt.Errorf("store analysis for %s: %w", id, err)
	}
	s.Logger.Info().
		Str("complaint_id", id).
		Str("priority", a.Priority).
		Bool("fallback", a.IsFallback()).
		Msg("complaint analyzed")
	return nil
}

// Reprioritize runs the engine again on a stored complaint and persists the
// new analysis.
func (s *ComplaintService) Reprioritize(ctx context.Context, id string) (models.Complaint, error) {
	c, err := s.Repo.GetComplaint(ctx, id)
	if err != nil {
		return models.Complaint{}, err
	}
	a := s.Engine.Prioritize(ctx, c.Snapshot())
	if err := s.Repo.UpdateAnalysis(ctx, id, a); err != nil {
		return models.Complaint{}, err
	}
	c.Analysis = &a
	c.Priority = a.Priority
	c.UpdatedAt = s.now()
	return c, nil
}

func (s *ComplaintService) UpdateStatus(ctx context.Context, id, status, actor string) (models.Complaint, error) {
	status = strings.TrimSpace(strings.ToLower(status))
	if !models.IsStatus(status) {
		return models.Complaint{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	c, err := s.Repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return models.Complaint{}, err
	}
	s.Logger.Info().Str("complaint_id", id).Str("status", status).Str("actor", actor).Msg("complaint status changed")
	return c, nil
}

func (s *ComplaintService) Get(ctx context.Context, id string) (models.Complaint, error) {
	return s.Repo.GetComplaint(ctx, id)
}

func (s *ComplaintService) List(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	return s.Repo.ListComplaints(ctx, f)
}

var defaultValidator = validator.New()

func (s *ComplaintService) validator() *validator.Validate {
	if s.Validator == nil {
		return defaultValidator
	}
	return s.Validator
}

func (s *ComplaintService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
