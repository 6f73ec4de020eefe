// Package interviews decides which interview templates a user has taken and which remain available,
// merging records that stand for the same interview across personal copies.
package interviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"

	"go.uber.org/zap"
)

// ErrInvalidInput is returned by write operations called without a user or interview id.
var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultLimit               = 20
	MaxLimit                   = 100
	DefaultOverfetchMultiplier = 3
	DefaultMaxCandidates       = 1000
	DefaultCardWorkers         = 8
)

type Config struct {
	DefaultLimit        int
	MaxLimit            int
	OverfetchMultiplier int
	MaxCandidates       int
	CardWorkers         int
}

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = MaxLimit
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	if c.OverfetchMultiplier <= 0 {
		c.OverfetchMultiplier = DefaultOverfetchMultiplier
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
	if c.CardWorkers <= 0 {
		c.CardWorkers = DefaultCardWorkers
	}
	return c
}

// Engine answers availability, ownership and attempt questions over the interview and feedback stores.
type Engine struct {
	interviews repositories.InterviewStore
	feedback   repositories.FeedbackStore
	logger     *zap.Logger
	cfg        Config
	now        func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for new copies.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(interviews repositories.InterviewStore, feedback repositories.FeedbackStore, logger *zap.Logger, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		interviews: interviews,
		feedback:   feedback,
		logger:     logger,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

// GetInterview returns the template with the given id.
func (e *Engine) GetInterview(ctx context.Context, id string) (*models.InterviewTemplate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	t, err := e.interviews.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get interview %s: %w", id, err)
	}
	return t, nil
}

// CreateInterview stores a new original template authored by userID.
func (e *Engine) CreateInterview(ctx context.Context, userID string, req models.CreateInterviewRequest) (*models.InterviewTemplate, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	techStack := req.TechStack
	if techStack == nil {
		techStack = []string{}
	}
	t := &models.InterviewTemplate{
		OwnerUserID: userID,
		Role:        req.Role,
		TechStack:   techStack,
		Type:        req.Type,
		Questions:   req.Questions,
		Finalized:   req.Finalized,
		CreatedAt:   e.now().UTC(),
	}
	if _, err := e.interviews.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create interview: %w", err)
	}
	e.logger.Info("Interview created",
		zap.String("interviewId", t.ID),
		zap.String("userId", userID),
		zap.String("role", t.Role))
	return t, nil
}

// ListOwned returns every interview the user holds, one record per interview identity,
// the most recent of each, newest first.
func (e *Engine) ListOwned(ctx context.Context, userID string) ([]models.InterviewTemplate, error) {
	if userID == "" {
		return []models.InterviewTemplate{}, nil
	}
	owned, err := e.interviews.QueryByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned interviews: %w", err)
	}
	return latestPerGroup(owned, func(t *models.InterviewTemplate) string { return t.IdentityID() }), nil
}

func (e *Engine) observeTake(outcome string) {
	metrics.InterviewsTaken.WithLabelValues(outcome).Inc()
}
