package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterviewRepo struct {
	db *gorm.DB
}

func NewInterviewRepo(db *gorm.DB) *InterviewRepo {
	return &InterviewRepo{db: db}
}

func (r *InterviewRepo) Create(ctx context.Context, t *models.InterviewTemplate) (string, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	row := interviewRow{
		ID:                  uuid.NewString(),
		OwnerUserID:         t.OwnerUserID,
		Role:                t.Role,
		TechStack:           t.TechStack,
		Type:                t.Type,
		Questions:           t.Questions,
		Finalized:           t.Finalized,
		OriginalInterviewID: t.OriginalInterviewID,
		CreatedAt:           t.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert interview: %w", err)
	}
	t.ID = row.ID
	return row.ID, nil
}

func (r *InterviewRepo) Get(ctx context.Context, id string) (*models.InterviewTemplate, error) {
	var row interviewRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("find interview %s: %w", id, err)
	}
	t := row.toModel()
	return &t, nil
}

func (r *InterviewRepo) QueryByOwner(ctx context.Context, userID string) ([]models.InterviewTemplate, error) {
	var rows []interviewRow
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query interviews by owner: %w", err)
	}
	return toTemplates(rows), nil
}

func (r *InterviewRepo) QueryFinalized(ctx context.Context, excludeOwner string, limit int) ([]models.InterviewTemplate, error) {
	query := r.db.WithContext(ctx).
		Where("finalized = ? AND original_interview_id = ?", true, "")
	if excludeOwner != "" {
		query = query.Where("owner_user_id <> ?", excludeOwner)
	}
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []interviewRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query finalized interviews: %w", err)
	}
	return toTemplates(rows), nil
}

func (r *InterviewRepo) GetMany(ctx context.Context, ids []string) ([]models.InterviewTemplate, error) {
	if len(ids) == 0 {
		return []models.InterviewTemplate{}, nil
	}
	var rows []interviewRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get interviews: %w", err)
	}
	return toTemplates(rows), nil
}

func (r *InterviewRepo) Update(ctx context.Context, id string, patch models.InterviewPatch) error {
	var (
		columns []string
		values  interviewRow
	)
	if patch.Role != nil {
		columns = append(columns, "role")
		values.Role = *patch.Role
	}
	if patch.TechStack != nil {
		columns = append(columns, "tech_stack")
		values.TechStack = patch.TechStack
	}
	if patch.Type != nil {
		columns = append(columns, "type")
		values.Type = *patch.Type
	}
	if patch.Finalized != nil {
		columns = append(columns, "finalized")
		values.Finalized = *patch.Finalized
	}
	if len(columns) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}

	res := r.db.WithContext(ctx).
		Model(&interviewRow{ID: id}).
		Select(columns).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update interview %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *InterviewRepo) Ping(ctx context.Context) error {
	return ping(ctx, r.db)
}

func toTemplates(rows []interviewRow) []models.InterviewTemplate {
	out := make([]models.InterviewTemplate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out
}
