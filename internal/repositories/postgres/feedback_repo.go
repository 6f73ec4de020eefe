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

var feedbackContentColumns = []string{
	"total_score",
	"category_scores",
	"strengths",
	"areas_for_improvement",
	"final_assessment",
	"created_at",
}

type FeedbackRepo struct {
	db *gorm.DB
}

func NewFeedbackRepo(db *gorm.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

// Upsert reads the pair and then writes it inside one transaction.
func (r *FeedbackRepo) Upsert(ctx context.Context, interviewID, userID string, fields models.FeedbackFields) (string, bool, error) {
	if fields.CreatedAt.IsZero() {
		fields.CreatedAt = time.Now().UTC()
	}
	content := feedbackRow{
		InterviewID:         interviewID,
		UserID:              userID,
		TotalScore:          fields.TotalScore,
		CategoryScores:      fields.CategoryScores,
		Strengths:           fields.Strengths,
		AreasForImprovement: fields.AreasForImprovement,
		FinalAssessment:     fields.FinalAssessment,
		CreatedAt:           fields.CreatedAt.UTC(),
	}

	var (
		id      string
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing feedbackRow
		err := tx.Where("interview_id = ? AND user_id = ?", interviewID, userID).First(&existing).Error
		if err == nil {
			id = existing.ID
			return tx.Model(&feedbackRow{ID: existing.ID}).
				Select(feedbackContentColumns).
				Updates(content).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		content.ID = uuid.NewString()
		if err := tx.Create(&content).Error; err != nil {
			return err
		}
		id, created = content.ID, true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("upsert feedback: %w", err)
	}
	return id, created, nil
}

func (r *FeedbackRepo) Get(ctx context.Context, interviewID, userID string) (*models.FeedbackRecord, error) {
	var row feedbackRow
	err := r.db.WithContext(ctx).
		Where("interview_id = ? AND user_id = ?", interviewID, userID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	rec := row.toModel()
	return &rec, nil
}

func (r *FeedbackRepo) QueryByUser(ctx context.Context, userID string) ([]models.FeedbackRecord, error) {
	var rows []feedbackRow
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query feedback by user: %w", err)
	}
	return toRecords(rows), nil
}

func (r *FeedbackRepo) QueryCreatedSince(ctx context.Context, since time.Time) ([]models.FeedbackRecord, error) {
	var rows []feedbackRow
	err := r.db.WithContext(ctx).
		Where("created_at > ?", since.UTC()).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query feedback since %v: %w", since, err)
	}
	return toRecords(rows), nil
}

func (r *FeedbackRepo) Ping(ctx context.Context) error {
	return ping(ctx, r.db)
}

func toRecords(rows []feedbackRow) []models.FeedbackRecord {
	out := make([]models.FeedbackRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out
}
