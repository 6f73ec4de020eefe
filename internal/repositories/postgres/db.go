package postgres

import (
	"context"
	"fmt"
	"time"

	"peerprep/interview/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type interviewRow struct {
	ID                  string    `gorm:"primaryKey;size:36"`
	OwnerUserID         string    `gorm:"index;not null"`
	Role                string    `gorm:"not null"`
	TechStack           []string  `gorm:"serializer:json;type:text"`
	Type                string    `gorm:"not null;default:''"`
	Questions           []string  `gorm:"serializer:json;type:text"`
	Finalized           bool      `gorm:"index;not null;default:false"`
	OriginalInterviewID string    `gorm:"index;not null;default:''"`
	CreatedAt           time.Time `gorm:"index;not null"`
}

func (interviewRow) TableName() string { return "interviews" }

func (r interviewRow) toModel() models.InterviewTemplate {
	t := models.InterviewTemplate{
		ID:                  r.ID,
		OwnerUserID:         r.OwnerUserID,
		Role:                r.Role,
		TechStack:           r.TechStack,
		Type:                r.Type,
		Questions:           r.Questions,
		Finalized:           r.Finalized,
		CreatedAt:           r.CreatedAt,
		OriginalInterviewID: r.OriginalInterviewID,
	}
	if t.TechStack == nil {
		t.TechStack = []string{}
	}
	if t.Questions == nil {
		t.Questions = []string{}
	}
	if t.OriginalInterviewID == t.ID {
		t.OriginalInterviewID = ""
	}
	return t
}

type feedbackRow struct {
	ID                  string                 `gorm:"primaryKey;size:36"`
	InterviewID         string                 `gorm:"uniqueIndex:idx_feedback_pair;not null"`
	UserID              string                 `gorm:"uniqueIndex:idx_feedback_pair;index:idx_feedback_user;not null"`
	TotalScore          int                    `gorm:"not null;default:0"`
	CategoryScores      []models.CategoryScore `gorm:"serializer:json;type:text"`
	Strengths           []string               `gorm:"serializer:json;type:text"`
	AreasForImprovement []string               `gorm:"serializer:json;type:text"`
	FinalAssessment     string                 `gorm:"type:text"`
	CreatedAt           time.Time              `gorm:"index;not null"`
}

func (feedbackRow) TableName() string { return "feedback" }

func (r feedbackRow) toModel() models.FeedbackRecord {
	rec := models.FeedbackRecord{
		ID:          r.ID,
		InterviewID: r.InterviewID,
		UserID:      r.UserID,
		Assessment: models.Assessment{
			TotalScore:          r.TotalScore,
			CategoryScores:      r.CategoryScores,
			Strengths:           r.Strengths,
			AreasForImprovement: r.AreasForImprovement,
			FinalAssessment:     r.FinalAssessment,
		},
		CreatedAt: r.CreatedAt,
	}
	if rec.CategoryScores == nil {
		rec.CategoryScores = []models.CategoryScore{}
	}
	if rec.Strengths == nil {
		rec.Strengths = []string{}
	}
	if rec.AreasForImprovement == nil {
		rec.AreasForImprovement = []string{}
	}
	return rec
}

// Open connects to PostgreSQL and migrates the interview and feedback tables.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&interviewRow{}, &feedbackRow{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
