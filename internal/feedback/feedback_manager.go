package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peerprep/interview/internal/interviews"
	"peerprep/interview/internal/llm"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/prompts"
	"peerprep/interview/internal/repositories"

	"go.uber.org/zap"
)

const promptTemplate = "feedback"

// Scorer grades a feedback prompt. llm.Provider implementations satisfy it.
type Scorer interface {
	ScoreInterview(ctx context.Context, prompt string) (*models.Assessment, error)
}

// InterviewLookup resolves interview records.
type InterviewLookup interface {
	GetInterview(ctx context.Context, id string) (*models.InterviewTemplate, error)
}

// FeedbackManager scores completed interviews and stores one assessment per (interview, user)
type FeedbackManager struct {
	interviews InterviewLookup
	store      repositories.FeedbackStore
	scorer     Scorer
	prompts    *prompts.PromptManager
	logger     *zap.Logger
	now        func() time.Time
}

func NewFeedbackManager(lookup InterviewLookup, store repositories.FeedbackStore, scorer Scorer, pm *prompts.PromptManager, logger *zap.Logger) *FeedbackManager {
	return &FeedbackManager{
		interviews: lookup,
		store:      store,
		scorer:     scorer,
		prompts:    pm,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateFeedback scores the transcript of userID's run of interviewID and upserts the result.
// A retake overwrites the existing record and keeps its id.
func (fm *FeedbackManager) CreateFeedback(ctx context.Context, interviewID, userID string, transcript []models.TranscriptMessage) (string, error) {
	if interviewID == "" || userID == "" {
		return "", interviews.ErrInvalidInput
	}
	req := models.CreateFeedbackRequest{Transcript: transcript}
	if err := req.Validate(); err != nil {
		return "", err
	}

	interview, err := fm.interviews.GetInterview(ctx, interviewID)
	if err != nil {
		return "", err
	}

	prompt, err := fm.buildPrompt(interview, transcript)
	if err != nil {
		return "", fmt.Errorf("build feedback prompt: %w", err)
	}

	assessment, err := fm.scorer.ScoreInterview(ctx, prompt)
	if err != nil {
		code := "unknown"
		if pe, ok := llm.AsProviderError(err); ok {
			code = pe.Code
		}
		metrics.ScoringFailures.WithLabelValues(code).Inc()
		fm.logger.Error("Scoring failed",
			zap.String("interviewId", interviewID),
			zap.String("userId", userID),
			zap.Error(err))
		return "", fmt.Errorf("score interview %s: %w", interviewID, err)
	}
	if err := models.ValidateAssessment(assessment); err != nil {
		metrics.ScoringFailures.WithLabelValues(llm.ErrCodeInvalidResponse).Inc()
		return "", &llm.ProviderError{
			Provider: "scorer",
			Code:     llm.ErrCodeInvalidResponse,
			Message:  "Assessment failed validation",
			Err:      err,
		}
	}

	id, created, err := fm.store.Upsert(ctx, interviewID, userID, models.FeedbackFields{
		Assessment: *assessment,
		CreatedAt:  fm.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("save feedback: %w", err)
	}

	outcome := "updated"
	if created {
		outcome = "created"
	}
	metrics.FeedbackUpserts.WithLabelValues(outcome).Inc()
	fm.logger.Info("Feedback stored",
		zap.String("feedbackId", id),
		zap.String("interviewId", interviewID),
		zap.String("userId", userID),
		zap.String("outcome", outcome),
		zap.Int("totalScore", assessment.TotalScore))
	return id, nil
}

// GetFeedback returns userID's feedback on interviewID.
func (fm *FeedbackManager) GetFeedback(ctx context.Context, interviewID, userID string) (*models.FeedbackRecord, error) {
	if interviewID == "" || userID == "" {
		return nil, interviews.ErrInvalidInput
	}
	rec, err := fm.store.Get(ctx, interviewID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return rec, nil
}

func (fm *FeedbackManager) buildPrompt(interview *models.InterviewTemplate, transcript []models.TranscriptMessage) (string, error) {
	variant := strings.ToLower(models.DisplayType(interview.Type))
	if !fm.prompts.HasVariant(promptTemplate, variant) {
		variant = "default"
	}
	techStack := "not specified"
	if len(interview.TechStack) > 0 {
		techStack = strings.Join(interview.TechStack, ", ")
	}
	return fm.prompts.BuildPrompt(promptTemplate, variant, map[string]string{
		"Role":       interview.Role,
		"TechStack":  techStack,
		"Transcript": FormatTranscript(transcript),
	})
}

// FormatTranscript renders the conversation as "- role: content" lines.
func FormatTranscript(transcript []models.TranscriptMessage) string {
	var b strings.Builder
	for _, msg := range transcript {
		b.WriteString("- ")
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
