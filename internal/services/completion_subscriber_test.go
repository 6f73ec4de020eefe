package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"peerprep/interview/internal/feedback"
	"peerprep/interview/internal/interviews"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/prompts"
	"peerprep/interview/internal/repositories"
	"peerprep/interview/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scorerFunc func(ctx context.Context, prompt string) (*models.Assessment, error)

func (f scorerFunc) ScoreInterview(ctx context.Context, prompt string) (*models.Assessment, error) {
	return f(ctx, prompt)
}

func assessment(total int) *models.Assessment {
	cats := make([]models.CategoryScore, 0, 5)
	for _, name := range models.FeedbackCategories() {
		cats = append(cats, models.CategoryScore{Name: name, Score: total})
	}
	return &models.Assessment{TotalScore: total, CategoryScores: cats, FinalAssessment: "solid"}
}

type fixture struct {
	sub      *CompletionSubscriber
	engine   *interviews.Engine
	feedback repositories.FeedbackStore
	original *models.InterviewTemplate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	interviewStore, feedbackStore := testhelpers.SetupStores(t)
	_, rdb := testhelpers.SetupTestRedis(t)

	engine := interviews.NewEngine(interviewStore, feedbackStore, zap.NewNop(), interviews.Config{})
	pm, err := prompts.NewPromptManager()
	require.NoError(t, err)
	scorer := scorerFunc(func(context.Context, string) (*models.Assessment, error) {
		return assessment(80), nil
	})
	manager := feedback.NewFeedbackManager(engine, feedbackStore, scorer, pm, zap.NewNop())

	original, err := engine.CreateInterview(context.Background(), "author", models.CreateInterviewRequest{
		Role:      "Frontend",
		Type:      "Behavioural",
		TechStack: []string{"React"},
		Questions: []string{"Tell me about a conflict"},
		Finalized: true,
	})
	require.NoError(t, err)

	return &fixture{
		sub:      NewCompletionSubscriber(rdb, engine, manager, zap.NewNop()),
		engine:   engine,
		feedback: feedbackStore,
		original: original,
	}
}

func event(t *testing.T, interviewID, userID string) string {
	t.Helper()
	payload, err := json.Marshal(InterviewCompletedEvent{
		InterviewID: interviewID,
		UserID:      userID,
		Transcript:  []models.TranscriptMessage{{Role: "user", Content: "We talked it through."}},
	})
	require.NoError(t, err)
	return string(payload)
}

func TestHandleEvent_StoresFeedbackOnCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sub.handleEvent(ctx, event(t, f.original.ID, "viewer")))

	owned, err := f.engine.ListOwned(ctx, "viewer")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, f.original.ID, owned[0].OriginalInterviewID)

	rec, err := f.feedback.Get(ctx, owned[0].ID, "viewer")
	require.NoError(t, err)
	assert.Equal(t, 80, rec.TotalScore)

	_, err = f.feedback.Get(ctx, f.original.ID, "viewer")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// a second completion reuses the copy and overwrites the same record
	require.NoError(t, f.sub.handleEvent(ctx, event(t, f.original.ID, "viewer")))
	owned, err = f.engine.ListOwned(ctx, "viewer")
	require.NoError(t, err)
	assert.Len(t, owned, 1)
	again, err := f.feedback.Get(ctx, owned[0].ID, "viewer")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
}

func TestHandleEvent_DropsMalformedEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, payload := range map[string]string{
		"not json":      "{",
		"no user":       `{"interviewId":"x","transcript":[{"role":"user","content":"hi"}]}`,
		"no transcript": `{"interviewId":"x","userId":"u"}`,
	} {
		t.Run(name, func(t *testing.T) {
			err := f.sub.handleEvent(ctx, payload)
			assert.True(t, errors.Is(err, errMalformedEvent))
		})
	}

	err := f.sub.handleEvent(ctx, event(t, "missing", "viewer"))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestStart_ConsumesPublishedEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sub.Start(ctx))
	t.Cleanup(f.sub.Stop)

	require.NoError(t, f.sub.rdb.Publish(ctx, CompletionChannel, event(t, f.original.ID, "viewer")).Err())

	require.Eventually(t, func() bool {
		owned, err := f.engine.ListOwned(ctx, "viewer")
		if err != nil || len(owned) != 1 {
			return false
		}
		_, err = f.feedback.Get(ctx, owned[0].ID, "viewer")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
}
