package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"peerprep/interview/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CompletionChannel is where the voice service announces finished interviews.
const CompletionChannel = "interview_completed"

var errMalformedEvent = errors.New("malformed completion event")

type InterviewCompletedEvent struct {
	InterviewID string                     `json:"interviewId"`
	UserID      string                     `json:"userId"`
	Transcript  []models.TranscriptMessage `json:"transcript"`
}

// AttemptPreparer returns the record a user's attempt is stored against, taking a copy when needed.
type AttemptPreparer interface {
	PrepareAttempt(ctx context.Context, userID, interviewID string) (string, error)
}

type FeedbackCreator interface {
	CreateFeedback(ctx context.Context, interviewID, userID string, transcript []models.TranscriptMessage) (string, error)
}

// CompletionSubscriber scores interviews as completion events arrive
type CompletionSubscriber struct {
	rdb        *redis.Client
	attempts   AttemptPreparer
	feedback   FeedbackCreator
	logger     *zap.Logger
	instanceID string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCompletionSubscriber(rdb *redis.Client, attempts AttemptPreparer, feedback FeedbackCreator, logger *zap.Logger) *CompletionSubscriber {
	return &CompletionSubscriber{
		rdb:        rdb,
		attempts:   attempts,
		feedback:   feedback,
		logger:     logger,
		instanceID: uuid.New().String()[:8], // Short instance ID for logging
	}
}

// Start subscribes and returns once redis has confirmed the subscription.
func (cs *CompletionSubscriber) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	subscriber := cs.rdb.Subscribe(ctx, CompletionChannel)
	if _, err := subscriber.Receive(ctx); err != nil {
		cancel()
		subscriber.Close()
		return fmt.Errorf("subscribe to %s: %w", CompletionChannel, err)
	}
	cs.cancel = cancel

	cs.wg.Add(1)
	go func() {
		defer cs.wg.Done()
		defer subscriber.Close()
		cs.listen(ctx, subscriber.Channel())
	}()

	cs.logger.Info("Subscribed to completion events",
		zap.String("channel", CompletionChannel),
		zap.String("instance", cs.instanceID))
	return nil
}

func (cs *CompletionSubscriber) Stop() {
	if cs.cancel != nil {
		cs.cancel()
	}
	cs.wg.Wait()
}

func (cs *CompletionSubscriber) listen(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := cs.handleEvent(ctx, msg.Payload); err != nil {
				cs.logger.Error("Dropped completion event",
					zap.String("instance", cs.instanceID),
					zap.Error(err))
			}
		}
	}
}

func (cs *CompletionSubscriber) handleEvent(ctx context.Context, payload string) error {
	var event InterviewCompletedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	if event.InterviewID == "" || event.UserID == "" || len(event.Transcript) == 0 {
		return fmt.Errorf("%w: interviewId, userId and transcript are required", errMalformedEvent)
	}

	attemptID, err := cs.attempts.PrepareAttempt(ctx, event.UserID, event.InterviewID)
	if err != nil {
		return fmt.Errorf("prepare attempt on %s: %w", event.InterviewID, err)
	}
	feedbackID, err := cs.feedback.CreateFeedback(ctx, attemptID, event.UserID, event.Transcript)
	if err != nil {
		return fmt.Errorf("create feedback on %s: %w", attemptID, err)
	}

	cs.logger.Info("Stored feedback for completed interview",
		zap.String("instance", cs.instanceID),
		zap.String("interview_id", event.InterviewID),
		zap.String("attempt_id", attemptID),
		zap.String("feedback_id", feedbackID),
		zap.String("user_id", event.UserID))
	return nil
}
