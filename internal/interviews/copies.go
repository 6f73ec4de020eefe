package interviews

import (
	"context"
	"errors"
	"fmt"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"

	"go.uber.org/zap"
)

const (
	takeCreated  = "created"
	takeReused   = "reused"
	takeAuthored = "authored"
)

// TakeInterview returns the record userID should run interviewID against.
// Copies resolve to their original first. Authors get the original back, users who already hold a copy
// get their most recent one, and everyone else gets a fresh copy.
func (e *Engine) TakeInterview(ctx context.Context, userID, interviewID string) (*models.InterviewTemplate, error) {
	if userID == "" || interviewID == "" {
		return nil, ErrInvalidInput
	}

	original, err := e.resolveOriginal(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if original.OwnerUserID == userID {
		e.observeTake(takeAuthored)
		return original, nil
	}

	owned, err := e.interviews.QueryByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query owned interviews: %w", err)
	}
	if existing := latestCopyOf(owned, original.ID); existing != nil {
		e.observeTake(takeReused)
		return existing, nil
	}

	cp := &models.InterviewTemplate{
		OwnerUserID:         userID,
		Role:                original.Role,
		TechStack:           append([]string(nil), original.TechStack...),
		Type:                original.Type,
		Questions:           append([]string(nil), original.Questions...),
		Finalized:           original.Finalized,
		CreatedAt:           e.now().UTC(),
		OriginalInterviewID: original.ID,
	}
	if _, err := e.interviews.Create(ctx, cp); err != nil {
		return nil, fmt.Errorf("create copy of %s: %w", original.ID, err)
	}
	e.observeTake(takeCreated)
	e.logger.Info("Interview copy created",
		zap.String("copyId", cp.ID),
		zap.String("originalId", original.ID),
		zap.String("userId", userID))
	return cp, nil
}

// ResolveAttempt returns the concrete record id userID's feedback on interviewID is keyed by:
// the id itself when the user owns it or already has feedback on it, otherwise the user's most recent
// record of the same interview, otherwise the id itself.
func (e *Engine) ResolveAttempt(ctx context.Context, userID, interviewID string) (string, error) {
	if userID == "" || interviewID == "" {
		return "", ErrInvalidInput
	}

	t, err := e.interviews.Get(ctx, interviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return interviewID, nil
		}
		return "", fmt.Errorf("get interview %s: %w", interviewID, err)
	}
	if t.OwnerUserID == userID {
		return interviewID, nil
	}

	if _, err := e.feedback.Get(ctx, interviewID, userID); err == nil {
		return interviewID, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("get feedback: %w", err)
	}

	owned, err := e.interviews.QueryByOwner(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("query owned interviews: %w", err)
	}
	if rec := latestOwnedOf(owned, t.IdentityID()); rec != nil {
		return rec.ID, nil
	}
	return interviewID, nil
}

// PrepareAttempt returns the record a new run of interviewID by userID is stored against. Records the user
// owns, or already has feedback on, are used as they are; anything else goes through TakeInterview.
func (e *Engine) PrepareAttempt(ctx context.Context, userID, interviewID string) (string, error) {
	if userID == "" || interviewID == "" {
		return "", ErrInvalidInput
	}
	t, err := e.interviews.Get(ctx, interviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("get interview %s: %w", interviewID, err)
	}
	if t.OwnerUserID == userID {
		return t.ID, nil
	}
	if _, err := e.feedback.Get(ctx, t.ID, userID); err == nil {
		return t.ID, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("get feedback: %w", err)
	}

	rec, err := e.TakeInterview(ctx, userID, t.ID)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (e *Engine) resolveOriginal(ctx context.Context, id string) (*models.InterviewTemplate, error) {
	t, err := e.interviews.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get interview %s: %w", id, err)
	}
	if !t.IsCopy() {
		return t, nil
	}
	original, err := e.interviews.Get(ctx, t.OriginalInterviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("original %s of copy %s: %w", t.OriginalInterviewID, id, err)
		}
		return nil, fmt.Errorf("get interview %s: %w", t.OriginalInterviewID, err)
	}
	return original, nil
}

// latestCopyOf returns the newest copy of originalID in owned, or nil.
func latestCopyOf(owned []models.InterviewTemplate, originalID string) *models.InterviewTemplate {
	var best *models.InterviewTemplate
	for i := range owned {
		t := &owned[i]
		if t.OriginalInterviewID != originalID {
			continue
		}
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			best = t
		}
	}
	return best
}

// latestOwnedOf returns the newest owned record standing for identityID, copy or authored original.
func latestOwnedOf(owned []models.InterviewTemplate, identityID string) *models.InterviewTemplate {
	var best *models.InterviewTemplate
	for i := range owned {
		t := &owned[i]
		if t.IdentityID() != identityID {
			continue
		}
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			best = t
		}
	}
	return best
}
