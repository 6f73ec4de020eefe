package interviews

import (
	"context"
	"errors"
	"fmt"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"

	"golang.org/x/sync/errgroup"
)

// BuildCards pairs each template with userID's feedback on it. Feedback is looked up on the template
// itself first and then on the user's own record of the same interview. Order is preserved.
func (e *Engine) BuildCards(ctx context.Context, userID string, templates []models.InterviewTemplate) ([]models.InterviewCard, error) {
	cards := make([]models.InterviewCard, len(templates))
	if userID == "" {
		for i, t := range templates {
			cards[i] = models.NewInterviewCard(t, nil)
		}
		return cards, nil
	}

	owned, err := e.interviews.QueryByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query owned interviews: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.CardWorkers)
	for i := range templates {
		g.Go(func() error {
			t := templates[i]
			fb, err := e.lookupFeedback(gctx, userID, t, owned)
			if err != nil {
				return err
			}
			cards[i] = models.NewInterviewCard(t, fb)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

func (e *Engine) lookupFeedback(ctx context.Context, userID string, t models.InterviewTemplate, owned []models.InterviewTemplate) (*models.FeedbackRecord, error) {
	candidates := []string{t.ID}
	if rec := latestOwnedOf(owned, t.IdentityID()); rec != nil && rec.ID != t.ID {
		candidates = append(candidates, rec.ID)
	}
	for _, id := range candidates {
		fb, err := e.feedback.Get(ctx, id, userID)
		if err == nil {
			return fb, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("get feedback for %s: %w", id, err)
		}
	}
	return nil, nil
}
