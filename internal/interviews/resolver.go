package interviews

import (
	"context"
	"fmt"
	"sort"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/similarity"

	"golang.org/x/sync/errgroup"
)

// TakenSet is everything a user has already taken, by record id and by similarity key.
type TakenSet struct {
	IDs  map[string]struct{}
	Keys map[string]struct{}
}

func newTakenSet() TakenSet {
	return TakenSet{IDs: map[string]struct{}{}, Keys: map[string]struct{}{}}
}

// Covers reports whether t is excluded by the set, either by id or by key.
func (s TakenSet) Covers(t *models.InterviewTemplate) bool {
	if _, ok := s.IDs[t.ID]; ok {
		return true
	}
	_, ok := s.Keys[similarity.Key(t.Role, t.TechStack)]
	return ok
}

func (s TakenSet) Empty() bool {
	return len(s.IDs) == 0 && len(s.Keys) == 0
}

// ResolveTaken collects the interviews userID has taken: owned templates (copies count as their original)
// and every interview the user has feedback on. Ids that no longer resolve stay in IDs without a key.
func (e *Engine) ResolveTaken(ctx context.Context, userID string) (TakenSet, error) {
	taken := newTakenSet()
	if userID == "" {
		return taken, nil
	}

	var (
		owned    []models.InterviewTemplate
		feedback []models.FeedbackRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = e.interviews.QueryByOwner(gctx, userID)
		if err != nil {
			return fmt.Errorf("query owned interviews: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		feedback, err = e.feedback.QueryByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("query user feedback: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return TakenSet{}, err
	}

	for i := range owned {
		taken.IDs[owned[i].IdentityID()] = struct{}{}
	}
	for _, fb := range feedback {
		if fb.InterviewID != "" {
			taken.IDs[fb.InterviewID] = struct{}{}
		}
	}
	if len(taken.IDs) == 0 {
		return taken, nil
	}

	ids := make([]string, 0, len(taken.IDs))
	for id := range taken.IDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	resolved, err := e.interviews.GetMany(ctx, ids)
	if err != nil {
		return TakenSet{}, fmt.Errorf("resolve taken interviews: %w", err)
	}
	for _, t := range resolved {
		taken.Keys[similarity.Key(t.Role, t.TechStack)] = struct{}{}
	}
	return taken, nil
}
