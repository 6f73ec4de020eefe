package interviews

import (
	"context"
	"fmt"
	"sort"

	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/similarity"

	"go.uber.org/zap"
)

func (e *Engine) normalizeLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

// ListAvailable returns up to limit finalized originals userID can still take, one per similarity key,
// newest first. An empty userID lists the public catalog.
//
// The catalog is over-fetched since taken and duplicate candidates are dropped after the query. When the
// filtered page falls short and the store had more, the window doubles up to MaxCandidates.
func (e *Engine) ListAvailable(ctx context.Context, userID string, limit int) ([]models.InterviewTemplate, error) {
	limit = e.normalizeLimit(limit)

	taken, err := e.ResolveTaken(ctx, userID)
	if err != nil {
		return nil, err
	}

	window := limit * e.cfg.OverfetchMultiplier
	if window > e.cfg.MaxCandidates {
		window = e.cfg.MaxCandidates
	}
	if window < limit {
		window = limit
	}

	var (
		available []models.InterviewTemplate
		rounds    int
	)
	for {
		rounds++
		candidates, err := e.interviews.QueryFinalized(ctx, userID, window)
		if err != nil {
			return nil, fmt.Errorf("query catalog: %w", err)
		}
		available = filterAvailable(candidates, userID, taken)

		if len(available) >= limit || len(candidates) < window || window >= e.cfg.MaxCandidates {
			break
		}
		window *= 2
		if window > e.cfg.MaxCandidates {
			window = e.cfg.MaxCandidates
		}
	}
	metrics.AvailabilityFetchRounds.Observe(float64(rounds))

	if len(available) > limit {
		available = available[:limit]
	}
	e.logger.Debug("Listed available interviews",
		zap.String("userId", userID),
		zap.Int("count", len(available)),
		zap.Int("rounds", rounds))
	return available, nil
}

// filterAvailable drops copies, the viewer's own templates and anything taken, then keeps the
// most recent template per similarity key.
func filterAvailable(candidates []models.InterviewTemplate, userID string, taken TakenSet) []models.InterviewTemplate {
	kept := make([]models.InterviewTemplate, 0, len(candidates))
	for i := range candidates {
		t := &candidates[i]
		if !t.Finalized || t.IsCopy() {
			continue
		}
		if userID != "" && t.OwnerUserID == userID {
			continue
		}
		if taken.Covers(t) {
			continue
		}
		kept = append(kept, *t)
	}
	return latestPerGroup(kept, func(t *models.InterviewTemplate) string {
		return similarity.Key(t.Role, t.TechStack)
	})
}

// latestPerGroup keeps the newest template of each group and returns them newest first.
// Ties keep input order.
func latestPerGroup(templates []models.InterviewTemplate, group func(*models.InterviewTemplate) string) []models.InterviewTemplate {
	sorted := make([]models.InterviewTemplate, len(templates))
	copy(sorted, templates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]models.InterviewTemplate, 0, len(sorted))
	for i := range sorted {
		k := group(&sorted[i])
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, sorted[i])
	}
	return out
}
