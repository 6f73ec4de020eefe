package interviews

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
	"peerprep/interview/internal/similarity"
	"peerprep/interview/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	engine     *Engine
	interviews repositories.InterviewStore
	feedback   repositories.FeedbackStore
	clock      time.Time
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	interviews, feedback := testhelpers.SetupStores(t)
	f := &fixture{interviews: interviews, feedback: feedback, clock: epoch.Add(24 * time.Hour)}
	f.engine = NewEngine(interviews, feedback, zap.NewNop(), cfg, WithClock(func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}))
	return f
}

func (f *fixture) author(t *testing.T, owner, role string, stack []string, at time.Duration) *models.InterviewTemplate {
	t.Helper()
	tmpl := &models.InterviewTemplate{
		OwnerUserID: owner,
		Role:        role,
		TechStack:   stack,
		Type:        "Technical",
		Questions:   []string{"Tell me about " + role},
		Finalized:   true,
		CreatedAt:   epoch.Add(at),
	}
	_, err := f.interviews.Create(context.Background(), tmpl)
	require.NoError(t, err)
	return tmpl
}

func (f *fixture) score(t *testing.T, interviewID, userID string, total int) string {
	t.Helper()
	id, _, err := f.feedback.Upsert(context.Background(), interviewID, userID, models.FeedbackFields{
		Assessment: models.Assessment{TotalScore: total, FinalAssessment: fmt.Sprintf("scored %d", total)},
		CreatedAt:  f.clock,
	})
	require.NoError(t, err)
	return id
}

func ids(templates []models.InterviewTemplate) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.ID)
	}
	return out
}

func TestEngine_AuthorScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	t1 := f.author(t, "U", "Backend", []string{"Node", "SQL"}, 0)

	anon, err := f.engine.ListAvailable(ctx, "", 10)
	require.NoError(t, err)
	assert.Contains(t, ids(anon), t1.ID)

	forAuthor, err := f.engine.ListAvailable(ctx, "U", 10)
	require.NoError(t, err)
	assert.NotContains(t, ids(forAuthor), t1.ID)
}

func TestEngine_TakeExcludesSameKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	t1 := f.author(t, "U", "Backend", []string{"Node", "SQL"}, 0)
	t3 := f.author(t, "W", "backend", []string{"sql", "node"}, time.Hour)
	other := f.author(t, "W", "Frontend", []string{"React"}, 2*time.Hour)

	t2, err := f.engine.TakeInterview(ctx, "V", t1.ID)
	require.NoError(t, err)
	assert.NotEqual(t, t1.ID, t2.ID)
	assert.Equal(t, "V", t2.OwnerUserID)
	assert.Equal(t, t1.ID, t2.OriginalInterviewID)
	assert.Equal(t, t1.Questions, t2.Questions)

	taken, err := f.engine.ResolveTaken(ctx, "V")
	require.NoError(t, err)
	assert.Contains(t, taken.IDs, t1.ID)
	assert.Contains(t, taken.Keys, similarity.Key("Backend", []string{"Node", "SQL"}))

	avail, err := f.engine.ListAvailable(ctx, "V", 10)
	require.NoError(t, err)
	got := ids(avail)
	assert.NotContains(t, got, t1.ID)
	assert.NotContains(t, got, t2.ID)
	assert.NotContains(t, got, t3.ID)
	assert.Equal(t, []string{other.ID}, got)
}

func TestEngine_ListOwnedGroupsByIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	t1 := f.author(t, "U", "Backend", []string{"Node", "SQL"}, 0)

	t2, err := f.engine.TakeInterview(ctx, "V", t1.ID)
	require.NoError(t, err)
	f.score(t, t2.ID, "V", 70)

	// an older stray copy of the same original
	_, err = f.interviews.Create(ctx, &models.InterviewTemplate{
		OwnerUserID:         "V",
		Role:                "Backend",
		Finalized:           true,
		OriginalInterviewID: t1.ID,
		CreatedAt:           epoch,
	})
	require.NoError(t, err)

	owned, err := f.engine.ListOwned(ctx, "V")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, t2.ID, owned[0].ID)
}

func TestEngine_TakeInterview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	t1 := f.author(t, "U", "Backend", []string{"Go"}, 0)

	t.Run("author gets the original", func(t *testing.T) {
		got, err := f.engine.TakeInterview(ctx, "U", t1.ID)
		require.NoError(t, err)
		assert.Equal(t, t1.ID, got.ID)
	})

	t.Run("second take reuses the copy", func(t *testing.T) {
		first, err := f.engine.TakeInterview(ctx, "V", t1.ID)
		require.NoError(t, err)
		second, err := f.engine.TakeInterview(ctx, "V", t1.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		owned, err := f.interviews.QueryByOwner(ctx, "V")
		require.NoError(t, err)
		assert.Len(t, owned, 1)
	})

	t.Run("taking a copy resolves to its original", func(t *testing.T) {
		vCopy, err := f.engine.TakeInterview(ctx, "V", t1.ID)
		require.NoError(t, err)

		wCopy, err := f.engine.TakeInterview(ctx, "W", vCopy.ID)
		require.NoError(t, err)
		assert.Equal(t, t1.ID, wCopy.OriginalInterviewID)
		assert.Equal(t, "W", wCopy.OwnerUserID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.engine.TakeInterview(ctx, "V", "missing")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("missing identifiers", func(t *testing.T) {
		_, err := f.engine.TakeInterview(ctx, "", t1.ID)
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = f.engine.TakeInterview(ctx, "V", "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestEngine_AnonymousListingDedupesNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	f.author(t, "A", "Backend", []string{"Go", "Redis"}, 0)
	newest := f.author(t, "B", "BACKEND", []string{"redis", "go"}, 3*time.Hour)
	mid := f.author(t, "C", "Data", []string{"Python"}, 2*time.Hour)
	old := f.author(t, "D", "Mobile", []string{"Swift"}, time.Hour)

	draft := f.author(t, "E", "Draft", nil, 4*time.Hour)
	finalized := false
	require.NoError(t, f.interviews.Update(ctx, draft.ID, models.InterviewPatch{Finalized: &finalized}))

	got, err := f.engine.ListAvailable(ctx, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{newest.ID, mid.ID, old.ID}, ids(got))

	limited, err := f.engine.ListAvailable(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{newest.ID, mid.ID}, ids(limited))

	keys := map[string]bool{}
	for _, tmpl := range got {
		k := similarity.Key(tmpl.Role, tmpl.TechStack)
		assert.False(t, keys[k], "duplicate key %s", k)
		keys[k] = true
	}
}

func TestEngine_FeedbackOnlyAttemptCountsAsTaken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	t1 := f.author(t, "U", "Backend", []string{"Go"}, 0)
	t2 := f.author(t, "U", "Frontend", []string{"Vue"}, time.Hour)
	f.score(t, t1.ID, "V", 50)

	got, err := f.engine.ListAvailable(ctx, "V", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{t2.ID}, ids(got))
}

func TestEngine_ResolveTaken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	t1 := f.author(t, "U", "Backend", []string{"Go"}, 0)
	_, err := f.engine.TakeInterview(ctx, "V", t1.ID)
	require.NoError(t, err)
	f.score(t, "deleted-interview", "V", 10)

	first, err := f.engine.ResolveTaken(ctx, "V")
	require.NoError(t, err)
	second, err := f.engine.ResolveTaken(ctx, "V")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Contains(t, first.IDs, "deleted-interview")
	assert.Len(t, first.Keys, 1)

	empty, err := f.engine.ResolveTaken(ctx, "")
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestEngine_ListAvailableNormalizesLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{DefaultLimit: 3, MaxLimit: 4})
	for i := 0; i < 6; i++ {
		f.author(t, "A", fmt.Sprintf("Role %d", i), nil, time.Duration(i)*time.Minute)
	}

	got, err := f.engine.ListAvailable(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = f.engine.ListAvailable(ctx, "", 50)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestEngine_EmptyCatalog(t *testing.T) {
	f := newFixture(t, Config{})
	got, err := f.engine.ListAvailable(context.Background(), "V", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	owned, err := f.engine.ListOwned(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, owned)
	assert.Empty(t, owned)
}

// countingStore records catalog queries.
type countingStore struct {
	repositories.InterviewStore
	windows []int
	fail    error
}

func (s *countingStore) QueryFinalized(ctx context.Context, excludeOwner string, limit int) ([]models.InterviewTemplate, error) {
	s.windows = append(s.windows, limit)
	if s.fail != nil {
		return nil, s.fail
	}
	return s.InterviewStore.QueryFinalized(ctx, excludeOwner, limit)
}

func TestEngine_OverfetchEscalatesWhenMostCandidatesAreTaken(t *testing.T) {
	ctx := context.Background()
	interviews, feedback := testhelpers.SetupStores(t)
	store := &countingStore{InterviewStore: interviews}
	engine := NewEngine(store, feedback, zap.NewNop(), Config{OverfetchMultiplier: 1, MaxCandidates: 64})

	// 10 newest interviews are taken by V, 5 older ones are not
	for i := 0; i < 15; i++ {
		tmpl := &models.InterviewTemplate{
			OwnerUserID: "A",
			Role:        fmt.Sprintf("Role %02d", i),
			Finalized:   true,
			CreatedAt:   epoch.Add(time.Duration(i) * time.Minute),
		}
		_, err := interviews.Create(ctx, tmpl)
		require.NoError(t, err)
		if i >= 5 {
			_, _, err := feedback.Upsert(ctx, tmpl.ID, "V", models.FeedbackFields{CreatedAt: epoch})
			require.NoError(t, err)
		}
	}

	got, err := engine.ListAvailable(ctx, "V", 4)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, []int{4, 8, 16}, store.windows)
	assert.Equal(t, "Role 04", got[0].Role)
}

func TestEngine_OverfetchStopsAtCeiling(t *testing.T) {
	ctx := context.Background()
	interviews, feedback := testhelpers.SetupStores(t)
	store := &countingStore{InterviewStore: interviews}
	engine := NewEngine(store, feedback, zap.NewNop(), Config{OverfetchMultiplier: 2, MaxCandidates: 6})

	for i := 0; i < 10; i++ {
		tmpl := &models.InterviewTemplate{OwnerUserID: "A", Role: "Same", Finalized: true, CreatedAt: epoch.Add(time.Duration(i) * time.Minute)}
		_, err := interviews.Create(ctx, tmpl)
		require.NoError(t, err)
	}

	got, err := engine.ListAvailable(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []int{4, 6}, store.windows)
}

func TestEngine_StoreFailureFailsTheCall(t *testing.T) {
	interviews, feedback := testhelpers.SetupStores(t)
	boom := errors.New("connection reset")
	store := &countingStore{InterviewStore: interviews, fail: boom}
	engine := NewEngine(store, feedback, zap.NewNop(), Config{})

	got, err := engine.ListAvailable(context.Background(), "", 5)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestEngine_ResolveAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	t1 := f.author(t, "U", "Backend", []string{"Go"}, 0)
	t2, err := f.engine.TakeInterview(ctx, "V", t1.ID)
	require.NoError(t, err)

	cases := []struct {
		name   string
		userID string
		id     string
		want   string
	}{
		{"owner of original", "U", t1.ID, t1.ID},
		{"owner of copy", "V", t2.ID, t2.ID},
		{"original resolves to own copy", "V", t1.ID, t2.ID},
		{"author viewing a copy resolves to original", "U", t2.ID, t1.ID},
		{"stranger keeps the id", "W", t1.ID, t1.ID},
		{"unknown id", "V", "missing", "missing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.engine.ResolveAttempt(ctx, tc.userID, tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("existing feedback on the id wins", func(t *testing.T) {
		f.score(t, t1.ID, "V", 40)
		got, err := f.engine.ResolveAttempt(ctx, "V", t1.ID)
		require.NoError(t, err)
		assert.Equal(t, t1.ID, got)
	})

	_, err = f.engine.ResolveAttempt(ctx, "", t1.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEngine_BuildCards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{CardWorkers: 2})
	t1 := f.author(t, "U", "Backend", []string{"Go"}, 0)
	t2 := f.author(t, "U", "Fullstack", []string{"React"}, time.Hour)
	copy1, err := f.engine.TakeInterview(ctx, "V", t1.ID)
	require.NoError(t, err)
	f.score(t, copy1.ID, "V", 82)

	cards, err := f.engine.BuildCards(ctx, "V", []models.InterviewTemplate{*t1, *t2, *copy1})
	require.NoError(t, err)
	require.Len(t, cards, 3)

	assert.True(t, cards[0].HasFeedback, "original should pick up feedback on the user's copy")
	assert.Equal(t, 82, *cards[0].TotalScore)
	assert.False(t, cards[1].HasFeedback)
	assert.Nil(t, cards[1].TotalScore)
	assert.Equal(t, "View Interview", cards[1].Action)
	assert.True(t, cards[2].HasFeedback)
	assert.Equal(t, "/interview/"+copy1.ID+"/feedback", cards[2].Link)

	anon, err := f.engine.BuildCards(ctx, "", []models.InterviewTemplate{*t1})
	require.NoError(t, err)
	assert.False(t, anon[0].HasFeedback)
}

func TestEngine_CreateAndGetInterview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	created, err := f.engine.CreateInterview(ctx, "U", models.CreateInterviewRequest{
		Role:      "  Backend ",
		Type:      "Mixed",
		TechStack: []string{"Go"},
		Questions: []string{"Why Go?"},
		Finalized: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Backend", created.Role)
	assert.Equal(t, "U", created.OwnerUserID)

	got, err := f.engine.GetInterview(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.engine.GetInterview(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = f.engine.CreateInterview(ctx, "U", models.CreateInterviewRequest{Role: "Backend", Type: "Technical"})
	var verr *models.ErrorResponse
	assert.ErrorAs(t, err, &verr)

	_, err = f.engine.CreateInterview(ctx, "", models.CreateInterviewRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEngine_PrepareAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	t1 := f.author(t, "U", "Backend", []string{"Go"}, 0)

	authored, err := f.engine.PrepareAttempt(ctx, "U", t1.ID)
	require.NoError(t, err)
	assert.Equal(t, t1.ID, authored)

	first, err := f.engine.PrepareAttempt(ctx, "V", t1.ID)
	require.NoError(t, err)
	assert.NotEqual(t, t1.ID, first)

	again, err := f.engine.PrepareAttempt(ctx, "V", t1.ID)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	viaCopy, err := f.engine.PrepareAttempt(ctx, "V", first)
	require.NoError(t, err)
	assert.Equal(t, first, viaCopy)

	// feedback written straight against the original is kept there
	f.score(t, t1.ID, "W", 30)
	legacy, err := f.engine.PrepareAttempt(ctx, "W", t1.ID)
	require.NoError(t, err)
	assert.Equal(t, t1.ID, legacy)

	_, err = f.engine.PrepareAttempt(ctx, "V", "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
