package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/scoring"
)

func intPtr(v int) *int { return &v }

func fixedNow(t *testing.T) time.Time {
	t.Helper()

	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	original := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = original })
	return ts
}

func TestIsTransitionAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to listing.Status
		allowed  bool
	}{
		{listing.StatusPending, listing.StatusApplied, true},
		{listing.StatusApplied, listing.StatusInterview, true},
		{listing.StatusInterview, listing.StatusOffered, true},
		{listing.StatusPending, listing.StatusRejected, true},
		{listing.StatusApplied, listing.StatusRejected, true},
		{listing.StatusInterview, listing.StatusRejected, true},
		{listing.StatusPending, listing.StatusInterview, false},
		{listing.StatusApplied, listing.StatusOffered, false},
		{listing.StatusOffered, listing.StatusRejected, false},
		{listing.StatusRejected, listing.StatusApplied, false},
		{listing.StatusApplied, listing.StatusPending, false},
		{listing.StatusApplied, listing.StatusApplied, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, IsTransitionAllowed(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, IsTerminal(listing.StatusOffered))
	assert.True(t, IsTerminal(listing.StatusRejected))
	assert.False(t, IsTerminal(listing.StatusPending))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "applications.json")
	store := NewFileStore(path)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, &Record{JobID: 5, Title: "Go Developer", Status: listing.StatusApplied}))
	require.NoError(t, store.Put(ctx, &Record{JobID: 2, Title: "Data Analyst", Status: listing.StatusPending}))
	require.NoError(t, store.Put(ctx, &Record{JobID: 5, Title: "Go Developer", Status: listing.StatusInterview}))

	ids, err := store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, ids)

	rec, err := NewFileStore(path).Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusInterview, rec.Status)

	assert.Error(t, store.Put(ctx, &Record{}))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
}

func TestFileStoreEmptyAndBrokenFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	records, err := NewFileStore(empty).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o644))
	_, err = NewFileStore(broken).List(ctx)
	assert.Error(t, err)
}

func TestTransition(t *testing.T) {
	ts := fixedNow(t)
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "applications.json"))

	_, err := Transition(ctx, store, 9, listing.StatusApplied, "")
	require.ErrorIs(t, err, ErrNotFound)

	rec, err := Track(ctx, store, &listing.Job{ID: 9, Title: "SRE", Company: "Initech", ApplyURL: "https://initech.test/9"}, intPtr(85))
	require.NoError(t, err)
	assert.Equal(t, listing.StatusPending, rec.Status)
	assert.Equal(t, "https://initech.test/9", rec.URL)

	again, err := Track(ctx, store, &listing.Job{ID: 9, Title: "changed"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SRE", again.Title)

	rec, err = Transition(ctx, store, 9, listing.StatusApplied, "  sent cv ")
	require.NoError(t, err)
	assert.Equal(t, listing.StatusApplied, rec.Status)
	require.NotNil(t, rec.AppliedAt)
	assert.Equal(t, ts, *rec.AppliedAt)
	assert.Equal(t, "sent cv", rec.Notes)

	_, err = Transition(ctx, store, 9, listing.StatusOffered, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rec, err = Transition(ctx, store, 9, listing.StatusInterview, "")
	require.NoError(t, err)
	assert.Equal(t, "sent cv", rec.Notes, "empty notes keep the previous ones")

	_, err = Transition(ctx, store, 9, listing.StatusRejected, "")
	require.NoError(t, err)

	_, err = Transition(ctx, store, 9, listing.StatusApplied, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

type fakeClient struct {
	mu    sync.Mutex
	calls []int
	resp  *listing.ApplyResponse
	err   error
	delay time.Duration
}

func (f *fakeClient) AutoApply(_ context.Context, jobID int) (*listing.ApplyResponse, error) {
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, jobID)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func scored(id int, score *int) *scoring.ScoredJob {
	return &scoring.ScoredJob{
		Job:    &listing.Job{ID: id, Title: "Job", Company: "Acme"},
		Result: scoring.Result{SkillMatchScore: score},
		Tier:   scoring.Classify(score),
	}
}

func TestApplierApply(t *testing.T) {
	ts := fixedNow(t)
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "applications.json"))
	client := &fakeClient{resp: &listing.ApplyResponse{Success: true, Message: "ok"}}
	applier := NewApplier(client, store, scoring.DefaultThreshold, zap.NewNop())

	_, err := applier.Apply(ctx, scored(1, intPtr(79)))
	assert.ErrorIs(t, err, ErrNotCandidate)

	_, err = applier.Apply(ctx, scored(2, nil))
	assert.ErrorIs(t, err, ErrNotCandidate)
	assert.Empty(t, client.calls)

	rec, err := applier.Apply(ctx, scored(3, intPtr(80)))
	require.NoError(t, err)
	assert.Equal(t, listing.StatusApplied, rec.Status)
	assert.True(t, rec.AutoApplied)
	assert.Equal(t, 80, *rec.Score)
	assert.Equal(t, ts, rec.UpdatedAt)

	_, err = applier.Apply(ctx, scored(3, intPtr(90)))
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.Equal(t, []int{3}, client.calls)

	stored, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.True(t, stored.AutoApplied)
}

func TestApplierAppliesTrackedPendingJob(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "applications.json"))
	require.NoError(t, store.Put(ctx, &Record{JobID: 4, Status: listing.StatusPending, Notes: "referral"}))

	applier := NewApplier(&fakeClient{resp: &listing.ApplyResponse{Success: true}}, store, 90, nil)

	rec, err := applier.Apply(ctx, scored(4, intPtr(95)))
	require.NoError(t, err)
	assert.Equal(t, "referral", rec.Notes)
}

func TestApplierUpstreamFailure(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "applications.json"))

	applier := NewApplier(&fakeClient{err: errors.New("boom")}, store, 80, nil)
	_, err := applier.Apply(ctx, scored(1, intPtr(90)))
	require.Error(t, err)

	applier = NewApplier(&fakeClient{resp: &listing.ApplyResponse{Success: false, Message: "closed"}}, store, 80, nil)
	_, err = applier.Apply(ctx, scored(1, intPtr(90)))
	require.ErrorContains(t, err, "closed")

	ids, err := store.IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "failed applications must not be recorded")
}

func TestApplierApplyAll(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "applications.json"))
	require.NoError(t, store.Put(ctx, &Record{JobID: 2, Status: listing.StatusApplied}))

	client := &fakeClient{resp: &listing.ApplyResponse{Success: true}}
	applier := NewApplier(client, store, 85, nil)

	jobs := []*scoring.ScoredJob{scored(1, intPtr(90)), scored(2, intPtr(99)), scored(3, intPtr(84)), scored(4, intPtr(85))}

	assert.Len(t, applier.Candidates(jobs), 3)

	records, err := applier.ApplyAll(ctx, jobs)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []int{1, 4}, client.calls)
}

func TestApplierConcurrentApplyHitsUpstreamOnce(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "applications.json"))
	client := &fakeClient{resp: &listing.ApplyResponse{Success: true}, delay: 20 * time.Millisecond}
	applier := NewApplier(client, store, scoring.DefaultThreshold, nil)

	const workers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		duplicate int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := applier.Apply(ctx, scored(11, intPtr(90)))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyApplied):
				duplicate++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, duplicate)
	assert.Equal(t, []int{11}, client.calls)
}

func TestConcurrentTransitionAppliesOnce(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "applications.json"))
	_, err := Track(ctx, store, &listing.Job{ID: 12, Title: "SRE"}, nil)
	require.NoError(t, err)

	const workers = 5
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Transition(ctx, store, 12, listing.StatusApplied, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, invalid int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInvalidTransition):
			invalid++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, invalid)

	rec, err := store.Get(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusApplied, rec.Status)
}
