package filtering

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/skill-navigator/internal/ai"
	"github.com/spigell/skill-navigator/internal/listing"
)

func floatPtr(v float64) *float64 { return &v }

func sampleJobs() *listing.Jobs {
	return &listing.Jobs{Items: []*listing.Job{
		{ID: 1, Title: "Frontend Engineer", Company: "Acme"},
		{ID: 2, Title: "Backend Engineer", Company: "Globex", RelevanceScore: floatPtr(0.7)},
		{ID: 3, Title: "Data Scientist", Company: "Initech", Description: "Python and frontend dashboards"},
		{ID: 4, Title: "Mobile Developer", Company: "Umbrella"},
	}}
}

func ids(jobs *listing.Jobs) []int {
	out := make([]int, 0, jobs.Len())
	for _, j := range jobs.Items {
		out = append(out, j.ID)
	}
	return out
}

type fakeHistory struct {
	ids []int
	err error
}

func (f *fakeHistory) IDs(context.Context) ([]int, error) { return f.ids, f.err }

type fakeEstimator struct {
	scores map[int]float64
	calls  []int
}

func (f *fakeEstimator) Estimate(_ context.Context, _ []string, job *listing.Job) (*ai.Assessment, error) {
	f.calls = append(f.calls, job.ID)
	score, ok := f.scores[job.ID]
	if !ok {
		return nil, errors.New("model unavailable")
	}
	return &ai.Assessment{Score: score, Reason: "test"}, nil
}

func TestRunFiltersPipeline(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	estimator := &fakeEstimator{scores: map[int]float64{1: 0.9}}
	steps := []Filter{
		NewQuery("frontend"),
		NewExcludedCompanies([]string{"initech"}, logger),
		NewAppliedHistory(nil, &AppliedHistoryDeps{History: &fakeHistory{ids: []int{4}}, Logger: logger}),
		NewAIRelevance(&AIRelevanceConfig{Enabled: true}, &AIRelevanceDeps{Estimator: estimator, Logger: logger}),
	}

	input := sampleJobs()
	out, err := New(steps, logger).RunFilters(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, ids(out))
	require.NotNil(t, out.Items[0].RelevanceScore)
	assert.Equal(t, 0.9, *out.Items[0].RelevanceScore)

	assert.Equal(t, 4, input.Len(), "input list must not be modified")
	assert.Nil(t, input.Items[0].RelevanceScore, "input jobs must not be modified")

	stepLogs := logs.FilterMessage("filter step").All()
	require.Len(t, stepLogs, 4)
	first := stepLogs[0].ContextMap()
	assert.Equal(t, "query", first["name"])
	assert.EqualValues(t, 4, first["initial"])
	assert.EqualValues(t, 2, first["dropped"])
	assert.EqualValues(t, 2, first["left"])
}

func TestQueryFilterDisabledWhenEmpty(t *testing.T) {
	f := New([]Filter{NewQuery("  ")}, nil)

	out, err := f.RunFilters(context.Background(), sampleJobs())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(out))

	statuses := f.Describe()
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Enabled)
}

func TestAppliedHistoryFilter(t *testing.T) {
	logger := zap.NewNop()

	t.Run("excludes tracked jobs", func(t *testing.T) {
		f := NewAppliedHistory(&AppliedHistoryConfig{}, &AppliedHistoryDeps{History: &fakeHistory{ids: []int{1, 3}}, Logger: logger})
		out, step, err := f.Apply(context.Background(), sampleJobs())
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4}, ids(out))
		assert.Equal(t, Step{Initial: 4, Dropped: 2, Left: 2}, step)
	})

	t.Run("ignore flag", func(t *testing.T) {
		f := NewAppliedHistory(&AppliedHistoryConfig{Ignore: true}, &AppliedHistoryDeps{History: &fakeHistory{ids: []int{1}}, Logger: logger})
		out, _, err := f.Apply(context.Background(), sampleJobs())
		require.NoError(t, err)
		assert.Equal(t, 4, out.Len())
		assert.Equal(t, "skip requested via flag", f.(statusProvider).Status().Reason)
	})

	t.Run("history error", func(t *testing.T) {
		f := NewAppliedHistory(nil, &AppliedHistoryDeps{History: &fakeHistory{err: errors.New("disk")}, Logger: logger})
		_, err := New([]Filter{f}, logger).RunFilters(context.Background(), sampleJobs())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "applied_history")
	})

	t.Run("missing store", func(t *testing.T) {
		f := NewAppliedHistory(nil, &AppliedHistoryDeps{Logger: logger})
		assert.Error(t, f.Validate())
	})
}

func TestAIRelevanceFilter(t *testing.T) {
	t.Run("keeps jobs on estimator errors", func(t *testing.T) {
		estimator := &fakeEstimator{scores: map[int]float64{3: 0.4}}
		f := NewAIRelevance(&AIRelevanceConfig{Enabled: true}, &AIRelevanceDeps{Estimator: estimator, Logger: zap.NewNop()})

		out, step, err := f.Apply(context.Background(), sampleJobs())
		require.NoError(t, err)
		assert.Equal(t, Step{Initial: 4, Dropped: 0, Left: 4}, step)
		assert.Equal(t, []int{1, 3, 4}, estimator.calls, "jobs with an upstream score are skipped")

		assert.Nil(t, out.Items[0].RelevanceScore)
		assert.Equal(t, 0.7, *out.Items[1].RelevanceScore)
		assert.Equal(t, 0.4, *out.Items[2].RelevanceScore)
	})

	t.Run("max jobs", func(t *testing.T) {
		estimator := &fakeEstimator{scores: map[int]float64{1: 0.1, 3: 0.3, 4: 0.4}}
		f := NewAIRelevance(&AIRelevanceConfig{Enabled: true, MaxJobs: 2}, &AIRelevanceDeps{Estimator: estimator, Logger: zap.NewNop()})

		out, _, err := f.Apply(context.Background(), sampleJobs())
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, estimator.calls)
		assert.Nil(t, out.Items[3].RelevanceScore)
	})

	t.Run("disabled", func(t *testing.T) {
		estimator := &fakeEstimator{}
		f := NewAIRelevance(&AIRelevanceConfig{Enabled: true}, &AIRelevanceDeps{Estimator: estimator, Logger: zap.NewNop()})
		pipeline := New([]Filter{f}, nil)
		pipeline.DisableByName("ai_relevance", "no api key")

		_, err := pipeline.RunFilters(context.Background(), sampleJobs())
		require.NoError(t, err)
		assert.Empty(t, estimator.calls)
		assert.Equal(t, "no api key", pipeline.Describe()[0].Reason)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := NewAIRelevance(&AIRelevanceConfig{Enabled: true}, &AIRelevanceDeps{Estimator: &fakeEstimator{}, Logger: zap.NewNop()})
		_, _, err := f.Apply(ctx, sampleJobs())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("enabled without estimator", func(t *testing.T) {
		f := NewAIRelevance(&AIRelevanceConfig{Enabled: true}, &AIRelevanceDeps{Logger: zap.NewNop()})
		assert.Error(t, f.Validate())
	})
}

func TestCompaniesFilterNoop(t *testing.T) {
	f := NewExcludedCompanies(nil, nil)
	out, step, err := f.Apply(context.Background(), sampleJobs())
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())
	assert.Equal(t, Step{Initial: 4, Left: 4}, step)
}
