package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/skill-navigator/internal/filtering"
	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/scoring"
)

// Source is the upstream the dashboard reads from.
type Source interface {
	Jobs(ctx context.Context, query *listing.Query) (*listing.Jobs, error)
	Stats(ctx context.Context) (*listing.Stats, error)
}

// Loader fetches, filters, scores and ranks jobs into a Store.
type Loader struct {
	source   Source
	query    *listing.Query
	pipeline *filtering.Filtering
	scorer   *scoring.Scorer
	store    *Store
	logger   *zap.Logger

	refreshMu sync.Mutex
}

func NewLoader(source Source, query *listing.Query, pipeline *filtering.Filtering, scorer *scoring.Scorer, store *Store, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		source:   source,
		query:    query,
		pipeline: pipeline,
		scorer:   scorer,
		store:    store,
		logger:   logger,
	}
}

func (l *Loader) Store() *Store {
	return l.store
}

// Refresh runs one fetch cycle and returns the resulting state.
// Retrieval errors never escape: a failed listing empties the job list and is
// recorded in State.Err, failed stats are replaced by fallback values.
func (l *Loader) Refresh(ctx context.Context) State {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	l.store.Dispatch(FetchStart{})

	var (
		jobs     *listing.Jobs
		jobsErr  error
		stats    *listing.Stats
		statsErr error
		g        errgroup.Group
	)

	g.Go(func() error {
		jobs, jobsErr = l.source.Jobs(ctx, l.query)
		return nil
	})
	g.Go(func() error {
		stats, statsErr = l.source.Stats(ctx)
		return nil
	})
	_ = g.Wait()

	if statsErr != nil {
		l.logger.Warn("fetching stats failed, using fallback values", zap.Error(statsErr))
	}
	if statsErr != nil || stats == nil {
		stats = listing.FallbackStats()
	}

	if jobsErr != nil {
		l.logger.Error("fetching jobs failed", zap.Error(jobsErr))
		l.store.Dispatch(FetchFailure{Err: jobsErr, Stats: stats})
		return l.store.Snapshot()
	}

	if l.pipeline != nil {
		filtered, err := l.pipeline.RunFilters(ctx, jobs)
		if err != nil {
			l.logger.Error("filtering jobs failed", zap.Error(err))
			l.store.Dispatch(FetchFailure{Err: err, Stats: stats})
			return l.store.Snapshot()
		}
		jobs = filtered
	}

	var scored []*scoring.ScoredJob
	if jobs != nil {
		scored = scoring.Rank(l.scorer.AnnotateAll(jobs.Items))
	}

	l.logger.Info("dashboard refreshed",
		zap.Int("jobs", len(scored)),
		zap.Int("total_jobs", stats.TotalJobs),
		zap.Bool("stats_fallback", stats.Fallback),
	)

	l.store.Dispatch(FetchSuccess{Jobs: scored, Stats: stats})
	return l.store.Snapshot()
}
