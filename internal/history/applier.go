package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/logger"
	"github.com/spigell/skill-navigator/internal/scoring"
)

// AutoApplier submits an application upstream.
type AutoApplier interface {
	AutoApply(ctx context.Context, jobID int) (*listing.ApplyResponse, error)
}

// Applier auto-applies to scored jobs that pass the threshold and records the result.
type Applier struct {
	client    AutoApplier
	store     Store
	threshold scoring.Threshold
	logger    *zap.Logger
}

func NewApplier(client AutoApplier, store Store, threshold scoring.Threshold, log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{client: client, store: store, threshold: threshold, logger: log}
}

func (a *Applier) Threshold() scoring.Threshold {
	return a.threshold
}

// Candidates returns the jobs that qualify for auto-apply, in input order.
func (a *Applier) Candidates(jobs []*scoring.ScoredJob) []*scoring.ScoredJob {
	var out []*scoring.ScoredJob
	for _, job := range jobs {
		if a.threshold.Allows(job.SkillMatchScore) {
			out = append(out, job)
		}
	}
	return out
}

func (a *Applier) Apply(ctx context.Context, job *scoring.ScoredJob) (*Record, error) {
	if job == nil || job.Job == nil {
		return nil, errors.New("job is required")
	}

	log := a.logger.With(logger.JobFields(job.ID, job.Company)...)

	if !a.threshold.Allows(job.SkillMatchScore) {
		return nil, fmt.Errorf("%w: job %d below threshold %d", ErrNotCandidate, job.ID, a.threshold)
	}

	unlock := locks.lock(job.ID)
	defer unlock()

	existing, err := a.store.Get(ctx, job.ID)
	switch {
	case err == nil && existing.Status != listing.StatusPending:
		return nil, fmt.Errorf("%w: job %d is %s", ErrAlreadyApplied, job.ID, existing.Status)
	case err != nil && !isNotFound(err):
		return nil, err
	}

	resp, err := a.client.AutoApply(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("auto-apply job %d: %w", job.ID, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("auto-apply job %d rejected upstream: %s", job.ID, resp.Message)
	}

	ts := now()
	rec := &Record{
		JobID:       job.ID,
		Title:       job.Title,
		Company:     job.Company,
		URL:         job.Link(),
		Status:      listing.StatusApplied,
		Score:       job.SkillMatchScore,
		AutoApplied: true,
		AppliedAt:   &ts,
		UpdatedAt:   ts,
	}
	if existing != nil {
		rec.Notes = existing.Notes
	}

	if err := a.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("save application %d: %w", job.ID, err)
	}

	log.Info("auto-applied", zap.Int("score", *job.SkillMatchScore), zap.String("message", resp.Message))

	return rec, nil
}

// ApplyAll applies to every candidate and keeps going on per-job failures.
func (a *Applier) ApplyAll(ctx context.Context, jobs []*scoring.ScoredJob) ([]*Record, error) {
	var (
		records []*Record
		errs    []error
	)
	for _, job := range a.Candidates(jobs) {
		rec, err := a.Apply(ctx, job)
		if errors.Is(err, ErrAlreadyApplied) {
			a.logger.Debug("skipping already applied job", logger.JobFields(job.ID, job.Company)...)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
