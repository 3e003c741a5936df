package history

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spigell/skill-navigator/internal/listing"
)

var validTransitions = map[listing.Status][]listing.Status{
	listing.StatusPending:   {listing.StatusApplied, listing.StatusRejected},
	listing.StatusApplied:   {listing.StatusInterview, listing.StatusRejected},
	listing.StatusInterview: {listing.StatusOffered, listing.StatusRejected},
}

// IsTransitionAllowed reports whether from → to is an edge of the status graph.
func IsTransitionAllowed(from, to listing.Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s listing.Status) bool {
	_, ok := validTransitions[s]
	return !ok
}

var now = func() time.Time { return time.Now().UTC() }

// Transition moves a tracked application to a new status.
// Notes replace the stored ones when not empty.
func Transition(ctx context.Context, store Store, jobID int, to listing.Status, notes string) (*Record, error) {
	unlock := locks.lock(jobID)
	defer unlock()

	rec, err := store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !IsTransitionAllowed(rec.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.Status, to)
	}

	ts := now()
	rec.Status = to
	rec.UpdatedAt = ts
	if to == listing.StatusApplied && rec.AppliedAt == nil {
		rec.AppliedAt = &ts
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		rec.Notes = notes
	}

	if err := store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("save application %d: %w", jobID, err)
	}

	return rec, nil
}

// Track starts tracking a job as pending. Already tracked jobs are returned unchanged.
func Track(ctx context.Context, store Store, job *listing.Job, score *int) (*Record, error) {
	unlock := locks.lock(job.ID)
	defer unlock()

	rec, err := store.Get(ctx, job.ID)
	if err == nil {
		return rec, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	rec = &Record{
		JobID:     job.ID,
		Title:     job.Title,
		Company:   job.Company,
		URL:       job.Link(),
		Status:    listing.StatusPending,
		Score:     score,
		UpdatedAt: now(),
	}
	if err := store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("save application %d: %w", job.ID, err)
	}

	return rec, nil
}
