// Package history tracks the application status of jobs.
//
// Status graph:
//
//	pending ──► applied ──► interview ──► offered
//	   │           │            │
//	   └───────────┴────────────┴──► rejected
//
// offered and rejected are terminal.
package history

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/spigell/skill-navigator/internal/listing"
)

var (
	ErrNotFound          = errors.New("application not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyApplied    = errors.New("already applied")
	ErrNotCandidate      = errors.New("job is not an auto-apply candidate")
)

// Record is the tracked state of one application.
type Record struct {
	JobID       int            `json:"job_id"`
	Title       string         `json:"title,omitempty"`
	Company     string         `json:"company,omitempty"`
	URL         string         `json:"url,omitempty"`
	Status      listing.Status `json:"status"`
	Score       *int           `json:"score,omitempty"`
	AutoApplied bool           `json:"auto_applied"`
	AppliedAt   *time.Time     `json:"applied_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Notes       string         `json:"notes,omitempty"`
}

// Store persists application records keyed by job id.
type Store interface {
	List(ctx context.Context) ([]*Record, error)
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, jobID int) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	IDs(ctx context.Context) ([]int, error)
}

func sortRecords(records []*Record) {
	slices.SortFunc(records, func(a, b *Record) int {
		return a.JobID - b.JobID
	})
}

func recordIDs(records []*Record) []int {
	ids := make([]int, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.JobID)
	}
	return ids
}
