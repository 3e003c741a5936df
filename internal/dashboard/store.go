package dashboard

import (
	"strings"
	"sync"
	"time"

	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/scoring"
)

// State is what the dashboard shows at a point in time.
type State struct {
	Jobs      []*scoring.ScoredJob
	Loading   bool
	Query     string
	Stats     *listing.Stats
	Err       error
	UpdatedAt time.Time
}

// Event is a state transition dispatched to the Store.
type Event interface {
	apply(s *State, now time.Time)
}

// FetchStart marks the beginning of a refresh. Current jobs stay visible.
type FetchStart struct{}

// FetchSuccess replaces the job list and stats.
type FetchSuccess struct {
	Jobs  []*scoring.ScoredJob
	Stats *listing.Stats
}

// FetchFailure clears the job list and records the error.
type FetchFailure struct {
	Err   error
	Stats *listing.Stats
}

// SearchSubmit sets the free-text filter applied by Visible.
type SearchSubmit struct {
	Query string
}

func (FetchStart) apply(s *State, _ time.Time) {
	s.Loading = true
}

func (e FetchSuccess) apply(s *State, now time.Time) {
	s.Jobs = e.Jobs
	s.Stats = e.Stats
	s.Err = nil
	s.Loading = false
	s.UpdatedAt = now
}

func (e FetchFailure) apply(s *State, now time.Time) {
	s.Jobs = nil
	s.Stats = e.Stats
	s.Err = e.Err
	s.Loading = false
	s.UpdatedAt = now
}

func (e SearchSubmit) apply(s *State, _ time.Time) {
	s.Query = strings.TrimSpace(e.Query)
}

// Store holds the dashboard state. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Dispatch(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.apply(&s.state, s.now())
}

// Reset drops all state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
}

// Snapshot returns a copy of the state. The jobs slice is copied, the jobs are shared.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Jobs = append([]*scoring.ScoredJob(nil), s.state.Jobs...)
	return st
}

// Visible returns the jobs matching the current search query, in ranked order.
func (s *Store) Visible() []*scoring.ScoredJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*scoring.ScoredJob, 0, len(s.state.Jobs))
	for _, job := range s.state.Jobs {
		if job.MatchesQuery(s.state.Query) {
			out = append(out, job)
		}
	}
	return out
}

// Find returns a visible job by id.
func (s *Store) Find(id int) *scoring.ScoredJob {
	for _, job := range s.Visible() {
		if job.ID == id {
			return job
		}
	}
	return nil
}
