package filtering

import (
	"context"
	"strings"

	"github.com/spigell/skill-navigator/internal/listing"
)

type queryFilter struct {
	query string
}

// NewQuery creates a filter that keeps jobs matching a free-text search.
func NewQuery(query string) Filter {
	return &queryFilter{query: strings.TrimSpace(query)}
}

func (f *queryFilter) Name() string { return "query" }

func (f *queryFilter) Disable(string) {}

func (f *queryFilter) IsEnabled() bool { return f.query != "" }

func (f *queryFilter) Validate() error { return nil }

func (f *queryFilter) Apply(_ context.Context, v *listing.Jobs) (*listing.Jobs, Step, error) {
	initial := v.Len()
	dropped := v.Filter(func(j *listing.Job) bool { return j.MatchesQuery(f.query) })

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *queryFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: map[string]string{"query": f.query}}
}
