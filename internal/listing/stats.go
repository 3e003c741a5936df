package listing

import (
	"context"
	"fmt"
)

const (
	StatsPath     = "/api/jobs/stats/summary"
	AutoApplyPath = "/api/jobs/auto-apply/%d"
)

// Stats mirrors the summary statistics endpoint.
type Stats struct {
	TotalJobs        int            `json:"total_jobs"`
	JobsToday        int            `json:"jobs_today"`
	TopCompanies     []any          `json:"top_companies,omitempty"`
	TopJobTitles     []any          `json:"top_job_titles,omitempty"`
	Sources          map[string]int `json:"sources,omitempty"`
	JobTypes         map[string]int `json:"job_types,omitempty"`
	ExperienceLevels map[string]int `json:"experience_levels,omitempty"`
	RemoteJobs       int            `json:"remote_jobs"`
	Timestamp        string         `json:"timestamp,omitempty"`
	// Fallback is set when the values are a local substitute for a failed request.
	Fallback bool `json:"fallback,omitempty"`
}

// FallbackStats returns the substitute shown when the stats endpoint is unavailable.
func FallbackStats() *Stats {
	return &Stats{
		Sources:          map[string]int{},
		JobTypes:         map[string]int{},
		ExperienceLevels: map[string]int{},
		Fallback:         true,
	}
}

// Stats fetches the summary statistics. No client timeout applies to this call.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.getJSON(ctx, c.StatsClient, c.APIURL+StatsPath, nil, &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

// ApplyResponse is the upstream acknowledgement of an auto-apply request.
type ApplyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AutoApply asks the upstream to apply to the job with the given id.
func (c *Client) AutoApply(ctx context.Context, id int) (*ApplyResponse, error) {
	if id <= 0 {
		return nil, fmt.Errorf("job id is required")
	}

	resp := &ApplyResponse{Success: true}
	if err := c.postJSON(ctx, c.APIURL+fmt.Sprintf(AutoApplyPath, id), nil, resp); err != nil {
		return nil, fmt.Errorf("auto-apply to job %d: %w", id, err)
	}

	return resp, nil
}
