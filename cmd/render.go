package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/spigell/skill-navigator/internal/history"
	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/scoring"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// jobView is one dashboard row.
type jobView struct {
	ID             int      `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Company        string   `json:"company" yaml:"company"`
	Location       string   `json:"location,omitempty" yaml:"location,omitempty"`
	Score          *int     `json:"skillMatchScore,omitempty" yaml:"skill_match_score,omitempty"`
	Tier           string   `json:"tier" yaml:"tier"`
	Class          string   `json:"class,omitempty" yaml:"class,omitempty"`
	Relevance      *float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
	JobSkills      []string `json:"jobSkills,omitempty" yaml:"job_skills,omitempty"`
	MatchingSkills []string `json:"matchingSkills,omitempty" yaml:"matching_skills,omitempty"`
	MissingSkills  []string `json:"missingSkills,omitempty" yaml:"missing_skills,omitempty"`
	Status         string   `json:"status,omitempty" yaml:"status,omitempty"`
	URL            string   `json:"url,omitempty" yaml:"url,omitempty"`
}

func newJobView(job *scoring.ScoredJob) jobView {
	return jobView{
		ID:             job.ID,
		Title:          job.Title,
		Company:        job.Company,
		Location:       job.Location,
		Score:          job.SkillMatchScore,
		Tier:           string(job.Tier),
		Class:          job.Tier.Class(),
		Relevance:      job.RelevanceScore,
		JobSkills:      job.JobSkills,
		MatchingSkills: job.MatchingSkills,
		MissingSkills:  job.MissingSkills,
		Status:         string(job.Status),
		URL:            job.Link(),
	}
}

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
}

func renderJobs(w io.Writer, format string, jobs []*scoring.ScoredJob) error {
	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, newJobView(job))
	}

	switch format {
	case outputJSON:
		return writeJSON(w, views)
	case outputYAML:
		return writeYAML(w, views)
	case outputTable:
		table := tablewriter.NewWriter(w)
		table.Header("ID", "Title", "Company", "Score", "Tier", "Matching", "Missing")
		for _, v := range views {
			table.Append(
				strconv.Itoa(v.ID),
				v.Title,
				v.Company,
				formatScore(v.Score),
				v.Tier,
				strings.Join(v.MatchingSkills, ", "),
				strings.Join(v.MissingSkills, ", "),
			)
		}
		return table.Render()
	default:
		return validateOutput(format)
	}
}

func renderStats(w io.Writer, format string, stats *listing.Stats) error {
	if stats == nil {
		stats = listing.FallbackStats()
	}

	switch format {
	case outputJSON:
		return writeJSON(w, stats)
	case outputYAML:
		return writeYAML(w, stats)
	default:
		table := tablewriter.NewWriter(w)
		table.Header("Total jobs", "Today", "Remote", "Sources", "Fallback")
		table.Append(
			strconv.Itoa(stats.TotalJobs),
			strconv.Itoa(stats.JobsToday),
			strconv.Itoa(stats.RemoteJobs),
			strconv.Itoa(len(stats.Sources)),
			strconv.FormatBool(stats.Fallback),
		)
		return table.Render()
	}
}

func renderRecords(w io.Writer, format string, records []*history.Record) error {
	switch format {
	case outputJSON:
		return writeJSON(w, records)
	case outputYAML:
		return writeYAML(w, records)
	default:
		table := tablewriter.NewWriter(w)
		table.Header("Job ID", "Title", "Company", "Status", "Score", "Auto", "Updated")
		for _, r := range records {
			table.Append(
				strconv.Itoa(r.JobID),
				r.Title,
				r.Company,
				string(r.Status),
				formatScore(r.Score),
				strconv.FormatBool(r.AutoApplied),
				r.UpdatedAt.Format("2006-01-02 15:04"),
			)
		}
		return table.Render()
	}
}

func formatScore(score *int) string {
	if score == nil {
		return "-"
	}
	return strconv.Itoa(*score) + "%"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
