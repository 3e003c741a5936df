package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	JobsPath = "/api/jobs/"
)

// Status is the tracked application status of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffered   Status = "offered"
	StatusRejected  Status = "rejected"
)

// ParseStatus converts a raw string to a Status, returning an error for unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusApplied, StatusInterview, StatusOffered, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Query narrows the listing request. Zero values are not sent.
type Query struct {
	Limit           int      `param:"limit" mapstructure:"limit"`
	Source          string   `param:"source" mapstructure:"source"`
	MinScore        *float64 `param:"min_score" mapstructure:"min-score"`
	JobType         string   `param:"job_type" mapstructure:"job-type"`
	ExperienceLevel string   `param:"experience_level" mapstructure:"experience-level"`
}

type Jobs struct {
	Items []*Job
}

type Job struct {
	ID              int        `json:"id"`
	ExternalID      string     `json:"external_id,omitempty"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Location        string     `json:"location,omitempty"`
	Description     string     `json:"description,omitempty"`
	Requirements    string     `json:"requirements,omitempty"`
	SalaryMin       *float64   `json:"salary_min,omitempty"`
	SalaryMax       *float64   `json:"salary_max,omitempty"`
	JobType         string     `json:"job_type,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty"`
	RemoteAllowed   bool       `json:"remote_allowed,omitempty"`
	ApplicationURL  string     `json:"application_url,omitempty"`
	ApplyURL        string     `json:"apply_url,omitempty"`
	PostedDate      *time.Time `json:"posted_date,omitempty"`
	ScrapedAt       *time.Time `json:"scraped_at,omitempty"`
	Source          string     `json:"source,omitempty"`
	RelevanceScore  *float64   `json:"relevance_score,omitempty"`
	Status          Status     `json:"status,omitempty"`
}

// Jobs returns postings from all pages of the listing endpoint.
func (c *Client) Jobs(ctx context.Context, query *Query) (*Jobs, error) {
	if query == nil {
		query = &Query{}
	}

	items, err := c.getItems(ctx, c.APIURL+JobsPath, buildParams(query), query.Limit)
	if err != nil {
		return nil, err
	}

	return &Jobs{Items: c.decodeJobs(items)}, nil
}

// decodeJobs decodes items one by one. Unparseable time fields are left unset
// and an item that still fails to decode is skipped alone.
func (c *Client) decodeJobs(items []Item) []*Job {
	jobs := make([]*Job, 0, len(items))
	for i, item := range items {
		job, err := decodeJob(c.dropBadTimes(item))
		if err != nil {
			c.logger.Warn("skipping malformed job",
				zap.Int("index", i),
				zap.Any("id", item["id"]),
				zap.Error(err),
			)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func decodeJob(item Item) (*Job, error) {
	var job Job

	cfg := &mapstructure.DecoderConfig{
		DecodeHook:       timeHook,
		WeaklyTypedInput: true,
		Result:           &job,
		TagName:          "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(item); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}

	return &job, nil
}

var timeFields = []string{"posted_date", "scraped_at"}

// dropBadTimes returns item without time fields that parseTime rejects.
// The input map is not modified.
func (c *Client) dropBadTimes(item Item) Item {
	var out Item
	for _, key := range timeFields {
		raw, ok := item[key]
		if !ok || raw == nil {
			continue
		}
		if s, isString := raw.(string); isString {
			if _, err := parseTime(s); err == nil {
				continue
			}
		}

		c.logger.Debug("ignoring unparseable time",
			zap.Any("id", item["id"]),
			zap.String("field", key),
			zap.Any("value", raw),
		)
		if out == nil {
			out = maps.Clone(item)
		}
		delete(out, key)
	}

	if out == nil {
		return item
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", raw)
}

func timeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) || from.Kind() != reflect.String {
		return data, nil
	}
	return parseTime(data.(string))
}

func buildParams(query *Query) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*query))
	value := reflect.ValueOf(query).Elem()

	for _, field := range fields {
		key := field.Tag.Get("param")
		if key == "" || key == "limit" {
			continue
		}

		v := value.FieldByIndex(field.Index)
		switch v.Kind() {
		case reflect.Pointer:
			if v.IsNil() {
				continue
			}
			q.Set(key, fmt.Sprintf("%v", v.Elem().Interface()))
		case reflect.String:
			if s := strings.TrimSpace(v.String()); s != "" {
				q.Set(key, s)
			}
		case reflect.Int:
			if v.Int() != 0 {
				q.Set(key, strconv.FormatInt(v.Int(), 10))
			}
		}
	}

	return q
}

// Link returns the application link, preferring application_url over apply_url.
func (j *Job) Link() string {
	if j.ApplicationURL != "" {
		return j.ApplicationURL
	}
	return j.ApplyURL
}

// MatchesQuery reports whether the title, company, location or description contains q, ignoring case.
// An empty query matches everything.
func (j *Job) MatchesQuery(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}

	for _, field := range []string{j.Title, j.Company, j.Location, j.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}

	return false
}

func (v *Jobs) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

// Clone returns a new list sharing the job pointers. A nil list clones to an empty one.
func (v *Jobs) Clone() *Jobs {
	if v == nil {
		return &Jobs{}
	}
	return &Jobs{Items: slices.Clone(v.Items)}
}

func (v *Jobs) FindByID(id int) *Job {
	if v == nil {
		return nil
	}
	for _, job := range v.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

// Filter keeps jobs for which keep returns true, preserving fetch order, and returns the dropped ids.
func (v *Jobs) Filter(keep func(*Job) bool) []int {
	var dropped []int
	kept := v.Items[:0]
	for _, job := range v.Items {
		if keep(job) {
			kept = append(kept, job)
			continue
		}
		dropped = append(dropped, job.ID)
	}

	// clear the tail so dropped jobs can be collected
	for i := len(kept); i < len(v.Items); i++ {
		v.Items[i] = nil
	}
	v.Items = kept

	return dropped
}

// ExcludeIDs drops jobs with the given ids.
func (v *Jobs) ExcludeIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}

	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return v.Filter(func(j *Job) bool {
		_, found := set[j.ID]
		return !found
	})
}

// ExcludeCompanies drops jobs posted by any of the given companies, compared case-insensitively.
func (v *Jobs) ExcludeCompanies(companies []string) []int {
	set := make(map[string]struct{}, len(companies))
	for _, c := range companies {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			set[c] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}

	return v.Filter(func(j *Job) bool {
		_, found := set[strings.ToLower(strings.TrimSpace(j.Company))]
		return !found
	})
}

// ReportByCompany groups brief job summaries by company.
func (v *Jobs) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range v.Items {
		key := job.Company
		if key == "" {
			key = "unknown"
		}

		entry := map[string]string{
			"id":       strconv.Itoa(job.ID),
			"title":    job.Title,
			"location": job.Location,
			"url":      job.Link(),
			"source":   job.Source,
		}
		if job.RelevanceScore != nil {
			entry["relevance_score"] = strconv.FormatFloat(*job.RelevanceScore, 'f', 2, 64)
		}
		if job.Status != "" {
			entry["status"] = string(job.Status)
		}

		report[key] = append(report[key], entry)
	}
	return report
}

func (v *Jobs) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
