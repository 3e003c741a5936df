package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/ai"
	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/logger"
	"github.com/spigell/skill-navigator/internal/utils"
)

const (
	providerName        = "gemini"
	defaultMaxLogLength = 200
)

//go:embed prompt.md
var systemPrompt string

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Estimator asks Gemini for a relevance score of a job against the candidate's skills.
type Estimator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewEstimator(generator contentGenerator, log *zap.Logger, maxLogLength int) *Estimator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Estimator{
		generator: generator,
		logger:    logger.WithCommonFields(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

type jobPayload struct {
	Title           string `json:"title"`
	Company         string `json:"company,omitempty"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
	Requirements    string `json:"requirements,omitempty"`
	JobType         string `json:"job_type,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
	Remote          bool   `json:"remote_allowed,omitempty"`
}

type estimatePayload struct {
	CandidateSkills []string   `json:"candidate_skills"`
	Job             jobPayload `json:"job"`
}

func (e *Estimator) Estimate(ctx context.Context, skills []string, job *listing.Job) (*ai.Assessment, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if skills == nil {
		skills = []string{}
	}

	message, err := json.MarshalIndent(estimatePayload{
		CandidateSkills: skills,
		Job: jobPayload{
			Title:           job.Title,
			Company:         job.Company,
			Location:        job.Location,
			Description:     job.Description,
			Requirements:    job.Requirements,
			JobType:         job.JobType,
			ExperienceLevel: job.ExperienceLevel,
			Remote:          job.RemoteAllowed,
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	log := e.logger.With(logger.JobFields(job.ID, job.Company)...)
	log.Debug("gemini estimate request",
		zap.Int("message_length", utf8.RuneCount(message)),
		zap.String("message_preview", utils.TruncateForLog(string(message), e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, systemPrompt, string(message))
	if err != nil {
		return nil, err
	}

	log.Debug("gemini estimate response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

func parseResponse(raw string) (*ai.Assessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("parse gemini response: missing score")
	}

	return &ai.Assessment{
		Score:  normalizeScore(score),
		Reason: coerceString(data["reason"]),
	}, nil
}

// normalizeScore accepts either a fraction or a percentage and clamps to [0,1].
func normalizeScore(score float64) float64 {
	if score > 1 && score <= 100 {
		score /= 100
	}
	return math.Max(0, math.Min(1, score))
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start > 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(val), "%"), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
