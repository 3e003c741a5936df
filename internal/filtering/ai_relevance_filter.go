package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/ai"
	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/logger"
)

type aiRelevanceFilter struct {
	enabled bool
	reason  string
	config  *AIRelevanceConfig
	deps    *AIRelevanceDeps
}

type AIRelevanceDeps struct {
	Logger    *zap.Logger
	Estimator ai.Estimator
	Skills    []string
}

type AIRelevanceConfig struct {
	Enabled bool
	Model   string
	// MaxJobs bounds estimator calls per run. Zero means no limit.
	MaxJobs int
}

// NewAIRelevance creates the step that asks the estimator to score jobs the
// upstream API left without a relevance score. It never drops jobs.
func NewAIRelevance(cfg *AIRelevanceConfig, deps *AIRelevanceDeps) Filter {
	if cfg == nil {
		cfg = &AIRelevanceConfig{}
	}
	return &aiRelevanceFilter{
		enabled: cfg.Enabled,
		config:  cfg,
		deps:    deps,
	}
}

func (f *aiRelevanceFilter) Name() string { return "ai_relevance" }

func (f *aiRelevanceFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *aiRelevanceFilter) IsEnabled() bool { return f.enabled }

func (f *aiRelevanceFilter) Validate() error {
	if f.deps == nil || f.deps.Estimator == nil {
		return fmt.Errorf("estimator is required when ai relevance is enabled")
	}
	if f.deps.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if f.config.MaxJobs < 0 {
		return fmt.Errorf("max jobs must not be negative")
	}
	return nil
}

func (f *aiRelevanceFilter) Apply(ctx context.Context, v *listing.Jobs) (*listing.Jobs, Step, error) {
	initial := v.Len()
	estimated, failed := 0, 0

	for i, job := range v.Items {
		if job.RelevanceScore != nil {
			continue
		}
		if f.config.MaxJobs > 0 && estimated+failed >= f.config.MaxJobs {
			f.deps.Logger.Info("ai relevance limit reached", zap.Int("max_jobs", f.config.MaxJobs))
			break
		}
		if err := ctx.Err(); err != nil {
			return v, Step{}, err
		}

		log := f.deps.Logger.With(logger.JobFields(job.ID, job.Company)...)

		assessment, err := f.deps.Estimator.Estimate(ctx, f.deps.Skills, job)
		if err != nil {
			failed++
			log.Warn("AI relevance estimation failed, job stays unscored", zap.Error(err))
			continue
		}

		score := assessment.Score
		updated := *job
		updated.RelevanceScore = &score
		v.Items[i] = &updated
		estimated++

		log.Debug("AI relevance estimated",
			zap.Float64("ai_score", score),
			zap.String("reason", assessment.Reason),
		)
	}

	f.deps.Logger.Info("AI relevance completed",
		zap.Int("estimated", estimated),
		zap.Int("failed", failed),
	)

	return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
}

func (f *aiRelevanceFilter) Status() Status {
	details := map[string]string{
		"max_jobs": strconv.Itoa(f.config.MaxJobs),
	}
	if f.config.Model != "" {
		details["model"] = f.config.Model
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
