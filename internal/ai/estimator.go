package ai

import (
	"context"

	"github.com/spigell/skill-navigator/internal/listing"
)

// Assessment is a model's opinion on how well a job fits a skill set.
type Assessment struct {
	// Score is in [0,1], the same scale as the upstream relevance score.
	Score  float64
	Reason string
	Raw    string
}

// Estimator produces a relevance score for jobs the upstream API left unscored.
type Estimator interface {
	Estimate(ctx context.Context, skills []string, job *listing.Job) (*Assessment, error)
}
