package scoring

import (
	"errors"
	"fmt"
)

const (
	DefaultThreshold Threshold = 80
	MinThreshold     Threshold = 50
	MaxThreshold     Threshold = 95
	ThresholdStep    Threshold = 5
)

var ErrInvalidThreshold = errors.New("invalid auto-apply threshold")

// Threshold is the minimum score for auto-apply.
type Threshold int

func (t Threshold) Validate() error {
	if t < MinThreshold || t > MaxThreshold || t%ThresholdStep != 0 {
		return fmt.Errorf("%w: %d (want %d-%d in steps of %d)", ErrInvalidThreshold, t, MinThreshold, MaxThreshold, ThresholdStep)
	}
	return nil
}

// Allows reports whether a score qualifies. A nil score never does.
func (t Threshold) Allows(score *int) bool {
	return score != nil && *score >= int(t)
}
