package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Policy selects how skillMatchScore is computed.
type Policy string

const (
	// PolicyRelevance scales the upstream relevance score and falls back to a
	// random placeholder in [70,99]. It ignores the skill overlap.
	PolicyRelevance Policy = "relevance"
	// PolicyOverlap derives the score from the share of job skills the
	// candidate has.
	PolicyOverlap Policy = "overlap"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyRelevance, nil
	case PolicyRelevance, PolicyOverlap:
		return p, nil
	}
	return "", fmt.Errorf("unknown scoring policy %q", s)
}

// Partition splits jobSkills into the labels the profile has and the ones it
// lacks. Both keep the jobSkills order. Labels are compared exactly.
func Partition(jobSkills []string, profile Profile) (matching, missing []string) {
	matching = make([]string, 0, len(jobSkills))
	missing = make([]string, 0, len(jobSkills))
	for _, s := range jobSkills {
		if profile.Has(s) {
			matching = append(matching, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matching, missing
}

// RelevanceScore converts an upstream relevance in [0,1] to a percentage.
// Values outside the range are clamped. Without a relevance a placeholder in
// [70,99] is drawn from rnd.
func RelevanceScore(relevance *float64, rnd Rand) int {
	if relevance == nil || math.IsNaN(*relevance) {
		return 70 + rnd.IntN(30)
	}

	r := math.Max(0, math.Min(1, *relevance))
	return int(math.Round(r * 100))
}

// OverlapScore is round(|matching| / |jobSkills| * 100), or 0 without job skills.
func OverlapScore(matching, jobSkills []string) int {
	if len(jobSkills) == 0 {
		return 0
	}
	return int(math.Round(float64(len(matching)) / float64(len(jobSkills)) * 100))
}
