package scoring

// Tier is the presentation bucket of a score.
type Tier string

const (
	TierExcellent Tier = "Excellent Match"
	TierGood      Tier = "Good Match"
	TierPoor      Tier = "Poor Match"
	TierPending   Tier = "Pending"
)

// Classify maps a score to its tier. A nil score is Pending.
func Classify(score *int) Tier {
	switch {
	case score == nil:
		return TierPending
	case *score >= 80:
		return TierExcellent
	case *score >= 60:
		return TierGood
	default:
		return TierPoor
	}
}

// Class is the visual class of the tier: A, B, C, or empty for Pending.
func (t Tier) Class() string {
	switch t {
	case TierExcellent:
		return "A"
	case TierGood:
		return "B"
	case TierPoor:
		return "C"
	}
	return ""
}
