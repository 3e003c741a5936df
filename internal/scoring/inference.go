package scoring

import (
	"strings"
)

// Rand is the randomness source used for augmentation and placeholder scores.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Categorize returns the category of a job title and its base skill set.
func Categorize(title string) (Category, []string) {
	lower := strings.ToLower(title)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.name, c.base
			}
		}
	}
	return CategoryDefault, defaultSkills
}

// InferSkills picks up to MaxJobSkills tags for a job: the base set of the
// title's category plus 2-4 tags sampled from the rest of the vocabulary.
// The description is accepted but does not influence the result.
func InferSkills(title, _ string, rnd Rand) []string {
	_, base := Categorize(title)

	skills := make([]string, 0, MaxJobSkills)
	selected := make(map[string]struct{}, MaxJobSkills)
	for _, s := range base {
		if _, ok := selected[s]; ok {
			continue
		}
		selected[s] = struct{}{}
		skills = append(skills, s)
	}

	pool := make([]string, 0, len(vocabulary))
	for _, s := range vocabulary {
		if _, ok := selected[s]; !ok {
			pool = append(pool, s)
		}
	}

	n := 2 + rnd.IntN(3)
	n = min(n, MaxJobSkills-len(skills), len(pool))

	// Partial Fisher-Yates over the pool.
	for i := 0; i < n; i++ {
		j := i + rnd.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		skills = append(skills, pool[i])
	}

	return skills
}
