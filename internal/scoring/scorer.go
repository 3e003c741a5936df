package scoring

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/spigell/skill-navigator/internal/listing"
)

// Profile is the candidate's ordered, de-duplicated skill set.
type Profile struct {
	skills []string
	set    map[string]struct{}
}

func NewProfile(skills []string) Profile {
	p := Profile{set: make(map[string]struct{}, len(skills))}
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := p.set[s]; ok {
			continue
		}
		p.set[s] = struct{}{}
		p.skills = append(p.skills, s)
	}
	return p
}

func (p Profile) Has(skill string) bool {
	_, ok := p.set[skill]
	return ok
}

func (p Profile) Skills() []string {
	return append([]string(nil), p.skills...)
}

// Result is the derived match data of one job.
type Result struct {
	SkillMatchScore *int     `json:"skillMatchScore,omitempty"`
	JobSkills       []string `json:"jobSkills,omitempty"`
	MatchingSkills  []string `json:"matchingSkills,omitempty"`
	MissingSkills   []string `json:"missingSkills,omitempty"`
}

// ScoredJob is a job annotated with its match result and tier.
type ScoredJob struct {
	*listing.Job
	Result
	Tier Tier `json:"tier"`
}

func (s *ScoredJob) score() *int {
	if s == nil {
		return nil
	}
	return s.SkillMatchScore
}

// NewRand returns a PCG source. A zero seed picks a random one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Scorer annotates jobs against a fixed profile. It is safe for concurrent use.
type Scorer struct {
	profile Profile
	policy  Policy

	mu  sync.Mutex
	rnd Rand
}

func NewScorer(profile Profile, rnd Rand, policy Policy) *Scorer {
	if rnd == nil {
		rnd = NewRand(0)
	}
	if policy == "" {
		policy = PolicyRelevance
	}
	return &Scorer{profile: profile, rnd: rnd, policy: policy}
}

func (s *Scorer) Profile() Profile {
	return s.profile
}

func (s *Scorer) Annotate(job *listing.Job) *ScoredJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.annotate(job)
}

// AnnotateAll scores every job into a new slice. Inputs are not modified.
func (s *Scorer) AnnotateAll(jobs []*listing.Job) []*ScoredJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ScoredJob, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		out = append(out, s.annotate(job))
	}
	return out
}

func (s *Scorer) annotate(job *listing.Job) *ScoredJob {
	jobSkills := InferSkills(job.Title, job.Description, s.rnd)
	matching, missing := Partition(jobSkills, s.profile)

	var score int
	switch s.policy {
	case PolicyOverlap:
		score = OverlapScore(matching, jobSkills)
	default:
		score = RelevanceScore(job.RelevanceScore, s.rnd)
	}

	return &ScoredJob{
		Job: job,
		Result: Result{
			SkillMatchScore: &score,
			JobSkills:       jobSkills,
			MatchingSkills:  matching,
			MissingSkills:   missing,
		},
		Tier: Classify(&score),
	}
}
