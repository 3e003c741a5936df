package scoring

// Category is the role bucket a job title is classified into.
type Category string

const (
	CategoryFrontend  Category = "frontend"
	CategoryBackend   Category = "backend"
	CategoryFullStack Category = "full-stack"
	CategoryData      Category = "data"
	CategoryDevOps    Category = "devops"
	CategoryMobile    Category = "mobile"
	CategoryDefault   Category = "default"
)

// MaxJobSkills caps the inferred skill list of a single job.
const MaxJobSkills = 8

type category struct {
	name     Category
	keywords []string
	base     []string
}

// categories are checked in order; the first keyword hit wins.
var categories = []category{
	{
		name:     CategoryFrontend,
		keywords: []string{"frontend", "front-end", "front end"},
		base:     []string{"React", "JavaScript", "HTML", "CSS", "TypeScript", "Git"},
	},
	{
		name:     CategoryBackend,
		keywords: []string{"backend", "back-end", "back end", "server-side"},
		base:     []string{"Python", "Node.js", "SQL", "REST API", "Docker", "Git"},
	},
	{
		name:     CategoryFullStack,
		keywords: []string{"full stack", "full-stack", "fullstack"},
		base:     []string{"React", "Node.js", "JavaScript", "SQL", "Git", "REST API"},
	},
	{
		name:     CategoryData,
		keywords: []string{"data", "machine learning", "ml engineer", "analyst", "scientist"},
		base:     []string{"Python", "SQL", "Pandas", "Machine Learning", "Statistics", "Git"},
	},
	{
		name:     CategoryDevOps,
		keywords: []string{"devops", "sre", "site reliability", "infrastructure", "platform engineer", "cloud"},
		base:     []string{"Docker", "Kubernetes", "AWS", "CI/CD", "Linux", "Terraform"},
	},
	{
		name:     CategoryMobile,
		keywords: []string{"mobile", "ios", "android", "react native", "flutter"},
		base:     []string{"React Native", "Swift", "Kotlin", "JavaScript", "Git", "REST API"},
	},
}

var defaultSkills = []string{"Communication", "Problem Solving", "Git", "Agile"}

// vocabulary is the controlled set of skill tags a job can be tagged with.
// Order matters: augmentation samples from it deterministically for a given
// random source.
var vocabulary = buildVocabulary([]string{
	"Go", "Java", "C#", "C++", "Rust", "PHP", "Ruby",
	"Vue", "Angular", "Tailwind", "GraphQL", "Jest", "Figma",
	"Django", "Flask", "FastAPI", "Express.js",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka",
	"Azure", "GCP", "Jenkins", "Ansible",
	"Spark", "TensorFlow", "PyTorch", "Tableau",
	"Flutter", "Firebase",
})

func buildVocabulary(extra []string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(skills []string) {
		for _, s := range skills {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}

	for _, c := range categories {
		add(c.base)
	}
	add(defaultSkills)
	add(extra)

	return out
}

// Vocabulary returns a copy of the controlled skill vocabulary.
func Vocabulary() []string {
	return append([]string(nil), vocabulary...)
}
