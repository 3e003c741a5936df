package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single job title against your skills without calling the API",
	Run: func(cmd *cobra.Command, _ []string) {
		runScore(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("title", "t", "", "job title")
	scoreCmd.Flags().String("description", "", "job description")
	scoreCmd.Flags().String("company", "", "company name")
	scoreCmd.Flags().StringSlice("skills", nil, "candidate skills (default is profile.skills from the config)")
	scoreCmd.Flags().Float64("relevance", -1, "upstream relevance score in [0, 1]; negative means absent")
	scoreCmd.Flags().Uint64("seed", 0, "seed for skill augmentation and placeholder scores (default is scoring.seed)")
	scoreCmd.Flags().String("policy", "", "scoring policy: relevance or overlap (default is scoring.policy)")
	scoreCmd.Flags().StringP("output", "o", outputTable, "output format: table, json or yaml")

	scoreCmd.MarkFlagRequired("title")
}

func runScore(cmd *cobra.Command) {
	logger := newLogger()
	config := loadConfig(logger)

	flags := cmd.Flags()
	output, _ := flags.GetString("output")
	if err := validateOutput(output); err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}

	if config.Profile == nil {
		config.Profile = &ProfileConfig{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{}
	}
	if flags.Changed("skills") {
		config.Profile.Skills, _ = flags.GetStringSlice("skills")
	}
	if flags.Changed("seed") {
		config.Scoring.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("policy") {
		config.Scoring.Policy, _ = flags.GetString("policy")
	}

	scorer, err := newScorer(config)
	if err != nil {
		logger.Fatal("configuring scoring", zap.Error(err))
	}

	job := &listing.Job{}
	job.Title, _ = flags.GetString("title")
	job.Description, _ = flags.GetString("description")
	job.Company, _ = flags.GetString("company")
	if strings.TrimSpace(job.Title) == "" {
		logger.Fatal("title is required")
	}
	if relevance, _ := flags.GetFloat64("relevance"); relevance >= 0 {
		job.RelevanceScore = &relevance
	}

	scored := scorer.Annotate(job)
	logger.Debug("scored job",
		zap.String("tier", string(scored.Tier)),
		zap.Strings("profile", scorer.Profile().Skills()),
	)

	if err := renderJobs(os.Stdout, output, []*scoring.ScoredJob{scored}); err != nil {
		logger.Fatal("rendering job", zap.Error(err))
	}
}
