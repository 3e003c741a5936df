package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/history"
	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/logger"
	"github.com/spigell/skill-navigator/internal/scoring"
)

const (
	PromptAutoApply       = "Auto-apply to candidates"
	PromptManualApply     = "Apply in manual mode"
	PromptReportByCompany = "Report by companies"
	PromptJobsToFile      = "Dump jobs to file"
	PromptExit            = "Exit"
	PromptBack            = "back"
)

var errExit = errors.New("exit requested")

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"run"},
	Short:   "Load jobs, score them against your skills and act on the best matches",
	Run: func(cmd *cobra.Command, _ []string) {
		runDashboard(cmd)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().BoolP("do-not-exclude-applied", "f", false, "do not exclude jobs already in the application history")
	dashboardCmd.Flags().BoolP("auto-approve", "y", false, "auto-apply to every candidate without asking")
	dashboardCmd.Flags().StringP("output", "o", outputTable, "output format: table, json or yaml")
	dashboardCmd.Flags().StringP("query", "q", "", "case-insensitive search over title, company and description")
}

func runDashboard(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := newLogger()
	config := loadConfig(logger)

	output, _ := cmd.Flags().GetString("output")
	if err := validateOutput(output); err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}
	ignoreApplied, _ := cmd.Flags().GetBool("do-not-exclude-applied")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	query, _ := cmd.Flags().GetString("query")

	logger.Info("starting the skill-navigator", zap.String("version", version))

	a := newApplication(ctx, logger, config, appOptions{ignoreApplied: ignoreApplied, query: query})
	defer a.Close()

	state := a.loader.Refresh(ctx)
	if state.Err != nil {
		logger.Error("loading jobs", zap.Error(state.Err))
	}
	if state.Stats != nil && state.Stats.Fallback {
		logger.Warn("stats are unavailable, showing fallback values")
	}

	jobs := a.loader.Store().Visible()
	if len(jobs) == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs to show"))
		return
	}

	if err := renderJobs(os.Stdout, output, jobs); err != nil {
		logger.Fatal("rendering jobs", zap.Error(err))
	}

	candidates := a.applier.Candidates(jobs)
	logger.Info("auto-apply candidates",
		zap.Int("count", len(candidates)),
		zap.Int("threshold", int(a.applier.Threshold())),
	)

	if autoApprove {
		if err := autoApply(ctx, a, candidates); err != nil {
			logger.Fatal("auto-apply failed", zap.Error(err))
		}
		return
	}

	menu := promptui.Select{
		Label: "Proceed?",
		Items: []string{PromptAutoApply, PromptManualApply, PromptReportByCompany, PromptJobsToFile, PromptExit},
	}

	for {
		_, action, err := menu.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, a, jobs); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		jobs = a.loader.Store().Visible()
	}
}

func handleAction(ctx context.Context, action string, a *application, jobs []*scoring.ScoredJob) error {
	switch action {
	case PromptAutoApply:
		return autoApply(ctx, a, a.applier.Candidates(jobs))
	case PromptManualApply:
		return manualApply(ctx, a, jobs)
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(asListing(jobs).ReportByCompany(), "", "  ")
		a.logger.Info(string(pretty), zap.Int("jobs count", len(jobs)))
		return nil
	case PromptJobsToFile:
		filename, err := asListing(jobs).DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		a.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		a.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func autoApply(ctx context.Context, a *application, candidates []*scoring.ScoredJob) error {
	if len(candidates) == 0 {
		a.logger.Info("nothing to auto-apply", zap.Int("threshold", int(a.applier.Threshold())))
		return nil
	}

	records, err := a.applier.ApplyAll(ctx, candidates)
	a.logger.Info("auto-applied to jobs", zap.Int("count", len(records)))
	return err
}

// manualApply lets the user pick jobs one by one. Candidates are applied
// upstream. Other jobs are only tracked as pending.
func manualApply(ctx context.Context, a *application, jobs []*scoring.ScoredJob) error {
	remaining := jobs
	for {
		items := make([]string, 0, len(remaining)+1)
		for _, job := range remaining {
			items = append(items, fmt.Sprintf("%d %s / %s / %s / %s",
				job.ID, job.Title, job.Company, formatScore(job.SkillMatchScore), job.Link(),
			))
		}

		jobPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		id, err := strconv.Atoi(strings.Split(selected, " ")[0])
		if err != nil {
			return fmt.Errorf("parsing job id from %q: %w", selected, err)
		}

		job := a.loader.Store().Find(id)
		if job == nil {
			return fmt.Errorf("there is no such job id %d", id)
		}

		if err := applyOne(ctx, a, job); err != nil {
			return err
		}

		remaining = withoutJob(remaining, id)
	}
}

func applyOne(ctx context.Context, a *application, job *scoring.ScoredJob) error {
	log := a.logger.With(logger.JobFields(job.ID, job.Company)...)

	if a.applier.Threshold().Allows(job.SkillMatchScore) {
		_, err := a.applier.Apply(ctx, job)
		if errors.Is(err, history.ErrAlreadyApplied) {
			log.Info("already applied")
			return nil
		}
		return err
	}

	rec, err := history.Track(ctx, a.history, job.Job, job.SkillMatchScore)
	if err != nil {
		return err
	}

	log.Info("below auto-apply threshold, tracked as pending",
		zap.String("status", string(rec.Status)),
		zap.String("hint", "apply on the job site and update the status with the status command"),
	)
	return nil
}

func asListing(jobs []*scoring.ScoredJob) *listing.Jobs {
	items := make([]*listing.Job, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, job.Job)
	}
	return &listing.Jobs{Items: items}
}

func withoutJob(jobs []*scoring.ScoredJob, id int) []*scoring.ScoredJob {
	out := make([]*scoring.ScoredJob, 0, len(jobs))
	for _, job := range jobs {
		if job.ID != id {
			out = append(out, job)
		}
	}
	return out
}
