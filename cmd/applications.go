package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/history"
	"github.com/spigell/skill-navigator/internal/listing"
)

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"apps"},
	Short:   "List tracked applications",
	Run: func(cmd *cobra.Command, _ []string) {
		runApplications(cmd)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id> <status>",
	Short: "Move a tracked application to another status",
	Long: `Move a tracked application to another status.

Allowed moves: pending -> applied -> interview -> offered, and any
non-terminal status -> rejected. offered and rejected are terminal.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runStatus(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(applicationsCmd)
	rootCmd.AddCommand(statusCmd)

	applicationsCmd.Flags().StringP("output", "o", outputTable, "output format: table, json or yaml")
	statusCmd.Flags().StringP("notes", "n", "", "replace the notes of the application")
}

// openHistory opens only the history store, so these commands work without the listing API.
func openHistory(ctx context.Context, l *zap.Logger) *application {
	a := &application{config: loadConfig(l), logger: l}

	store, err := a.newHistoryStore(ctx)
	if err != nil {
		l.Fatal("opening application history", zap.Error(err))
	}
	a.history = store

	return a
}

func runApplications(cmd *cobra.Command) {
	ctx := context.Background()
	logger := newLogger()

	output, _ := cmd.Flags().GetString("output")
	if err := validateOutput(output); err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}

	a := openHistory(ctx, logger)
	defer a.Close()

	records, err := a.history.List(ctx)
	if err != nil {
		logger.Fatal("listing applications", zap.Error(err))
	}

	if err := renderRecords(os.Stdout, output, records); err != nil {
		logger.Fatal("rendering applications", zap.Error(err))
	}
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	logger := newLogger()

	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		logger.Fatal("job id must be a positive integer", zap.String("job_id", args[0]))
	}

	status, err := listing.ParseStatus(args[1])
	if err != nil {
		logger.Fatal("parsing status", zap.Error(err))
	}

	notes, _ := cmd.Flags().GetString("notes")

	a := openHistory(ctx, logger)
	defer a.Close()

	rec, err := history.Transition(ctx, a.history, id, status, notes)
	if err != nil {
		logger.Fatal("updating application status", zap.Error(err))
	}

	logger.Info("application status updated",
		zap.Int("job_id", rec.JobID),
		zap.String("status", string(rec.Status)),
	)
}
