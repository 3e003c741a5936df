package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP and refresh it on a schedule",
	Run: func(cmd *cobra.Command, _ []string) {
		runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default is server.addr)")
	serveCmd.Flags().String("refresh", "", "cron spec for background refresh (default is server.refresh)")
	serveCmd.Flags().BoolP("do-not-exclude-applied", "f", false, "do not exclude jobs already in the application history")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.refresh", serveCmd.Flags().Lookup("refresh"))
}

func runServe(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	config := loadConfig(logger)

	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	ignoreApplied, _ := cmd.Flags().GetBool("do-not-exclude-applied")

	logger.Info("starting the skill-navigator server",
		zap.String("version", version),
		zap.String("addr", config.Server.Addr),
		zap.String("refresh", config.Server.Refresh),
	)

	a := newApplication(ctx, logger, config, appOptions{ignoreApplied: ignoreApplied})
	defer a.Close()

	scheduler := server.NewScheduler(a.loader, config.Server.Refresh, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("starting the scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	srv := server.New(a.loader, a.applier, a.history, logger)
	if err := srv.Run(ctx, config.Server.Addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
