package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/ai"
	"github.com/spigell/skill-navigator/internal/ai/gemini"
	"github.com/spigell/skill-navigator/internal/dashboard"
	"github.com/spigell/skill-navigator/internal/filtering"
	"github.com/spigell/skill-navigator/internal/history"
	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/logger"
	"github.com/spigell/skill-navigator/internal/scoring"
	"github.com/spigell/skill-navigator/internal/secrets"
)

// application holds the wired components shared by the commands.
type application struct {
	config  *Config
	logger  *zap.Logger
	client  *listing.Client
	history history.Store
	scorer  *scoring.Scorer
	applier *history.Applier
	loader  *dashboard.Loader

	closers []func() error
}

type appOptions struct {
	ignoreApplied bool
	query         string
}

func newLogger() *zap.Logger {
	l, err := logger.Build(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		App:   app,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func loadConfig(l *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		l.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return config
}

// newApplication builds every component needed by the dashboard and the server.
func newApplication(ctx context.Context, l *zap.Logger, config *Config, opts appOptions) *application {
	a := &application{config: config, logger: l}

	client, err := newListingClient(config.API, l)
	if err != nil {
		l.Fatal("loading api token", zap.Error(err),
			zap.String("hint", "set SKILL_NAVIGATOR_TOKEN_FILE environment variable or the 'api.token-file' key in the configuration file"),
		)
	}
	a.client = client

	store, err := a.newHistoryStore(ctx)
	if err != nil {
		l.Fatal("opening application history", zap.Error(err))
	}
	a.history = store

	scorer, err := newScorer(config)
	if err != nil {
		l.Fatal("configuring scoring", zap.Error(err))
	}
	a.scorer = scorer

	threshold := scoring.DefaultThreshold
	if config.AutoApply != nil {
		threshold = scoring.Threshold(config.AutoApply.MinScore)
	}
	if err := threshold.Validate(); err != nil {
		l.Fatal("configuring auto-apply", zap.Error(err))
	}
	a.applier = history.NewApplier(client, store, threshold, l)

	query := config.Search
	if query == nil {
		query = &listing.Query{}
	}

	pipeline := a.prepareFilters(ctx, opts)
	a.loader = dashboard.NewLoader(client, query, pipeline, scorer, dashboard.NewStore(), l)

	return a
}

func (a *application) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("closing resource", zap.Error(err))
		}
	}
}

func newListingClient(cfg *APIConfig, l *zap.Logger) (*listing.Client, error) {
	if cfg == nil {
		cfg = &APIConfig{}
	}

	token, err := secrets.LoadOptional(secrets.Source{
		Name: "api token",
		File: cfg.TokenFile,
	})
	if err != nil {
		return nil, err
	}

	client := listing.New(l, cfg.URL, token)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	if cfg.MaxPages > 0 {
		client.MaxPages = cfg.MaxPages
	}
	return client, nil
}

func (a *application) newHistoryStore(ctx context.Context) (history.Store, error) {
	cfg := a.config.History
	if cfg == nil {
		cfg = &HistoryConfig{}
	}

	if cfg.RedisURL == "" {
		a.logger.Debug("using file history", zap.String("file", cfg.File))
		return history.NewFileStore(cfg.File), nil
	}

	rdb, err := history.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rdb.Close)

	a.logger.Debug("using redis history", zap.String("key", cfg.RedisKey))
	return history.NewRedisStore(rdb, cfg.RedisKey), nil
}

func newScorer(config *Config) (*scoring.Scorer, error) {
	var (
		skills []string
		seed   uint64
		raw    string
	)
	if config.Profile != nil {
		skills = config.Profile.Skills
	}
	if config.Scoring != nil {
		seed = config.Scoring.Seed
		raw = config.Scoring.Policy
	}

	policy, err := scoring.ParsePolicy(raw)
	if err != nil {
		return nil, err
	}

	return scoring.NewScorer(scoring.NewProfile(skills), scoring.NewRand(seed), policy), nil
}

func (a *application) prepareFilters(ctx context.Context, opts appOptions) *filtering.Filtering {
	var excluded []string
	if a.config.AutoApply != nil {
		excluded = a.config.AutoApply.ExcludeCompanies
	}

	steps := []filtering.Filter{
		filtering.NewQuery(opts.query),
		filtering.NewExcludedCompanies(excluded, a.logger),
		filtering.NewAppliedHistory(
			&filtering.AppliedHistoryConfig{Ignore: opts.ignoreApplied},
			&filtering.AppliedHistoryDeps{History: a.history, Logger: a.logger},
		),
		a.prepareAIFilter(ctx),
	}

	pipeline := filtering.New(steps, a.logger)
	for _, status := range pipeline.Describe() {
		a.logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
		)
	}
	return pipeline
}

func (a *application) prepareAIFilter(ctx context.Context) filtering.Filter {
	cfg := a.config.AI
	if cfg == nil || !cfg.Enabled {
		return filtering.NewAIRelevance(&filtering.AIRelevanceConfig{Enabled: false}, nil)
	}

	model := ""
	if cfg.Gemini != nil {
		model = cfg.Gemini.Model
	}

	estimator, err := newEstimator(ctx, cfg, a.logger)
	filter := filtering.NewAIRelevance(
		&filtering.AIRelevanceConfig{Enabled: true, Model: model, MaxJobs: cfg.MaxJobs},
		&filtering.AIRelevanceDeps{Logger: a.logger, Estimator: estimator, Skills: a.scorer.Profile().Skills()},
	)
	if err != nil {
		a.logger.Warn("skipping AI relevance", zap.Error(err))
		filter.Disable(err.Error())
	}

	return filter
}

func newEstimator(ctx context.Context, cfg *AIConfig, l *zap.Logger) (ai.Estimator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, errors.New("ai.gemini section is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithCommonFields(l, "gemini", cfg.Gemini.Model).
		With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewEstimator(generator, l, cfg.Gemini.MaxLogLength), nil
}
