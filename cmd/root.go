package cmd

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/scoring"
	"github.com/spigell/skill-navigator/internal/server"
)

const (
	app = "skill-navigator"
)

type Config struct {
	API       *APIConfig       `mapstructure:"api"`
	Search    *listing.Query   `mapstructure:"search"`
	Profile   *ProfileConfig   `mapstructure:"profile"`
	Scoring   *ScoringConfig   `mapstructure:"scoring"`
	AutoApply *AutoApplyConfig `mapstructure:"auto-apply"`
	History   *HistoryConfig   `mapstructure:"history"`
	AI        *AIConfig        `mapstructure:"ai"`
	Server    *ServerConfig    `mapstructure:"server"`
}

type APIConfig struct {
	URL       string `mapstructure:"url"`
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
	MaxPages  int    `mapstructure:"max-pages"`
}

type ProfileConfig struct {
	Skills []string `mapstructure:"skills"`
}

type ScoringConfig struct {
	// Seed makes skill augmentation and placeholder scores reproducible. Zero picks a random seed.
	Seed   uint64 `mapstructure:"seed"`
	Policy string `mapstructure:"policy"`
}

type AutoApplyConfig struct {
	MinScore         int      `mapstructure:"min-score"`
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
}

type HistoryConfig struct {
	File     string `mapstructure:"file"`
	RedisURL string `mapstructure:"redis-url"`
	RedisKey string `mapstructure:"redis-key"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	MaxJobs  int           `mapstructure:"max-jobs"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	Refresh string `mapstructure:"refresh"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skill-navigator scores job postings against your skills and tracks your applications",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional
	_ = godotenv.Load()

	for key, env := range map[string]string{
		"api.url":                "SKILL_NAVIGATOR_API_URL",
		"api.token-file":         "SKILL_NAVIGATOR_TOKEN_FILE",
		"history.redis-url":      "SKILL_NAVIGATOR_REDIS_URL",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("api.url", "http://localhost:8000")
	viper.SetDefault("search.limit", 100)
	viper.SetDefault("scoring.policy", string(scoring.PolicyRelevance))
	viper.SetDefault("auto-apply.min-score", int(scoring.DefaultThreshold))
	viper.SetDefault("history.file", app+"-history.json")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.refresh", server.DefaultRefreshSpec)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is skill-navigator.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Missing default config is fine: defaults and env cover offline commands.
	// A broken or explicitly requested file is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
