// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trial-agent CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/secrets"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the trial-agent CLI.
var rootCmd = &cobra.Command{
	Use:   "trial-agent",
	Short: "Claude-driven clinical trial matching for patients",
	Long: `trial-agent matches patients to clinical trials. A Claude model drives the
workflow through tool use; the CLI handles trial search, eligibility
checking, ranking, and detail lookup against ClinicalTrials.gov.

Run a search with patient criteria on the command line or from a YAML
file, or start the local HTTP server with serve.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env before .secrets/ so the file can point at a secrets dir.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trial-agent.yaml or ~/.config/trial-agent/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trial-agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trial-agent"))
		}
	}

	defaults := types.DefaultConfig()
	viper.SetDefault("search.timeout", defaults.Search.Timeout)
	viper.SetDefault("search.user_agent", defaults.Search.UserAgent)
	viper.SetDefault("search.max_retries", defaults.Search.MaxRetries)
	viper.SetDefault("search.page_size", defaults.Search.PageSize)
	viper.SetDefault("search.status", defaults.Search.Status)
	viper.SetDefault("llm.model", defaults.LLM.Model)
	viper.SetDefault("llm.max_tokens", defaults.LLM.MaxTokens)
	viper.SetDefault("llm.max_retries", defaults.LLM.MaxRetries)
	viper.SetDefault("llm.base_url", defaults.LLM.BaseURL)
	viper.SetDefault("ranking.proximity", defaults.Ranking.Proximity)
	viper.SetDefault("ranking.phase", defaults.Ranking.Phase)
	viper.SetDefault("ranking.status", defaults.Ranking.Status)
	viper.SetDefault("agent.step_budget", defaults.Agent.StepBudget)
	viper.SetDefault("agent.log_dir", defaults.Agent.LogDir)
	viper.SetDefault("agent.console_log", defaults.Agent.ConsoleLog)

	viper.SetEnvPrefix("TRIAL_AGENT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the effective configuration from defaults, config
// file, environment, and loaded secrets.
func loadConfig() types.Config {
	cfg := types.DefaultConfig()

	cfg.Search.Timeout = viper.GetDuration("search.timeout")
	cfg.Search.UserAgent = viper.GetString("search.user_agent")
	cfg.Search.MaxRetries = viper.GetInt("search.max_retries")
	cfg.Search.PageSize = viper.GetInt("search.page_size")
	cfg.Search.Status = viper.GetString("search.status")

	cfg.LLM.Model = viper.GetString("llm.model")
	cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	cfg.LLM.MaxRetries = viper.GetInt("llm.max_retries")
	cfg.LLM.BaseURL = viper.GetString("llm.base_url")
	cfg.LLM.APIKey = secrets.Get(loadedSecrets, secrets.AnthropicAPIKey, "ANTHROPIC_API_KEY")

	cfg.Ranking.Proximity = viper.GetFloat64("ranking.proximity")
	cfg.Ranking.Phase = viper.GetFloat64("ranking.phase")
	cfg.Ranking.Status = viper.GetFloat64("ranking.status")

	cfg.Agent.StepBudget = viper.GetInt("agent.step_budget")
	cfg.Agent.LogDir = viper.GetString("agent.log_dir")
	cfg.Agent.ConsoleLog = viper.GetBool("agent.console_log")

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
