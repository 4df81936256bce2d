package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/enquete/internal/llm"
	"github.com/ppiankov/enquete/internal/model"
)

var nowFunc = time.Now

// lookupEnv is swapped in tests
var lookupEnv = os.LookupEnv

// loadConfig layers viper values (flags, ENQUETE_* env, config file) over the defaults
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	str := func(key string, dst *string) {
		if v := viper.GetString(key); viper.IsSet(key) && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	boolean := func(key string, dst *bool) {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}
	duration := func(key string, dst *time.Duration) {
		if viper.IsSet(key) {
			*dst = viper.GetDuration(key)
		}
	}

	str("llm.provider", &cfg.LLM.Provider)
	str("llm.model", &cfg.LLM.Model)
	str("llm.api_key", &cfg.LLM.APIKey)
	str("llm.base_url", &cfg.LLM.BaseURL)
	integer("llm.timeout", &cfg.LLM.Timeout)
	integer("llm.max_tokens", &cfg.LLM.MaxTokens)
	if viper.IsSet("llm.temperature") {
		cfg.LLM.Temperature = float32(viper.GetFloat64("llm.temperature"))
	}
	str("llm.http_proxy", &cfg.LLM.HTTPProxy)
	str("llm.https_proxy", &cfg.LLM.HTTPSProxy)
	str("llm.no_proxy", &cfg.LLM.NoProxy)

	integer("retry.max_retries", &cfg.Retry.MaxRetries)
	duration("retry.base_delay", &cfg.Retry.BaseDelay)

	boolean("rate_limit.enabled", &cfg.RateLimit.Enabled)
	if viper.IsSet("rate_limit.requests_per_second") {
		cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("rate_limit.requests_per_second")
	}
	integer("rate_limit.burst_size", &cfg.RateLimit.BurstSize)

	boolean("cache.enabled", &cfg.Cache.Enabled)
	duration("cache.memory_ttl", &cfg.Cache.MemoryTTL)
	str("cache.disk_dir", &cfg.Cache.DiskDir)
	duration("cache.disk_ttl", &cfg.Cache.DiskTTL)

	str("store.driver", &cfg.Store.Driver)
	str("store.data_dir", &cfg.Store.DataDir)

	integer("concurrency.workers", &cfg.Concurrency.Workers)

	boolean("output.verbose", &cfg.Output.Verbose)
	boolean("output.color", &cfg.Output.Color)

	if noCache {
		cfg.Cache.Enabled = false
	}

	cfg.LLM.Provider = llm.CanonicalProvider(cfg.LLM.Provider)

	// A Gemini model name means nothing to the other providers
	if cfg.LLM.Provider != "gemini" && !viper.IsSet("llm.model") {
		cfg.LLM.Model = ""
	}

	// The credential is resolved once here and passed down explicitly
	if cfg.LLM.APIKey == "" {
		if key, ok := llm.LookupAPIKey(cfg.LLM.Provider, lookupEnv); ok {
			cfg.LLM.APIKey = key
		}
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "ollama" {
		if v, ok := lookupEnv("OLLAMA_BASE_URL"); ok {
			cfg.LLM.BaseURL = v
		}
	}

	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = defaultDataDir()
	}
	if !filepath.IsAbs(cfg.Cache.DiskDir) {
		cfg.Cache.DiskDir = filepath.Join(cfg.Store.DataDir, cfg.Cache.DiskDir)
	}

	return cfg
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".enquete"
	}
	return filepath.Join(home, ".enquete")
}

// redacted hides the credential when a config is printed
func redacted(cfg *model.Config) *model.Config {
	out := *cfg
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = "********"
	}
	return &out
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage enquete configuration",
	Long: `Manage enquete configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (ENQUETE_*, then .env in the working directory)
3. Config file (~/.enquete/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(redacted(cfg))
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(yamlData))

		if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
			fmt.Fprintf(os.Stderr, "No API key configured for %s: generation calls will fail.\n", cfg.LLM.Provider)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configPath := cfgFile
		if configPath == "" {
			configPath = filepath.Join(defaultDataDir(), "config.yaml")
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'enquete config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		header := "# enquete configuration\n" +
			"#\n" +
			"# Environment variables override this file, e.g. ENQUETE_LLM_PROVIDER=ollama.\n" +
			"# Keep API keys out of this file:\n" +
			"#   export GEMINI_API_KEY=...\n" +
			"#   export OPENAI_API_KEY=sk-...\n" +
			"#   export ANTHROPIC_API_KEY=sk-ant-...\n\n"

		if _, err := f.WriteString(header); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}
		if _, err := f.Write(yamlData); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
