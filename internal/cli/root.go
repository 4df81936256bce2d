package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/enquete/internal/notice"
)

// Version is set at build time
var Version = "dev"

var (
	cfgFile   string
	verbose   bool
	dataDir   string
	storeName string
	noCache   bool

	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "enquete",
	Short: "enquete - investigation roadmaps for gendarmerie cases",
	Long: `enquete turns a short description of an infraction into a structured
investigation roadmap: ordered procedural steps with their legal basis and
priority, follow-up suggestions and procès-verbal drafts.

Cases are stored locally. Names and acronyms are redacted before any text
is sent to the language model provider.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The terminal UI owns the screen and sets up its own file logger
		if cmd.Name() == "ui" {
			return nil
		}

		l, err := newLogger(verbose, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// generationError marks failures of a provider call, which are reported
// through the user-facing notice
type generationError struct {
	err error
}

func (e *generationError) Error() string { return e.err.Error() }
func (e *generationError) Unwrap() error { return e.err }

func generationFailed(err error) error {
	if err == nil {
		return nil
	}
	return &generationError{err: err}
}

// Execute runs the root command and reports any failure on stderr
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(err)
	}
	return err
}

// notifyText returns the user-facing message for a generation failure
func notifyText(err error) string {
	return notice.Message(notice.Classify(err))
}

func reportError(err error) {
	var genErr *generationError
	if errors.As(err, &genErr) {
		n := notice.New(genErr.err, nowFunc())
		logger.Error("generation failed", zap.String("kind", n.Kind.String()), zap.Error(genErr.err))
		fmt.Fprintf(os.Stderr, "✗ %s\n", n.Message)
		if verbose {
			fmt.Fprintf(os.Stderr, "  %v\n", genErr.err)
		}
		return
	}

	logger.Error("command failed", zap.Error(err))
	fmt.Fprintf(os.Stderr, "✗ %v\n", err)
}

// newLogger builds the production logger. Warnings and above go to stderr,
// or everything in verbose mode. With outputPaths set, logs go there instead.
func newLogger(verbose bool, outputPaths []string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(outputPaths) > 0 {
		config.OutputPaths = outputPaths
		config.ErrorOutputPaths = outputPaths
	}
	return config.Build()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("enquete %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.enquete/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding cases, cache and logs (default: $HOME/.enquete)")
	rootCmd.PersistentFlags().StringVar(&storeName, "store", "", "case store driver: file, sqlite, memory")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the response cache")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in the .env file, config file and ENV variables
func initConfig() {
	// Variables already set in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) && verbose {
		fmt.Fprintf(os.Stderr, "Ignoring .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".enquete"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// ENQUETE_LLM_PROVIDER overrides llm.provider, and so on
	viper.SetEnvPrefix("ENQUETE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
