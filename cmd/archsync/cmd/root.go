// Package cmd implements the archsync command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/archsync/archsync/pkg/logging"
)

var (
	flagConfig    string
	flagDocuments string
	flagModel     string
	flagVerbose   bool
	flagQuiet     bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "archsync",
	Short: "Synchronize an engineering model with a work-item store",
	Long: `Archsync keeps a remote work-item store and its Live-Documents
consistent with an engineering model graph.

A run binds every model element to its matching configuration,
serializes it into a work-item draft, resolves links, and diffs the
drafts against the remote inventory by checksum so only changed items
are written. Configured documents are rendered and reconciled after
the elements are synchronized.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
	rootCmd.Version = version

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "config.yaml", "matching configuration file")
	rootCmd.PersistentFlags().StringVarP(&flagDocuments, "documents", "d", "", "document configuration file")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "model.yaml", "model graph snapshot")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log warnings and errors")
}

// initConfig loads .env files and binds environment variables.
func initConfig() {
	loadEnvFiles()

	viper.SetEnvPrefix("archsync")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Explicit bindings so the toggles work without a config file.
	_ = viper.BindEnv("grouped-links")
	_ = viper.BindEnv("type-prefix")
	_ = viper.BindEnv("role-prefix")

	configureLogging()
}

// configureLogging sets the log level from flags and environment.
func configureLogging() {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	if flagQuiet {
		level = zerolog.WarnLevel
	}
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if parsed, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}
	logging.SetDefault(logging.Default().Level(level))
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
