package cli

import (
	"fmt"

	"github.com/harun/alarmq/internal/config"
	"github.com/harun/alarmq/internal/logger"
	"github.com/harun/alarmq/internal/observability"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alarmq",
	Short: "alarmq - two-lane alarm/normal message queue",
	Long: `alarmq drives a thread-safe message queue with a single-slot alarm lane
and an unbounded FIFO normal lane. It runs concurrent producer/consumer
workloads, replays scripted scenarios and verifies delivery guarantees.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.alarmq/alarmq.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error), overrides config")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// loadConfig reads the config file named by --config and applies --log-level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	return cfg, nil
}

func setupLogging(cfg *config.Config) (*logger.Logger, error) {
	lg, err := logger.New(logger.Config{
		Level:    cfg.Logging.Level,
		File:     cfg.Logging.File,
		Console:  true,
		Pretty:   cfg.Logging.Pretty,
		MaxSize:  cfg.Logging.MaxSize,
		MaxAge:   cfg.Logging.MaxAge,
		Compress: cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return lg, nil
}

// setupRuntime installs logging and opens the audit log configured in cfg.
// The returned cleanup closes both and must be called when the command ends.
func setupRuntime(cfg *config.Config) (func(), error) {
	lg, err := setupLogging(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Logging.AuditFile == "" {
		return func() { lg.Close() }, nil
	}

	if err := observability.InitAuditLogger(cfg.Logging.AuditFile); err != nil {
		lg.Close()
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return func() {
		observability.GetAuditLogger().Close()
		lg.Close()
	}, nil
}
