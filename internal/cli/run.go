package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/harun/alarmq/internal/config"
	"github.com/harun/alarmq/internal/logger"
	"github.com/harun/alarmq/internal/observability"
	"github.com/harun/alarmq/internal/tracing"
	"github.com/harun/alarmq/internal/workload"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	runQueue         string
	runNormalLimit   int
	runProducers     int
	runConsumers     int
	runMessages      int
	runAlarmRatio    float64
	runAlarmSchedule string
	runSeed          int64
	runMetricsAddr   string
	runOutput        string
	runWatch         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a producer/consumer workload and verify delivery",
	Long: `Run starts producers and consumers against a fresh queue, drains it and
reports lost, duplicated or misordered messages. Flags override the config file.
The command fails when verification fails.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	defaults := config.DefaultConfig()

	flags := runCmd.Flags()
	flags.StringVar(&runQueue, "queue", defaults.Queue.Name, "queue name used in logs and metrics")
	flags.IntVar(&runNormalLimit, "normal-limit", defaults.Queue.NormalLimit, "cap on pending normal messages (0 = unbounded)")
	flags.IntVar(&runProducers, "producers", defaults.Workload.Producers, "number of producer goroutines")
	flags.IntVar(&runConsumers, "consumers", defaults.Workload.Consumers, "number of consumer goroutines")
	flags.IntVar(&runMessages, "messages", defaults.Workload.Messages, "messages sent per producer")
	flags.Float64Var(&runAlarmRatio, "alarm-ratio", defaults.Workload.AlarmRatio, "share of producer messages sent as alarms")
	flags.StringVar(&runAlarmSchedule, "alarm-schedule", defaults.Workload.AlarmSchedule, "cron spec for extra alarms, e.g. \"@every 1s\"")
	flags.Int64Var(&runSeed, "seed", defaults.Workload.Seed, "base seed for the alarm/normal mix")
	flags.StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	flags.StringVarP(&runOutput, "output", "o", "text", "output format (text, json, yaml)")
	flags.BoolVar(&runWatch, "watch", false, "reload the log level when the config file changes")

	rootCmd.AddCommand(runCmd)
}

// applyRunFlags copies explicitly set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("queue") {
		cfg.Queue.Name = runQueue
	}
	if flags.Changed("normal-limit") {
		cfg.Queue.NormalLimit = runNormalLimit
	}
	if flags.Changed("producers") {
		cfg.Workload.Producers = runProducers
	}
	if flags.Changed("consumers") {
		cfg.Workload.Consumers = runConsumers
	}
	if flags.Changed("messages") {
		cfg.Workload.Messages = runMessages
	}
	if flags.Changed("alarm-ratio") {
		cfg.Workload.AlarmRatio = runAlarmRatio
	}
	if flags.Changed("alarm-schedule") {
		cfg.Workload.AlarmSchedule = runAlarmSchedule
	}
	if flags.Changed("seed") {
		cfg.Workload.Seed = runSeed
	}
	if runMetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = runMetricsAddr
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	if err := config.NewValidator().Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupRuntime(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Tracing.Enabled {
		if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName, cfg.Tracing.SampleRatio); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to flush traces")
			}
		}()
	}

	if cfg.Metrics.Enabled {
		srv, err := startMetricsServer(cfg.Metrics.Addr)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	if runWatch {
		watcher, err := startConfigWatcher()
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	runner, err := workload.NewRunner(cfg.Queue, cfg.Workload)
	if err != nil {
		return err
	}

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := writeReport(cmd.OutOrStdout(), report, runOutput); err != nil {
		return err
	}

	if !report.OK() {
		return fmt.Errorf("workload verification failed for run %s", report.RunID)
	}
	return nil
}

func startMetricsServer(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("Metrics endpoint listening")
	return srv, nil
}

func startConfigWatcher() (*config.Watcher, error) {
	watcher, err := config.NewWatcher(config.WatcherConfig{
		Path: config.NewLoader(cfgFile).GetConfigPath(),
		OnChange: func(cfg *config.Config) {
			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			if err := logger.SetLevel(level); err != nil {
				log.Warn().Err(err).Msg("Ignoring invalid log level")
				return
			}
			log.Info().Str("level", level).Msg("Log level updated")
		},
	})
	if err != nil {
		return nil, err
	}

	if err := watcher.Start(); err != nil {
		watcher.Stop()
		return nil, err
	}
	return watcher, nil
}
