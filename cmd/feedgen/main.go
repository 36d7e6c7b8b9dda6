package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cfbfeed/internal/config"
	"cfbfeed/internal/metrics"
	"cfbfeed/internal/pipeline"
	"cfbfeed/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seasonFlag int

func main() {
	rootCmd := &cobra.Command{
		Use:          "feedgen",
		Short:        "College football social feed draft generator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().IntVar(&seasonFlag, "season", 0, "season to process (default: FEED_SEASON or the season in progress)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(periodCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	// Pretty console logging in development
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		parsedLevel, err := zerolog.ParseLevel(cfg.LogLevel)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg)

	if seasonFlag > 0 {
		cfg.Season = seasonFlag
	}
	log.Info().
		Str("env", cfg.AppEnv).
		Str("cache", cfg.CacheBackend).
		Str("ledger", cfg.LedgerBackend).
		Str("queue", cfg.QueueBackend).
		Msg("Configuration loaded")
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Received shutdown signal, gracefully shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func runCmd() *cobra.Command {
	var printDrafts bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and append new drafts to the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			feed, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer feed.Close()

			start := time.Now()
			season := cfg.SeasonFor(start)
			report, runErr := feed.runner.Run(ctx, season)

			status := "success"
			if runErr != nil {
				status = "failed"
			} else if report.AbortedAt != "" {
				status = "empty"
			}
			metrics.RecordRun(status, time.Since(start).Seconds())

			if cfg.PushgatewayURL != "" {
				if err := metrics.Push(cfg.PushgatewayURL, "feedgen"); err != nil {
					log.Warn().Err(err).Msg("Failed to push metrics")
				}
			}

			if runErr != nil {
				if report != nil {
					_ = writeReport(cmd.OutOrStdout(), report, printDrafts)
				}
				return runErr
			}
			return writeReport(cmd.OutOrStdout(), report, printDrafts)
		},
	}

	cmd.Flags().BoolVar(&printDrafts, "drafts", false, "print queued drafts instead of the run report")
	return cmd
}

// writeReport prints the run report, or only its queued drafts
func writeReport(w io.Writer, report *pipeline.Report, draftsOnly bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	var err error
	if draftsOnly {
		err = enc.Encode(report.Drafts)
	} else {
		err = enc.Encode(report)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on FEED_CRON and serve /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			feed, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer feed.Close()

			sched := scheduler.NewScheduler(cfg.FeedCron, feed.runner, cfg.SeasonFor)

			if cfg.EnableMetrics {
				go startMetricsServer(ctx, cfg.MetricsPort, sched)
			}

			// Update system uptime metric
			startTime := time.Now()
			go func() {
				ticker := time.NewTicker(10 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						metrics.SystemUptime.Set(time.Since(startTime).Seconds())
					case <-ctx.Done():
						return
					}
				}
			}()

			if err := sched.Start(ctx); err != nil {
				return err
			}

			// Keep running until context is cancelled
			<-ctx.Done()

			sched.Stop()
			log.Info().Msg("Scheduler shutdown complete")
			return nil
		},
	}
}

func periodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "period",
		Short: "Print the current authoritative period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			feed, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer feed.Close()

			p, err := feed.runner.Resolver().Resolve(ctx, cfg.SeasonFor(time.Now()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %d\n", p.Season, p.Week)
			return nil
		},
	}
}

func startMetricsServer(ctx context.Context, port int, sched *scheduler.Scheduler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/last-run", func(w http.ResponseWriter, r *http.Request) {
		report := sched.LastReport()
		if report == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", port).Msg("Starting metrics server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
