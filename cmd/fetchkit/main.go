package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/fetchkit/internal/config"
	"github.com/IshaanNene/fetchkit/internal/engine"
	"github.com/IshaanNene/fetchkit/internal/fetcher"
	"github.com/IshaanNene/fetchkit/internal/hasher"
	"github.com/IshaanNene/fetchkit/internal/observability"
	"github.com/IshaanNene/fetchkit/internal/report"
	"github.com/IshaanNene/fetchkit/internal/types"
)

var (
	cfgFile     string
	verbose     bool
	withMetrics bool
	concurrent  int
	algorithm   string
	noProgress  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fetchkit",
		Short: "fetchkit: sequential and throttled URL fetching, resource hashing",
		Long: `fetchkit fetches http(s), ftp and local resources.

Commands:
  • fetch        fetch locators one at a time, in order
  • fetch-async  fetch locators with a bounded number of concurrent streams
  • hash         compute content digests (md5 by default)
  • compare      time sequential against concurrent fetching`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&withMetrics, "metrics", false, "serve Prometheus metrics while running")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(fetchAsyncCmd())
	rootCmd.AddCommand(hashCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime bundles everything a subcommand needs.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	router  *fetcher.Router
	metrics *observability.Metrics
	server  *http.Server
}

// setup loads config, validates the locators and builds the transports.
func setup(args []string) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if withMetrics {
		cfg.Metrics.Enabled = true
	}
	if concurrent > 0 {
		cfg.Fetch.MaxConcurrentStreams = concurrent
	}
	if algorithm != "" {
		cfg.Hash.Algorithm = strings.ToLower(algorithm)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	for _, raw := range args {
		if err := config.ValidateLocator(raw); err != nil {
			return nil, err
		}
	}

	logger := setupLogger(cfg)
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		router:  fetcher.NewRouter(cfg, logger),
		metrics: observability.NewMetrics(logger),
	}
	if cfg.Metrics.Enabled {
		rt.server = rt.metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}
	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.router.Close(); err != nil {
		rt.logger.Error("fetcher close error", "error", err)
	}
	if rt.server != nil {
		rt.server.Close()
	}
}

func (rt *runtime) engine() *engine.Engine {
	e := engine.New(rt.router, rt.cfg, rt.logger)
	e.SetMetrics(rt.metrics)
	return e
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// fetchCmd creates the "fetch" subcommand.
func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <locator>...",
		Short: "Fetch locators sequentially, in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(args)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := signalContext()
			defer cancel()

			var results []types.Result
			e := rt.engine()
			e.OnResult(func(r types.Result) { results = append(results, r) })

			_, err = e.FetchAll(ctx, args)
			report.Write(cmd.OutOrStdout(), report.Summarize(results))
			return err
		},
	}
}

// fetchAsyncCmd creates the "fetch-async" subcommand.
func fetchAsyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch-async <locator>...",
		Short: "Fetch locators with at most N concurrent streams",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(args)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := signalContext()
			defer cancel()

			e := rt.engine()
			if !noProgress {
				bar := progressbar.NewOptions(len(args),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("fetching"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
				e.OnResult(func(types.Result) { bar.Add(1) })
				defer bar.Finish()
			}

			results, err := e.FetchConcurrent(ctx, args, rt.cfg.Fetch.MaxConcurrentStreams)
			report.Write(cmd.OutOrStdout(), report.Summarize(results))
			if err != nil {
				return err
			}
			if failed := types.Failures(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d locators failed", len(failed), len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "max concurrent streams (0 = use config)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// hashCmd creates the "hash" subcommand.
func hashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <locator>...",
		Short: "Print the content digest of each locator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(args)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := signalContext()
			defer cancel()

			h, err := hasher.New(rt.router, rt.cfg.Hash.Algorithm, rt.logger)
			if err != nil {
				return err
			}
			h.SetMetrics(rt.metrics)
			h.SetTimeout(rt.cfg.Fetch.RequestTimeout)

			pending := make([]<-chan types.Digest, len(args))
			for i, raw := range args {
				pending[i] = h.HashAsync(ctx, raw)
			}

			var failed int
			out := cmd.OutOrStdout()
			for _, ch := range pending {
				d := <-ch
				if d.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", d.Locator, d.Err)
					continue
				}
				fmt.Fprintf(out, "%s  %s\n", d.Hex, d.Locator)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d locators failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "hash algorithm: md5, sha1, sha256 (default from config)")
	return cmd
}

// compareCmd creates the "compare" subcommand.
func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <locator>...",
		Short: "Time sequential against concurrent fetching",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(args)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := signalContext()
			defer cancel()

			e := rt.engine()

			start := time.Now()
			_, seqErr := e.FetchAll(ctx, args)
			seqElapsed := time.Since(start)

			start = time.Now()
			results, concErr := e.FetchConcurrent(ctx, args, rt.cfg.Fetch.MaxConcurrentStreams)
			concElapsed := time.Since(start)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sequential:  %s", seqElapsed.Round(time.Millisecond))
			if seqErr != nil {
				fmt.Fprintf(out, " (aborted: %v)", seqErr)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "concurrent:  %s (n=%d, %d ok, %d failed)\n",
				concElapsed.Round(time.Millisecond),
				rt.cfg.Fetch.MaxConcurrentStreams,
				len(types.Bodies(results)),
				len(types.Failures(results)),
			)
			if concElapsed > 0 {
				fmt.Fprintf(out, "speedup:     %.2fx\n", float64(seqElapsed)/float64(concElapsed))
			}
			return concErr
		},
	}
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "max concurrent streams (0 = use config)")
	return cmd
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fetchkit %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetch:\n")
			fmt.Fprintf(out, "  Max Streams:       %d\n", cfg.Fetch.MaxConcurrentStreams)
			fmt.Fprintf(out, "  Request Timeout:   %s\n", cfg.Fetch.RequestTimeout)
			fmt.Fprintf(out, "  Rate Limit:        %.2f req/s\n", cfg.Fetch.RateLimit)
			fmt.Fprintf(out, "  Follow Redirects:  %v\n", cfg.Fetch.FollowRedirects)
			fmt.Fprintf(out, "  Max Body Size:     %d bytes\n", cfg.Fetch.MaxBodySize)
			fmt.Fprintf(out, "\nFTP:\n")
			fmt.Fprintf(out, "  Username:          %s\n", cfg.FTP.Username)
			fmt.Fprintf(out, "  Dial Timeout:      %s\n", cfg.FTP.DialTimeout)
			fmt.Fprintf(out, "\nHash:\n")
			fmt.Fprintf(out, "  Algorithm:         %s\n", cfg.Hash.Algorithm)
			fmt.Fprintf(out, "\nMetrics:\n")
			fmt.Fprintf(out, "  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Fprintf(out, "  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
