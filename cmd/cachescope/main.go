package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/cachescope/internal/analyzer"
	"github.com/fenilsonani/cachescope/internal/config"
	"github.com/fenilsonani/cachescope/internal/engine"
	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/internal/progress"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/ui"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
	quiet      bool
	workers    int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cachescope",
	Short: "Inventory and safely clear caches, logs and other reclaimable storage",
	Long: `cachescope measures the well-known cache, log, trash and download
locations of your machine, shows what they hold, and clears the ones you
choose. Nothing is deleted without a confirmation, an explicit --yes, or a
scheduled job you configured.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "no progress output")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "parallel scan workers (0 = automatic)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}

// app bundles what the commands share
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	engine   *engine.Engine
	progress *progress.Reporter
	history  *config.SessionManager
}

// newApp loads the config, applies the global flags and assembles the
// engine. Interactive commands log warnings only unless --verbose is set.
func newApp(ctx context.Context, interactive bool, opts ...engine.Option) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	logCfg := cfg.Logging
	switch {
	case verbose:
		logCfg.Level = "debug"
	case interactive && isStderr(logCfg.Output):
		logCfg.Level = "warn"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	if !quiet {
		a.progress = progress.NewReporter()
	}
	if cfg.History.Enabled {
		a.history, err = config.NewSessionManager(cfg.History.Dir)
		if err != nil {
			log.Warn("history disabled", logger.F("error", err.Error()))
		}
	}

	base := []engine.Option{
		engine.WithLogger(log),
		engine.WithProgress(a.progress),
		engine.WithHistory(a.history),
	}
	a.engine, err = engine.New(ctx, cfg, append(base, opts...)...)
	if err != nil {
		log.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	a.log.Close()
}

// inventory builds a snapshot while drawing scan progress on stderr
func (a *app) inventory(cmd *cobra.Command) (*analyzer.Snapshot, error) {
	var snap *analyzer.Snapshot
	err := ui.RunWithProgress(cmd.Context(), a.progress, cmd.InOrStdin(), cmd.ErrOrStderr(), "Scanning", func(ctx context.Context) error {
		var err error
		snap, err = a.engine.Inventory(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return snap, nil
}

func isStderr(output string) bool {
	o := strings.ToLower(output)
	return o == "" || o == "stderr"
}

// criteriaFlags are the selection filters shared by analyze, report and
// clean. Unset flags keep the configured values.
type criteriaFlags struct {
	categories []string
	minSize    string
	maxRisk    string
	staleOnly  bool
	staleDays  int
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.categories, "category", "c", nil, "only these categories, e.g. user_cache,logs")
	fl.StringVar(&f.minSize, "min-size", "", "skip items smaller than this, e.g. 100MB")
	fl.StringVar(&f.maxRisk, "max-risk", "", "highest risk to include: safe, moderate, caution or any")
	fl.BoolVar(&f.staleOnly, "stale", false, "only items nothing touched within the stale threshold")
	fl.IntVar(&f.staleDays, "stale-days", 0, "stale threshold in days for --stale")
}

func (f *criteriaFlags) criteria(cmd *cobra.Command, cfg *config.Config) (analyzer.Criteria, error) {
	crit, err := cfg.Criteria()
	if err != nil {
		return crit, err
	}
	fl := cmd.Flags()

	if fl.Changed("category") {
		crit.Categories = nil
		for _, name := range f.categories {
			c, err := scanner.ParseCategory(name)
			if err != nil {
				return crit, err
			}
			crit.Categories = append(crit.Categories, c)
		}
	}
	if fl.Changed("min-size") {
		size, err := utils.ParseSize(f.minSize)
		if err != nil {
			return crit, fmt.Errorf("invalid --min-size %q: %w", f.minSize, err)
		}
		crit.MinSizeBytes = size
	}
	if fl.Changed("max-risk") {
		name := f.maxRisk
		if strings.EqualFold(name, "any") || strings.EqualFold(name, "all") {
			name = ""
		}
		risk, err := scanner.ParseRiskLevel(name)
		if err != nil {
			return crit, err
		}
		crit.MaxRisk = risk
	}
	if fl.Changed("stale") {
		crit.StaleOnly = f.staleOnly
	}
	if fl.Changed("stale-days") {
		if f.staleDays < 0 {
			return crit, fmt.Errorf("--stale-days must be >= 0")
		}
		crit.StaleThresholdDays = f.staleDays
	}
	return crit, nil
}
