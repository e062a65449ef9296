package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/cachescope/internal/daemon"
	"github.com/fenilsonani/cachescope/internal/engine"
	"github.com/fenilsonani/cachescope/internal/metrics"
)

var daemonTestConfig bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the configured cleanup schedules until interrupted",
	Long: `Runs every schedule in the daemon section of the config on its cron
expression. Scheduled jobs run in auto or dry_run mode, never interactively.
When metrics.listen is set, Prometheus metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if daemonTestConfig {
			return testDaemonConfig(cmd)
		}

		d, a, err := newDaemon(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintf(cmd.ErrOrStderr(), "Starting cachescope daemon with %d schedules...\n", len(a.cfg.Daemon.Schedules))
		return d.Run(cmd.Context())
	},
}

var daemonRunCmd = &cobra.Command{
	Use:   "run <schedule>",
	Short: "Run one configured schedule now and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, a, err := newDaemon(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, s := range a.cfg.Daemon.Schedules {
			if s.Name == args[0] {
				return d.RunJob(cmd.Context(), s)
			}
		}
		return fmt.Errorf("schedule %q not found", args[0])
	},
}

// newDaemon assembles a daemon whose engine records into its own registry
func newDaemon(cmd *cobra.Command) (*daemon.Daemon, *app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// the namespace is only known once the config is loaded
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	m := metrics.InitPrometheusMetrics(cfg.Metrics.Namespace, reg)

	quiet = true
	a, err := newApp(cmd.Context(), false, engine.WithMetrics(m))
	if err != nil {
		return nil, nil, err
	}

	d, err := daemon.New(a.cfg, a.engine,
		daemon.WithLogger(a.log),
		daemon.WithHistory(a.history),
		daemon.WithGatherer(reg),
	)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return d, a, nil
}

func testDaemonConfig(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid")
	fmt.Fprintf(out, "Schedules: %d\n", len(cfg.Daemon.Schedules))
	now := time.Now()
	for _, s := range cfg.Daemon.Schedules {
		next := "-"
		if sched, err := cron.ParseStandard(s.Schedule); err == nil {
			next = sched.Next(now).Format(time.RFC1123)
		}
		fmt.Fprintf(out, "  - %s: %s (%s), next run %s\n", s.Name, s.Schedule, s.RunMode(), next)
	}
	if cfg.Metrics.Listen != "" {
		fmt.Fprintf(out, "Metrics: http://%s/metrics\n", cfg.Metrics.Listen)
	}
	if n := cfg.Daemon.Notifications; n.Enabled && n.Webhook.URL != "" {
		fmt.Fprintf(out, "Webhook: %s\n", n.Webhook.URL)
	}
	if len(cfg.Daemon.Schedules) == 0 {
		return fmt.Errorf("no schedules configured")
	}
	return nil
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonTestConfig, "test-config", false, "validate the configuration, list the schedules and exit")
	daemonCmd.AddCommand(daemonRunCmd)
}
