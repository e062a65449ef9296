package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/cachescope/internal/config"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

var (
	historyLimit     int
	historyPruneDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past cleanup runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		sm, err := openHistory()
		if err != nil {
			return err
		}

		sessions, err := sm.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No cleanup runs recorded yet.")
			return nil
		}
		if historyLimit > 0 && len(sessions) > historyLimit {
			sessions = sessions[:historyLimit]
		}

		fmt.Fprintln(out, styles.TitleStyle.Render("Cleanup History"))
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tWHEN\tTRIGGER\tMODE\tDELETED\tFAILED\tFREED")
		for _, s := range sessions {
			mode := s.Mode
			if s.Aborted {
				mode += " (aborted)"
			}
			freed := utils.FormatBytes(s.BytesFreed)
			if s.DryRun {
				freed += " (would free)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				s.ID, s.Timestamp.Local().Format(time.DateTime), s.Trigger, mode, s.ItemsDeleted, s.ItemsFailed, freed)
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print one run as JSON, the latest when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sm, err := openHistory()
		if err != nil {
			return err
		}

		var s *config.Session
		if len(args) == 1 {
			s, err = sm.Load(args[0])
		} else {
			s, err = sm.GetLatest()
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete run records older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		sm, err := openHistory()
		if err != nil {
			return err
		}

		days := historyPruneDays
		if !cmd.Flags().Changed("days") {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			days = cfg.History.KeepDays
		}

		n, err := sm.CleanOldSessions(days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d records from %s\n", n, sm.GetSessionsDir())
		return nil
	},
}

func openHistory() (*config.SessionManager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config.NewSessionManager(cfg.History.Dir)
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "show at most this many runs (0 = all)")
	historyPruneCmd.Flags().IntVar(&historyPruneDays, "days", 0, "keep records newer than this many days")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
}
