package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/cachescope/internal/analyzer"
	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/engine"
	"github.com/fenilsonani/cachescope/internal/reporter"
	"github.com/fenilsonani/cachescope/internal/ui"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

var (
	cleanFilters   criteriaFlags
	cleanDryRun    bool
	cleanYes       bool
	cleanBackup    bool
	cleanBackupDir string
	cleanFormat    string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clear the selected locations",
	Long: `Scans the catalog, selects items with the given filters and clears them.

By default every item is confirmed one at a time. --yes deletes the whole
selection without asking and --dry-run only reports what would be freed.
--backup copies each item aside before it is deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		crit, err := cleanFilters.criteria(cmd, a.cfg)
		if err != nil {
			return err
		}
		format, err := reporter.ParseFormat(cleanFormat)
		if err != nil {
			return err
		}

		mode := cleaner.ModeInteractive
		switch {
		case cleanDryRun:
			mode = cleaner.ModeDryRun
		case cleanYes:
			mode = cleaner.ModeAuto
		}
		backup := a.cfg.Backup.Enabled || cleanBackup || cleanBackupDir != ""

		snap, err := a.inventory(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		items := analyzer.Select(snap, crit)
		if len(items) == 0 {
			fmt.Fprintln(out, styles.SuccessStyle.Render("Nothing to clean with these filters."))
			return nil
		}

		if err := reporter.New(out, reporter.FormatText).Report(snap, items); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		fmt.Fprintln(out)

		switch mode {
		case cleaner.ModeDryRun:
			fmt.Fprintln(out, styles.InfoStyle.Render("[DRY RUN] Nothing will be deleted."))
		case cleaner.ModeAuto:
			fmt.Fprintln(out, styles.WarningStyle.Render(fmt.Sprintf("Deleting %d items without confirmation.", len(items))))
		}

		opts := engine.CleanOptions{
			Criteria:  crit,
			Mode:      mode,
			Backup:    backup,
			BackupDir: cleanBackupDir,
			Trigger:   "cli",
		}

		var res *engine.Result
		run := func(ctx context.Context) error {
			var err error
			res, err = a.engine.Clean(ctx, snap, opts)
			return err
		}

		if mode == cleaner.ModeInteractive {
			opts.Confirmer = ui.NewConfirmer(cmd.InOrStdin(), out)
			err = run(cmd.Context())
		} else {
			err = ui.RunWithProgress(cmd.Context(), a.progress, cmd.InOrStdin(), cmd.ErrOrStderr(), "Cleaning", run)
		}
		if res == nil {
			return fmt.Errorf("clean failed: %w", err)
		}
		// a lost terminal still reports what was deleted before it went away
		runErr := err

		fmt.Fprintln(out)
		if err := reporter.New(out, format).ReportClean(res.Summary); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if res.BackupDir != "" {
			fmt.Fprintf(out, "Backups: %s\n", res.BackupDir)
		}
		if res.ManifestPath != "" {
			fmt.Fprintf(out, "Manifest: %s\n", res.ManifestPath)
		}
		if n := needsElevation(res.Summary); n > 0 {
			fmt.Fprintf(out, "%s\n", styles.WarningStyle.Render(
				fmt.Sprintf("%d items need administrator rights; rerun with sudo to clear %s more.",
					n, utils.FormatBytes(elevationBytes(res.Summary)))))
		}
		if runErr != nil {
			return fmt.Errorf("clean stopped: %w", runErr)
		}
		return nil
	},
}

func needsElevation(sum *cleaner.Summary) int {
	n := 0
	for _, f := range sum.Failures {
		if f.NeedsSudo {
			n++
		}
	}
	return n
}

func elevationBytes(sum *cleaner.Summary) int64 {
	var total int64
	for i := range sum.Results {
		if f := sum.Results[i].Failure; f != nil && f.NeedsSudo {
			total += sum.Results[i].SizeBytes
		}
	}
	return total
}

func init() {
	cleanFilters.register(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanDryRun, "dry-run", "n", false, "show what would be deleted without deleting")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "delete the whole selection without asking")
	cleanCmd.Flags().BoolVar(&cleanBackup, "backup", false, "copy each item aside before deleting it")
	cleanCmd.Flags().StringVar(&cleanBackupDir, "backup-dir", "", "backup destination, implies --backup")
	cleanCmd.Flags().StringVarP(&cleanFormat, "format", "f", "text", "summary format (text, summary, json, yaml, csv)")
	cleanCmd.MarkFlagsMutuallyExclusive("dry-run", "yes")
}
