package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/cachescope/internal/platform"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
)

var (
	catalogCategory string
	catalogMaxRisk  string
	catalogJSON     bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the locations cachescope knows about on this machine",
	Long: `Prints the location catalog for the detected platform after the
configured exclusions, plus your custom locations. Locations that do not
exist are marked; they are skipped by scans.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		locs := a.engine.Locations()
		if catalogCategory != "" {
			c, err := scanner.ParseCategory(catalogCategory)
			if err != nil {
				return err
			}
			locs = platform.ByCategory(locs, c)
		}
		if catalogMaxRisk != "" {
			r, err := scanner.ParseRiskLevel(catalogMaxRisk)
			if err != nil {
				return err
			}
			locs = platform.ByMaxRisk(locs, r)
		}

		out := cmd.OutOrStdout()
		if catalogJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(locs)
		}

		info := a.engine.Platform()
		fmt.Fprintln(out, styles.TitleStyle.Render(fmt.Sprintf("Locations on %s (%d)", info.Name, len(locs))))

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCATEGORY\tRISK\tPATH")
		present := 0
		for _, loc := range locs {
			path := loc.Path
			if _, err := os.Lstat(loc.Path); err != nil {
				path += " (absent)"
			} else {
				present++
			}
			if loc.RequiresAdmin {
				path += " [admin]"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", loc.Name, loc.Category, loc.Risk(), path)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out, styles.SubtitleStyle.Render(fmt.Sprintf("\n%d of %d present", present, len(locs))))
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogCategory, "category", "c", "", "only this category")
	catalogCmd.Flags().StringVar(&catalogMaxRisk, "max-risk", "", "only locations at or below this risk")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print the locations as JSON")
}
