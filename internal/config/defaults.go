package config

import (
	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/internal/scanner"
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		Workers:            0, // CPU count clamped to 4..16
		StaleThresholdDays: 30,
		LargestFiles:       10,
		MaxRisk:            scanner.RiskModerate, // caution locations need an explicit opt-in
		Categories:         []string{},
		ExcludePatterns:    []string{},
		ProtectedPaths: []string{
			// User can add paths they want to explicitly protect
		},
		CustomLocations:   []scanner.Location{},
		DisabledLocations: []string{},
		Backup: BackupConfig{
			Enabled:     false,
			Destination: "~/.cachescope/backups",
			Verify:      false,
		},
		DeleteRetries: 3,
		ManifestDir:   "~/.cachescope/manifests",
		History: HistoryConfig{
			Enabled:  true,
			Dir:      "~/.cachescope/history",
			KeepDays: 90,
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Namespace: AppName,
		},
		Daemon: DaemonConfig{
			PidFile: "~/.cachescope/daemon.pid",
			Schedules: []Schedule{
				{
					Name:       "weekly-preview",
					Schedule:   "0 3 * * 0", // Sunday 03:00
					Mode:       "dry_run",
					Categories: []string{},
					MaxRisk:    scanner.RiskSafe,
					StaleOnly:  true,
				},
			},
		},
	}
}
