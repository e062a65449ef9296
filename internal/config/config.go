package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/cachescope/internal/analyzer"
	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/internal/platform"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/security"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

// AppName names the config directory and metrics namespace
const AppName = "cachescope"

// Config represents the application configuration
type Config struct {
	Workers            int               `yaml:"workers" toml:"workers"`
	StaleThresholdDays int               `yaml:"stale_threshold_days" toml:"stale_threshold_days"`
	LargestFiles       int               `yaml:"largest_files" toml:"largest_files"`
	MaxRisk            scanner.RiskLevel `yaml:"max_risk" toml:"max_risk"`
	MinSize            string            `yaml:"min_size" toml:"min_size"` // e.g. "1MB"
	StaleOnly          bool              `yaml:"stale_only" toml:"stale_only"`
	Categories         []string          `yaml:"categories" toml:"categories"`

	// ExcludePatterns drop catalog locations whose path or name matches
	ExcludePatterns   []string           `yaml:"exclude_patterns" toml:"exclude_patterns"`
	ProtectedPaths    []string           `yaml:"protected_paths" toml:"protected_paths"`
	CustomLocations   []scanner.Location `yaml:"custom_locations" toml:"custom_locations"`
	DisabledLocations []string           `yaml:"disabled_locations" toml:"disabled_locations"`
	DiskPath          string             `yaml:"disk_path" toml:"disk_path"`

	Backup        BackupConfig  `yaml:"backup" toml:"backup"`
	DeleteRetries int           `yaml:"delete_retries" toml:"delete_retries"`
	ManifestDir   string        `yaml:"manifest_dir" toml:"manifest_dir"`
	History       HistoryConfig `yaml:"history" toml:"history"`
	Logging       logger.Config `yaml:"logging" toml:"logging"`
	Metrics       MetricsConfig `yaml:"metrics" toml:"metrics"`
	Daemon        DaemonConfig  `yaml:"daemon" toml:"daemon"`
}

// BackupConfig controls copying items aside before deletion
type BackupConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Destination string `yaml:"destination" toml:"destination"`
	Verify      bool   `yaml:"verify" toml:"verify"`
}

// HistoryConfig controls the per-run session records
type HistoryConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Dir      string `yaml:"dir" toml:"dir"`
	KeepDays int    `yaml:"keep_days" toml:"keep_days"`
}

// MetricsConfig controls the Prometheus exporter
type MetricsConfig struct {
	Namespace string `yaml:"namespace" toml:"namespace"`
	Listen    string `yaml:"listen" toml:"listen"` // e.g. "127.0.0.1:9310", empty disables
}

// DaemonConfig holds daemon mode configuration
type DaemonConfig struct {
	PidFile       string             `yaml:"pid_file" toml:"pid_file"`
	Schedules     []Schedule         `yaml:"schedules" toml:"schedules"`
	Notifications NotificationConfig `yaml:"notifications" toml:"notifications"`
}

// NotificationConfig contains daemon notification settings
type NotificationConfig struct {
	Enabled   bool          `yaml:"enabled" toml:"enabled"`
	OnSuccess bool          `yaml:"on_success" toml:"on_success"`
	OnFailure bool          `yaml:"on_failure" toml:"on_failure"`
	Webhook   WebhookConfig `yaml:"webhook" toml:"webhook"`
}

// WebhookConfig describes where run reports are posted
type WebhookConfig struct {
	URL     string            `yaml:"url" toml:"url"`
	Method  string            `yaml:"method" toml:"method"` // POST when empty
	Headers map[string]string `yaml:"headers,omitempty" toml:"headers,omitempty"`
}

// Schedule defines a scheduled cleanup
type Schedule struct {
	Name       string            `yaml:"name" toml:"name"`
	Schedule   string            `yaml:"schedule" toml:"schedule"` // Cron expression
	Mode       string            `yaml:"mode" toml:"mode"`         // auto or dry_run
	Backup     bool              `yaml:"backup" toml:"backup"`
	Categories []string          `yaml:"categories" toml:"categories"`
	MaxRisk    scanner.RiskLevel `yaml:"max_risk" toml:"max_risk"`
	MinSize    string            `yaml:"min_size" toml:"min_size"`
	StaleOnly  bool              `yaml:"stale_only" toml:"stale_only"`
	StaleDays  int               `yaml:"stale_days" toml:"stale_days"`
	SkipIfBusy bool              `yaml:"skip_if_busy" toml:"skip_if_busy"`
}

// Load loads configuration from a file. Missing keys keep their defaults;
// a missing file yields the defaults. Files ending in .toml are read as
// TOML, anything else as YAML.
func Load(configPath string) (*Config, error) {
	config := GetDefault()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(configPath) {
		if _, err := toml.Decode(string(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file in the format its extension names
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(config); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if c.StaleThresholdDays < 0 {
		return fmt.Errorf("stale threshold must be >= 0")
	}
	if c.LargestFiles < 0 {
		return fmt.Errorf("largest files must be >= 0")
	}
	if c.DeleteRetries < 0 {
		return fmt.Errorf("delete retries must be >= 0")
	}
	if c.History.KeepDays < 0 {
		return fmt.Errorf("history keep days must be >= 0")
	}

	if _, err := c.Criteria(); err != nil {
		return err
	}

	for _, pattern := range c.ExcludePatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}

	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(ExpandPath(path)) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	for i, loc := range c.CustomLocations {
		if loc.Path == "" {
			return fmt.Errorf("custom location %d has no path", i+1)
		}
		if !filepath.IsAbs(ExpandPath(loc.Path)) {
			return fmt.Errorf("custom location path must be absolute: %s", loc.Path)
		}
		if loc.Category != "" && !loc.Category.Valid() {
			return fmt.Errorf("custom location %s: unknown category %q", loc.Path, loc.Category)
		}
	}

	if raw := c.Daemon.Notifications.Webhook.URL; raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid webhook url %q", raw)
		}
	}

	names := make(map[string]bool)
	for _, s := range c.Daemon.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedule without a name")
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate schedule name %q", s.Name)
		}
		names[s.Name] = true
		if s.Schedule == "" {
			return fmt.Errorf("schedule %q has no cron expression", s.Name)
		}
		if _, err := cron.ParseStandard(s.Schedule); err != nil {
			return fmt.Errorf("schedule %q: invalid cron expression: %w", s.Name, err)
		}
		switch normalizeMode(s.Mode) {
		case "", "auto", "dry_run":
		case "interactive":
			return fmt.Errorf("schedule %q: interactive mode cannot run unattended", s.Name)
		default:
			return fmt.Errorf("schedule %q: unknown mode %q", s.Name, s.Mode)
		}
		if _, err := s.Criteria(); err != nil {
			return fmt.Errorf("schedule %q: %w", s.Name, err)
		}
	}

	return nil
}

// Criteria returns the selection configured at the top level
func (c *Config) Criteria() (analyzer.Criteria, error) {
	return buildCriteria(c.Categories, c.MinSize, c.MaxRisk, c.StaleOnly, 0)
}

// Criteria returns the selection a schedule runs with
func (s *Schedule) Criteria() (analyzer.Criteria, error) {
	return buildCriteria(s.Categories, s.MinSize, s.MaxRisk, s.StaleOnly, s.StaleDays)
}

// RunMode returns the cleaning mode name, dry_run when unset
func (s *Schedule) RunMode() string {
	if m := normalizeMode(s.Mode); m != "" {
		return m
	}
	return "dry_run"
}

func normalizeMode(mode string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(mode)), "-", "_")
}

func buildCriteria(categories []string, minSize string, maxRisk scanner.RiskLevel, staleOnly bool, staleDays int) (analyzer.Criteria, error) {
	crit := analyzer.Criteria{
		MaxRisk:            maxRisk,
		StaleOnly:          staleOnly,
		StaleThresholdDays: staleDays,
	}
	for _, name := range categories {
		cat, err := scanner.ParseCategory(name)
		if err != nil {
			return crit, err
		}
		crit.Categories = append(crit.Categories, cat)
	}
	if strings.TrimSpace(minSize) != "" {
		size, err := utils.ParseSize(minSize)
		if err != nil {
			return crit, fmt.Errorf("invalid min size %q: %w", minSize, err)
		}
		crit.MinSizeBytes = size
	}
	return crit, nil
}

// Locations applies the configured exclusions to catalog and appends the
// custom locations
func (c *Config) Locations(catalog []scanner.Location) []scanner.Location {
	disabled := make(map[string]bool, len(c.DisabledLocations))
	for _, name := range c.DisabledLocations {
		disabled[strings.ToLower(name)] = true
	}

	out := make([]scanner.Location, 0, len(catalog)+len(c.CustomLocations))
	for _, loc := range catalog {
		if disabled[strings.ToLower(loc.Name)] || c.excluded(loc) {
			continue
		}
		out = append(out, loc)
	}

	for _, loc := range c.CustomLocations {
		loc.Path = ExpandPath(loc.Path)
		if loc.Name == "" {
			loc.Name = filepath.Base(loc.Path)
		}
		if loc.Category == "" {
			loc.Category = scanner.CategoryCustom
		}
		out = append(out, loc)
	}
	return out
}

func (c *Config) excluded(loc scanner.Location) bool {
	for _, pattern := range c.ExcludePatterns {
		for _, candidate := range []string{loc.Path, filepath.Base(loc.Path), loc.Name} {
			if ok, _ := filepath.Match(pattern, candidate); ok {
				return true
			}
		}
	}
	return false
}

// Validator returns a path validator protecting the configured paths on
// top of the system defaults
func (c *Config) Validator(extra ...string) *security.PathValidator {
	v := security.NewPathValidator()
	for _, p := range append(extra, c.ProtectedPaths...) {
		v.AddProtectedPath(ExpandPath(p))
	}
	// cachescope's own state is never a cleanup target
	for _, p := range []string{c.Backup.Destination, c.ManifestDir, c.History.Dir} {
		if p != "" {
			v.AddProtectedTree(ExpandPath(p))
		}
	}
	return v
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	info := platform.Resolve(platform.Detect(), homeDir, os.Getenv)
	return filepath.Join(info.ConfigDir(AppName), "config.yaml"), nil
}
