// Package settings manages persistent user preferences for the rangesim
// CLI, the explicit Environment value spec.md §9 calls for in place of the
// teacher's process-wide globals: where episode output lands, where the
// audit trail is written, and how verbose logging should be by default.
// Grounded on the teacher's pkg/settings/settings.go (same
// read-json-file-or-return-empty-defaults shape, same SaveTo/LoadFrom
// split for testability), retargeted from "CLI global flags" (default
// device/network) to "simulation run defaults" (default scenario path,
// output directory, Redis sink address).
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultOutputDir is the directory FileSink output lands in when no
// override is configured.
const DefaultOutputDir = "./rangesim-output"

// Settings holds persistent user preferences for cmd/rangesim.
type Settings struct {
	// DefaultScenario is the scenario YAML path used when a subcommand is
	// invoked without one.
	DefaultScenario string `json:"default_scenario,omitempty"`

	// OutputDir overrides the default FileSink output directory.
	OutputDir string `json:"output_dir,omitempty"`

	// RedisAddr, when set, enables a RedisSink at this address alongside
	// the FileSink for every run.
	RedisAddr string `json:"redis_addr,omitempty"`

	// AuditLogPath overrides the default audit log path.
	AuditLogPath string `json:"audit_log_path,omitempty"`

	// AuditMaxSizeMB is the max audit log size in MB before rotation (default: 10).
	AuditMaxSizeMB int `json:"audit_max_size_mb,omitempty"`

	// AuditMaxBackups is the max number of rotated audit log files (default: 10).
	AuditMaxBackups int `json:"audit_max_backups,omitempty"`

	// LogLevel is the default logrus level name ("debug", "info", "warn",
	// ...) applied unless -v overrides it.
	LogLevel string `json:"log_level,omitempty"`
}

const (
	// DefaultAuditMaxSizeMB is the default maximum audit log size in megabytes.
	DefaultAuditMaxSizeMB = 10

	// DefaultAuditMaxBackups is the default maximum number of rotated audit log files.
	DefaultAuditMaxBackups = 10
)

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rangesim_settings.json"
	}
	return filepath.Join(home, ".rangesim", "settings.json")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path.
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetOutputDir returns the output directory (with fallback).
func (s *Settings) GetOutputDir() string {
	if s.OutputDir != "" {
		return s.OutputDir
	}
	return DefaultOutputDir
}

// GetAuditLogPath returns the audit log path with a fallback default. The
// default is relative to the output directory, so a run's action trail
// lands alongside its reward/pcap output unless overridden.
func (s *Settings) GetAuditLogPath(outputDir string) string {
	if s.AuditLogPath != "" {
		return s.AuditLogPath
	}
	if outputDir == "" {
		outputDir = s.GetOutputDir()
	}
	return filepath.Join(outputDir, "audit.log")
}

// GetAuditMaxSizeMB returns the audit max size in MB with a default of 10.
func (s *Settings) GetAuditMaxSizeMB() int {
	if s.AuditMaxSizeMB > 0 {
		return s.AuditMaxSizeMB
	}
	return DefaultAuditMaxSizeMB
}

// GetAuditMaxBackups returns the audit max backups with a default of 10.
func (s *Settings) GetAuditMaxBackups() int {
	if s.AuditMaxBackups > 0 {
		return s.AuditMaxBackups
	}
	return DefaultAuditMaxBackups
}

// GetLogLevel returns the configured default log level, falling back to
// "warn" to match the teacher's quiet-by-default CLI convention.
func (s *Settings) GetLogLevel() string {
	if s.LogLevel != "" {
		return s.LogLevel
	}
	return "warn"
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
