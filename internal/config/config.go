// Package config loads startup overrides for the otherwise-compile-time
// constants spec §6 names (PAGE_SIZE, buffer capacity), plus the ambient
// logging level. YAML is grounded on the teacher corpus's use of
// gopkg.in/yaml.v3 for its own settings files; tinySQL itself has no
// dedicated config package (its constants are compiled in), so the
// shape here follows the plain "decode into a struct, apply defaults"
// idiom common across the example repos rather than any one file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
)

// Settings is the on-disk YAML shape. Zero values mean "use the
// default" and are filled in by Defaults.
type Settings struct {
	PageSize       int    `yaml:"page_size"`
	BufferCapacity int    `yaml:"buffer_capacity"`
	LogLevel       string `yaml:"log_level"`
	DatabasePath   string `yaml:"database_path"`

	// CheckpointSchedule is a cron spec (standard 5-field, or a descriptor
	// such as "@every 30s") for the optional background checkpoint
	// scheduler (internal/maintenance). Empty means off, the default —
	// nothing runs a checkpoint on a schedule; Close still flushes.
	CheckpointSchedule string `yaml:"checkpoint_schedule"`
}

// Defaults returns the spec's suggested constants (§6: "4096 bytes,
// 10-50 pages").
func Defaults() Settings {
	return Settings{
		PageSize:       page.DefaultPageSize,
		BufferCapacity: 32,
		LogLevel:       "info",
	}
}

// Load reads a YAML settings file at path, overlaying non-zero fields
// onto Defaults(). A missing file is not an error; it just yields the
// defaults.
func Load(path string) (Settings, error) {
	s := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, dberrors.Wrap(dberrors.ValidationError, err, "read config %s", path)
	}
	var override Settings
	if err := yaml.Unmarshal(data, &override); err != nil {
		return s, dberrors.Wrap(dberrors.ValidationError, err, "parse config %s", path)
	}
	if override.PageSize > 0 {
		s.PageSize = override.PageSize
	}
	if override.BufferCapacity > 0 {
		s.BufferCapacity = override.BufferCapacity
	}
	if override.LogLevel != "" {
		s.LogLevel = override.LogLevel
	}
	if override.DatabasePath != "" {
		s.DatabasePath = override.DatabasePath
	}
	if override.CheckpointSchedule != "" {
		s.CheckpointSchedule = override.CheckpointSchedule
	}
	return s, nil
}
