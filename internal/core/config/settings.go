package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// SettingsFileName is looked up in the user configuration directory.
const SettingsFileName = "settings.toml"

// Settings are per-user options that are not part of a project descriptor.
type Settings struct {
	CacheDir    string        `toml:"cache_dir" env:"CACHE_DIR" usage:"Directory for downloaded artifacts (default ~/.garnet/caches)"`
	Parallelism int           `toml:"parallelism" env:"PARALLELISM" default:"4" usage:"Maximum concurrent dependency resolutions"`
	HTTPTimeout time.Duration `toml:"http_timeout" env:"HTTP_TIMEOUT" default:"60s" usage:"Timeout for a single repository request"`
	Offline     bool          `toml:"offline" env:"OFFLINE" default:"false" usage:"Resolve from local files and the cache only"`
	Toolchains  struct {
		Paths     []string `toml:"paths" env:"PATHS" usage:"Explicit toolchain home directories, preferred over discovered ones"`
		ScanRoots []string `toml:"scan_roots" env:"SCAN_ROOTS" usage:"Directories whose children are toolchain homes"`
	} `toml:"toolchains" env:"TOOLCHAINS"`
	Log struct {
		Level string `toml:"level" env:"LEVEL" default:"info"`
		JSON  bool   `toml:"json" env:"JSON" default:"false" usage:"Output JSON lines instead of pretty console messages"`
	} `toml:"log" env:"LOG"`
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// DefaultSettingsFile returns the settings path inside the user config directory.
func DefaultSettingsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "garnet", SettingsFileName)
}

// SettingsLoader initializes an empty Settings object and returns a loader
// reading the given files (missing ones are skipped) and GARNET_* variables.
func SettingsLoader(files ...string) (*Settings, *aconfig.Loader) {
	cfg := Settings{}
	var existing []string
	for _, f := range files {
		if f != "" {
			existing = append(existing, f)
		}
	}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "GARNET",
		SkipFlags: true,
		Files:     existing,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// LoadSettings loads, completes and validates the user settings.
func LoadSettings(files ...string) (*Settings, error) {
	cfg, loader := SettingsLoader(files...)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load settings")
	}
	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, eris.Wrap(err, "failed to determine home directory for the artifact cache")
		}
		cfg.CacheDir = filepath.Join(home, ".garnet", "caches")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifies that all fields have usable values.
func (cfg *Settings) Validate() error {
	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return eris.Errorf("invalid value for log.level: %s", cfg.Log.Level)
	}
	if cfg.Parallelism < 1 {
		return eris.Errorf("invalid value for parallelism: %d (must be at least 1)", cfg.Parallelism)
	}
	if cfg.HTTPTimeout <= 0 {
		return eris.Errorf("invalid value for http_timeout: %s", cfg.HTTPTimeout)
	}
	return nil
}

// LogLevel converts Log.Level to a zerolog.Level.
func (cfg *Settings) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
