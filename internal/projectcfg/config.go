// Package projectcfg resolves the engine's tunables — store directory name,
// lock timeout — through the same layered precedence the teacher's
// internal/ticket/config.go uses for its own .tk.json: defaults → global
// user config → project config → explicit caller override. Grounded on that
// file's LoadConfig/mergeConfig/loadConfigFile shape, adapted from a single
// ticket-dir setting to the handful spec.md §4.3/§6 names.
package projectcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"
)

// Config holds the engine's project-scoped tunables (spec.md §4.3).
type Config struct {
	// StoreDirName is the store directory's name under a project root,
	// without the leading dot (default "store").
	StoreDirName string `json:"storeDir,omitempty"`

	// LockTimeoutSeconds bounds how long a caller waits to acquire the
	// per-project file lock before giving up (default 10).
	LockTimeoutSeconds int `json:"lockTimeoutSeconds,omitempty"`

	// EngineVersion is stamped into new manifests and the README (default
	// "0.1.0").
	EngineVersion string `json:"engineVersion,omitempty"`

	// Sources records which config files were actually loaded, for
	// diagnostics; not part of the on-disk config shape.
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files contributed to a loaded Config.
type ConfigSources struct {
	Global  string
	Project string
}

// LockTimeout returns the configured lock timeout as a [time.Duration].
func (c Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutSeconds) * time.Second
}

// Default returns the engine's built-in defaults (spec.md §4.3): a "store"
// directory, a 10s lock timeout (the teacher's defaultWalLockTimeout,
// carried over to the flock-based lock this engine uses instead of a WAL),
// and engine version "0.1.0".
func Default() Config {
	return Config{
		StoreDirName:       "store",
		LockTimeoutSeconds: 10,
		EngineVersion:      "0.1.0",
	}
}

// OverrideFileName is the optional JSONC workspace override file's name,
// analogous to the teacher's .tk.json.
const OverrideFileName = ".centy.json"

// globalConfigRelPath is appended to $XDG_CONFIG_HOME, or to $HOME/.config
// when that's unset, to locate the global user config file.
const globalConfigRelPath = "centy/config.json"

// LoadInput carries [Load]'s inputs.
type LoadInput struct {
	// ProjectRoot is the project directory .centy.json is resolved relative
	// to.
	ProjectRoot string
	// ConfigPath, if set, names an explicit override file instead of
	// <ProjectRoot>/.centy.json; it must exist.
	ConfigPath string
	// StoreDirNameOverride, if set, wins over every file-based source (the
	// CLI-flag-equivalent layer in the teacher's precedence chain).
	StoreDirNameOverride string
	// Env supplies environment variables for global-config discovery
	// (injectable for tests instead of reading the real process environment).
	Env map[string]string
}

// Load resolves a [Config] with precedence (highest wins): defaults, global
// user config, project config (.centy.json or ConfigPath), then
// StoreDirNameOverride — mirroring the teacher's LoadConfig exactly, one
// layer at a time via [mergeConfig].
func Load(input LoadInput) (Config, error) {
	cfg := Default()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(input.ProjectRoot, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if input.StoreDirNameOverride != "" {
		cfg.StoreDirName = input.StoreDirNameOverride
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getGlobalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, globalConfigRelPath)
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", globalConfigRelPath)
	}

	return ""
}

func loadGlobalConfig(env map[string]string) (Config, string, error) {
	path := getGlobalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

func loadProjectConfig(projectRoot, configPath string) (Config, string, error) {
	var (
		path      string
		mustExist bool
	)

	if configPath != "" {
		path = configPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}

		mustExist = true

		if _, err := os.Stat(path); err != nil {
			return Config{}, "", fmt.Errorf("config file not found: %s", configPath)
		}
	} else {
		path = filepath.Join(projectRoot, OverrideFileName)
		mustExist = false
	}

	cfg, loaded, err := loadConfigFile(path, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

// loadConfigFile reads path as JSONC (via hujson) and decodes it into a
// Config overlay. A missing file is not an error unless mustExist is set.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("invalid config in %s: %w", path, err)
	}

	return cfg, true, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.StoreDirName != "" {
		base.StoreDirName = overlay.StoreDirName
	}

	if overlay.LockTimeoutSeconds != 0 {
		base.LockTimeoutSeconds = overlay.LockTimeoutSeconds
	}

	if overlay.EngineVersion != "" {
		base.EngineVersion = overlay.EngineVersion
	}

	return base
}

func validate(cfg Config) error {
	if cfg.StoreDirName == "" {
		return fmt.Errorf("storeDir cannot be empty")
	}

	if cfg.LockTimeoutSeconds <= 0 {
		return fmt.Errorf("lockTimeoutSeconds must be positive")
	}

	return nil
}
