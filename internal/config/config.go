package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override config.json values.
const (
	EnvSaveDir  = "SHUTTER_SAVE_DIR"
	EnvHotkey   = "SHUTTER_HOTKEY"
	EnvLogLevel = "SHUTTER_LOG_LEVEL"
	EnvUIPort   = "SHUTTER_UI_PORT"
)

// Config holds application configuration.
type Config struct {
	// SaveDirectory is the fallback directory for captured PNGs.
	// The settings stored in the database take precedence once seeded.
	SaveDirectory string `json:"save_directory,omitempty"`

	// Hotkey is the global capture shortcut, e.g. "ctrl+shift+s".
	Hotkey string `json:"hotkey,omitempty"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`

	// LogFile, when set, receives log output instead of stderr.
	LogFile string `json:"log_file,omitempty"`

	// UIBind and UIPort control the gallery / IPC listener.
	UIBind string `json:"ui_bind,omitempty"`
	UIPort int    `json:"ui_port,omitempty"`

	// DisplayScaleFactor overrides the device pixel ratio reported for displays.
	// 0 means 1.0 (platform bounds are already in device pixels).
	DisplayScaleFactor float64 `json:"display_scale_factor,omitempty"`

	// PermissionSettleMs is the delay before re-checking a just-denied consent status.
	PermissionSettleMs int `json:"permission_settle_ms,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SaveDirectory:      DefaultSaveDirectory(),
		Hotkey:             "ctrl+shift+s",
		LogLevel:           "info",
		UIBind:             "127.0.0.1",
		UIPort:             7331,
		PermissionSettleMs: 500,
	}
}

// DefaultSaveDirectory returns ~/Pictures/shutter, or a temp-dir fallback
// when the home directory cannot be resolved.
func DefaultSaveDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "shutter")
	}
	return filepath.Join(home, "Pictures", "shutter")
}

// Load loads configuration from baseDir/config.json, then applies overrides
// from baseDir/.env and the process environment.
// Returns default config if neither file exists.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	env, err := readEnv(filepath.Join(baseDir, ".env"))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), cfg), fromEnv(env)), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readEnv merges the .env file (if any) with the process environment.
// Process environment wins over the file.
func readEnv(envPath string) (map[string]string, error) {
	values := make(map[string]string)

	fileValues, err := godotenv.Read(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for k, v := range fileValues {
		values[k] = v
	}

	for _, key := range []string{EnvSaveDir, EnvHotkey, EnvLogLevel, EnvUIPort} {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}
	return values, nil
}

// fromEnv builds an overlay config from SHUTTER_* values.
// Unparseable numbers are ignored.
func fromEnv(env map[string]string) *Config {
	cfg := &Config{
		SaveDirectory: strings.TrimSpace(env[EnvSaveDir]),
		Hotkey:        strings.TrimSpace(env[EnvHotkey]),
		LogLevel:      strings.TrimSpace(env[EnvLogLevel]),
	}
	if v := strings.TrimSpace(env[EnvUIPort]); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.UIPort = port
		}
	}
	return cfg
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SaveDirectory = firstString(overlay.SaveDirectory, base.SaveDirectory)
	result.Hotkey = firstString(overlay.Hotkey, base.Hotkey)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.LogFile = firstString(overlay.LogFile, base.LogFile)
	result.UIBind = firstString(overlay.UIBind, base.UIBind)

	result.UIPort = overlay.UIPort
	if result.UIPort == 0 {
		result.UIPort = base.UIPort
	}

	result.DisplayScaleFactor = overlay.DisplayScaleFactor
	if result.DisplayScaleFactor == 0 {
		result.DisplayScaleFactor = base.DisplayScaleFactor
	}

	result.PermissionSettleMs = overlay.PermissionSettleMs
	if result.PermissionSettleMs == 0 {
		result.PermissionSettleMs = base.PermissionSettleMs
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// ScaleFactor returns the configured display scale factor, defaulting to 1.
func (c *Config) ScaleFactor() float64 {
	if c == nil || c.DisplayScaleFactor <= 0 {
		return 1
	}
	return c.DisplayScaleFactor
}

func firstString(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
