/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gowhiteboard/internal/board"
	"gowhiteboard/internal/vector"
	"gowhiteboard/internal/viewport"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

// CanvasConfig holds the canvas engine tunables. Lengths are canvas units
// unless noted otherwise.
type CanvasConfig struct {
	MinZoom        float64 `yaml:"min_zoom"`
	MaxZoom        float64 `yaml:"max_zoom"`
	ZoomStep       float64 `yaml:"zoom_step"`        // per scroll notch
	ButtonZoomStep float64 `yaml:"button_zoom_step"` // zoom in/out buttons
	HandleSize     float64 `yaml:"handle_size"`      // screen pixels
	MinObjectSize  float64 `yaml:"min_object_size"`
	DuplicateDelta float64 `yaml:"duplicate_offset"`
	GridSize       float64 `yaml:"grid_size"`
	SnapToGrid     bool    `yaml:"snap_to_grid"`
	SmartGuides    bool    `yaml:"smart_guides"`
	GuideThreshold float64 `yaml:"guide_threshold"`
	IndexCellSize  float64 `yaml:"index_cell_size"`
}

type StorageConfig struct {
	// Backups is how many timestamped copies of the previously saved board are kept (0 disables).
	Backups int `yaml:"backups"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Canvas: CanvasConfig{
			MinZoom:        0.1,
			MaxZoom:        4.0,
			ZoomStep:       1.1,
			ButtonZoomStep: 1.2,
			HandleSize:     10,
			MinObjectSize:  20,
			DuplicateDelta: 20,
			GridSize:       25,
			GuideThreshold: 6,
			IndexCellSize:  500,
		},
		Storage: StorageConfig{Backups: 3},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvMinZoom        = "GWB_MIN_ZOOM"
	EnvMaxZoom        = "GWB_MAX_ZOOM"
	EnvSnapToGrid     = "GWB_SNAP_TO_GRID"
	EnvBackups        = "GWB_BACKUPS"
	EnvTelemetryOptIn = "GWB_TELEMETRY_OPT_IN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GWB_LOG_LEVEL"
	EnvLogFormat = "GWB_LOG_FORMAT"
	EnvLogSource = "GWB_LOG_SOURCE"
	EnvLogFile   = "GWB_LOG_FILE"
	// EnvConfigPath points Load/Save at an explicit file instead of the per-user location.
	EnvConfigPath = "GWB_CONFIG"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoWhiteboard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoWhiteboard")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "gowhiteboard")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "gowhiteboard")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, merges environment
// overrides and normalizes out-of-range canvas values.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	cfg.Canvas = cfg.Canvas.normalized()
	if cfg.Storage.Backups < 0 {
		cfg.Storage.Backups = 0
	}
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn

	c, s := &dst.Canvas, src.Canvas
	setF := func(d *float64, v float64) {
		if v != 0 {
			*d = v
		}
	}
	setF(&c.MinZoom, s.MinZoom)
	setF(&c.MaxZoom, s.MaxZoom)
	setF(&c.ZoomStep, s.ZoomStep)
	setF(&c.ButtonZoomStep, s.ButtonZoomStep)
	setF(&c.HandleSize, s.HandleSize)
	setF(&c.MinObjectSize, s.MinObjectSize)
	setF(&c.DuplicateDelta, s.DuplicateDelta)
	setF(&c.GridSize, s.GridSize)
	setF(&c.GuideThreshold, s.GuideThreshold)
	setF(&c.IndexCellSize, s.IndexCellSize)
	c.SnapToGrid = s.SnapToGrid
	c.SmartGuides = s.SmartGuides

	if src.Storage.Backups != 0 {
		dst.Storage.Backups = src.Storage.Backups
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvMinZoom)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Canvas.MinZoom = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxZoom)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Canvas.MaxZoom = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapToGrid)); v != "" {
		cfg.Canvas.SnapToGrid = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackups)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Backups = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// normalized repairs values that would break the engine's invariants
// (inverted zoom range, non-positive sizes) by falling back to defaults.
func (c CanvasConfig) normalized() CanvasConfig {
	d := Defaults().Canvas
	if c.MinZoom <= 0 || c.MaxZoom <= 0 || c.MinZoom > c.MaxZoom {
		c.MinZoom, c.MaxZoom = d.MinZoom, d.MaxZoom
	}
	if c.ZoomStep <= 1 {
		c.ZoomStep = d.ZoomStep
	}
	if c.ButtonZoomStep <= 1 {
		c.ButtonZoomStep = d.ButtonZoomStep
	}
	if c.HandleSize <= 0 {
		c.HandleSize = d.HandleSize
	}
	if c.MinObjectSize <= 0 {
		c.MinObjectSize = d.MinObjectSize
	}
	if c.GridSize <= 0 {
		c.GridSize = d.GridSize
	}
	if c.IndexCellSize <= 0 {
		c.IndexCellSize = d.IndexCellSize
	}
	return c
}

// BoardConfig converts the canvas section into object store settings.
// HandleSize is a full hotspot edge; the store wants the half-size.
func (c CanvasConfig) BoardConfig() board.Config {
	c = c.normalized()
	return board.Config{
		HandleRadius:    c.HandleSize / 2,
		MinSize:         c.MinObjectSize,
		DuplicateOffset: c.DuplicateDelta,
		CellSize:        c.IndexCellSize,
		Grid:            vector.Grid{Size: c.GridSize, Snap: c.SnapToGrid},
	}
}

// ViewportLimits returns the zoom clamp for new viewports.
func (c CanvasConfig) ViewportLimits() viewport.Limits {
	c = c.normalized()
	return viewport.Limits{Min: c.MinZoom, Max: c.MaxZoom}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "canvas.min_zoom":
		env = EnvMinZoom
	case "canvas.max_zoom":
		env = EnvMaxZoom
	case "canvas.snap_to_grid":
		env = EnvSnapToGrid
	case "storage.backups":
		env = EnvBackups
	case "general.telemetry_opt_in":
		env = EnvTelemetryOptIn
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
