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
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	return p
}

func TestEnvOverridesZoomRange(t *testing.T) {
	isolate(t)
	t.Setenv(EnvMinZoom, "0.25")
	t.Setenv(EnvMaxZoom, "8")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Canvas.MinZoom != 0.25 || cfg.Canvas.MaxZoom != 8 {
		t.Fatalf("zoom range = [%v, %v], want [0.25, 8]", cfg.Canvas.MinZoom, cfg.Canvas.MaxZoom)
	}
}

func TestInvertedZoomRangeFallsBackToDefaults(t *testing.T) {
	isolate(t)
	t.Setenv(EnvMinZoom, "5")
	t.Setenv(EnvMaxZoom, "2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	d := Defaults().Canvas
	if cfg.Canvas.MinZoom != d.MinZoom || cfg.Canvas.MaxZoom != d.MaxZoom {
		t.Fatalf("expected default zoom range, got [%v, %v]", cfg.Canvas.MinZoom, cfg.Canvas.MaxZoom)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestEnvOverridesBackups(t *testing.T) {
	isolate(t)
	t.Setenv(EnvBackups, "-4")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Backups != 0 {
		t.Fatalf("negative backups should clamp to 0, got %d", cfg.Storage.Backups)
	}
	if env, ok := EnvOverrideFor("storage.backups"); !ok || env != EnvBackups {
		t.Fatalf("EnvOverrideFor(storage.backups) = %q, %v", env, ok)
	}
}

func TestMergeIncludesCanvas(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Canvas: CanvasConfig{GridSize: 50, SnapToGrid: true, HandleSize: 12}}
	mergeInto(&dst, &src)
	if dst.Canvas.GridSize != 50 || !dst.Canvas.SnapToGrid || dst.Canvas.HandleSize != 12 {
		t.Fatalf("canvas fields not merged: %#v", dst.Canvas)
	}
	if dst.Canvas.MinZoom != 0.1 || dst.Canvas.IndexCellSize != 500 {
		t.Fatalf("zero-valued fields must keep defaults: %#v", dst.Canvas)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/gwb.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/gwb.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/gwb.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/gwb.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := isolate(t)
	cfg := Defaults()
	cfg.Canvas.GridSize = 40
	cfg.Canvas.SmartGuides = true
	cfg.Storage.Backups = 7
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Canvas.GridSize != 40 || !got.Canvas.SmartGuides || got.Storage.Backups != 7 {
		t.Fatalf("round trip lost values: %#v", got)
	}
}

func TestCanvasBridges(t *testing.T) {
	c := Defaults().Canvas
	c.SnapToGrid = true
	bc := c.BoardConfig()
	if bc.HandleRadius != 5 || bc.MinSize != 20 || bc.DuplicateOffset != 20 || bc.CellSize != 500 {
		t.Fatalf("unexpected board config %+v", bc)
	}
	if !bc.Grid.Snap || bc.Grid.Size != 25 {
		t.Fatalf("grid = %+v", bc.Grid)
	}
	l := c.ViewportLimits()
	if l.Min != 0.1 || l.Max != 4.0 {
		t.Fatalf("limits = %+v", l)
	}
	c.MinZoom, c.MaxZoom = 3, 1
	if l := c.ViewportLimits(); l.Min != 0.1 || l.Max != 4.0 {
		t.Fatalf("inverted range should fall back, got %+v", l)
	}
}
