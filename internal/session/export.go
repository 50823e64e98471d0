/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package session

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gowhiteboard/internal/export"
	"gowhiteboard/internal/telemetry"
)

// ExportMargin is the frame around the objects in a whole-board export.
const ExportMargin = 40

// Export renders the board to path; the extension picks PDF or PNG. With
// viewOnly set only the visible area is exported.
func (s *Session) Export(path string, preset export.PresetName, viewOnly bool) error {
	scene, err := s.scene(viewOnly)
	if err != nil {
		return err
	}
	if err := export.ExportFile(path, scene, preset, s.exportTitle(), 0); err != nil {
		return err
	}
	s.exported(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."), len(scene.Objects))
	return nil
}

// ExportBatch writes every format of preset into dir and returns the paths.
func (s *Session) ExportBatch(dir string, preset export.PresetName, formats []string) ([]string, error) {
	scene, err := s.scene(false)
	if err != nil {
		return nil, err
	}
	base := s.exportTitle()
	paths, err := export.BatchExport(scene, export.BatchOptions{Preset: preset, Formats: formats, OutDir: dir, Base: base, Title: base})
	for _, p := range paths {
		s.exported(strings.TrimPrefix(filepath.Ext(p), "."), len(scene.Objects))
	}
	return paths, err
}

func (s *Session) scene(viewOnly bool) (export.Scene, error) {
	if viewOnly {
		sc, err := export.AreaScene(s.store, s.assets, s.VisibleRect())
		if err != nil {
			return sc, fmt.Errorf("export view: %w", err)
		}
		sc.Grid = s.store.Config().Grid
		return sc, nil
	}
	sc, err := export.BoardScene(s.store, s.assets, ExportMargin)
	if err != nil {
		return sc, fmt.Errorf("export board: %w", err)
	}
	return sc, nil
}

func (s *Session) exportTitle() string {
	if s.path == "" {
		return "Untitled"
	}
	return displayName(s.path)
}

func (s *Session) exported(format string, objects int) {
	s.log.Info("board exported", slog.String("format", format), slog.Int("objects", objects))
	s.tel.Emit(telemetry.BoardExported, map[string]any{"format": format, "objects": objects})
}
