/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetScreen PresetName = "screen"
	PresetPrint  PresetName = "print"
)

// BatchOptions controls exporting one scene to several formats at once.
//
// Files are named <Base>.<format> inside OutDir. An empty Base is "board".
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: pdf, png; empty means preset defaults
	OutDir  string
	Base    string
	Title   string
	Scale   float64 // overrides the preset's PNG scale when > 0
}

// BatchExport writes the scene in every requested format and returns the
// written paths.
func BatchExport(scene Scene, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	base := opt.Base
	if base == "" {
		base = "board"
	}
	var out []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		path := filepath.Join(opt.OutDir, base+"."+f)
		if err := ExportFile(path, scene, opt.Preset, opt.Title, opt.Scale); err != nil {
			return out, err
		}
		out = append(out, path)
	}
	return out, nil
}

// ExportFile picks the exporter from the file extension of path.
func ExportFile(path string, scene Scene, preset PresetName, title string, scale float64) error {
	if scale <= 0 {
		scale = presetScale(preset)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		if err := ExportPDF(path, scene, PDFOptions{Title: title, IncludeBorder: preset == PresetPrint}); err != nil {
			return fmt.Errorf("pdf: %w", err)
		}
	case ".png":
		if err := ExportPNG(path, scene, PNGOptions{Scale: scale}); err != nil {
			return fmt.Errorf("png: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", ext)
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"png"}
	}
}

// presetScale is the PNG pixel density: 1 for screens, 300dpi for print.
func presetScale(p PresetName) float64 {
	if p == PresetPrint {
		return 300.0 / 72.0
	}
	return 1
}
