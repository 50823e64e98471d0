/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary maps family names to parsed OpenType fonts and caches faces
// per size. Lookups are case-insensitive. Safe for concurrent use.
type FontLibrary struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: map[string]*opentype.Font{}, faces: map[faceKey]font.Face{}}
}

// DefaultLibrary has the Go fonts registered as "sans" and "mono"; any
// unknown family falls back to sans.
func DefaultLibrary() *FontLibrary {
	fl := NewFontLibrary()
	_ = fl.Add("sans", goregular.TTF)
	_ = fl.Add("mono", gomono.TTF)
	return fl
}

// Add parses TTF/OTF bytes and registers them under family.
func (fl *FontLibrary) Add(family string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.fonts[strings.ToLower(family)] = f
	return nil
}

// LoadTTF registers a font file under family.
func (fl *FontLibrary) LoadTTF(family, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.Add(family, data)
}

func (fl *FontLibrary) find(family string) (string, *opentype.Font) {
	family = strings.ToLower(family)
	if f, ok := fl.fonts[family]; ok {
		return family, f
	}
	if f, ok := fl.fonts["sans"]; ok {
		return "sans", f
	}
	return "", nil
}

// Resolve implements Provider. Without any usable font it falls back to
// BasicProvider.
func (fl *FontLibrary) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	name, f := fl.find(spec.Family)
	if f == nil {
		return BasicProvider{}.Resolve(spec)
	}
	key := faceKey{family: name, size: spec.Size}
	face, ok := fl.faces[key]
	if !ok {
		var err error
		face, err = opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return BasicProvider{}.Resolve(spec)
		}
		fl.faces[key] = face
	}
	return face, metricsOf(face)
}
