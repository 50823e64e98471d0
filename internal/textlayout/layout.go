/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and word-wraps note and text contents into
// their boxes for renderers that draw outside the UI toolkit.
package textlayout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gowhiteboard/internal/domain"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	Size   float64 // pixels at 1:1 zoom
}

// Metrics are font metrics in pixels for a resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Provider maps a FontSpec to a concrete face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider always returns basicfont.Face7x13. Its output does not
// depend on installed fonts, which makes it the default for tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Line is one laid out line.
type Line struct {
	Text  string
	Width float64
}

// Box is text wrapped into a width.
type Box struct {
	Lines      []Line
	Width      float64 // widest line
	Height     float64
	LineHeight float64
	Metrics    Metrics
}

// Wrap breaks text into lines no wider than maxWidth. Explicit newlines are
// kept; words wider than the box are split between characters. A
// non-positive maxWidth disables wrapping.
func Wrap(p Provider, text string, spec FontSpec, maxWidth float64) Box {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	d := &font.Drawer{Face: face}
	lh := met.Ascent + met.Descent + met.LineGap
	if spec.Size > 0 {
		lh = spec.Size * domain.LineSpacing
	}
	box := Box{LineHeight: lh, Metrics: met}
	add := func(s string) {
		w := advance(d, s)
		box.Lines = append(box.Lines, Line{Text: s, Width: w})
		if w > box.Width {
			box.Width = w
		}
	}
	for _, para := range strings.Split(text, "\n") {
		cur := ""
		for _, word := range strings.Fields(para) {
			cand := word
			if cur != "" {
				cand = cur + " " + word
			}
			if maxWidth <= 0 || advance(d, cand) <= maxWidth {
				cur = cand
				continue
			}
			if cur != "" {
				add(cur)
			}
			cur = word
			for maxWidth > 0 && advance(d, cur) > maxWidth && utf8.RuneCountInString(cur) > 1 {
				head := fit(d, cur, maxWidth)
				add(head)
				cur = cur[len(head):]
			}
		}
		add(cur)
	}
	box.Height = float64(len(box.Lines)) * lh
	return box
}

// fit returns the longest prefix of s (at least one rune) within maxWidth.
func fit(d *font.Drawer, s string, maxWidth float64) string {
	end := 0
	for i, r := range s {
		next := i + utf8.RuneLen(r)
		if end > 0 && advance(d, s[:next]) > maxWidth {
			break
		}
		end = next
	}
	return s[:end]
}

func advance(d *font.Drawer, s string) float64 {
	return fixedToFloat(d.MeasureString(s))
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Measure returns the width and line height of text on a single line.
func Measure(p Provider, text string, spec FontSpec) (w, h float64) {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	return advance(&font.Drawer{Face: face}, text), met.Ascent + met.Descent
}
