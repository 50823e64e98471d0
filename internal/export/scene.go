/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders boards to PDF and PNG. Both consume the same
// Scene: objects in draw order (ascending z) plus the assets they use.
package export

import (
	"errors"

	"gowhiteboard/internal/assets"
	"gowhiteboard/internal/board"
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

// ErrEmptyScene is returned when there is nothing to draw.
var ErrEmptyScene = errors.New("nothing to export")

// Scene is a rectangle of the canvas and the objects that intersect it.
type Scene struct {
	Bounds     vector.Rect
	Objects    []domain.Object // ascending z
	Assets     *assets.Table
	Background vector.Color
	Grid       vector.Grid // lines drawn when Snap is set
}

// BoardScene frames every object on the board with margin canvas units
// around them.
func BoardScene(st *board.Store, tbl *assets.Table, margin float64) (Scene, error) {
	r, ok := st.Bounds()
	if !ok {
		return Scene{}, ErrEmptyScene
	}
	return AreaScene(st, tbl, r.Inset(-margin, -margin))
}

// AreaScene captures the objects visible in area, e.g. the current viewport.
func AreaScene(st *board.Store, tbl *assets.Table, area vector.Rect) (Scene, error) {
	if area.W <= 0 || area.H <= 0 {
		return Scene{}, ErrEmptyScene
	}
	return Scene{
		Bounds:     area,
		Objects:    st.VisibleObjects(area),
		Assets:     tbl,
		Background: vector.White,
	}, nil
}

// noteFill is the fill colour of a note.
func noteFill(p domain.NotePayload) vector.Color { return p.Color.RGB().Color() }

// label is the text drawn inside a note or text block.
type label struct {
	Text   string
	Family string
	Size   float64
	Color  vector.Color
	Pad    float64
}

func labelOf(o domain.Object) (label, bool) {
	switch p := o.Payload.(type) {
	case domain.NotePayload:
		return label{p.Text, domain.TextDefaultFamily, float64(p.FontSize), vector.Black, domain.NotePadding}, true
	case domain.TextPayload:
		return label{p.Text, p.FontFamily, float64(p.FontSize), p.Color.Color(), domain.TextPadding}, true
	}
	return label{}, false
}
