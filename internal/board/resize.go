/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"math"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

// ResizeRect computes the bounds of o after dragging handle h by (dx, dy)
// starting from start. Sizes never drop below MinSize. Images keep their
// original aspect ratio on every handle: corners follow the larger of the
// two proposed changes, edges derive the other side. Grid snapping applies
// to notes and text only.
func (c Config) ResizeRect(o domain.Object, start vector.Rect, h vector.Handle, dx, dy float64) vector.Rect {
	if h == vector.HandleNone {
		return start
	}
	minSize := math.Max(c.MinSize, 1)
	w, ht := start.W, start.H
	if h.MovesRight() {
		w = start.W + dx
	} else if h.MovesLeft() {
		w = start.W - dx
	}
	if h.MovesBottom() {
		ht = start.H + dy
	} else if h.MovesTop() {
		ht = start.H - dy
	}

	if img, ok := o.Payload.(domain.ImagePayload); ok && img.OriginalWidth > 0 && img.OriginalHeight > 0 {
		w, ht = keepAspect(img.AspectRatio(), start, h, w, ht, minSize)
	} else {
		w, ht = math.Max(minSize, w), math.Max(minSize, ht)
		if h.MovesLeft() || h.MovesRight() {
			w = math.Max(minSize, c.Grid.SnapSize(w))
		}
		if h.MovesTop() || h.MovesBottom() {
			ht = math.Max(minSize, c.Grid.SnapSize(ht))
		}
	}

	r := vector.R(start.X, start.Y, w, ht)
	// the edge opposite the dragged one stays put
	if h.MovesLeft() {
		r.X = start.X + start.W - w
	}
	if h.MovesTop() {
		r.Y = start.Y + start.H - ht
	}
	return r
}

func keepAspect(ratio float64, start vector.Rect, h vector.Handle, w, ht, minSize float64) (float64, float64) {
	switch {
	case h.IsCorner():
		// compare both proposals in width units
		if math.Abs(w-start.W) >= math.Abs(ht-start.H)*ratio {
			ht = w / ratio
		} else {
			w = ht * ratio
		}
	case h == vector.HandleE || h == vector.HandleW:
		ht = w / ratio
	default:
		w = ht * ratio
	}
	switch {
	case w <= 0 || ht <= 0:
		// dragged through the opposite edge: smallest size with this ratio
		if ratio >= 1 {
			w, ht = minSize*ratio, minSize
		} else {
			w, ht = minSize, minSize/ratio
		}
	case w < minSize || ht < minSize:
		scale := math.Max(minSize/w, minSize/ht)
		w, ht = w*scale, ht*scale
	}
	return w, ht
}

// Resize applies a handle drag of (dx, dy) to the current bounds of id.
func (s *Store) Resize(id string, h vector.Handle, dx, dy float64) (domain.Object, error) {
	cur, err := s.mustGet(id)
	if err != nil {
		return domain.Object{}, err
	}
	r := s.cfg.ResizeRect(*cur, cur.Bounds(), h, dx, dy)
	return s.SetBounds(id, r)
}
