/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Grid snaps canvas coordinates to multiples of Size when Snap is set.
type Grid struct {
	Size float64
	Snap bool
}

// SnapValue rounds v to the nearest grid line.
func (g Grid) SnapValue(v float64) float64 {
	if !g.Snap || g.Size <= 0 {
		return v
	}
	return math.Round(v/g.Size) * g.Size
}

// SnapPoint snaps both coordinates of p.
func (g Grid) SnapPoint(p Pt) Pt {
	return Pt{g.SnapValue(p.X), g.SnapValue(p.Y)}
}

// SnapSize snaps a length, never returning less than one grid unit.
func (g Grid) SnapSize(v float64) float64 {
	if !g.Snap || g.Size <= 0 {
		return v
	}
	return math.Max(g.Size, g.SnapValue(v))
}

// Lines returns the grid line coordinates inside [lo, hi] for one axis.
// Used by renderers to draw the background grid.
func (g Grid) Lines(lo, hi float64) []float64 {
	if g.Size <= 0 || hi < lo {
		return nil
	}
	var out []float64
	for v := math.Ceil(lo/g.Size) * g.Size; v <= hi; v += g.Size {
		out = append(out, v)
	}
	return out
}
