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

	"gowhiteboard/internal/vector"
)

// maxCellsPerObject bounds how many grid cells one object may occupy; bigger
// objects are kept in a separate list that every query scans.
const maxCellsPerObject = 4096

type cellKey struct{ cx, cy int64 }

// spatialGrid is a uniform-grid index over object bounds. It only narrows the
// candidate set; callers still run the exact bounding-box test.
type spatialGrid struct {
	size     float64
	cells    map[cellKey]map[string]struct{}
	oversize map[string]struct{}
}

func newSpatialGrid(size float64) *spatialGrid {
	if size <= 0 {
		size = 500
	}
	return &spatialGrid{size: size, cells: map[cellKey]map[string]struct{}{}, oversize: map[string]struct{}{}}
}

func (g *spatialGrid) span(r vector.Rect) (x0, y0, x1, y1 int64, ok bool) {
	fx0, fy0 := math.Floor(r.X/g.size), math.Floor(r.Y/g.size)
	fx1, fy1 := math.Floor((r.X+r.W)/g.size), math.Floor((r.Y+r.H)/g.size)
	// cells beyond this range cannot be represented as int64 keys
	const lim = 1 << 60
	if math.Abs(fx0) > lim || math.Abs(fy0) > lim || math.Abs(fx1) > lim || math.Abs(fy1) > lim {
		return 0, 0, 0, 0, false
	}
	x0, y0, x1, y1 = int64(fx0), int64(fy0), int64(fx1), int64(fy1)
	// check each axis first so the product cannot overflow
	nx, ny := x1-x0+1, y1-y0+1
	if nx > maxCellsPerObject || ny > maxCellsPerObject || nx*ny > maxCellsPerObject {
		return x0, y0, x1, y1, false
	}
	return x0, y0, x1, y1, true
}

func (g *spatialGrid) insert(id string, r vector.Rect) {
	x0, y0, x1, y1, ok := g.span(r)
	if !ok {
		g.oversize[id] = struct{}{}
		return
	}
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			k := cellKey{cx, cy}
			c := g.cells[k]
			if c == nil {
				c = map[string]struct{}{}
				g.cells[k] = c
			}
			c[id] = struct{}{}
		}
	}
}

func (g *spatialGrid) remove(id string, r vector.Rect) {
	x0, y0, x1, y1, ok := g.span(r)
	if !ok {
		delete(g.oversize, id)
		return
	}
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			k := cellKey{cx, cy}
			if c := g.cells[k]; c != nil {
				delete(c, id)
				if len(c) == 0 {
					delete(g.cells, k)
				}
			}
		}
	}
}

func (g *spatialGrid) move(id string, from, to vector.Rect) {
	g.remove(id, from)
	g.insert(id, to)
}

// query returns the ids of every object that may intersect r. The second
// result is false when r spans too many cells; callers then scan everything.
func (g *spatialGrid) query(r vector.Rect) (map[string]struct{}, bool) {
	x0, y0, x1, y1, ok := g.span(r)
	if !ok {
		return nil, false
	}
	out := map[string]struct{}{}
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			for id := range g.cells[cellKey{cx, cy}] {
				out[id] = struct{}{}
			}
		}
	}
	for id := range g.oversize {
		out[id] = struct{}{}
	}
	return out, true
}
