/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"testing"
	"time"

	"gowhiteboard/internal/vector"
)

func TestSpatialGridQuery(t *testing.T) {
	g := newSpatialGrid(100)
	g.insert("a", vector.R(10, 10, 20, 20))
	g.insert("b", vector.R(250, 250, 10, 10))
	g.insert("huge", vector.R(-1e6, -1e6, 2e6, 2e6))

	got, ok := g.query(vector.R(0, 0, 50, 50))
	if !ok {
		t.Fatalf("small query should use the index")
	}
	if _, hit := got["a"]; !hit {
		t.Fatalf("expected a in %v", got)
	}
	if _, hit := got["b"]; hit {
		t.Fatalf("b is two cells away and must not be a candidate: %v", got)
	}
	if _, hit := got["huge"]; !hit {
		t.Fatalf("oversize objects are always candidates")
	}

	g.move("a", vector.R(10, 10, 20, 20), vector.R(260, 260, 5, 5))
	got, _ = g.query(vector.R(0, 0, 50, 50))
	if _, hit := got["a"]; hit {
		t.Fatalf("a moved away but is still indexed at the origin")
	}
	g.remove("huge", vector.R(-1e6, -1e6, 2e6, 2e6))
	if len(g.oversize) != 0 {
		t.Fatalf("oversize entry not removed")
	}
	g.remove("a", vector.R(260, 260, 5, 5))
	g.remove("b", vector.R(250, 250, 10, 10))
	if len(g.cells) != 0 {
		t.Fatalf("empty cells should be dropped, have %d", len(g.cells))
	}
}

func TestSpatialGridNegativeCoordinates(t *testing.T) {
	g := newSpatialGrid(500)
	g.insert("neg", vector.R(-20, -20, 10, 10))
	got, ok := g.query(vector.R(-15, -15, 0, 0))
	if !ok {
		t.Fatalf("point query should use the index")
	}
	if _, hit := got["neg"]; !hit {
		t.Fatalf("object left of the origin not found")
	}
}

func TestSpatialGridSpanOverflowGoesOversize(t *testing.T) {
	// 2^32 cells per axis: the cell count product wraps to zero in int64
	side := 500 * float64(1<<32-1)
	r := vector.R(0, 0, side, side)
	g := newSpatialGrid(500)
	done := make(chan struct{})
	go func() {
		g.insert("wide", r)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("insert of a %g-wide rect did not finish", side)
	}
	if _, ok := g.oversize["wide"]; !ok {
		t.Fatalf("rect spanning 2^32 cells per axis must be oversize")
	}
	if len(g.cells) != 0 {
		t.Fatalf("oversize rect leaked into %d cells", len(g.cells))
	}
	if _, _, _, _, ok := g.span(vector.R(0, 0, 500*maxCellsPerObject, 0)); ok {
		t.Fatalf("one long row over the cell limit must be oversize")
	}
}
