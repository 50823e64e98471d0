/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

func TestResizeRectNotes(t *testing.T) {
	cfg := DefaultConfig()
	o := note("n", 100, 100, 200, 100, 1)
	start := o.Bounds()
	cases := []struct {
		h      vector.Handle
		dx, dy float64
		want   vector.Rect
	}{
		{vector.HandleSE, 30, 20, vector.R(100, 100, 230, 120)},
		{vector.HandleN, 999, 30, vector.R(100, 130, 200, 70)},
		{vector.HandleS, 0, -10, vector.R(100, 100, 200, 90)},
		{vector.HandleE, 15, 999, vector.R(100, 100, 215, 100)},
		{vector.HandleW, 50, 0, vector.R(150, 100, 150, 100)},
		{vector.HandleNW, -10, -10, vector.R(90, 90, 210, 110)},
		{vector.HandleSE, -500, -500, vector.R(100, 100, 20, 20)},
		{vector.HandleW, 500, 0, vector.R(280, 100, 20, 100)},
		{vector.HandleN, 0, 500, vector.R(100, 180, 200, 20)},
		{vector.HandleNone, 10, 10, start},
	}
	for _, c := range cases {
		got := cfg.ResizeRect(o, start, c.h, c.dx, c.dy)
		assert.Equal(t, c.want, got, "handle %v delta (%v,%v)", c.h, c.dx, c.dy)
	}
}

func TestResizeRectSnapsToGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Snap = true
	o := note("n", 0, 0, 200, 100, 1)
	got := cfg.ResizeRect(o, o.Bounds(), vector.HandleSE, 13, 2)
	assert.Equal(t, vector.R(0, 0, 225, 100), got)
	got = cfg.ResizeRect(o, o.Bounds(), vector.HandleW, 190, 0)
	assert.Equal(t, vector.R(175, 0, 25, 100), got, "snapped size never drops below one cell")
}

func TestResizeRectImageKeepsAspectOnCorners(t *testing.T) {
	cfg := DefaultConfig()
	o := image("img", "asset", 100, 100, 200, 100, 400, 200)
	deltas := [][2]float64{{30, 5}, {5, 30}, {-40, 3}, {-1, -60}, {250, -250}, {-180, -90}, {-1000, -1000}}
	for _, h := range []vector.Handle{vector.HandleNW, vector.HandleNE, vector.HandleSE, vector.HandleSW} {
		for _, d := range deltas {
			r := cfg.ResizeRect(o, o.Bounds(), h, d[0], d[1])
			msg := fmt.Sprintf("handle %v delta %v -> %+v", h, d, r)
			assert.InDelta(t, 2.0, r.W/r.H, 1e-9, msg)
			assert.GreaterOrEqual(t, r.W, cfg.MinSize, msg)
			assert.GreaterOrEqual(t, r.H, cfg.MinSize, msg)
		}
	}
}

func TestResizeRectImageCornerAnchorsOppositeCorner(t *testing.T) {
	cfg := DefaultConfig()
	o := image("img", "asset", 100, 100, 200, 100, 2, 1)
	r := cfg.ResizeRect(o, o.Bounds(), vector.HandleNW, -100, 0)
	assert.Equal(t, vector.R(0, 50, 300, 150), r)
	assert.Equal(t, 300.0, r.X+r.W)
	assert.Equal(t, 200.0, r.Y+r.H)
}

func TestResizeRectImageEdgesDeriveOtherSide(t *testing.T) {
	cfg := DefaultConfig()
	o := image("img", "asset", 100, 100, 200, 100, 2, 1)
	assert.Equal(t, vector.R(100, 100, 250, 125), cfg.ResizeRect(o, o.Bounds(), vector.HandleE, 50, 0))
	assert.Equal(t, vector.R(100, 50, 300, 150), cfg.ResizeRect(o, o.Bounds(), vector.HandleN, 0, -50))
	assert.Equal(t, vector.R(260, 100, 40, 20), cfg.ResizeRect(o, o.Bounds(), vector.HandleW, 1000, 0))
}

func TestStoreResize(t *testing.T) {
	s := newTestStore(t, note("a", 0, 0, 100, 100, 1))
	got, err := s.Resize("a", vector.HandleSE, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, vector.R(0, 0, 110, 120), got.Bounds())
	assert.Equal(t, []string{"a"}, ids(s.VisibleObjects(vector.R(105, 115, 1, 1))))

	_, err = s.Resize("ghost", vector.HandleSE, 1, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
