/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowhiteboard/internal/vector"
)

const tol = 1e-9

func TestInverseLaw(t *testing.T) {
	v := New(DefaultLimits)
	states := []State{
		{0, 0, 1},
		{-1234.5, 987.25, 0.1},
		{1e7, -1e7, 4},
		{33.3, 66.6, 1.7},
	}
	points := [][2]float64{{0, 0}, {1, 1}, {640, 480}, {-50, 3000}, {1920.5, 1080.25}}
	for _, s := range states {
		v.Restore(s)
		for _, p := range points {
			cx, cy := v.ScreenToCanvas(p[0], p[1])
			sx, sy := v.CanvasToScreen(cx, cy)
			assert.InDelta(t, p[0], sx, 1e-6, "state %+v point %v", s, p)
			assert.InDelta(t, p[1], sy, 1e-6, "state %+v point %v", s, p)
		}
	}
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	v := New(DefaultLimits)
	v.Restore(State{OffsetX: 120, OffsetY: -40, Zoom: 1.3})
	for _, f := range []float64{1.1, 1 / 1.1, 2, 0.5, 10, 0.01} {
		ax, ay := 311.0, 207.0
		bx, by := v.ScreenToCanvas(ax, ay)
		v.ZoomAt(ax, ay, f)
		cx, cy := v.ScreenToCanvas(ax, ay)
		assert.InDelta(t, bx, cx, tol)
		assert.InDelta(t, by, cy, tol)
	}
}

func TestZoomIsClamped(t *testing.T) {
	v := New(Limits{Min: 0.1, Max: 4})
	got := v.ZoomAt(0, 0, 100)
	assert.Equal(t, 4.0, got)
	got = v.ZoomAt(0, 0, 1e-6)
	assert.Equal(t, 0.1, got)
	assert.Equal(t, v.Zoom(), v.ZoomAt(0, 0, -3), "non-positive factor is ignored")

	v.Restore(State{Zoom: 99})
	assert.Equal(t, 4.0, v.Zoom())
}

func TestPanFollowsPointerAtAnyZoom(t *testing.T) {
	v := New(DefaultLimits)
	v.SetZoomAt(2.5, 0, 0)
	cx, cy := v.ScreenToCanvas(100, 100)
	v.Pan(30, -20)
	sx, sy := v.CanvasToScreen(cx, cy)
	assert.InDelta(t, 130, sx, tol)
	assert.InDelta(t, 80, sy, tol)
}

func TestVisibleRect(t *testing.T) {
	v := New(DefaultLimits)
	v.Restore(State{OffsetX: 10, OffsetY: 20, Zoom: 2})
	x1, y1, x2, y2 := v.VisibleRect(800, 600)
	assert.Equal(t, []float64{10, 20, 410, 320}, []float64{x1, y1, x2, y2})
	assert.Equal(t, vector.R(10, 20, 400, 300), v.Visible(800, 600))
}

func TestCenterOnAndFitRect(t *testing.T) {
	v := New(DefaultLimits)
	v.CenterOn(500, 500, 800, 600)
	cx, cy := v.ScreenToCanvas(400, 300)
	assert.InDelta(t, 500, cx, tol)
	assert.InDelta(t, 500, cy, tol)

	r := vector.R(0, 0, 1600, 600)
	v.FitRect(r, 800, 600, 0)
	assert.InDelta(t, 0.5, v.Zoom(), tol)
	x1, y1, x2, y2 := v.VisibleRect(800, 600)
	assert.True(t, x1 <= r.X && y1 <= r.Y && x2 >= r.X+r.W && y2 >= r.Y+r.H, "fit rect must be visible")

	v.FitRect(vector.R(0, 0, 1e9, 1e9), 800, 600, 20)
	assert.Equal(t, 0.1, v.Zoom(), "fit is bounded by the zoom limits")
}

func TestResetAndTransform(t *testing.T) {
	v := New(DefaultLimits)
	v.Restore(State{OffsetX: -7, OffsetY: 3, Zoom: 3})
	m := v.Transform()
	p := m.Apply(vector.Pt{X: 10, Y: 10})
	sx, sy := v.CanvasToScreen(10, 10)
	assert.InDelta(t, sx, p.X, tol)
	assert.InDelta(t, sy, p.Y, tol)

	v.Reset()
	require.Equal(t, State{Zoom: 1}, v.State())
}

func TestNewRejectsInvertedLimits(t *testing.T) {
	v := New(Limits{Min: 5, Max: 1})
	assert.Equal(t, DefaultLimits, v.Limits())
	assert.Equal(t, 1.0, v.Zoom())
}
