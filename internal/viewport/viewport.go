/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport maps between screen pixels and the unbounded canvas.
//
// A Viewport is plain state (offset and zoom) with pure arithmetic on top:
//
//	cx = sx/zoom + offsetX        sx = (cx - offsetX) * zoom
//
// Zoom is always clamped to [Limits.Min, Limits.Max]; the offset is unconstrained.
// A Viewport is not safe for concurrent mutation; the owning session serializes calls.
package viewport

import (
	"math"

	"gowhiteboard/internal/vector"
)

// Limits bounds the zoom factor.
type Limits struct {
	Min, Max float64
}

// DefaultLimits matches the canvas defaults in the user config.
var DefaultLimits = Limits{Min: 0.1, Max: 4.0}

func (l Limits) clamp(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Max(l.Min, math.Min(l.Max, z))
}

// Viewport is the pan offset (canvas units at the top-left screen pixel) and
// the zoom factor (screen pixels per canvas unit).
type Viewport struct {
	OffsetX, OffsetY float64
	zoom             float64
	limits           Limits
}

// New returns a viewport at the origin with zoom 1 (clamped into l).
func New(l Limits) *Viewport {
	if l.Min <= 0 || l.Max < l.Min {
		l = DefaultLimits
	}
	v := &Viewport{limits: l}
	v.zoom = l.clamp(1)
	return v
}

func (v *Viewport) Zoom() float64  { return v.zoom }
func (v *Viewport) Limits() Limits { return v.limits }

// ScreenToCanvas converts a screen position to canvas coordinates.
func (v *Viewport) ScreenToCanvas(sx, sy float64) (float64, float64) {
	return sx/v.zoom + v.OffsetX, sy/v.zoom + v.OffsetY
}

// CanvasToScreen converts canvas coordinates to a screen position.
func (v *Viewport) CanvasToScreen(cx, cy float64) (float64, float64) {
	return (cx - v.OffsetX) * v.zoom, (cy - v.OffsetY) * v.zoom
}

// Pan moves the view by a screen-pixel delta; content under the pointer
// follows the pointer at any zoom.
func (v *Viewport) Pan(dxScreen, dyScreen float64) {
	v.OffsetX -= dxScreen / v.zoom
	v.OffsetY -= dyScreen / v.zoom
}

// ZoomAt multiplies the zoom by factor, keeping the canvas point under
// (sx, sy) fixed on screen. It returns the zoom actually applied.
func (v *Viewport) ZoomAt(sx, sy, factor float64) float64 {
	if factor <= 0 {
		return v.zoom
	}
	return v.SetZoomAt(v.zoom*factor, sx, sy)
}

// SetZoomAt sets an absolute zoom anchored at the screen point (sx, sy).
func (v *Viewport) SetZoomAt(zoom, sx, sy float64) float64 {
	cx, cy := v.ScreenToCanvas(sx, sy)
	v.zoom = v.limits.clamp(zoom)
	// solve cx = sx/zoom' + offset' for the new offset
	v.OffsetX = cx - sx/v.zoom
	v.OffsetY = cy - sy/v.zoom
	return v.zoom
}

// SetZoom sets an absolute zoom anchored at the centre of a screen of the given size.
func (v *Viewport) SetZoom(zoom, screenW, screenH float64) float64 {
	return v.SetZoomAt(zoom, screenW/2, screenH/2)
}

// VisibleRect returns the canvas rectangle (x1, y1, x2, y2) covered by a
// screen of the given size.
func (v *Viewport) VisibleRect(screenW, screenH float64) (x1, y1, x2, y2 float64) {
	x1, y1 = v.ScreenToCanvas(0, 0)
	x2, y2 = v.ScreenToCanvas(screenW, screenH)
	return
}

// Visible is VisibleRect as a vector.Rect.
func (v *Viewport) Visible(screenW, screenH float64) vector.Rect {
	return vector.FromCorners(v.VisibleRect(screenW, screenH))
}

// Reset restores zoom 1 at the origin.
func (v *Viewport) Reset() {
	v.OffsetX, v.OffsetY = 0, 0
	v.zoom = v.limits.clamp(1)
}

// CenterOn pans so that the canvas point (cx, cy) sits at the centre of the screen.
func (v *Viewport) CenterOn(cx, cy, screenW, screenH float64) {
	v.OffsetX = cx - screenW/2/v.zoom
	v.OffsetY = cy - screenH/2/v.zoom
}

// FitRect zooms and pans so r fits inside the screen with margin pixels on
// each side. An empty rect only recentres.
func (v *Viewport) FitRect(r vector.Rect, screenW, screenH, margin float64) {
	c := r.Center()
	availW, availH := screenW-2*margin, screenH-2*margin
	if r.W > 0 && r.H > 0 && availW > 0 && availH > 0 {
		v.zoom = v.limits.clamp(math.Min(availW/r.W, availH/r.H))
	}
	v.CenterOn(c.X, c.Y, screenW, screenH)
}

// Transform returns the canvas-to-screen mapping as an affine matrix for renderers.
func (v *Viewport) Transform() vector.Affine2D {
	return vector.Scale(v.zoom, v.zoom).Mul(vector.Translate(-v.OffsetX, -v.OffsetY))
}

// State is the serializable form of a viewport, kept in board metadata.
type State struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Zoom    float64 `json:"zoom"`
}

func (v *Viewport) State() State { return State{OffsetX: v.OffsetX, OffsetY: v.OffsetY, Zoom: v.zoom} }

// Restore applies a saved state, clamping its zoom.
func (v *Viewport) Restore(s State) {
	v.OffsetX, v.OffsetY = s.OffsetX, s.OffsetY
	if s.Zoom <= 0 {
		s.Zoom = 1
	}
	v.zoom = v.limits.clamp(s.Zoom)
}
