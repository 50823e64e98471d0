/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Smart guides align a dragged object with its neighbours. The helpers are
// UI-agnostic and deterministic so the session and tests share them.

import "math"

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance (in canvas units) at which snapping
	// occurs. Typical UI values are 6 to 8 screen pixels divided by zoom.
	Threshold float64
	// Snap to edges (left, right, top, bottom)
	SnapToEdges bool
	// Snap to centers (cx, cy)
	SnapToCenters bool
}

// Anchor is a static reference rect (another object on the board).
// Weight biases selection when distances tie (higher = preferred); use 1 when unsure.
type Anchor struct {
	Rect   Rect
	Weight float64
}

// GuideLine describes a visual guide generated during a snap alignment.
// Orientation is "vertical" or "horizontal"; Kind is "edge" or "center".
// Position is the x (vertical) or y (horizontal) coordinate of the guide,
// rounded to 3 decimal places.
type GuideLine struct {
	Orientation string
	Kind        string
	Position    float64
	From        Pt
	To          Pt
}

type axisBest struct {
	delta, dist float64
	guide       GuideLine
}

func (b *axisBest) consider(delta, threshold, weight float64, g GuideLine) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	score := dist / math.Max(1, weight)
	if score < b.dist {
		b.dist = dist
		b.delta = delta
		b.guide = g
	}
}

// ComputeSmartGuides computes snapping adjustments for a moving rectangle
// against a set of anchors. It returns the snapped rectangle and any guide
// lines to render. Snapping happens independently in X and Y.
func ComputeSmartGuides(moving Rect, anchors []Anchor, opts SnapOptions) (Rect, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	var guides []GuideLine
	bx := axisBest{dist: math.Inf(1)}
	by := axisBest{dist: math.Inf(1)}

	mL, mR, mT, mB := moving.X, moving.X+moving.W, moving.Y, moving.Y+moving.H
	mCX, mCY := moving.X+moving.W/2, moving.Y+moving.H/2

	for _, a := range anchors {
		aL, aR, aT, aB := a.Rect.X, a.Rect.X+a.Rect.W, a.Rect.Y, a.Rect.Y+a.Rect.H
		aCX, aCY := a.Rect.X+a.Rect.W/2, a.Rect.Y+a.Rect.H/2
		v := func(x float64, kind string) GuideLine { return guideForVertical(x, moving, a.Rect, kind) }
		h := func(y float64, kind string) GuideLine { return guideForHorizontal(y, moving, a.Rect, kind) }

		if opts.SnapToEdges {
			bx.consider(mL-aL, opts.Threshold, a.Weight, v(aL, "edge"))
			bx.consider(mR-aR, opts.Threshold, a.Weight, v(aR, "edge"))
			// abutting edges
			bx.consider(mL-aR, opts.Threshold, a.Weight, v(aR, "edge"))
			bx.consider(mR-aL, opts.Threshold, a.Weight, v(aL, "edge"))

			by.consider(mT-aT, opts.Threshold, a.Weight, h(aT, "edge"))
			by.consider(mB-aB, opts.Threshold, a.Weight, h(aB, "edge"))
			by.consider(mT-aB, opts.Threshold, a.Weight, h(aB, "edge"))
			by.consider(mB-aT, opts.Threshold, a.Weight, h(aT, "edge"))
		}
		if opts.SnapToCenters {
			bx.consider(mCX-aCX, opts.Threshold, a.Weight, v(aCX, "center"))
			by.consider(mCY-aCY, opts.Threshold, a.Weight, h(aCY, "center"))
		}
	}

	snapped := moving
	if bx.dist <= opts.Threshold {
		snapped.X = FloatRound(moving.X-bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if by.dist <= opts.Threshold {
		snapped.Y = FloatRound(moving.Y-by.delta, 3)
		guides = append(guides, by.guide)
	}
	return snapped, guides
}

func guideForVertical(x float64, a Rect, b Rect, kind string) GuideLine {
	minY := math.Min(a.Y, b.Y)
	maxY := math.Max(a.Y+a.H, b.Y+b.H)
	x = FloatRound(x, 3)
	return GuideLine{
		Orientation: "vertical",
		Kind:        kind,
		Position:    x,
		From:        Pt{x, minY},
		To:          Pt{x, maxY},
	}
}

func guideForHorizontal(y float64, a Rect, b Rect, kind string) GuideLine {
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.X+a.W, b.X+b.W)
	y = FloatRound(y, 3)
	return GuideLine{
		Orientation: "horizontal",
		Kind:        kind,
		Position:    y,
		From:        Pt{minX, y},
		To:          Pt{maxX, y},
	}
}
