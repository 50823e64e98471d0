/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "fmt"

// Handle identifies one of the eight resize hotspots around a rectangle.
// HandleNone means "no handle".
type Handle uint8

const (
	HandleNone Handle = iota
	HandleNW
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

// Handles lists the hotspots in hit-test order: corners win over edges where
// the squares overlap on very small rects.
var Handles = [...]Handle{HandleNW, HandleNE, HandleSE, HandleSW, HandleN, HandleE, HandleS, HandleW}

var handleNames = [...]string{"none", "nw", "n", "ne", "e", "se", "s", "sw", "w"}

func (h Handle) String() string {
	if int(h) < len(handleNames) {
		return handleNames[h]
	}
	return fmt.Sprintf("handle(%d)", h)
}

// IsCorner reports whether h is one of NW, NE, SE, SW.
func (h Handle) IsCorner() bool {
	return h == HandleNW || h == HandleNE || h == HandleSE || h == HandleSW
}

// MovesLeft, MovesRight, MovesTop and MovesBottom report which edges of the
// rect follow the pointer when h is dragged.
func (h Handle) MovesLeft() bool   { return h == HandleNW || h == HandleW || h == HandleSW }
func (h Handle) MovesRight() bool  { return h == HandleNE || h == HandleE || h == HandleSE }
func (h Handle) MovesTop() bool    { return h == HandleNW || h == HandleN || h == HandleNE }
func (h Handle) MovesBottom() bool { return h == HandleSW || h == HandleS || h == HandleSE }

// Point returns the hotspot centre of h on r.
func (h Handle) Point(r Rect) Pt {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	x2, y2 := r.X+r.W, r.Y+r.H
	switch h {
	case HandleNW:
		return Pt{r.X, r.Y}
	case HandleN:
		return Pt{cx, r.Y}
	case HandleNE:
		return Pt{x2, r.Y}
	case HandleE:
		return Pt{x2, cy}
	case HandleSE:
		return Pt{x2, y2}
	case HandleS:
		return Pt{cx, y2}
	case HandleSW:
		return Pt{r.X, y2}
	case HandleW:
		return Pt{r.X, cy}
	}
	return Pt{cx, cy}
}

// Hotspot returns the square of half-size radius centred on h's point.
func (h Handle) Hotspot(r Rect, radius float64) Rect {
	p := h.Point(r)
	return Rect{X: p.X - radius, Y: p.Y - radius, W: 2 * radius, H: 2 * radius}
}

// HandleAt returns the first handle of r whose hotspot contains p.
func HandleAt(r Rect, p Pt, radius float64) Handle {
	for _, h := range Handles {
		if h.Hotspot(r, radius).Contains(p) {
			return h
		}
	}
	return HandleNone
}

// ParseHandle is the inverse of Handle.String.
func ParseHandle(s string) (Handle, error) {
	for i, n := range handleNames {
		if n == s {
			return Handle(i), nil
		}
	}
	return HandleNone, fmt.Errorf("unknown handle %q", s)
}
