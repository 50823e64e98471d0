/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package session

import (
	"log/slog"
	"math"

	"gowhiteboard/internal/board"
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

// Mode is the pointer interaction in progress.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
	ModePanning
)

func (m Mode) String() string {
	switch m {
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModePanning:
		return "panning"
	default:
		return "idle"
	}
}

type pointer struct {
	mode   Mode
	id     string
	handle vector.Handle
	press  vector.Pt // screen
	last   vector.Pt // screen
	start  vector.Rect
	moved  bool
}

// Mode reports the current pointer interaction.
func (s *Session) Mode() Mode { return s.ptr.mode }

// handleRadius converts the configured hotspot size from screen pixels to
// canvas units at the current zoom.
func (s *Session) handleRadius() float64 {
	return s.opts.Canvas.HandleSize / 2 / s.view.Zoom()
}

// Press starts an interaction at screen point (sx, sy): a handle of the
// selected object starts a resize, an object body a drag and empty canvas a
// pan. A press while another interaction is active ends that one first.
func (s *Session) Press(sx, sy float64) Mode {
	if s.ptr.mode != ModeIdle {
		s.Release()
	}
	cx, cy := s.view.ScreenToCanvas(sx, sy)
	return s.pressHit(s.store.HitTestRadius(vector.Pt{X: cx, Y: cy}, s.handleRadius()), sx, sy)
}

// pressHit starts the interaction for hit. A hit on an object the store no
// longer holds pans instead.
func (s *Session) pressHit(hit board.Hit, sx, sy float64) Mode {
	p := pointer{press: vector.Pt{X: sx, Y: sy}, last: vector.Pt{X: sx, Y: sy}}
	o, found := s.store.Get(hit.ID)
	switch {
	case hit.Kind == board.HitHandle && found:
		p.mode, p.id, p.handle, p.start = ModeResizing, hit.ID, hit.Handle, o.Bounds()
	case hit.Kind == board.HitBody && found && s.store.Select(hit.ID) == nil:
		p.mode, p.id, p.start = ModeDragging, hit.ID, o.Bounds()
	default:
		if hit.Kind != board.HitNone {
			s.log.Warn("pressed object is gone", slog.String("id", hit.ID), slog.String("hit", hit.Kind.String()))
		}
		// clearing the selection cannot fail
		_ = s.store.Select("")
		p.mode = ModePanning
	}
	s.ptr = p
	s.log.Debug("pointer press", slog.String("mode", p.mode.String()), slog.String("id", p.id))
	return p.mode
}

// Move continues the active interaction with the pointer at (sx, sy).
// Drags and resizes are computed from the press position so rounding and
// snapping never accumulate.
func (s *Session) Move(sx, sy float64) {
	p := &s.ptr
	cur := vector.Pt{X: sx, Y: sy}
	defer func() { p.last = cur }()
	if p.mode == ModeIdle || cur == p.last {
		return
	}
	z := s.view.Zoom()
	dx, dy := (sx-p.press.X)/z, (sy-p.press.Y)/z
	switch p.mode {
	case ModePanning:
		s.view.Pan(sx-p.last.X, sy-p.last.Y)
	case ModeDragging:
		r := p.start.Translate(dx, dy)
		r = s.snapMove(p.id, r)
		if _, err := s.store.SetBounds(p.id, r); err != nil {
			s.abort(err)
			return
		}
		s.markModified()
	case ModeResizing:
		o, ok := s.store.Get(p.id)
		if !ok {
			s.abort(&domain.NotFoundError{ID: p.id})
			return
		}
		r := s.store.Config().ResizeRect(o, p.start, p.handle, dx, dy)
		if _, err := s.store.SetBounds(p.id, r); err != nil {
			s.abort(err)
			return
		}
		s.markModified()
	}
	p.moved = true
}

// snapMove applies grid snapping and smart guides to a dragged rectangle.
func (s *Session) snapMove(id string, r vector.Rect) vector.Rect {
	c := s.opts.Canvas
	s.guides = nil
	if c.SnapToGrid {
		g := vector.Grid{Size: c.GridSize, Snap: true}
		p := g.SnapPoint(r.Min())
		r.X, r.Y = p.X, p.Y
	}
	if !c.SmartGuides {
		return r
	}
	var anchors []vector.Anchor
	for _, o := range s.store.VisibleObjects(s.VisibleRect()) {
		if o.ID != id {
			anchors = append(anchors, vector.Anchor{Rect: o.Bounds(), Weight: 1})
		}
	}
	snapped, guides := vector.ComputeSmartGuides(r, anchors, vector.SnapOptions{
		Threshold:     c.GuideThreshold / s.view.Zoom(),
		SnapToEdges:   true,
		SnapToCenters: true,
	})
	s.guides = guides
	return snapped
}

// abort drops a drag whose target went away underneath it.
func (s *Session) abort(err error) {
	s.log.Error("pointer interaction aborted", slog.String("id", s.ptr.id), slog.Any("err", err))
	s.ptr = pointer{}
	s.guides = nil
}

// Release ends any interaction and returns to idle.
func (s *Session) Release() {
	if s.ptr.mode != ModeIdle && s.ptr.moved {
		s.log.Debug("pointer release", slog.String("mode", s.ptr.mode.String()), slog.String("id", s.ptr.id))
	}
	s.ptr = pointer{}
	s.guides = nil
}

// Leave handles the pointer leaving the surface like a release so no
// interaction stays stuck.
func (s *Session) Leave() { s.Release() }

// Scroll zooms about (sx, sy) by the configured step per notch; positive
// notches zoom in.
func (s *Session) Scroll(sx, sy, notches float64) float64 {
	if notches == 0 {
		return s.view.Zoom()
	}
	return s.view.ZoomAt(sx, sy, math.Pow(s.opts.Canvas.ZoomStep, notches))
}
