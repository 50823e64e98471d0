//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"gowhiteboard/internal/export"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/session"
	"gowhiteboard/internal/textlayout"
	"gowhiteboard/internal/vector"
)

var (
	selectionColour = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	guideColour     = color.RGBA{R: 255, G: 0, B: 170, A: 200}
)

// BoardCanvas is the drawing surface of one session. Pointer events are
// forwarded to the session in screen pixels; the board itself is painted by
// the PNG rasterizer and the selection overlay with canvas primitives.
type BoardCanvas struct {
	widget.BaseWidget

	sess  *session.Session
	fonts *textlayout.FontLibrary
	log   *slog.Logger

	// OnChanged runs after an interaction that may have modified the board.
	OnChanged func()
	// OnEdit runs on a double tap over a note or text.
	OnEdit func(id string)
	// OnMenu runs on a secondary tap; id is empty over the background.
	OnMenu func(id string, pos fyne.Position)
}

// NewBoardCanvas creates a canvas over s.
func NewBoardCanvas(s *session.Session, fonts *textlayout.FontLibrary) *BoardCanvas {
	if fonts == nil {
		fonts = textlayout.DefaultLibrary()
	}
	bc := &BoardCanvas{sess: s, fonts: fonts, log: applog.WithComponent("ui.canvas")}
	bc.ExtendBaseWidget(bc)
	return bc
}

// SetSession swaps the board shown, e.g. after File > New.
func (b *BoardCanvas) SetSession(s *session.Session) {
	b.sess = s
	b.Refresh()
}

// Session returns the board shown.
func (b *BoardCanvas) Session() *session.Session { return b.sess }

func (b *BoardCanvas) changed() {
	b.Refresh()
	if b.OnChanged != nil {
		b.OnChanged()
	}
}

// MouseDown starts a drag, resize or pan under the pointer.
func (b *BoardCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.sess.Press(float64(e.Position.X), float64(e.Position.Y))
	b.Refresh()
}

// MouseUp ends the interaction.
func (b *BoardCanvas) MouseUp(*desktop.MouseEvent) {
	if b.sess.Mode() == session.ModeIdle {
		return
	}
	b.sess.Release()
	b.changed()
}

// Dragged forwards the pointer position of an active interaction.
func (b *BoardCanvas) Dragged(e *fyne.DragEvent) {
	if b.sess.Mode() == session.ModeIdle {
		return
	}
	b.sess.Move(float64(e.Position.X), float64(e.Position.Y))
	b.Refresh()
}

// DragEnd ends the interaction.
func (b *BoardCanvas) DragEnd() {
	if b.sess.Mode() == session.ModeIdle {
		return
	}
	b.sess.Release()
	b.changed()
}

// MouseIn is required by desktop.Hoverable.
func (b *BoardCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseMoved is required by desktop.Hoverable.
func (b *BoardCanvas) MouseMoved(*desktop.MouseEvent) {}

// MouseOut drops any interaction so nothing stays stuck to the pointer.
func (b *BoardCanvas) MouseOut() {
	if b.sess.Mode() == session.ModeIdle {
		return
	}
	b.sess.Leave()
	b.changed()
}

// Scrolled zooms about the pointer, one step per wheel notch.
func (b *BoardCanvas) Scrolled(e *fyne.ScrollEvent) {
	notches := float64(e.Scrolled.DY) / 10
	if notches == 0 {
		return
	}
	z := b.sess.Scroll(float64(e.Position.X), float64(e.Position.Y), notches)
	b.log.Debug("zoom", slog.Float64("zoom", z))
	b.changed()
}

// Tapped is required by fyne.Tappable; selection happens in MouseDown.
func (b *BoardCanvas) Tapped(*fyne.PointEvent) {}

// DoubleTapped opens the text editor for the object under the pointer.
func (b *BoardCanvas) DoubleTapped(e *fyne.PointEvent) {
	o, ok := b.objectAt(e.Position)
	if !ok || b.OnEdit == nil {
		return
	}
	b.OnEdit(o)
}

// TappedSecondary selects the object under the pointer and opens its menu.
func (b *BoardCanvas) TappedSecondary(e *fyne.PointEvent) {
	id, _ := b.objectAt(e.Position)
	if id != "" {
		_ = b.sess.Store().Select(id)
		b.Refresh()
	}
	if b.OnMenu != nil {
		b.OnMenu(id, e.AbsolutePosition)
	}
}

func (b *BoardCanvas) objectAt(p fyne.Position) (string, bool) {
	cx, cy := b.sess.Viewport().ScreenToCanvas(float64(p.X), float64(p.Y))
	o, ok := b.sess.Store().TopmostAt(vector.Pt{X: cx, Y: cy})
	if !ok {
		return "", false
	}
	return o.ID, true
}

// MinSize keeps the surface usable in small windows.
func (b *BoardCanvas) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

// CreateRenderer builds the raster and the overlay primitives.
func (b *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{bc: b}
	r.raster = canvas.NewRaster(r.paint)
	r.bbox = canvas.NewRectangle(color.Transparent)
	r.bbox.StrokeColor = selectionColour
	r.bbox.StrokeWidth = 1
	for i := range r.handles {
		r.handles[i] = canvas.NewRectangle(color.White)
		r.handles[i].StrokeColor = selectionColour
		r.handles[i].StrokeWidth = 1
	}
	r.rebuild()
	return r
}

type boardRenderer struct {
	bc      *BoardCanvas
	raster  *canvas.Raster
	bbox    *canvas.Rectangle
	handles [len(vector.Handles)]*canvas.Rectangle
	guides  []*canvas.Line
	objects []fyne.CanvasObject
}

func (r *boardRenderer) Destroy()                     {}
func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) MinSize() fyne.Size           { return r.bc.MinSize() }

func (r *boardRenderer) Refresh() {
	r.Layout(r.bc.Size())
	r.raster.Refresh()
	canvas.Refresh(r.bc)
}

// rebuild resets the draw order: board, guides, selection box, handles.
func (r *boardRenderer) rebuild() {
	objs := []fyne.CanvasObject{r.raster}
	for _, g := range r.guides {
		objs = append(objs, g)
	}
	objs = append(objs, r.bbox)
	for _, h := range r.handles {
		objs = append(objs, h)
	}
	r.objects = objs
}

func (r *boardRenderer) Layout(size fyne.Size) {
	s := r.bc.sess
	s.SetScreenSize(float64(size.Width), float64(size.Height))
	r.raster.Resize(size)
	r.raster.Move(fyne.NewPos(0, 0))

	v := s.Viewport()
	toScreen := func(p vector.Pt) fyne.Position {
		x, y := v.CanvasToScreen(p.X, p.Y)
		return fyne.NewPos(float32(x), float32(y))
	}

	sel, ok := s.Store().Selected()
	if !ok {
		r.bbox.Hide()
		for _, h := range r.handles {
			h.Hide()
		}
	} else {
		b := sel.Bounds()
		p0, p1 := toScreen(b.Min()), toScreen(b.Max())
		r.bbox.Move(p0)
		r.bbox.Resize(fyne.NewSize(p1.X-p0.X, p1.Y-p0.Y))
		r.bbox.Show()
		hs := float32(s.Options().Canvas.HandleSize)
		for i, h := range vector.Handles {
			c := toScreen(h.Point(b))
			r.handles[i].Move(fyne.NewPos(c.X-hs/2, c.Y-hs/2))
			r.handles[i].Resize(fyne.NewSize(hs, hs))
			r.handles[i].Show()
		}
	}

	guides := s.Guides()
	if len(guides) > len(r.guides) {
		for len(r.guides) < len(guides) {
			l := canvas.NewLine(guideColour)
			l.StrokeWidth = 1
			r.guides = append(r.guides, l)
		}
		r.rebuild()
	}
	for i, l := range r.guides {
		if i >= len(guides) {
			l.Hide()
			continue
		}
		l.Position1 = toScreen(guides[i].From)
		l.Position2 = toScreen(guides[i].To)
		l.Show()
		l.Refresh()
	}
}

// paint renders the visible part of the board at the raster's pixel size.
func (r *boardRenderer) paint(w, h int) image.Image {
	s := r.bc.sess
	area := s.VisibleRect()
	if w <= 0 || h <= 0 || area.W <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	scene, err := export.AreaScene(s.Store(), s.Assets(), area)
	if err != nil {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	scene.Grid = s.Store().Config().Grid
	scale := float64(w) / area.W
	img, err := export.RenderPNG(scene, export.PNGOptions{Scale: scale, Fonts: r.bc.fonts})
	if err != nil {
		r.bc.log.Warn("paint failed", slog.Any("err", err))
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return img
}
