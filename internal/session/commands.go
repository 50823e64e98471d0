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
	"fmt"
	"log/slog"

	"gowhiteboard/internal/domain"
)

// centred moves o so it sits in the middle of the visible area.
func (s *Session) centred(o domain.Object) domain.Object {
	c := s.VisibleRect().Center()
	o.X, o.Y = c.X-o.Width/2, c.Y-o.Height/2
	return o
}

func (s *Session) insert(o domain.Object) (domain.Object, error) {
	added, err := s.store.Add(o)
	if err != nil {
		s.log.Error("add failed", slog.String("kind", string(o.Kind())), slog.Any("err", err))
		return domain.Object{}, err
	}
	_ = s.store.Select(added.ID)
	s.markModified()
	return added, nil
}

// AddNote places a default note in the middle of the view and selects it.
func (s *Session) AddNote(text string) (domain.Object, error) {
	return s.insert(s.centred(domain.NewNote(0, 0, text)))
}

// AddText places a default text block in the middle of the view.
func (s *Session) AddText(text string) (domain.Object, error) {
	return s.insert(s.centred(domain.NewText(0, 0, text)))
}

// AddImageFile imports an image file at its natural size.
func (s *Session) AddImageFile(path string) (domain.Object, error) {
	a, err := s.assets.AddFile(path)
	if err != nil {
		s.log.Error("image import failed", slog.String("path", path), slog.Any("err", err))
		return domain.Object{}, err
	}
	return s.insert(s.centred(domain.NewImage(0, 0, a.ID, a.Width, a.Height)))
}

// AddImage imports encoded image bytes at their natural size.
func (s *Session) AddImage(data []byte) (domain.Object, error) {
	a, err := s.assets.Add(data)
	if err != nil {
		return domain.Object{}, &domain.AssetIOError{Asset: "clipboard", Err: err}
	}
	return s.insert(s.centred(domain.NewImage(0, 0, a.ID, a.Width, a.Height)))
}

// selectedOr resolves an explicit id or falls back to the selection.
func (s *Session) selectedOr(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if id = s.store.SelectedID(); id == "" {
		return "", fmt.Errorf("nothing selected: %w", domain.ErrNotFound)
	}
	return id, nil
}

// Delete removes the object, or the selection when id is empty. Deleting
// nothing is not an error.
func (s *Session) Delete(id string) {
	if id == "" {
		id = s.store.SelectedID()
	}
	if _, ok := s.store.Get(id); !ok {
		return
	}
	s.store.Remove(id)
	s.markModified()
}

// Duplicate copies the object (or the selection) and selects the copy.
func (s *Session) Duplicate(id string) (domain.Object, error) {
	id, err := s.selectedOr(id)
	if err != nil {
		return domain.Object{}, err
	}
	cp, err := s.store.Duplicate(id)
	if err != nil {
		return domain.Object{}, err
	}
	_ = s.store.Select(cp.ID)
	s.markModified()
	return cp, nil
}

func (s *Session) BringToFront(id string) error {
	return s.reorder(id, s.store.BringToFront)
}

func (s *Session) SendToBack(id string) error {
	return s.reorder(id, s.store.SendToBack)
}

func (s *Session) reorder(id string, fn func(string) error) error {
	id, err := s.selectedOr(id)
	if err != nil {
		return err
	}
	if err := fn(id); err != nil {
		return err
	}
	s.markModified()
	return nil
}

// EditText replaces the text of a note or text block.
func (s *Session) EditText(id, text string) (domain.Object, error) {
	return s.edit(id, func(o *domain.Object) error {
		switch p := o.Payload.(type) {
		case domain.NotePayload:
			p.Text = text
			o.Payload = p
		case domain.TextPayload:
			p.Text = text
			o.Payload = p
		default:
			return fmt.Errorf("%s objects have no text", o.Kind())
		}
		return nil
	})
}

// SetNoteColor changes a note's palette colour.
func (s *Session) SetNoteColor(id string, c domain.NoteColor) (domain.Object, error) {
	if !c.Valid() {
		return domain.Object{}, fmt.Errorf("unknown note colour %q", c)
	}
	return s.edit(id, func(o *domain.Object) error {
		p, ok := o.Payload.(domain.NotePayload)
		if !ok {
			return fmt.Errorf("%s objects have no note colour", o.Kind())
		}
		p.Color = c
		o.Payload = p
		return nil
	})
}

// SetTextColor changes the colour of a text block.
func (s *Session) SetTextColor(id string, c domain.RGB) (domain.Object, error) {
	return s.edit(id, func(o *domain.Object) error {
		p, ok := o.Payload.(domain.TextPayload)
		if !ok {
			return fmt.Errorf("%s objects have no text colour", o.Kind())
		}
		p.Color = c
		o.Payload = p
		return nil
	})
}

// SetFontSize changes the font size of a note or text block.
func (s *Session) SetFontSize(id string, size int) (domain.Object, error) {
	return s.edit(id, func(o *domain.Object) error {
		switch p := o.Payload.(type) {
		case domain.NotePayload:
			p.FontSize = size
			o.Payload = p
		case domain.TextPayload:
			p.FontSize = size
			o.Payload = p
		default:
			return fmt.Errorf("%s objects have no font", o.Kind())
		}
		return nil
	})
}

func (s *Session) edit(id string, fn func(*domain.Object) error) (domain.Object, error) {
	id, err := s.selectedOr(id)
	if err != nil {
		return domain.Object{}, err
	}
	cur, ok := s.store.Get(id)
	if !ok {
		return domain.Object{}, &domain.NotFoundError{ID: id}
	}
	if err := fn(&cur); err != nil {
		return domain.Object{}, err
	}
	o, err := s.store.Update(id, func(o *domain.Object) { o.Payload = cur.Payload })
	if err != nil {
		return domain.Object{}, err
	}
	s.markModified()
	return o, nil
}

// ZoomIn zooms about the centre of the view by the button step.
func (s *Session) ZoomIn() float64 {
	return s.view.ZoomAt(s.screenW/2, s.screenH/2, s.opts.Canvas.ButtonZoomStep)
}

// ZoomOut is the inverse of ZoomIn.
func (s *Session) ZoomOut() float64 {
	return s.view.ZoomAt(s.screenW/2, s.screenH/2, 1/s.opts.Canvas.ButtonZoomStep)
}

// SetZoom sets an absolute zoom about the centre of the view.
func (s *Session) SetZoom(z float64) float64 { return s.view.SetZoom(z, s.screenW, s.screenH) }

// ResetView returns to the origin at 100%.
func (s *Session) ResetView() { s.view.Reset() }

// ZoomToFit frames every object; an empty board resets the view.
func (s *Session) ZoomToFit() {
	r, ok := s.store.Bounds()
	if !ok {
		s.view.Reset()
		return
	}
	s.view.FitRect(r, s.screenW, s.screenH, 40)
}
