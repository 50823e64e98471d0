/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/vector"
)

// HitKind tells what a hit test found under the pointer.
type HitKind uint8

const (
	HitNone HitKind = iota
	HitBody
	HitHandle
)

func (k HitKind) String() string {
	switch k {
	case HitBody:
		return "body"
	case HitHandle:
		return "handle"
	}
	return "none"
}

// Hit is the result of a hit test. Handle is set only for HitHandle.
type Hit struct {
	Kind   HitKind
	ID     string
	Handle vector.Handle
}

// HitTest tests p with the configured handle radius.
func (s *Store) HitTest(p vector.Pt) Hit {
	return s.HitTestRadius(p, s.cfg.HandleRadius)
}

// HitTestRadius checks the resize handles of the selected object first and
// then object bodies from the top of the z order down.
func (s *Store) HitTestRadius(p vector.Pt, radius float64) Hit {
	if sel, ok := s.objects[s.selected]; ok {
		if h := vector.HandleAt(sel.Bounds(), p, radius); h != vector.HandleNone {
			return Hit{Kind: HitHandle, ID: sel.ID, Handle: h}
		}
	}
	if o, ok := s.topmostAt(p); ok {
		return Hit{Kind: HitBody, ID: o.ID}
	}
	return Hit{}
}

// TopmostAt returns the highest-z object containing p.
func (s *Store) TopmostAt(p vector.Pt) (domain.Object, bool) {
	o, ok := s.topmostAt(p)
	if !ok {
		return domain.Object{}, false
	}
	return o.Clone(), true
}

func (s *Store) topmostAt(p vector.Pt) (*domain.Object, bool) {
	var best *domain.Object
	s.eachCandidate(vector.R(p.X, p.Y, 0, 0), func(o *domain.Object) {
		if !o.Bounds().Contains(p) {
			return
		}
		if best == nil || o.ZIndex > best.ZIndex {
			best = o
		}
	})
	return best, best != nil
}

// ObjectsAt returns every object containing p, topmost first.
func (s *Store) ObjectsAt(p vector.Pt) []domain.Object {
	var out []domain.Object
	s.eachCandidate(vector.R(p.X, p.Y, 0, 0), func(o *domain.Object) {
		if o.Bounds().Contains(p) {
			out = append(out, o.Clone())
		}
	})
	sortByZ(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
