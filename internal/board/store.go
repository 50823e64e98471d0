/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package board holds the Object Store: every canvas object of one open
// board, the selection, spatial queries and z-order.
//
// A Store is not safe for concurrent mutation. The session serializes all
// user-driven calls; background savers work on a Snapshot.
package board

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gowhiteboard/internal/domain"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/vector"
)

// Config carries the store tunables in canvas units.
type Config struct {
	// HandleRadius is the half-size of a resize hotspot.
	HandleRadius float64
	// MinSize is the smallest width or height a resize may produce.
	MinSize float64
	// DuplicateOffset shifts copies right and down.
	DuplicateOffset float64
	// CellSize is the spatial index cell edge.
	CellSize float64
	// Grid snaps resized sizes when enabled.
	Grid vector.Grid
}

func DefaultConfig() Config {
	return Config{HandleRadius: 5, MinSize: 20, DuplicateOffset: 20, CellSize: 500, Grid: vector.Grid{Size: 25}}
}

// AssetReleaser is told when the last object referencing an asset goes away.
type AssetReleaser interface {
	Release(id string)
}

// Store owns the objects of one board.
type Store struct {
	cfg      Config
	objects  map[string]*domain.Object
	byZ      map[int64]string
	refs     map[string]int // asset id -> referencing image count
	index    *spatialGrid
	selected string
	assets   AssetReleaser
	now      func() time.Time
	log      *slog.Logger
}

// NewStore returns an empty store. rel may be nil.
func NewStore(cfg Config, rel AssetReleaser) *Store {
	d := DefaultConfig()
	if cfg.MinSize <= 0 {
		cfg.MinSize = d.MinSize
	}
	if cfg.HandleRadius <= 0 {
		cfg.HandleRadius = d.HandleRadius
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = d.CellSize
	}
	return &Store{
		cfg:     cfg,
		objects: map[string]*domain.Object{},
		byZ:     map[int64]string{},
		refs:    map[string]int{},
		index:   newSpatialGrid(cfg.CellSize),
		assets:  rel,
		now:     domain.Now,
		log:     applog.WithComponent("board"),
	}
}

// FromObjects builds a store from a complete object set, as produced by a
// load. Every object must carry an explicit, unique ZIndex.
func FromObjects(cfg Config, rel AssetReleaser, objs []domain.Object) (*Store, error) {
	s := NewStore(cfg, rel)
	for _, o := range objs {
		if o.ZIndex == domain.ZUnset {
			return nil, fmt.Errorf("object %s: %w: z-index unset", o.ID, domain.ErrInvalidGeometry)
		}
		if _, err := s.Add(o); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Config() Config { return s.cfg }

// SetClock replaces the timestamp source.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Len() int { return len(s.objects) }

// Add inserts a copy of o. An unset ZIndex becomes max+1; an explicit one
// must not collide with another object.
func (s *Store) Add(o domain.Object) (domain.Object, error) {
	if err := o.Validate(); err != nil {
		return domain.Object{}, err
	}
	if _, ok := s.objects[o.ID]; ok {
		return domain.Object{}, &domain.DuplicateIDError{ID: o.ID}
	}
	if o.ZIndex == domain.ZUnset {
		o.ZIndex = s.nextFront()
	} else if other, ok := s.byZ[o.ZIndex]; ok {
		return domain.Object{}, fmt.Errorf("object %s z=%d held by %s: %w", o.ID, o.ZIndex, other, domain.ErrZIndexConflict)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	if o.ModifiedAt.IsZero() {
		o.ModifiedAt = o.CreatedAt
	}
	p := &o
	s.objects[o.ID] = p
	s.byZ[o.ZIndex] = o.ID
	s.index.insert(o.ID, o.Bounds())
	s.retain(o.Payload)
	s.log.Debug("object added", slog.String("id", o.ID), slog.String("kind", string(o.Kind())), slog.Int64("z", o.ZIndex))
	return o, nil
}

// Remove deletes id. Removing a missing id is a no-op.
func (s *Store) Remove(id string) {
	o, ok := s.objects[id]
	if !ok {
		return
	}
	delete(s.objects, id)
	delete(s.byZ, o.ZIndex)
	s.index.remove(id, o.Bounds())
	if s.selected == id {
		s.selected = ""
	}
	s.release(o.Payload)
	s.log.Debug("object removed", slog.String("id", id))
}

// Get returns a copy of the object with id.
func (s *Store) Get(id string) (domain.Object, bool) {
	o, ok := s.objects[id]
	if !ok {
		return domain.Object{}, false
	}
	return o.Clone(), true
}

func (s *Store) mustGet(id string) (*domain.Object, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}
	return o, nil
}

// Update applies fn to a copy of the object and commits it when the result
// is valid. ID, ZIndex, CreatedAt and the payload kind cannot change.
func (s *Store) Update(id string, fn func(*domain.Object)) (domain.Object, error) {
	cur, err := s.mustGet(id)
	if err != nil {
		return domain.Object{}, err
	}
	next := cur.Clone()
	fn(&next)
	next.ID, next.ZIndex, next.CreatedAt = cur.ID, cur.ZIndex, cur.CreatedAt
	if next.Kind() != cur.Kind() {
		return domain.Object{}, fmt.Errorf("object %s: cannot change kind %s to %s", id, cur.Kind(), next.Kind())
	}
	if err := next.Validate(); err != nil {
		return domain.Object{}, err
	}
	next.Touch(s.now())
	s.commit(cur, next)
	return next, nil
}

// commit swaps cur for next, keeping the index and asset refs in sync.
func (s *Store) commit(cur *domain.Object, next domain.Object) {
	if cur.Bounds() != next.Bounds() {
		s.index.move(cur.ID, cur.Bounds(), next.Bounds())
	}
	if cur.Payload != next.Payload {
		s.retain(next.Payload)
		s.release(cur.Payload)
	}
	*cur = next
}

// MoveBy translates an object by a canvas delta.
func (s *Store) MoveBy(id string, dx, dy float64) (domain.Object, error) {
	return s.Update(id, func(o *domain.Object) { o.X += dx; o.Y += dy })
}

// SetBounds replaces an object's position and size.
func (s *Store) SetBounds(id string, r vector.Rect) (domain.Object, error) {
	return s.Update(id, func(o *domain.Object) { o.SetBounds(r) })
}

// Objects returns copies of all objects in ascending z order.
func (s *Store) Objects() []domain.Object {
	out := make([]domain.Object, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, o.Clone())
	}
	sortByZ(out)
	return out
}

// Snapshot is Objects under the name used by savers: the returned slice
// shares nothing with the store.
func (s *Store) Snapshot() []domain.Object { return s.Objects() }

// VisibleObjects returns the objects whose bounds intersect r, ascending by z.
func (s *Store) VisibleObjects(r vector.Rect) []domain.Object {
	var out []domain.Object
	s.eachCandidate(r, func(o *domain.Object) {
		if o.Bounds().Intersects(r) {
			out = append(out, o.Clone())
		}
	})
	sortByZ(out)
	return out
}

func (s *Store) eachCandidate(r vector.Rect, fn func(*domain.Object)) {
	ids, ok := s.index.query(r)
	if !ok {
		for _, o := range s.objects {
			fn(o)
		}
		return
	}
	for id := range ids {
		if o, ok := s.objects[id]; ok {
			fn(o)
		}
	}
}

// Bounds returns the union of all object bounds; false when the store is empty.
func (s *Store) Bounds() (vector.Rect, bool) {
	var u vector.Rect
	first := true
	for _, o := range s.objects {
		if first {
			u, first = o.Bounds(), false
			continue
		}
		u = u.Union(o.Bounds())
	}
	return u, !first
}

// Duplicate copies an object with a fresh id, offset by the configured
// delta and placed on top.
func (s *Store) Duplicate(id string) (domain.Object, error) {
	cur, err := s.mustGet(id)
	if err != nil {
		return domain.Object{}, err
	}
	cp := cur.Clone()
	cp.ID = domain.NewID()
	cp.X += s.cfg.DuplicateOffset
	cp.Y += s.cfg.DuplicateOffset
	cp.ZIndex = domain.ZUnset
	now := s.now()
	cp.CreatedAt, cp.ModifiedAt = now, now
	return s.Add(cp)
}

// Select marks id as the selected object; an empty id clears the selection.
func (s *Store) Select(id string) error {
	if id == "" {
		s.selected = ""
		return nil
	}
	if _, ok := s.objects[id]; !ok {
		return &domain.NotFoundError{ID: id}
	}
	s.selected = id
	return nil
}

// SelectedID returns the selected id, re-resolved through the store.
func (s *Store) SelectedID() string {
	if _, ok := s.objects[s.selected]; !ok {
		return ""
	}
	return s.selected
}

// Selected returns a copy of the selected object.
func (s *Store) Selected() (domain.Object, bool) {
	return s.Get(s.SelectedID())
}

// ReferencedAssets returns the ids of assets referenced by at least one image.
func (s *Store) ReferencedAssets() map[string]bool {
	out := make(map[string]bool, len(s.refs))
	for id, n := range s.refs {
		if n > 0 {
			out[id] = true
		}
	}
	return out
}

func (s *Store) retain(p domain.Payload) {
	if img, ok := p.(domain.ImagePayload); ok {
		s.refs[img.AssetID]++
	}
}

func (s *Store) release(p domain.Payload) {
	img, ok := p.(domain.ImagePayload)
	if !ok {
		return
	}
	s.refs[img.AssetID]--
	if s.refs[img.AssetID] > 0 {
		return
	}
	delete(s.refs, img.AssetID)
	if s.assets != nil {
		s.assets.Release(img.AssetID)
		s.log.Debug("asset released", slog.String("asset", img.AssetID))
	}
}

func sortByZ(objs []domain.Object) {
	sort.Slice(objs, func(i, j int) bool { return objs[i].ZIndex < objs[j].ZIndex })
}

func (s *Store) zRange() (lo, hi int64, ok bool) {
	lo, hi = math.MaxInt64, math.MinInt64
	for z := range s.byZ {
		lo = min(lo, z)
		hi = max(hi, z)
	}
	return lo, hi, len(s.byZ) > 0
}
