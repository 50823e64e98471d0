/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"log/slog"
	"math"
	"sort"

	"gowhiteboard/internal/domain"
)

// zHeadroom is the distance from either int64 bound at which z-indices are
// renumbered densely before growing further.
const zHeadroom int64 = 1 << 32

// nextFront returns max+1, renumbering first when the top is close to overflow.
func (s *Store) nextFront() int64 {
	_, hi, ok := s.zRange()
	if !ok {
		return 0
	}
	if hi >= math.MaxInt64-zHeadroom {
		s.Renumber()
		_, hi, _ = s.zRange()
	}
	return hi + 1
}

// nextBack returns min-1, renumbering first when the bottom is close to
// underflow. domain.ZUnset is never produced.
func (s *Store) nextBack() int64 {
	lo, _, ok := s.zRange()
	if !ok {
		return 0
	}
	if lo <= math.MinInt64+zHeadroom {
		s.Renumber()
		lo, _, _ = s.zRange()
	}
	return lo - 1
}

// BringToFront moves id above every other object.
func (s *Store) BringToFront(id string) error {
	o, err := s.mustGet(id)
	if err != nil {
		return err
	}
	if _, hi, _ := s.zRange(); o.ZIndex == hi {
		return nil
	}
	s.setZ(o, s.nextFront())
	return nil
}

// SendToBack moves id below every other object.
func (s *Store) SendToBack(id string) error {
	o, err := s.mustGet(id)
	if err != nil {
		return err
	}
	if lo, _, _ := s.zRange(); o.ZIndex == lo {
		return nil
	}
	s.setZ(o, s.nextBack())
	return nil
}

func (s *Store) setZ(o *domain.Object, z int64) {
	delete(s.byZ, o.ZIndex)
	o.ZIndex = z
	s.byZ[z] = o.ID
	o.Touch(s.now())
	s.log.Debug("z-order changed", slog.String("id", o.ID), slog.Int64("z", z))
}

// Renumber reassigns z-indices densely as 0..N-1 keeping the current order.
// ModifiedAt is left alone; the visible order does not change.
func (s *Store) Renumber() {
	objs := make([]*domain.Object, 0, len(s.objects))
	for _, o := range s.objects {
		objs = append(objs, o)
	}
	sort.SliceStable(objs, func(i, j int) bool { return objs[i].ZIndex < objs[j].ZIndex })
	s.byZ = make(map[int64]string, len(objs))
	for i, o := range objs {
		o.ZIndex = int64(i)
		s.byZ[o.ZIndex] = o.ID
	}
	s.log.Info("z-indices renumbered", slog.Int("objects", len(objs)))
}
