/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestRectIntersects(t *testing.T) {
	a := R(0, 0, 100, 100)
	cases := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", R(50, 50, 100, 100), true},
		{"inside", R(10, 10, 5, 5), true},
		{"touching edge", R(100, 0, 10, 10), true},
		{"left of", R(-20, 0, 10, 10), false},
		{"below", R(0, 101, 10, 10), false},
		{"far away", R(1e9, 1e9, 1, 1), false},
	}
	for _, c := range cases {
		if got := a.Intersects(c.b); got != c.want {
			t.Errorf("%s: Intersects = %v, want %v", c.name, got, c.want)
		}
		if got := c.b.Intersects(a); got != c.want {
			t.Errorf("%s: symmetric Intersects = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestFromCornersAndUnion(t *testing.T) {
	r := FromCorners(30, 40, 10, 5)
	if r != R(10, 5, 20, 35) {
		t.Fatalf("FromCorners normalised wrong: %+v", r)
	}
	u := R(0, 0, 10, 10).Union(R(-5, 20, 5, 5))
	if u != R(-5, 0, 15, 25) {
		t.Fatalf("unexpected union: %+v", u)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
	q := m.Invert().Apply(p)
	if math.Abs(q.X-1) > 1e-12 || math.Abs(q.Y-1) > 1e-12 {
		t.Fatalf("inverse did not restore point: %+v", q)
	}
	if got := m.ApplyRect(R(0, 0, 1, 1)); got != R(10, 5, 2, 3) {
		t.Fatalf("ApplyRect = %+v", got)
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff8000")
	if err != nil || c != (Color{255, 128, 0, 255}) {
		t.Fatalf("ParseHex = %+v, %v", c, err)
	}
	c, err = ParseHex("0f0")
	if err != nil || c != (Color{0, 255, 0, 255}) {
		t.Fatalf("short ParseHex = %+v, %v", c, err)
	}
	if c.Hex() != "#00ff00" {
		t.Fatalf("Hex = %s", c.Hex())
	}
	if _, err := ParseHex("#12"); err == nil {
		t.Fatalf("expected error for short input")
	}
}
