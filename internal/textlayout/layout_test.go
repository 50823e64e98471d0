/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"
	"testing"
)

func TestWrapBreaksOnSpaces(t *testing.T) {
	box := Wrap(BasicProvider{}, "Hello world from Go", FontSpec{}, 50)
	if len(box.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(box.Lines))
	}
	for _, l := range box.Lines {
		if l.Width > 50 {
			t.Fatalf("line %q is %v wide", l.Text, l.Width)
		}
	}
	if box.Width <= 0 || box.Height <= 0 {
		t.Fatalf("expected positive box size: %+v", box)
	}
}

func TestWrapKeepsNewlinesAndSplitsLongWords(t *testing.T) {
	// basicfont advances 7px per glyph
	box := Wrap(BasicProvider{}, "ab\n\nabcdefghij", FontSpec{}, 28)
	var got []string
	for _, l := range box.Lines {
		got = append(got, l.Text)
	}
	want := "ab||abcd|efgh|ij"
	if strings.Join(got, "|") != want {
		t.Fatalf("lines = %q, want %q", strings.Join(got, "|"), want)
	}
}

func TestWrapLineHeightFollowsFontSize(t *testing.T) {
	box := Wrap(BasicProvider{}, "a\nb", FontSpec{Size: 16}, 0)
	if box.LineHeight != 24 || box.Height != 48 {
		t.Fatalf("line height %v, height %v", box.LineHeight, box.Height)
	}
}

func TestMeasureDeterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, "ABC", FontSpec{})
	w2, h2 := Measure(nil, "ABC", FontSpec{Family: "whatever"})
	if w1 != w2 || h1 != h2 || w1 != 21 {
		t.Fatalf("expected same measure, got w1=%v h1=%v vs w2=%v h2=%v", w1, h1, w2, h2)
	}
}

func TestFontLibraryScalesWithSize(t *testing.T) {
	lib := DefaultLibrary()
	small, _ := Measure(lib, "whiteboard", FontSpec{Family: "Sans", Size: 10})
	large, _ := Measure(lib, "whiteboard", FontSpec{Family: "Unknown Family", Size: 40})
	if !(large > 3*small) {
		t.Fatalf("expected width to scale with size: %v vs %v", small, large)
	}
	if err := lib.Add("broken", []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := NewFontLibrary().LoadTTF("x", "/does/not/exist.ttf"); err == nil {
		t.Fatalf("expected read error")
	}
	// an empty library falls back to the bitmap face
	w, _ := Measure(NewFontLibrary(), "ABC", FontSpec{Size: 30})
	if w != 21 {
		t.Fatalf("fallback width = %v", w)
	}
}
