/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"gowhiteboard/internal/domain"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestAddDetectsFormatAndDedups(t *testing.T) {
	tbl := NewTable()
	data := pngBytes(t, 10, 12, color.RGBA{255, 0, 0, 255})
	a, err := tbl.Add(data)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.Format != PNG || a.Width != 10 || a.Height != 12 || a.ID != HashID(data) {
		t.Fatalf("unexpected asset: %+v", a)
	}
	if a.FileName() != a.ID+".png" {
		t.Fatalf("FileName = %s", a.FileName())
	}
	b, err := tbl.Add(append([]byte(nil), data...))
	if err != nil || b.ID != a.ID || tbl.Len() != 1 {
		t.Fatalf("identical bytes must dedup: %v len=%d", err, tbl.Len())
	}
	other := pngBytes(t, 10, 12, color.RGBA{0, 0, 255, 255})
	if c, _ := tbl.Add(other); c.ID == a.ID || tbl.Len() != 2 {
		t.Fatalf("different content must get a different id")
	}
}

func TestAddBMPFromXImage(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 4))); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	a, err := NewTable().Add(buf.Bytes())
	if err != nil {
		t.Fatalf("Add bmp: %v", err)
	}
	if a.Format != BMP || !a.Format.Compressible() || a.Width != 3 || a.Height != 4 {
		t.Fatalf("unexpected bmp asset: %+v", a)
	}
}

func TestAddRejectsGarbage(t *testing.T) {
	if _, err := NewTable().Add([]byte("not an image")); err == nil {
		t.Fatalf("expected error for garbage bytes")
	}
}

func TestAddFileErrorsAreAssetIO(t *testing.T) {
	_, err := NewTable().AddFile(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, domain.ErrAssetIO) {
		t.Fatalf("expected ErrAssetIO, got %v", err)
	}
	p := filepath.Join(t.TempDir(), "ok.png")
	if err := os.WriteFile(p, pngBytes(t, 2, 2, color.White), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewTable().AddFile(p); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
}

func TestPutVerifiesHash(t *testing.T) {
	data := pngBytes(t, 1, 1, color.Black)
	tbl := NewTable()
	if err := tbl.Put(Asset{ID: "deadbeef", Format: PNG, Data: data}); err == nil {
		t.Fatalf("Put must reject a mismatched id")
	}
	if err := tbl.Put(Asset{ID: HashID(data), Format: PNG, Data: data, Width: 1, Height: 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestReleaseRetainCloneDecode(t *testing.T) {
	tbl := NewTable()
	a, _ := tbl.Add(pngBytes(t, 5, 5, color.White))
	b, _ := tbl.Add(pngBytes(t, 6, 6, color.Black))

	snap := tbl.Clone()
	tbl.Release(a.ID)
	if _, ok := tbl.Get(a.ID); ok {
		t.Fatalf("released asset still present")
	}
	if _, ok := snap.Get(a.ID); !ok {
		t.Fatalf("clone must not observe later releases")
	}
	if n := snap.Retain(map[string]bool{b.ID: true}); n != 1 || snap.Len() != 1 {
		t.Fatalf("Retain dropped %d, len %d", n, snap.Len())
	}
	img, err := tbl.Decode(b.ID)
	if err != nil || img.Bounds().Dx() != 6 {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := tbl.Decode(a.ID); !errors.Is(err, domain.ErrAssetIO) {
		t.Fatalf("decoding a missing asset should be ErrAssetIO, got %v", err)
	}
}

func TestFormatFromExt(t *testing.T) {
	for _, f := range []Format{PNG, JPEG, GIF, BMP, TIFF, WEBP} {
		got, ok := FormatFromExt(f.Ext())
		if !ok || got != f {
			t.Fatalf("FormatFromExt(%s) = %s, %v", f.Ext(), got, ok)
		}
	}
	if f, ok := FormatFromExt(".jpeg"); !ok || f != JPEG {
		t.Fatalf(".jpeg should map to jpeg")
	}
	if _, ok := FormatFromExt(".svg"); ok {
		t.Fatalf(".svg is not a raster format")
	}
}
