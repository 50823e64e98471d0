/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gowhiteboard/internal/assets"
	"gowhiteboard/internal/board"
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/textlayout"
	"gowhiteboard/internal/vector"
)

func solid(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func gifData(t *testing.T) []byte {
	t.Helper()
	pal := color.Palette{color.Black, color.White}
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixture struct {
	st     *board.Store
	tbl    *assets.Table
	yellow domain.Object
	blue   domain.Object
	img    domain.Object
	text   domain.Object
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tbl := assets.NewTable()
	st := board.NewStore(board.DefaultConfig(), tbl)
	add := func(o domain.Object) domain.Object {
		got, err := st.Add(o)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		return got
	}
	f := fixture{st: st, tbl: tbl}
	f.yellow = add(domain.NewNote(0, 0, ""))
	blue := domain.NewNote(50, 50, "")
	blue.Payload = domain.NotePayload{Color: domain.NoteBlue, FontSize: 14}
	f.blue = add(blue)

	a, err := tbl.Add(solid(t, 10, 10, color.NRGBA{R: 255, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	im := domain.NewImage(300, 0, a.ID, a.Width, a.Height)
	im.Width, im.Height = 40, 40
	f.img = add(im)
	f.text = add(domain.NewText(0, 300, "HELLO HELLO"))
	return f
}

func at(img *image.RGBA, x, y int) color.RGBA { return img.RGBAAt(x, y) }

func TestRenderPNGPaintsInZOrder(t *testing.T) {
	f := newFixture(t)
	scene, err := BoardScene(f.st, f.tbl, 0)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	if scene.Bounds != vector.R(0, 0, 340, 350) {
		t.Fatalf("bounds = %+v", scene.Bounds)
	}
	if len(scene.Objects) != 4 || scene.Objects[0].ID != f.yellow.ID {
		t.Fatalf("objects not in z order: %+v", scene.Objects)
	}
	img, err := RenderPNG(scene, PNGOptions{Fonts: textlayout.BasicProvider{}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := at(img, 100, 100); got != (color.RGBA{0x80, 0xB3, 0xFF, 0xFF}) {
		t.Fatalf("overlap pixel = %v, want blue", got)
	}
	if got := at(img, 20, 20); got != (color.RGBA{0xFF, 0xEB, 0x3B, 0xFF}) {
		t.Fatalf("note pixel = %v, want yellow", got)
	}
	if got := at(img, 320, 20); got.R < 200 || got.G > 60 || got.B > 60 {
		t.Fatalf("image pixel = %v, want red", got)
	}
	if got := at(img, 330, 200); got != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Fatalf("background pixel = %v, want white", got)
	}

	if err := f.st.BringToFront(f.yellow.ID); err != nil {
		t.Fatal(err)
	}
	scene, _ = BoardScene(f.st, f.tbl, 0)
	img, _ = RenderPNG(scene, PNGOptions{Fonts: textlayout.BasicProvider{}})
	if got := at(img, 100, 100); got != (color.RGBA{0xFF, 0xEB, 0x3B, 0xFF}) {
		t.Fatalf("after bringToFront pixel = %v, want yellow", got)
	}
}

func TestRenderPNGDrawsText(t *testing.T) {
	f := newFixture(t)
	scene, _ := AreaScene(f.st, f.tbl, f.text.Bounds())
	img, err := RenderPNG(scene, PNGOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	dark := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c := img.RGBAAt(x, y); c.R < 100 && c.G < 100 && c.B < 100 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Fatalf("expected glyph pixels in the text block")
	}
}

func TestRenderPNGScaleAndLimits(t *testing.T) {
	f := newFixture(t)
	scene, _ := BoardScene(f.st, f.tbl, 10)
	img, err := RenderPNG(scene, PNGOptions{Scale: 2, Fonts: textlayout.BasicProvider{}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if img.Bounds().Dx() != 720 || img.Bounds().Dy() != 740 {
		t.Fatalf("size = %v", img.Bounds())
	}
	if _, err := RenderPNG(scene, PNGOptions{MaxPixels: 100}); err == nil {
		t.Fatalf("expected pixel limit error")
	}
	if _, err := RenderPNG(Scene{}, PNGOptions{}); !errors.Is(err, ErrEmptyScene) {
		t.Fatalf("expected ErrEmptyScene, got %v", err)
	}
	empty := board.NewStore(board.DefaultConfig(), nil)
	if _, err := BoardScene(empty, nil, 10); !errors.Is(err, ErrEmptyScene) {
		t.Fatalf("expected ErrEmptyScene for an empty board, got %v", err)
	}
}

func TestMissingAssetDrawsPlaceholder(t *testing.T) {
	f := newFixture(t)
	scene, _ := BoardScene(f.st, assets.NewTable(), 0)
	if _, err := RenderPNG(scene, PNGOptions{Fonts: textlayout.BasicProvider{}}); err != nil {
		t.Fatalf("render with missing asset: %v", err)
	}
}

func TestWritePDF(t *testing.T) {
	f := newFixture(t)
	a, err := f.tbl.Add(gifData(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.st.Add(domain.NewImage(400, 400, a.ID, a.Width, a.Height)); err != nil {
		t.Fatal(err)
	}
	scene, _ := BoardScene(f.st, f.tbl, 20)
	scene.Grid = vector.Grid{Size: 25, Snap: true}
	var buf bytes.Buffer
	if err := WritePDF(&buf, scene, PDFOptions{Title: "Plan", IncludeBorder: true}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	if buf.Len() < 500 {
		t.Fatalf("pdf suspiciously small: %d bytes", buf.Len())
	}
	if err := WritePDF(&buf, Scene{}, PDFOptions{}); !errors.Is(err, ErrEmptyScene) {
		t.Fatalf("expected ErrEmptyScene, got %v", err)
	}
}

func TestBatchExportPrint(t *testing.T) {
	f := newFixture(t)
	scene, _ := BoardScene(f.st, f.tbl, 0)
	dir := t.TempDir()
	paths, err := BatchExport(scene, BatchOptions{Preset: PresetPrint, OutDir: dir, Base: "plan"})
	if err != nil {
		t.Fatalf("BatchExport: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil || st.Size() == 0 {
			t.Fatalf("missing export %s: %v", p, err)
		}
	}
	fh, err := os.Open(filepath.Join(dir, "plan.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	cfg, err := png.DecodeConfig(fh)
	if err != nil {
		t.Fatal(err)
	}
	// print preset renders at 300dpi
	if cfg.Width != 1417 {
		t.Fatalf("print width = %d", cfg.Width)
	}

	bad := filepath.Join(dir, "plan.svg")
	if err := ExportFile(bad, scene, PresetScreen, "", 0); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("unknown format must not create a file")
	}
}

func TestPDFFamily(t *testing.T) {
	cases := map[string]string{
		"Sans":        "Helvetica",
		"DejaVu Sans": "Helvetica",
		"Serif":       "Times",
		"Monospace":   "Courier",
		"":            "Helvetica",
	}
	for in, want := range cases {
		if got := pdfFamily(in); got != want {
			t.Errorf("pdfFamily(%q) = %q, want %q", in, got, want)
		}
	}
}
