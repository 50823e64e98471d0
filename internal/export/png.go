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
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"gowhiteboard/internal/domain"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/textlayout"
	"gowhiteboard/internal/vector"
)

// PNGOptions controls raster export.
type PNGOptions struct {
	// Scale is output pixels per canvas unit; 0 means 1.
	Scale float64
	// Fonts resolves label fonts; nil uses the built-in Go fonts.
	Fonts textlayout.Provider
	// MaxPixels caps width*height; 0 means 64 megapixels.
	MaxPixels int
}

const defaultMaxPixels = 64 << 20

var (
	gridColour   = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	borderColour = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// RenderPNG rasterizes the scene.
func RenderPNG(scene Scene, opt PNGOptions) (*image.RGBA, error) {
	if scene.Bounds.W <= 0 || scene.Bounds.H <= 0 {
		return nil, ErrEmptyScene
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	maxPx := opt.MaxPixels
	if maxPx <= 0 {
		maxPx = defaultMaxPixels
	}
	w := int(math.Ceil(scene.Bounds.W * scale))
	h := int(math.Ceil(scene.Bounds.H * scale))
	if w*h > maxPx {
		return nil, fmt.Errorf("export of %dx%d pixels exceeds the limit of %d", w, h, maxPx)
	}
	fonts := opt.Fonts
	if fonts == nil {
		fonts = textlayout.DefaultLibrary()
	}
	r := &rasterizer{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		org:   scene.Bounds.Min(),
		scale: scale,
		fonts: fonts,
		log:   applog.WithComponent("export"),
	}
	bg := scene.Background
	if bg == (vector.Color{}) {
		bg = vector.White
	}
	xdraw.Draw(r.img, r.img.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)
	if scene.Grid.Snap {
		r.grid(scene.Bounds, scene.Grid)
	}
	for _, o := range scene.Objects {
		r.object(scene, o)
	}
	return r.img, nil
}

// WritePNG encodes the rendered scene to w.
func WritePNG(w io.Writer, scene Scene, opt PNGOptions) error {
	img, err := RenderPNG(scene, opt)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPNG writes the scene to a PNG file at path.
func ExportPNG(path string, scene Scene, opt PNGOptions) error {
	return writeFile(path, func(w io.Writer) error { return WritePNG(w, scene, opt) })
}

type rasterizer struct {
	img   *image.RGBA
	org   vector.Pt
	scale float64
	fonts textlayout.Provider
	log   *slog.Logger
}

// px maps a canvas rectangle to output pixels.
func (r *rasterizer) px(c vector.Rect) image.Rectangle {
	x0 := int(math.Round((c.X - r.org.X) * r.scale))
	y0 := int(math.Round((c.Y - r.org.Y) * r.scale))
	x1 := int(math.Round((c.X + c.W - r.org.X) * r.scale))
	y1 := int(math.Round((c.Y + c.H - r.org.Y) * r.scale))
	return image.Rect(x0, y0, x1, y1)
}

func (r *rasterizer) grid(b vector.Rect, g vector.Grid) {
	for _, x := range g.Lines(b.X, b.X+b.W) {
		px := int(math.Round((x - r.org.X) * r.scale))
		for y := 0; y < r.img.Bounds().Dy(); y++ {
			r.img.SetRGBA(px, y, gridColour)
		}
	}
	for _, y := range g.Lines(b.Y, b.Y+b.H) {
		py := int(math.Round((y - r.org.Y) * r.scale))
		for x := 0; x < r.img.Bounds().Dx(); x++ {
			r.img.SetRGBA(x, py, gridColour)
		}
	}
}

func (r *rasterizer) object(scene Scene, o domain.Object) {
	rect := r.px(o.Bounds())
	switch p := o.Payload.(type) {
	case domain.NotePayload:
		xdraw.Draw(r.img, rect, image.NewUniform(noteFill(p)), image.Point{}, xdraw.Src)
		strokeRect(r.img, rect, borderColour)
	case domain.ImagePayload:
		var src image.Image
		var err error
		if scene.Assets != nil {
			src, err = scene.Assets.Decode(p.AssetID)
		} else {
			err = fmt.Errorf("no asset table")
		}
		if err != nil {
			r.log.Warn("image not drawn", slog.String("id", o.ID), slog.Any("err", err))
			strokeRect(r.img, rect, borderColour)
			return
		}
		xdraw.CatmullRom.Scale(r.img, rect, src, src.Bounds(), xdraw.Over, nil)
	}
	if l, ok := labelOf(o); ok {
		r.label(rect, l)
	}
}

// label draws wrapped text inside rect, clipped to it.
func (r *rasterizer) label(rect image.Rectangle, l label) {
	if l.Text == "" {
		return
	}
	spec := textlayout.FontSpec{Family: l.Family, Size: l.Size * r.scale}
	pad := l.Pad * r.scale
	box := textlayout.Wrap(r.fonts, l.Text, spec, float64(rect.Dx())-2*pad)
	face, met := r.fonts.Resolve(spec)
	dst, ok := r.img.SubImage(rect).(*image.RGBA)
	if !ok || dst.Bounds().Empty() {
		return
	}
	d := font.Drawer{Dst: dst, Src: image.NewUniform(l.Color), Face: face}
	x := float64(rect.Min.X) + pad
	y := float64(rect.Min.Y) + pad + met.Ascent
	for _, line := range box.Lines {
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
		d.DrawString(line.Text)
		y += box.LineHeight
	}
}

// strokeRect draws a 1px border just inside rect.
func strokeRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	if rect.Empty() {
		return
	}
	x0, y0, x1, y1 := rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

// writeFile creates path (and its directory) and removes it again if fn fails.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return fn(f)
}
