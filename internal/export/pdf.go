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
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gowhiteboard/internal/assets"
	"gowhiteboard/internal/domain"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/vector"
	"gowhiteboard/internal/version"
)

// PDFOptions controls PDF export. One canvas unit maps to one point unless
// the scene is larger than MaxPageSize, in which case it is scaled down.
type PDFOptions struct {
	Title         string
	IncludeBorder bool // hairline around the exported area
	// MaxPageSize is the longest page side in points; 0 means 14400 (200in, the PDF limit).
	MaxPageSize float64
}

const pdfMaxPage = 14400

// WritePDF renders the scene as a single-page PDF to w.
func WritePDF(w io.Writer, scene Scene, opt PDFOptions) error {
	b := scene.Bounds
	if b.W <= 0 || b.H <= 0 {
		return ErrEmptyScene
	}
	maxSide := opt.MaxPageSize
	if maxSide <= 0 {
		maxSide = pdfMaxPage
	}
	scale := math.Min(1, maxSide/math.Max(b.W, b.H))
	pageW, pageH := b.W*scale, b.H*scale

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	title := opt.Title
	if title == "" {
		title = "Board"
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("GoWhiteboard "+version.String(), true)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: pageW, Ht: pageH})

	p := &pdfPainter{
		pdf:    pdf,
		org:    b.Min(),
		scale:  scale,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		images: map[string]bool{},
		log:    applog.WithComponent("export"),
	}
	bg := scene.Background
	if bg == (vector.Color{}) {
		bg = vector.White
	}
	setFillColor(pdf, bg)
	pdf.Rect(0, 0, pageW, pageH, "F")
	if scene.Grid.Snap {
		p.grid(b, scene.Grid)
	}
	for _, o := range scene.Objects {
		p.object(scene.Assets, o)
	}
	if opt.IncludeBorder {
		setDrawColor(pdf, vector.Color{R: 0x99, G: 0x99, B: 0x99, A: 0xff})
		pdf.SetLineWidth(0.5)
		pdf.Rect(0, 0, pageW, pageH, "D")
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes the scene to a PDF file at path.
func ExportPDF(path string, scene Scene, opt PDFOptions) error {
	return writeFile(path, func(w io.Writer) error { return WritePDF(w, scene, opt) })
}

type pdfPainter struct {
	pdf    *gofpdf.Fpdf
	org    vector.Pt
	scale  float64
	tr     func(string) string
	images map[string]bool
	log    *slog.Logger
}

// page maps a canvas rectangle to page coordinates.
func (p *pdfPainter) page(r vector.Rect) (x, y, w, h float64) {
	return (r.X - p.org.X) * p.scale, (r.Y - p.org.Y) * p.scale, r.W * p.scale, r.H * p.scale
}

func (p *pdfPainter) grid(b vector.Rect, g vector.Grid) {
	setDrawColor(p.pdf, vector.Color{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff})
	p.pdf.SetLineWidth(0.25)
	w, h := b.W*p.scale, b.H*p.scale
	for _, x := range g.Lines(b.X, b.X+b.W) {
		px := (x - p.org.X) * p.scale
		p.pdf.Line(px, 0, px, h)
	}
	for _, y := range g.Lines(b.Y, b.Y+b.H) {
		py := (y - p.org.Y) * p.scale
		p.pdf.Line(0, py, w, py)
	}
}

func (p *pdfPainter) object(tbl *assets.Table, o domain.Object) {
	x, y, w, h := p.page(o.Bounds())
	switch pl := o.Payload.(type) {
	case domain.NotePayload:
		setFillColor(p.pdf, noteFill(pl))
		setDrawColor(p.pdf, vector.Color{R: 0x99, G: 0x99, B: 0x99, A: 0xff})
		p.pdf.SetLineWidth(0.5)
		p.pdf.Rect(x, y, w, h, "FD")
	case domain.ImagePayload:
		name, typ, err := p.registerImage(tbl, pl.AssetID)
		if err != nil {
			p.log.Warn("image not drawn", slog.String("id", o.ID), slog.Any("err", err))
			setDrawColor(p.pdf, vector.Color{R: 0x99, G: 0x99, B: 0x99, A: 0xff})
			p.pdf.Rect(x, y, w, h, "D")
			return
		}
		p.pdf.ImageOptions(name, x, y, w, h, false, gofpdf.ImageOptions{ImageType: typ}, 0, "")
	}
	if l, ok := labelOf(o); ok {
		p.label(x, y, w, h, l)
	}
}

// registerImage embeds an asset once. JPEG, PNG and GIF go in as they are;
// other formats are re-encoded as PNG.
func (p *pdfPainter) registerImage(tbl *assets.Table, id string) (string, string, error) {
	if tbl == nil {
		return "", "", &domain.AssetIOError{Asset: id, Err: fmt.Errorf("no asset table")}
	}
	a, ok := tbl.Get(id)
	if !ok {
		return "", "", &domain.AssetIOError{Asset: id, Err: fmt.Errorf("not in asset table")}
	}
	var typ string
	data := a.Data
	switch a.Format {
	case assets.JPEG:
		typ = "JPG"
	case assets.PNG:
		typ = "PNG"
	case assets.GIF:
		typ = "GIF"
	default:
		img, err := tbl.Decode(id)
		if err != nil {
			return "", "", err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", "", &domain.AssetIOError{Asset: a.FileName(), Err: err}
		}
		typ, data = "PNG", buf.Bytes()
	}
	if !p.images[id] {
		p.pdf.RegisterImageOptionsReader(id, gofpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
		if err := p.pdf.Error(); err != nil {
			return "", "", &domain.AssetIOError{Asset: a.FileName(), Err: err}
		}
		p.images[id] = true
	}
	return id, typ, nil
}

// label writes wrapped text inside the box, clipped to it.
func (p *pdfPainter) label(x, y, w, h float64, l label) {
	if strings.TrimSpace(l.Text) == "" {
		return
	}
	size := l.Size * p.scale
	pad := l.Pad * p.scale
	p.pdf.SetFont(pdfFamily(l.Family), "", size)
	p.pdf.SetTextColor(int(l.Color.R), int(l.Color.G), int(l.Color.B))
	p.pdf.ClipRect(x, y, w, h, false)
	defer p.pdf.ClipEnd()
	lineH := size * domain.LineSpacing
	baseline := y + pad + size
	for _, line := range p.pdf.SplitLines([]byte(p.tr(l.Text)), w-2*pad) {
		p.pdf.Text(x+pad, baseline, string(line))
		baseline += lineH
	}
}

// pdfFamily maps a font family to one of the PDF core fonts.
func pdfFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"):
		return "Courier"
	case strings.Contains(f, "serif") && !strings.Contains(f, "sans"), strings.Contains(f, "times"):
		return "Times"
	default:
		return "Helvetica"
	}
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
