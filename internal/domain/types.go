/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the canvas object model: one Object type carrying a
// closed set of kind-specific payloads (note, text, image). Objects live in
// canvas units; draw order is the ZIndex.

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"gowhiteboard/internal/vector"
)

// Kind discriminates the payload of an Object.
type Kind string

const (
	KindNote  Kind = "note"
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Kinds lists every known kind in a stable order.
var Kinds = []Kind{KindNote, KindText, KindImage}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindNote, KindText, KindImage:
		return k, nil
	}
	return "", fmt.Errorf("unknown object kind %q", s)
}

// ZUnset marks an Object whose ZIndex the store should assign on insert.
const ZUnset int64 = math.MinInt64

// Defaults for new objects.
const (
	NoteDefaultSize     = 200.0
	NoteDefaultFontSize = 14
	NotePadding         = 10.0
	TextDefaultWidth    = 300.0
	TextDefaultHeight   = 50.0
	TextDefaultFamily   = "Sans"
	TextDefaultFontSize = 16
	TextPadding         = 5.0
	// LineSpacing is the baseline-to-baseline distance as a multiple of the font size.
	LineSpacing = 1.5
)

// Payload is the kind-specific part of an Object. The set of implementations
// is closed: NotePayload, TextPayload and ImagePayload.
type Payload interface {
	Kind() Kind
	Validate() error
	isPayload()
}

// NoteColor names an entry of the sticky-note palette.
type NoteColor string

const (
	NoteYellow NoteColor = "yellow"
	NoteOrange NoteColor = "orange"
	NoteBlue   NoteColor = "blue"
	NoteGreen  NoteColor = "green"
	NotePurple NoteColor = "purple"
)

// NoteColors is the palette in menu order.
var NoteColors = []NoteColor{NoteYellow, NoteOrange, NoteBlue, NoteGreen, NotePurple}

var notePalette = map[NoteColor]RGB{
	NoteYellow: 0xFFEB3B,
	NoteOrange: 0xFF9900,
	NoteBlue:   0x80B3FF,
	NoteGreen:  0x80E680,
	NotePurple: 0xB380FF,
}

// Valid reports whether c is a palette entry.
func (c NoteColor) Valid() bool {
	_, ok := notePalette[c]
	return ok
}

// RGB returns the fill colour of c; unknown names fall back to yellow.
func (c NoteColor) RGB() RGB {
	if v, ok := notePalette[c]; ok {
		return v
	}
	return notePalette[NoteYellow]
}

// RGB is a 24-bit colour 0xRRGGBB. It serializes as "#rrggbb".
type RGB uint32

const Black RGB = 0x000000

func (c RGB) String() string { return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF) }

// Color converts c to an opaque vector.Color for renderers.
func (c RGB) Color() vector.Color {
	return vector.Color{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
}

// ParseRGB accepts "#rrggbb" or "#rgb".
func ParseRGB(s string) (RGB, error) {
	col, err := vector.ParseHex(s)
	if err != nil {
		return 0, err
	}
	return RGB(uint32(col.R)<<16 | uint32(col.G)<<8 | uint32(col.B)), nil
}

func (c RGB) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *RGB) UnmarshalText(b []byte) error {
	v, err := ParseRGB(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// NotePayload is a coloured sticky note with wrapped text.
type NotePayload struct {
	Text     string    `json:"text"`
	Color    NoteColor `json:"color"`
	FontSize int       `json:"font_size"`
}

func (NotePayload) Kind() Kind { return KindNote }
func (NotePayload) isPayload() {}

func (p NotePayload) Validate() error {
	if !utf8.ValidString(p.Text) {
		return fmt.Errorf("note text is not valid UTF-8")
	}
	if !p.Color.Valid() {
		return fmt.Errorf("note color %q is not in the palette", p.Color)
	}
	if p.FontSize <= 0 {
		return fmt.Errorf("note font size %d must be positive", p.FontSize)
	}
	return nil
}

// TextPayload is a free text block.
type TextPayload struct {
	Text       string `json:"text"`
	FontFamily string `json:"font_family"`
	FontSize   int    `json:"font_size"`
	Color      RGB    `json:"color"`
}

func (TextPayload) Kind() Kind { return KindText }
func (TextPayload) isPayload() {}

func (p TextPayload) Validate() error {
	if !utf8.ValidString(p.Text) {
		return fmt.Errorf("text is not valid UTF-8")
	}
	if strings.TrimSpace(p.FontFamily) == "" {
		return fmt.Errorf("text font family is empty")
	}
	if p.FontSize <= 0 {
		return fmt.Errorf("text font size %d must be positive", p.FontSize)
	}
	if p.Color > 0xFFFFFF {
		return fmt.Errorf("text color %#x exceeds 24 bits", uint32(p.Color))
	}
	return nil
}

// ImagePayload references an asset by its content id.
type ImagePayload struct {
	AssetID        string `json:"asset_id"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
}

func (ImagePayload) Kind() Kind { return KindImage }
func (ImagePayload) isPayload() {}

func (p ImagePayload) Validate() error {
	if p.AssetID == "" {
		return fmt.Errorf("image asset id is empty")
	}
	if p.OriginalWidth <= 0 || p.OriginalHeight <= 0 {
		return fmt.Errorf("image original size %dx%d must be positive", p.OriginalWidth, p.OriginalHeight)
	}
	return nil
}

// AspectRatio is OriginalWidth/OriginalHeight.
func (p ImagePayload) AspectRatio() float64 {
	return float64(p.OriginalWidth) / float64(p.OriginalHeight)
}

// Object is one item on the canvas.
type Object struct {
	ID         string
	X, Y       float64
	Width      float64
	Height     float64
	ZIndex     int64
	CreatedAt  time.Time
	ModifiedAt time.Time
	Payload    Payload
}

// Kind returns the kind of the payload, or "" when the payload is nil.
func (o Object) Kind() Kind {
	if o.Payload == nil {
		return ""
	}
	return o.Payload.Kind()
}

// Bounds returns the object's rectangle in canvas units.
func (o Object) Bounds() vector.Rect { return vector.R(o.X, o.Y, o.Width, o.Height) }

// SetBounds replaces position and size.
func (o *Object) SetBounds(r vector.Rect) {
	o.X, o.Y, o.Width, o.Height = r.X, r.Y, r.W, r.H
}

// Touch stamps ModifiedAt.
func (o *Object) Touch(now time.Time) { o.ModifiedAt = now }

// Clone returns a deep copy. Payloads are value types without shared
// references, so copying the struct is enough.
func (o Object) Clone() Object { return o }

// Validate checks the structural invariants of a single object.
func (o Object) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidGeometry)
	}
	if !(o.Width > 0) || !(o.Height > 0) || math.IsInf(o.Width, 0) || math.IsInf(o.Height, 0) {
		return fmt.Errorf("%w: object %s has size %vx%v", ErrInvalidGeometry, o.ID, o.Width, o.Height)
	}
	if math.IsNaN(o.X) || math.IsNaN(o.Y) || math.IsInf(o.X, 0) || math.IsInf(o.Y, 0) {
		return fmt.Errorf("%w: object %s has position (%v, %v)", ErrInvalidGeometry, o.ID, o.X, o.Y)
	}
	if o.Payload == nil {
		return fmt.Errorf("object %s has no payload", o.ID)
	}
	return o.Payload.Validate()
}

// Now is the clock used for timestamps: UTC without the monotonic reading so
// values compare equal after a storage round trip.
var Now = func() time.Time { return time.Now().UTC().Round(0) }

// NewID returns a fresh globally unique object id.
func NewID() string { return uuid.NewString() }

func newObject(x, y, w, h float64, p Payload) Object {
	now := Now()
	return Object{ID: NewID(), X: x, Y: y, Width: w, Height: h, ZIndex: ZUnset, CreatedAt: now, ModifiedAt: now, Payload: p}
}

// NewNote creates a default-sized yellow note at (x, y).
func NewNote(x, y float64, text string) Object {
	return newObject(x, y, NoteDefaultSize, NoteDefaultSize, NotePayload{Text: text, Color: NoteYellow, FontSize: NoteDefaultFontSize})
}

// NewText creates a default-sized black text block at (x, y).
func NewText(x, y float64, text string) Object {
	return newObject(x, y, TextDefaultWidth, TextDefaultHeight, TextPayload{Text: text, FontFamily: TextDefaultFamily, FontSize: TextDefaultFontSize, Color: Black})
}

// NewImage creates an image at its natural pixel size.
func NewImage(x, y float64, assetID string, width, height int) Object {
	return newObject(x, y, float64(width), float64(height), ImagePayload{AssetID: assetID, OriginalWidth: width, OriginalHeight: height})
}
