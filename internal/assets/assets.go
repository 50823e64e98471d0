/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets keeps the binary image payloads of a board. Each distinct
// byte sequence is stored once under its SHA-256 hex digest; Image objects
// reference assets by that id.
package assets

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gowhiteboard/internal/domain"
)

// Format is a raster format understood by the decoding service.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	WEBP Format = "webp"
)

var extensions = map[Format]string{
	PNG: ".png", JPEG: ".jpg", GIF: ".gif", BMP: ".bmp", TIFF: ".tiff", WEBP: ".webp",
}

// Ext returns the file extension used for f inside a board archive.
func (f Format) Ext() string { return extensions[f] }

// Compressible reports whether archiving f benefits from deflate; the
// others are already compressed.
func (f Format) Compressible() bool { return f == BMP || f == TIFF }

// FormatFromExt maps a file extension (with dot) back to a Format.
func FormatFromExt(ext string) (Format, bool) {
	switch ext {
	case ".jpeg":
		return JPEG, true
	case ".tif":
		return TIFF, true
	}
	for f, e := range extensions {
		if e == ext {
			return f, true
		}
	}
	return "", false
}

// Asset is one image payload. Data must be treated as immutable once added.
type Asset struct {
	ID     string
	Format Format
	Data   []byte
	Width  int
	Height int
}

// FileName is the archive-relative name of the asset below assets/.
func (a Asset) FileName() string { return a.ID + a.Format.Ext() }

// HashID returns the content id of data.
func HashID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Inspect decodes only the header of data and reports its format and pixel size.
func Inspect(data []byte) (Format, int, int, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	f := Format(name)
	if _, ok := extensions[f]; !ok {
		return "", 0, 0, fmt.Errorf("unsupported image format %q", name)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", 0, 0, fmt.Errorf("image has empty size %dx%d", cfg.Width, cfg.Height)
	}
	return f, cfg.Width, cfg.Height, nil
}

// Table maps asset ids to assets. It is safe for concurrent use so a
// background save can read while the UI keeps adding.
type Table struct {
	mu    sync.RWMutex
	items map[string]Asset
}

func NewTable() *Table { return &Table{items: map[string]Asset{}} }

// Add inspects data and stores it, returning the existing entry when the same
// bytes were added before.
func (t *Table) Add(data []byte) (Asset, error) {
	f, w, h, err := Inspect(data)
	if err != nil {
		return Asset{}, err
	}
	id := HashID(data)
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.items[id]; ok {
		return a, nil
	}
	a := Asset{ID: id, Format: f, Data: append([]byte(nil), data...), Width: w, Height: h}
	t.items[id] = a
	return a, nil
}

// AddFile reads an image file from disk. Read failures are AssetIOErrors.
func (t *Table) AddFile(path string) (Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, &domain.AssetIOError{Asset: filepath.Base(path), Err: err}
	}
	a, err := t.Add(data)
	if err != nil {
		return Asset{}, &domain.AssetIOError{Asset: filepath.Base(path), Err: err}
	}
	return a, nil
}

// Put installs an already-identified asset, as read back from an archive.
// The id must match the content hash.
func (t *Table) Put(a Asset) error {
	if got := HashID(a.Data); got != a.ID {
		return fmt.Errorf("asset %s: content hash is %s", a.ID, got)
	}
	t.mu.Lock()
	t.items[a.ID] = a
	t.mu.Unlock()
	return nil
}

func (t *Table) Get(id string) (Asset, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.items[id]
	return a, ok
}

// Release drops an asset. Callers check that no object references it.
func (t *Table) Release(id string) {
	t.mu.Lock()
	delete(t.items, id)
	t.mu.Unlock()
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// IDs returns the asset ids in sorted order.
func (t *Table) IDs() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	t.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Clone returns a table sharing the immutable byte buffers.
func (t *Table) Clone() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c := &Table{items: make(map[string]Asset, len(t.items))}
	for k, v := range t.items {
		c.items[k] = v
	}
	return c
}

// Retain drops every asset whose id is not in keep and returns how many were dropped.
func (t *Table) Retain(keep map[string]bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id := range t.items {
		if !keep[id] {
			delete(t.items, id)
			n++
		}
	}
	return n
}

// Decode fully decodes an asset for drawing.
func (t *Table) Decode(id string) (image.Image, error) {
	a, ok := t.Get(id)
	if !ok {
		return nil, &domain.AssetIOError{Asset: id, Err: fmt.Errorf("not in asset table")}
	}
	img, _, err := image.Decode(bytes.NewReader(a.Data))
	if err != nil {
		return nil, &domain.AssetIOError{Asset: a.FileName(), Err: err}
	}
	return img, nil
}
