/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gowhiteboard/internal/assets"
	"gowhiteboard/internal/domain"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/version"
	"gowhiteboard/internal/viewport"
)

// Metadata is the board_metadata record set.
type Metadata struct {
	SchemaVersion int
	CreatedAt     time.Time
	ModifiedAt    time.Time
	AppVersion    string
	// Viewport is the last view of the board, restored on open when present.
	Viewport *viewport.State
}

// Document is everything a board file holds: metadata, objects and the
// assets the image objects reference.
type Document struct {
	Meta    Metadata
	Objects []domain.Object
	Assets  *assets.Table
}

// Encode writes doc as a board archive to w. The caller owns doc for the
// duration of the call; it must not be mutated concurrently.
func Encode(ctx context.Context, w io.Writer, doc *Document) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "encode")
	if doc == nil {
		return errors.New("nil document")
	}
	tmp, err := os.MkdirTemp("", "gowhiteboard-save-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	// 1. rows and metadata into a fresh structured store
	rows, used, err := buildRows(doc)
	if err != nil {
		return err
	}
	dbPath := filepath.Join(tmp, DBEntryName)
	if err := writeDB(ctx, dbPath, metadataRecord(doc.Meta), rows); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// 2+3. database and the referenced assets into the container
	zw := zip.NewWriter(w)
	if err := addFileEntry(zw, DBEntryName, dbPath); err != nil {
		_ = zw.Close()
		return err
	}
	for _, a := range used {
		method := zip.Store
		if a.Format.Compressible() {
			method = zip.Deflate
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: assetPath(a.FileName()), Method: method, Modified: doc.Meta.ModifiedAt})
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("create asset entry: %w", err)
		}
		if _, err := fw.Write(a.Data); err != nil {
			_ = zw.Close()
			return &domain.AssetIOError{Asset: a.FileName(), Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	l.Debug("board encoded", slog.Int("objects", len(rows)), slog.Int("assets", len(used)))
	return nil
}

func buildRows(doc *Document) ([]objectRow, []assets.Asset, error) {
	rows := make([]objectRow, 0, len(doc.Objects))
	seen := map[string]bool{}
	var used []assets.Asset
	for _, o := range doc.Objects {
		if err := o.Validate(); err != nil {
			return nil, nil, fmt.Errorf("object %s: %w", o.ID, err)
		}
		var file string
		if img, ok := o.Payload.(domain.ImagePayload); ok {
			var a assets.Asset
			found := false
			if doc.Assets != nil {
				a, found = doc.Assets.Get(img.AssetID)
			}
			if !found {
				return nil, nil, &domain.AssetIOError{Asset: img.AssetID, Err: errors.New("referenced asset is not in the asset table")}
			}
			file = a.FileName()
			if !seen[a.ID] {
				seen[a.ID] = true
				used = append(used, a)
			}
		}
		data, err := encodePayload(o.Payload, file)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, objectRow{
			ID: o.ID, Type: string(o.Kind()),
			X: o.X, Y: o.Y, Width: o.Width, Height: o.Height,
			ZIndex: o.ZIndex, Data: data,
			CreatedAt: o.CreatedAt.UnixNano(), ModifiedAt: o.ModifiedAt.UnixNano(),
		})
	}
	sort.Slice(used, func(i, j int) bool { return used[i].ID < used[j].ID })
	return rows, used, nil
}

func metadataRecord(m Metadata) map[string]string {
	now := domain.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.ModifiedAt.IsZero() {
		m.ModifiedAt = now
	}
	out := map[string]string{
		metaSchemaVersion: strconv.Itoa(SchemaVersion),
		metaCreatedAt:     formatTime(m.CreatedAt),
		metaModifiedAt:    formatTime(m.ModifiedAt),
		metaAppVersion:    version.String(),
	}
	if m.Viewport != nil {
		if b, err := json.Marshal(m.Viewport); err == nil {
			out[metaViewport] = string(b)
		}
	}
	return out
}

func writeDB(ctx context.Context, path string, meta map[string]string, rows []objectRow) error {
	db, err := openBoardDB(path)
	if err != nil {
		return err
	}
	if err := createSchema(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	if err := writeBoard(ctx, db, meta, rows); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}

func addFileEntry(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("create %s entry: %w", name, err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("write %s entry: %w", name, err)
	}
	return nil
}

// Decode reads a board archive. Any malformed content fails the whole load
// with a CorruptBoardError; a newer format fails with UnsupportedSchemaError.
func Decode(ctx context.Context, r io.ReaderAt, size int64) (*Document, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "decode")
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, domain.Corrupt(err, "not a board archive")
	}
	entries := map[string]*zip.File{}
	for _, f := range zr.File {
		entries[f.Name] = f
	}
	dbEntry, ok := entries[DBEntryName]
	if !ok {
		return nil, domain.Corrupt(nil, "missing %s", DBEntryName)
	}

	tmp, err := os.MkdirTemp("", "gowhiteboard-load-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()
	dbPath := filepath.Join(tmp, DBEntryName)
	if err := extractEntry(dbEntry, dbPath); err != nil {
		return nil, domain.Corrupt(err, "extract %s", DBEntryName)
	}

	meta, rows, err := readDB(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	doc := &Document{Meta: meta, Assets: assets.NewTable()}
	ids := map[string]bool{}
	zs := map[int64]string{}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o, assetFile, err := objectFromRow(row)
		if err != nil {
			return nil, domain.Corrupt(err, "row %d (id %q)", i, row.ID)
		}
		if ids[o.ID] {
			return nil, domain.Corrupt(nil, "duplicate object id %q", o.ID)
		}
		if other, dup := zs[o.ZIndex]; dup {
			return nil, domain.Corrupt(nil, "objects %q and %q share z-index %d", other, o.ID, o.ZIndex)
		}
		ids[o.ID], zs[o.ZIndex] = true, o.ID
		if img, ok := o.Payload.(domain.ImagePayload); ok {
			if err := loadAsset(doc.Assets, entries, img, assetFile); err != nil {
				return nil, err
			}
		}
		doc.Objects = append(doc.Objects, o)
	}
	if extra := countOrphans(entries, doc.Assets); extra > 0 {
		l.Warn("archive holds unreferenced assets", slog.Int("count", extra))
	}
	l.Debug("board decoded", slog.Int("objects", len(doc.Objects)), slog.Int("assets", doc.Assets.Len()))
	return doc, nil
}

func extractEntry(f *zip.File, dst string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, rc)
	return err
}

func readDB(ctx context.Context, dbPath string) (Metadata, []objectRow, error) {
	db, err := openBoardDB(dbPath)
	if err != nil {
		return Metadata{}, nil, domain.Corrupt(err, "open %s", DBEntryName)
	}
	defer db.Close()
	kv, err := readMetadata(ctx, db)
	if err != nil {
		return Metadata{}, nil, domain.Corrupt(err, "read metadata")
	}
	meta, err := parseMetadata(kv)
	if err != nil {
		return Metadata{}, nil, err
	}
	rows, err := readObjects(ctx, db)
	if err != nil {
		return Metadata{}, nil, domain.Corrupt(err, "read objects")
	}
	return meta, rows, nil
}

func parseMetadata(kv map[string]string) (Metadata, error) {
	raw, ok := kv[metaSchemaVersion]
	if !ok {
		return Metadata{}, domain.Corrupt(nil, "missing %s", metaSchemaVersion)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return Metadata{}, domain.Corrupt(err, "invalid %s %q", metaSchemaVersion, raw)
	}
	if v > SchemaVersion {
		return Metadata{}, &domain.UnsupportedSchemaError{Version: v, Max: SchemaVersion}
	}
	m := Metadata{SchemaVersion: v, AppVersion: kv[metaAppVersion]}
	if s, ok := kv[metaCreatedAt]; ok {
		if m.CreatedAt, err = parseTime(s); err != nil {
			return Metadata{}, domain.Corrupt(err, "invalid %s", metaCreatedAt)
		}
	}
	if s, ok := kv[metaModifiedAt]; ok {
		if m.ModifiedAt, err = parseTime(s); err != nil {
			return Metadata{}, domain.Corrupt(err, "invalid %s", metaModifiedAt)
		}
	}
	if s, ok := kv[metaViewport]; ok && s != "" {
		var st viewport.State
		// a broken view is not worth failing the board for
		if json.Unmarshal([]byte(s), &st) == nil {
			m.Viewport = &st
		}
	}
	return m, nil
}

func objectFromRow(r objectRow) (domain.Object, string, error) {
	kind, err := domain.ParseKind(r.Type)
	if err != nil {
		return domain.Object{}, "", err
	}
	if r.ID == "" {
		return domain.Object{}, "", errors.New("missing id")
	}
	if r.ZIndex == domain.ZUnset {
		return domain.Object{}, "", errors.New("reserved z-index")
	}
	p, file, err := decodePayload(kind, r.Data)
	if err != nil {
		return domain.Object{}, "", err
	}
	o := domain.Object{
		ID: r.ID, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, ZIndex: r.ZIndex,
		CreatedAt:  time.Unix(0, r.CreatedAt).UTC(),
		ModifiedAt: time.Unix(0, r.ModifiedAt).UTC(),
		Payload:    p,
	}
	if err := o.Validate(); err != nil {
		return domain.Object{}, "", err
	}
	return o, file, nil
}

// loadAsset stages the bytes an image row points at, checking that the
// entry exists and that its name, id and content hash agree.
func loadAsset(tbl *assets.Table, entries map[string]*zip.File, img domain.ImagePayload, file string) error {
	if _, ok := tbl.Get(img.AssetID); ok {
		return nil
	}
	base := path.Base(file)
	ext := path.Ext(base)
	if strings.TrimSuffix(base, ext) != img.AssetID {
		return domain.Corrupt(nil, "asset path %q does not match asset id %s", file, img.AssetID)
	}
	f, ok := entries[file]
	if !ok {
		return domain.Corrupt(nil, "missing asset %s", file)
	}
	rc, err := f.Open()
	if err != nil {
		return &domain.AssetIOError{Asset: file, Err: err}
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		if errors.Is(err, zip.ErrChecksum) {
			return domain.Corrupt(err, "asset %s", file)
		}
		return &domain.AssetIOError{Asset: file, Err: err}
	}
	format, w, h, err := assets.Inspect(data)
	if err != nil {
		return domain.Corrupt(err, "asset %s", file)
	}
	if err := tbl.Put(assets.Asset{ID: img.AssetID, Format: format, Data: data, Width: w, Height: h}); err != nil {
		return domain.Corrupt(err, "asset %s", file)
	}
	return nil
}

func countOrphans(entries map[string]*zip.File, tbl *assets.Table) int {
	n := 0
	for name := range entries {
		if !strings.HasPrefix(name, AssetsDir) || strings.HasSuffix(name, "/") {
			continue
		}
		id := strings.TrimSuffix(path.Base(name), path.Ext(name))
		if _, ok := tbl.Get(id); !ok {
			n++
		}
	}
	return n
}
