/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session scopes one open board: its viewport, object store, asset
// table and file path. Nothing in here is global, so several boards can be
// open side by side. A Session is not safe for concurrent use; the UI shell
// drives it from one event loop and only saves and loads run in the
// background, on snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gowhiteboard/internal/assets"
	"gowhiteboard/internal/board"
	"gowhiteboard/internal/config"
	"gowhiteboard/internal/domain"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/storage"
	"gowhiteboard/internal/telemetry"
	"gowhiteboard/internal/vector"
	"gowhiteboard/internal/version"
	"gowhiteboard/internal/viewport"
)

// Options configures a session.
type Options struct {
	Canvas    config.CanvasConfig
	Backups   int
	Telemetry *telemetry.Client // nil uses the package default
}

// DefaultOptions mirrors config.Defaults.
func DefaultOptions() Options {
	d := config.Defaults()
	return Options{Canvas: d.Canvas, Backups: d.Storage.Backups}
}

// Session is one open board.
type Session struct {
	ID string

	opts     Options
	path     string
	view     *viewport.Viewport
	store    *board.Store
	assets   *assets.Table
	created  time.Time
	screenW  float64
	screenH  float64
	modified bool
	gen      uint64 // bumped by every mutation
	ptr      pointer
	guides   []vector.GuideLine
	tel      *telemetry.Client
	log      *slog.Logger
}

// New returns an empty, unsaved board.
func New(opts Options) *Session {
	s := &Session{ID: domain.NewID(), opts: opts, created: domain.Now(), screenW: 1280, screenH: 800}
	s.tel = opts.Telemetry
	if s.tel == nil {
		s.tel = telemetry.Default()
	}
	s.log = applog.WithComponent("session").With(slog.String("session", s.ID))
	s.assets = assets.NewTable()
	s.view = viewport.New(opts.Canvas.ViewportLimits())
	s.store = board.NewStore(opts.Canvas.BoardConfig(), s.assets)
	return s
}

// Open loads path into a new session.
func Open(ctx context.Context, path string, opts Options) (*Session, error) {
	s := New(opts)
	if err := s.Open(ctx, path); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Path() string                { return s.path }
func (s *Session) Viewport() *viewport.Viewport { return s.view }
func (s *Session) Store() *board.Store          { return s.store }
func (s *Session) Assets() *assets.Table        { return s.assets }
func (s *Session) Modified() bool               { return s.modified }
func (s *Session) Options() Options             { return s.opts }

// Title is the window title for the board.
func (s *Session) Title() string {
	name := "Untitled"
	if s.path != "" {
		name = displayName(s.path)
	}
	if s.modified {
		name += " *"
	}
	return name
}

// SetScreenSize records the render surface size in pixels.
func (s *Session) SetScreenSize(w, h float64) {
	if w > 0 && h > 0 {
		s.screenW, s.screenH = w, h
	}
}

func (s *Session) ScreenSize() (float64, float64) { return s.screenW, s.screenH }

// VisibleRect is the canvas rectangle covered by the render surface.
func (s *Session) VisibleRect() vector.Rect { return s.view.Visible(s.screenW, s.screenH) }

// Visible returns the objects to draw, bottom to top.
func (s *Session) Visible() []domain.Object { return s.store.VisibleObjects(s.VisibleRect()) }

// Guides returns the smart guide lines of the drag in progress.
func (s *Session) Guides() []vector.GuideLine { return s.guides }

func (s *Session) markModified() {
	s.modified = true
	s.gen++
}

// Document snapshots the board for the codec. The result shares no mutable
// state with the session, so it can be encoded on another goroutine.
func (s *Session) Document() *storage.Document {
	st := s.view.State()
	return &storage.Document{
		Meta: storage.Metadata{
			SchemaVersion: storage.SchemaVersion,
			CreatedAt:     s.created,
			ModifiedAt:    domain.Now(),
			AppVersion:    version.String(),
			Viewport:      &st,
		},
		Objects: s.store.Snapshot(),
		Assets:  s.assets.Clone(),
	}
}

// Save writes the board to path, or to the current path when empty. The
// session is untouched on failure.
func (s *Session) Save(ctx context.Context, path string) error {
	if path == "" {
		path = s.path
	}
	if path == "" {
		return errors.New("no file name for an unsaved board")
	}
	return s.finishSave(path, s.gen, s.writeDoc(ctx, path, s.Document()))
}

// SaveAsync snapshots the board and writes it in the background. The
// returned channel yields the result once; call Saved with it on the UI
// loop to update the session.
func (s *Session) SaveAsync(ctx context.Context, path string) <-chan SaveResult {
	if path == "" {
		path = s.path
	}
	out := make(chan SaveResult, 1)
	if path == "" {
		out <- SaveResult{Err: errors.New("no file name for an unsaved board")}
		return out
	}
	doc, gen := s.Document(), s.gen
	go func() {
		out <- SaveResult{Path: path, Err: s.writeDoc(ctx, path, doc), gen: gen}
	}()
	return out
}

// SaveResult is the outcome of a background save.
type SaveResult struct {
	Path string
	Err  error
	gen  uint64 // mutation generation of the snapshot
}

// Saved applies a background save result. Edits made after the snapshot
// keep the board marked modified.
func (s *Session) Saved(r SaveResult) error { return s.finishSave(r.Path, r.gen, r.Err) }

func (s *Session) writeDoc(ctx context.Context, path string, doc *storage.Document) error {
	ctx = applog.ContextWithBoard(ctx, path)
	start := time.Now()
	if err := storage.Save(ctx, path, doc, storage.SaveOptions{Backups: s.opts.Backups}); err != nil {
		return err
	}
	props := telemetry.BoardStats(doc.Objects)
	props["ms"] = time.Since(start).Milliseconds()
	s.tel.Emit(telemetry.BoardSaved, props)
	return nil
}

func (s *Session) finishSave(path string, gen uint64, err error) error {
	l := applog.WithOperation(s.log, "save")
	if err != nil {
		l.Error("save failed", slog.String("path", path), slog.Any("err", err))
		return err
	}
	s.path = path
	if gen == s.gen {
		s.modified = false
	}
	l.Info("board saved", slog.String("path", path), slog.Int("objects", s.store.Len()))
	return nil
}

// LoadResult is a decoded board waiting to be installed.
type LoadResult struct {
	Path string
	Doc  *storage.Document
	Err  error
}

// LoadAsync decodes path in the background. Dropping the result cancels
// the load as far as the session is concerned.
func LoadAsync(ctx context.Context, path string) <-chan LoadResult {
	out := make(chan LoadResult, 1)
	go func() {
		doc, err := storage.Load(applog.ContextWithBoard(ctx, path), path)
		out <- LoadResult{Path: path, Doc: doc, Err: err}
	}()
	return out
}

// Open loads path and replaces the board. On any error the current board
// stays as it was.
func (s *Session) Open(ctx context.Context, path string) error {
	doc, err := storage.Load(applog.ContextWithBoard(ctx, path), path)
	return s.Install(LoadResult{Path: path, Doc: doc, Err: err})
}

// Install swaps the session state for a loaded board.
func (s *Session) Install(r LoadResult) error {
	l := applog.WithOperation(s.log, "open")
	if r.Err == nil && r.Doc == nil {
		r.Err = errors.New("empty load result")
	}
	if r.Err != nil {
		l.Error("open failed", slog.String("path", r.Path), slog.Any("err", r.Err))
		s.tel.Emit(telemetry.LoadFailed, map[string]any{"reason": failureReason(r.Err)})
		return r.Err
	}
	tbl := r.Doc.Assets
	if tbl == nil {
		tbl = assets.NewTable()
	}
	store, err := board.FromObjects(s.opts.Canvas.BoardConfig(), tbl, r.Doc.Objects)
	if err != nil {
		err = domain.Corrupt(err, "rebuild store")
		l.Error("open failed", slog.String("path", r.Path), slog.Any("err", err))
		return err
	}
	view := viewport.New(s.opts.Canvas.ViewportLimits())
	if vs := r.Doc.Meta.Viewport; vs != nil {
		view.Restore(*vs)
	}

	s.store, s.assets, s.view = store, tbl, view
	s.path = r.Path
	s.created = r.Doc.Meta.CreatedAt
	s.modified = false
	s.ptr = pointer{}
	s.guides = nil
	l.Info("board opened", slog.String("path", r.Path), slog.Int("objects", store.Len()), slog.Int("assets", tbl.Len()))
	s.tel.Emit(telemetry.BoardOpened, telemetry.BoardStats(r.Doc.Objects))
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedSchema):
		return "unsupported_schema"
	case errors.Is(err, domain.ErrCorruptBoard):
		return "corrupt"
	case errors.Is(err, domain.ErrAssetIO):
		return "asset_io"
	default:
		return "io"
	}
}

// displayName is the file name without the board extension.
func displayName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), storage.FileExt)
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s, %d objects)", s.ID, s.Title(), s.store.Len())
}
