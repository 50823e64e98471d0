//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"gowhiteboard/internal/config"
	"gowhiteboard/internal/crash"
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/export"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/session"
	"gowhiteboard/internal/storage"
	"gowhiteboard/internal/telemetry"
	"gowhiteboard/internal/textlayout"
	"gowhiteboard/internal/version"
)

const appTitle = "Go Whiteboard"

// boardRef lets the crash handler see whichever board is open at panic time.
type boardRef struct{ sess *session.Session }

func (r *boardRef) Path() string                { return r.sess.Path() }
func (r *boardRef) Document() *storage.Document { return r.sess.Document() }

// shell is the main window around one BoardCanvas.
type shell struct {
	app    fyne.App
	win    fyne.Window
	prefs  fyne.Preferences
	opts   session.Options
	ref    *boardRef
	canvas *BoardCanvas
	status *widget.Label
	zoom   *widget.Label
	log    *slog.Logger
}

// Run starts the Fyne-based desktop UI. boardPath, when set, is opened
// immediately.
func Run(boardPath string) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	opts := session.Options{Canvas: cfg.Canvas, Backups: cfg.Storage.Backups}

	ref := &boardRef{sess: session.New(opts)}
	defer crash.Recover(ref)

	fyneApp := app.NewWithID("gowhiteboard")
	sh := newShell(fyneApp, opts, ref, l)
	if boardPath != "" {
		sh.openPath(boardPath)
	}
	sh.win.ShowAndRun()
	telemetry.Default().Flush(context.Background())
	return nil
}

func newShell(a fyne.App, opts session.Options, ref *boardRef, l *slog.Logger) *shell {
	sh := &shell{
		app:    a,
		win:    a.NewWindow(appTitle),
		prefs:  a.Preferences(),
		opts:   opts,
		ref:    ref,
		status: widget.NewLabel("Ready"),
		zoom:   widget.NewLabel("100%"),
		log:    l,
	}
	sh.canvas = NewBoardCanvas(ref.sess, textlayout.DefaultLibrary())
	sh.canvas.OnChanged = sh.refresh
	sh.canvas.OnEdit = sh.editText
	sh.canvas.OnMenu = sh.contextMenu

	// Restore window size from preferences (with sane minimums)
	winW := sh.prefs.IntWithFallback("window.width", 1280)
	winH := sh.prefs.IntWithFallback("window.height", 800)
	if winW < 640 {
		winW = 640
	}
	if winH < 480 {
		winH = 480
	}
	sh.win.Resize(fyne.NewSize(float32(winW), float32(winH)))

	sh.win.SetContent(container.NewBorder(sh.toolbar(), container.NewHBox(sh.status, widget.NewSeparator(), sh.zoom), nil, nil, sh.canvas))
	sh.win.SetMainMenu(sh.mainMenu())
	sh.shortcuts()
	sh.win.SetCloseIntercept(sh.quit)
	sh.refresh()
	return sh
}

func (sh *shell) sess() *session.Session { return sh.ref.sess }

// refresh syncs the title, zoom label and canvas with the session.
func (sh *shell) refresh() {
	s := sh.sess()
	sh.win.SetTitle(s.Title() + " - " + appTitle)
	sh.zoom.SetText(fmt.Sprintf("%.0f%%", s.Viewport().Zoom()*100))
	sh.canvas.Refresh()
}

func (sh *shell) fail(op string, err error) {
	sh.log.Error(op+" failed", slog.Any("err", err))
	sh.status.SetText(op + " failed")
	dialog.ShowError(err, sh.win)
}

func (sh *shell) toolbar() *widget.Toolbar {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { sh.confirmDiscard(sh.newBoard) }),
		widget.NewToolbarAction(theme.FolderOpenIcon(), func() { sh.confirmDiscard(sh.openDialog) }),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { sh.save(false) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentAddIcon(), sh.addNote),
		widget.NewToolbarAction(theme.FileTextIcon(), sh.addText),
		widget.NewToolbarAction(theme.FileImageIcon(), sh.addImage),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentCopyIcon(), sh.duplicate),
		widget.NewToolbarAction(theme.DeleteIcon(), sh.deleteSelected),
		widget.NewToolbarAction(theme.MoveUpIcon(), func() { sh.reorder(true) }),
		widget.NewToolbarAction(theme.MoveDownIcon(), func() { sh.reorder(false) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { sh.sess().ZoomOut(); sh.refresh() }),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { sh.sess().ZoomIn(); sh.refresh() }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { sh.sess().ZoomToFit(); sh.refresh() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.UploadIcon(), func() { sh.exportDialog(false) }),
	)
}

func (sh *shell) mainMenu() *fyne.MainMenu {
	recent := fyne.NewMenuItem("Open Recent", nil)
	var items []*fyne.MenuItem
	for _, p := range loadRecentBoards(sh.prefs) {
		p := p
		items = append(items, fyne.NewMenuItem(p, func() { sh.confirmDiscard(func() { sh.openPath(p) }) }))
	}
	if len(items) == 0 {
		recent.Disabled = true
	} else {
		recent.ChildMenu = fyne.NewMenu("", items...)
	}

	noteColors := fyne.NewMenuItem("Note Colour", nil)
	var colours []*fyne.MenuItem
	for _, c := range domain.NoteColors {
		c := c
		colours = append(colours, fyne.NewMenuItem(colourName(c), func() { sh.setNoteColor(c) }))
	}
	noteColors.ChildMenu = fyne.NewMenu("", colours...)

	snap := fyne.NewMenuItem("Snap to Grid", nil)
	snap.Checked = sh.opts.Canvas.SnapToGrid
	snap.Action = func() {
		sh.opts.Canvas.SnapToGrid = !sh.opts.Canvas.SnapToGrid
		snap.Checked = sh.opts.Canvas.SnapToGrid
		sh.status.SetText("Snap to grid applies to boards opened from now on.")
	}

	file := fyne.NewMenu("File",
		fyne.NewMenuItem("New", func() { sh.confirmDiscard(sh.newBoard) }),
		fyne.NewMenuItem("Open…", func() { sh.confirmDiscard(sh.openDialog) }),
		recent,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", func() { sh.save(false) }),
		fyne.NewMenuItem("Save As…", func() { sh.save(true) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Board…", func() { sh.exportDialog(false) }),
		fyne.NewMenuItem("Export View…", func() { sh.exportDialog(true) }),
	)
	edit := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Edit Text…", func() {
			if id := sh.sess().Store().SelectedID(); id != "" {
				sh.editText(id)
			}
		}),
		noteColors,
		fyne.NewMenuItem("Font Size…", sh.fontSize),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Duplicate", sh.duplicate),
		fyne.NewMenuItem("Delete", sh.deleteSelected),
		fyne.NewMenuItem("Bring to Front", func() { sh.reorder(true) }),
		fyne.NewMenuItem("Send to Back", func() { sh.reorder(false) }),
	)
	insert := fyne.NewMenu("Insert",
		fyne.NewMenuItem("Note", sh.addNote),
		fyne.NewMenuItem("Text", sh.addText),
		fyne.NewMenuItem("Image…", sh.addImage),
		fyne.NewMenuItem("Paste Image", sh.pasteImage),
	)
	view := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { sh.sess().ZoomIn(); sh.refresh() }),
		fyne.NewMenuItem("Zoom Out", func() { sh.sess().ZoomOut(); sh.refresh() }),
		fyne.NewMenuItem("Zoom to Fit", func() { sh.sess().ZoomToFit(); sh.refresh() }),
		fyne.NewMenuItem("Reset View", func() { sh.sess().ResetView(); sh.refresh() }),
		fyne.NewMenuItemSeparator(),
		snap,
	)
	about := fyne.NewMenu("About", fyne.NewMenuItem("Version", func() {
		dialog.ShowInformation("About", appTitle+" "+version.String(), sh.win)
	}))
	return fyne.NewMainMenu(file, edit, insert, view, about)
}

func (sh *shell) shortcuts() {
	add := func(key fyne.KeyName, fn func()) {
		sh.win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { fn() })
	}
	add(fyne.KeyN, func() { sh.confirmDiscard(sh.newBoard) })
	add(fyne.KeyO, func() { sh.confirmDiscard(sh.openDialog) })
	add(fyne.KeyS, func() { sh.save(false) })
	add(fyne.KeyD, sh.duplicate)
	add(fyne.KeyV, sh.pasteImage)
	add(fyne.KeyEqual, func() { sh.sess().ZoomIn(); sh.refresh() })
	add(fyne.KeyMinus, func() { sh.sess().ZoomOut(); sh.refresh() })
	add(fyne.Key0, func() { sh.sess().ResetView(); sh.refresh() })
	sh.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			sh.deleteSelected()
		case fyne.KeyEscape:
			sh.sess().Release()
			_ = sh.sess().Store().Select("")
			sh.refresh()
		}
	})
}

func (sh *shell) added(what string, err error) {
	if err != nil {
		sh.fail("add "+what, err)
		return
	}
	sh.status.SetText("Added " + what + ".")
	sh.refresh()
}

func (sh *shell) addNote() {
	_, err := sh.sess().AddNote("")
	sh.added("note", err)
}

func (sh *shell) addText() {
	_, err := sh.sess().AddText("Text")
	sh.added("text", err)
}

func (sh *shell) addImage() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			sh.fail("image dialog", err)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		_, err = sh.sess().AddImageFile(path)
		sh.added("image", err)
	}, sh.win)
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}))
	fd.Show()
}

// pasteImage reads a file path from the clipboard, the one form of image
// paste every Fyne driver supports.
func (sh *shell) pasteImage() {
	txt := strings.TrimSpace(sh.win.Clipboard().Content())
	if txt == "" {
		sh.status.SetText("Clipboard is empty.")
		return
	}
	data, err := os.ReadFile(txt)
	if err != nil {
		sh.fail("paste image", fmt.Errorf("clipboard does not hold an image path: %w", err))
		return
	}
	_, err = sh.sess().AddImage(data)
	sh.added("image", err)
}

func (sh *shell) duplicate() {
	if _, err := sh.sess().Duplicate(""); err != nil {
		sh.status.SetText("Nothing selected.")
		return
	}
	sh.refresh()
}

func (sh *shell) deleteSelected() {
	sh.sess().Delete("")
	sh.refresh()
}

func (sh *shell) reorder(front bool) {
	s := sh.sess()
	err := s.SendToBack("")
	if front {
		err = s.BringToFront("")
	}
	if err != nil {
		sh.status.SetText("Nothing selected.")
		return
	}
	sh.refresh()
}

func (sh *shell) setNoteColor(c domain.NoteColor) {
	if _, err := sh.sess().SetNoteColor("", c); err != nil {
		sh.status.SetText(err.Error())
		return
	}
	sh.refresh()
}

func (sh *shell) editText(id string) {
	o, ok := sh.sess().Store().Get(id)
	if !ok {
		return
	}
	var current string
	switch p := o.Payload.(type) {
	case domain.NotePayload:
		current = p.Text
	case domain.TextPayload:
		current = p.Text
	default:
		return
	}
	entry := widget.NewMultiLineEntry()
	entry.SetText(current)
	entry.SetMinRowsVisible(6)
	dialog.ShowForm("Edit Text", "Apply", "Cancel", []*widget.FormItem{widget.NewFormItem("Text", entry)}, func(ok bool) {
		if !ok {
			return
		}
		if _, err := sh.sess().EditText(id, entry.Text); err != nil {
			sh.fail("edit text", err)
			return
		}
		sh.refresh()
	}, sh.win)
}

func (sh *shell) fontSize() {
	o, ok := sh.sess().Store().Selected()
	if !ok {
		sh.status.SetText("Nothing selected.")
		return
	}
	p, ok := o.Payload.(domain.TextPayload)
	if !ok {
		sh.status.SetText("Font size applies to text objects only.")
		return
	}
	entry := widget.NewEntry()
	entry.SetText(fmt.Sprint(p.FontSize))
	dialog.ShowForm("Font Size", "Apply", "Cancel", []*widget.FormItem{widget.NewFormItem("Points", entry)}, func(ok bool) {
		if !ok {
			return
		}
		var size int
		if _, err := fmt.Sscan(entry.Text, &size); err != nil {
			sh.fail("font size", fmt.Errorf("invalid size %q", entry.Text))
			return
		}
		if _, err := sh.sess().SetFontSize(o.ID, size); err != nil {
			sh.fail("font size", err)
			return
		}
		sh.refresh()
	}, sh.win)
}

func (sh *shell) contextMenu(id string, pos fyne.Position) {
	var items []*fyne.MenuItem
	if id == "" {
		items = []*fyne.MenuItem{
			fyne.NewMenuItem("Add Note", sh.addNote),
			fyne.NewMenuItem("Add Text", sh.addText),
			fyne.NewMenuItem("Paste Image", sh.pasteImage),
		}
	} else {
		items = []*fyne.MenuItem{
			fyne.NewMenuItem("Edit Text…", func() { sh.editText(id) }),
			fyne.NewMenuItem("Duplicate", sh.duplicate),
			fyne.NewMenuItem("Bring to Front", func() { sh.reorder(true) }),
			fyne.NewMenuItem("Send to Back", func() { sh.reorder(false) }),
			fyne.NewMenuItem("Delete", sh.deleteSelected),
		}
		if o, ok := sh.sess().Store().Get(id); ok && o.Kind() == domain.KindNote {
			for _, c := range domain.NoteColors {
				c := c
				items = append(items, fyne.NewMenuItem("Colour: "+colourName(c), func() { sh.setNoteColor(c) }))
			}
		}
	}
	widget.ShowPopUpMenuAtPosition(fyne.NewMenu("", items...), sh.win.Canvas(), pos)
}

func colourName(c domain.NoteColor) string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// confirmDiscard runs next, asking first when the board has unsaved changes.
func (sh *shell) confirmDiscard(next func()) {
	if !sh.sess().Modified() {
		next()
		return
	}
	dialog.ShowConfirm("Unsaved Changes", "Discard the changes to "+sh.sess().Title()+"?", func(ok bool) {
		if ok {
			next()
		}
	}, sh.win)
}

func (sh *shell) setSession(s *session.Session) {
	sh.ref.sess = s
	sh.canvas.SetSession(s)
	sh.refresh()
}

func (sh *shell) newBoard() {
	sh.setSession(session.New(sh.opts))
	telemetry.Emit(telemetry.BoardCreated, nil)
	sh.status.SetText("New board.")
}

func (sh *shell) openDialog() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			sh.fail("open dialog", err)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		sh.openPath(path)
	}, sh.win)
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{storage.FileExt}))
	fd.Show()
}

// openPath loads in the background and installs on the UI thread; the open
// board stays untouched when loading fails.
func (sh *shell) openPath(path string) {
	sh.status.SetText("Opening " + filepath.Base(path) + "…")
	res := session.LoadAsync(context.Background(), path)
	go func() {
		r := <-res
		fyne.Do(func() {
			next := session.New(sh.opts)
			if err := next.Install(r); err != nil {
				sh.fail("open", err)
				return
			}
			addRecentBoard(sh.prefs, path)
			sh.win.SetMainMenu(sh.mainMenu())
			sh.setSession(next)
			sh.status.SetText("Opened " + filepath.Base(path) + ".")
		})
	}()
}

// save writes in the background; saveAs always asks for a path.
func (sh *shell) save(saveAs bool) {
	s := sh.sess()
	if saveAs || s.Path() == "" {
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				sh.fail("save dialog", err)
				return
			}
			if wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			if !strings.HasSuffix(strings.ToLower(path), storage.FileExt) {
				_ = os.Remove(path)
				path += storage.FileExt
			}
			sh.saveTo(s, path)
		}, sh.win)
		fd.SetFileName("board" + storage.FileExt)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{storage.FileExt}))
		fd.Show()
		return
	}
	sh.saveTo(s, s.Path())
}

func (sh *shell) saveTo(s *session.Session, path string) {
	sh.status.SetText("Saving…")
	res := s.SaveAsync(context.Background(), path)
	go func() {
		r := <-res
		fyne.Do(func() {
			if err := s.Saved(r); err != nil {
				sh.fail("save", err)
				return
			}
			addRecentBoard(sh.prefs, r.Path)
			sh.win.SetMainMenu(sh.mainMenu())
			sh.status.SetText("Saved " + filepath.Base(r.Path) + ".")
			sh.refresh()
		})
	}()
}

func (sh *shell) exportDialog(viewOnly bool) {
	fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			sh.fail("export dialog", err)
			return
		}
		if wc == nil {
			return
		}
		path := wc.URI().Path()
		_ = wc.Close()
		if err := sh.sess().Export(path, export.PresetScreen, viewOnly); err != nil {
			_ = os.Remove(path)
			sh.fail("export", err)
			return
		}
		sh.status.SetText("Exported " + filepath.Base(path) + ".")
	}, sh.win)
	fd.SetFileName(strings.TrimSuffix(sh.sess().Title(), " *") + ".pdf")
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf", ".png"}))
	fd.Show()
}

// quit persists the window size and asks before dropping unsaved changes.
func (sh *shell) quit() {
	sz := sh.win.Canvas().Size()
	sh.prefs.SetInt("window.width", int(sz.Width))
	sh.prefs.SetInt("window.height", int(sz.Height))
	sh.confirmDiscard(sh.win.Close)
}

// Recent board persistence helpers
const recentPrefsKey = "recent.boards"
const recentMax = 10

func loadRecentBoards(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			items = nil
		}
	}
	// Filter out boards that were moved or deleted
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func saveRecentBoards(p fyne.Preferences, items []string) {
	if len(items) > recentMax {
		items = items[:recentMax]
	}
	b, _ := json.Marshal(items)
	p.SetString(recentPrefsKey, string(b))
}

func addRecentBoard(p fyne.Preferences, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, _ := filepath.Abs(path)
	rec := loadRecentBoards(p)
	out := make([]string, 0, 1+len(rec))
	out = append(out, abs)
	for _, s := range rec {
		// de-dup (case-insensitive on Windows)
		if strings.EqualFold(s, abs) {
			continue
		}
		out = append(out, s)
	}
	saveRecentBoards(p, out)
}
