/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"gowhiteboard/internal/assets"
	"gowhiteboard/internal/domain"
)

func TestSaveLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans"+FileExt)
	doc := sampleDoc(t)
	if err := Save(context.Background(), path, doc, SaveOptions{Backups: 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Objects) != len(doc.Objects) {
		t.Fatalf("got %d objects, want %d", len(got.Objects), len(doc.Objects))
	}
	// first save has nothing to back up
	if _, err := LatestBackup(path); err == nil {
		t.Fatalf("no backup expected after the first save")
	}
	assertNoTempFiles(t, dir)
}

func TestSaveKeepsBackupsAndPrunes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b"+FileExt)
	doc := sampleDoc(t)
	for i := 0; i < 5; i++ {
		doc.Objects[0].Payload = domain.NotePayload{Text: strings.Repeat("x", i+1), Color: domain.NoteYellow, FontSize: 14}
		if err := Save(context.Background(), path, doc, SaveOptions{Backups: 2}); err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond) // distinct backup stamps
	}
	all, err := ListBackups(path)
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 backups after pruning, got %d: %v", len(all), all)
	}
	latest, err := LatestBackup(path)
	if err != nil || latest != all[1] {
		t.Fatalf("LatestBackup = %q, %v", latest, err)
	}
	// the newest backup is the state before the last save
	bdoc, err := Load(context.Background(), latest)
	if err != nil {
		t.Fatalf("load backup: %v", err)
	}
	if got := bdoc.Objects[0].Payload.(domain.NotePayload).Text; got != "xxxx" {
		t.Fatalf("backup holds %q, want %q", got, "xxxx")
	}
}

func TestFailedSaveLeavesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep"+FileExt)
	doc := sampleDoc(t)
	if err := Save(context.Background(), path, doc, SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	broken := sampleDoc(t)
	broken.Assets = assets.NewTable() // image rows now point nowhere
	err = Save(context.Background(), path, broken, SaveOptions{Backups: 1})
	if !errors.Is(err, domain.ErrAssetIO) {
		t.Fatalf("expected ErrAssetIO, got %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("previous board was modified by a failed save")
	}
	assertNoTempFiles(t, dir)
}

func TestConcurrentSavesUseDistinctTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shared"+FileExt)
	doc := sampleDoc(t)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- Save(context.Background(), path, doc, SaveOptions{})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Save: %v", err)
		}
	}
	if _, err := Load(context.Background(), path); err != nil {
		t.Fatalf("Load after concurrent saves: %v", err)
	}
	assertNoTempFiles(t, dir)
	if runtime.GOOS != "windows" {
		st, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if st.Mode().Perm() != 0o644 {
			t.Fatalf("board mode %v, want 0644", st.Mode().Perm())
		}
	}
}

func TestSaveToUnwritableLocationIsStorageWrite(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// a regular file where a directory is expected
	err := Save(context.Background(), filepath.Join(blocker, "b"+FileExt), sampleDoc(t), SaveOptions{})
	var sw *domain.StorageWriteError
	if !errors.As(err, &sw) || !errors.Is(err, domain.ErrStorageWrite) {
		t.Fatalf("expected StorageWriteError, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"+FileExt))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	err := Save(ctx, filepath.Join(dir, "c"+FileExt), sampleDoc(t), SaveOptions{})
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	assertNoTempFiles(t, dir)
}

func TestAutosaveCrashSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work"+FileExt)
	snap, err := AutosaveCrashSnapshot(context.Background(), path, sampleDoc(t))
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot: %v", err)
	}
	if filepath.Dir(snap) != dir || !strings.HasPrefix(filepath.Base(snap), "work.crash-") || filepath.Ext(snap) != FileExt {
		t.Fatalf("unexpected snapshot path %s", snap)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("crash snapshot must not create the board itself")
	}
	if _, err := Load(context.Background(), snap); err != nil {
		t.Fatalf("snapshot not loadable: %v", err)
	}
	if p := CrashSnapshotPath("", time.Now()); filepath.Dir(p) != filepath.Clean(os.TempDir()) {
		t.Fatalf("unsaved boards should snapshot to the temp dir, got %s", p)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
