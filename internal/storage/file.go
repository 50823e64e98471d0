/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gowhiteboard/internal/domain"
	applog "gowhiteboard/internal/log"
)

const (
	// FileExt is the board document extension.
	FileExt = ".wboard"
	// BackupsDirName holds timestamped copies of previously saved boards, next to the board file.
	BackupsDirName = ".wboard-backups"

	backupStamp = "20060102-150405.000"
)

// SaveOptions tunes Save.
type SaveOptions struct {
	// Backups is how many backups of the replaced file to keep; 0 disables backups.
	Backups int
}

// Save writes doc to path with transactional semantics: the archive is
// written to a temp file in the destination directory and renamed over path
// only after it is complete. The previous file, if any, is copied to a
// timestamped backup first. On failure the previous file is untouched.
func Save(ctx context.Context, path string, doc *Document, opts SaveOptions) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return errors.New("board path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.StorageWriteError{Path: path, Op: "mkdir", Err: err}
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		l.Error("create temp board failed", slog.Any("err", err))
		return &domain.StorageWriteError{Path: path, Op: "write", Err: err}
	}
	temp := f.Name()
	if err := encodeToFile(ctx, f, doc); err != nil {
		_ = os.Remove(temp)
		l.Error("write temp board failed", slog.Any("err", err))
		if errors.Is(err, domain.ErrAssetIO) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &domain.StorageWriteError{Path: path, Op: "write", Err: err}
	}

	if opts.Backups > 0 {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := backupFile(path); err != nil {
				_ = os.Remove(temp)
				l.Error("backup failed", slog.Any("err", err))
				return &domain.StorageWriteError{Path: path, Op: "backup", Err: err}
			}
		}
	}

	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		l.Error("replace board failed", slog.Any("err", err))
		return &domain.StorageWriteError{Path: path, Op: "rename", Err: err}
	}
	if opts.Backups > 0 {
		if err := pruneBackups(path, opts.Backups); err != nil {
			l.Warn("prune backups failed", slog.Any("err", err))
		}
	}
	l.Info("board saved", slog.Int("objects", len(doc.Objects)))
	return nil
}

// encodeToFile writes doc into f and closes it.
func encodeToFile(ctx context.Context, f *os.File, doc *Document) (err error) {
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	// CreateTemp uses 0600
	if err := f.Chmod(0o644); err != nil {
		return err
	}
	if err := Encode(ctx, f, doc); err != nil {
		return err
	}
	return f.Sync()
}

// Load reads the board file at path. A failed load has no side effects.
func Load(ctx context.Context, path string) (*Document, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "load").With(slog.String("path", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open board: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat board: %w", err)
	}
	doc, err := Decode(ctx, f, st.Size())
	if err != nil {
		l.Error("load failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("board loaded", slog.Int("objects", len(doc.Objects)), slog.Int("schema", doc.Meta.SchemaVersion))
	return doc, nil
}

// BackupDir returns the directory that holds backups of the board at path.
func BackupDir(path string) string {
	return filepath.Join(filepath.Dir(path), BackupsDirName)
}

func backupFile(path string) error {
	bdir := BackupDir(path)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format(backupStamp)
	bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	return copyFile(path, bpath)
}

// ListBackups returns the backups of the board at path, oldest first.
func ListBackups(path string) ([]string, error) {
	bdir := BackupDir(path)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// LatestBackup returns the newest backup of the board at path. The shell
// offers it when the board itself fails to load.
func LatestBackup(path string) (string, error) {
	all, err := ListBackups(path)
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", errors.New("no backups found")
	}
	return all[len(all)-1], nil
}

func pruneBackups(path string, keep int) error {
	all, err := ListBackups(path)
	if err != nil {
		return err
	}
	var errs []error
	for len(all) > keep {
		if err := os.Remove(all[0]); err != nil {
			errs = append(errs, err)
		}
		all = all[1:]
	}
	return errors.Join(errs...)
}

// CrashSnapshotPath returns where a crash autosave of the board at path goes.
// Unsaved boards go to the temp dir.
func CrashSnapshotPath(path string, now time.Time) string {
	stamp := now.Format("20060102-150405")
	if strings.TrimSpace(path) == "" {
		return filepath.Join(os.TempDir(), fmt.Sprintf("gowhiteboard-crash-%s%s", stamp, FileExt))
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.crash-%s%s", base, stamp, FileExt))
}

// AutosaveCrashSnapshot writes doc next to path without touching path itself
// and returns the snapshot location.
func AutosaveCrashSnapshot(ctx context.Context, path string, doc *Document) (string, error) {
	dst := CrashSnapshotPath(path, time.Now())
	if err := Save(ctx, dst, doc, SaveOptions{}); err != nil {
		return "", err
	}
	return dst, nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
