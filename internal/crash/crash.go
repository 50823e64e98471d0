/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an emergency copy
// of the open board, then exits.
package crash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/storage"
	"gowhiteboard/internal/telemetry"
	"gowhiteboard/internal/version"
)

// exitFn is replaced in tests.
var exitFn = os.Exit

// Source is the open board rescued on a panic. Path is empty for a board
// that was never saved.
type Source interface {
	Path() string
	Document() *storage.Document
}

// Recover captures a panic, logs it with the stack, writes a report and a
// crash snapshot of src (when non-nil) and exits with status 2.
//
// Usage: defer crash.Recover(sess)
func Recover(src Source) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	boardPath := ""
	if src != nil {
		boardPath = src.Path()
	}
	reportPath, err := writeReport(boardPath, r, stack)
	if err != nil {
		l.Error("crash report failed", slog.Any("err", err))
	}
	if src != nil {
		if snap, err := rescue(src); err != nil {
			l.Error("crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("crash snapshot written", slog.String("path", snap))
			_, _ = fmt.Fprintf(os.Stderr, "Your board was saved to: %s\n", snap)
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// rescue snapshots the board; a second panic while doing so is swallowed.
func rescue(src Source) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("snapshot panicked: %v", r)
		}
	}()
	doc := src.Document()
	if doc == nil {
		return "", errors.New("no board open")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return storage.AutosaveCrashSnapshot(ctx, src.Path(), doc)
}

// reportDir is the backups dir next to a saved board, else the temp dir.
func reportDir(boardPath string) string {
	if boardPath == "" {
		return os.TempDir()
	}
	dir := storage.BackupDir(boardPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func writeReport(boardPath string, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(boardPath), fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "GoWhiteboard Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if boardPath != "" {
		_, _ = fmt.Fprintf(&buf, "Board: %s\n", boardPath)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// opt-in only
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
