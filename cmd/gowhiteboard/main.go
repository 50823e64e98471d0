/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gowhiteboard/internal/config"
	"gowhiteboard/internal/crash"
	"gowhiteboard/internal/domain"
	"gowhiteboard/internal/export"
	applog "gowhiteboard/internal/log"
	"gowhiteboard/internal/session"
	"gowhiteboard/internal/storage"
	"gowhiteboard/internal/telemetry"
	"gowhiteboard/internal/ui"
	"gowhiteboard/internal/version"
)

func usage() {
	fmt.Println("Go Whiteboard")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gowhiteboard version|-v|--version                  Show version")
	fmt.Println("  gowhiteboard new <board.wboard>                     Create an empty board")
	fmt.Println("  gowhiteboard info <board.wboard>                    Print a board summary")
	fmt.Println("  gowhiteboard add-note <board.wboard> <text> [color] Add a sticky note (yellow|orange|blue|green|purple)")
	fmt.Println("  gowhiteboard add-text <board.wboard> <text>         Add a text box")
	fmt.Println("  gowhiteboard add-image <board.wboard> <image>       Embed an image")
	fmt.Println("  gowhiteboard export <board.wboard> <out.pdf|png>    Export the whole board")
	fmt.Println("  gowhiteboard export-batch <board.wboard> <dir> [screen|print]")
	fmt.Println("                                                      Export every format of a preset")
	fmt.Println("  gowhiteboard ui [<board.wboard>]                    Launch desktop UI (build with -tags fyne for full UI)")
}

// current is the board the crash handler rescues.
type current struct{ s *session.Session }

func (c *current) Path() string {
	if c.s == nil {
		return ""
	}
	return c.s.Path()
}

func (c *current) Document() *storage.Document {
	if c.s == nil {
		return nil
	}
	return c.s.Document()
}

func fail(l *slog.Logger, op string, err error) {
	l.Error(op+" failed", slog.Any("err", err))
	fmt.Println("Error:", err)
	telemetry.Default().Flush(context.Background())
	os.Exit(1)
}

func need(args []string, n int, msg string) {
	if len(args) < n {
		fmt.Println(msg)
		usage()
		os.Exit(2)
	}
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, AddSource: cfg.Logging.Source, File: cfg.Logging.File})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
	telemetry.SetDefault(telemetry.New(tc))

	cur := &current{}
	defer crash.Recover(cur)

	opts := session.Options{Canvas: cfg.Canvas, Backups: cfg.Storage.Backups}
	ctx := context.Background()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Go Whiteboard")
			fmt.Println(version.String())
			return
		case "new":
			need(args, 3, "new requires <board.wboard>")
			path := args[2]
			if _, err := os.Stat(path); err == nil {
				fail(l, "new", fmt.Errorf("%s already exists", path))
			}
			cur.s = session.New(opts)
			if err := cur.s.Save(ctx, path); err != nil {
				fail(l, "new", err)
			}
			telemetry.Emit(telemetry.BoardCreated, nil)
			fmt.Println("Created board at", path)
		case "info":
			need(args, 3, "info requires <board.wboard>")
			s, err := session.Open(ctx, args[2], opts)
			if err != nil {
				fail(l, "open", err)
			}
			cur.s = s
			printInfo(s)
		case "add-note", "add-text", "add-image":
			need(args, 4, args[1]+" requires <board.wboard> and a value")
			s, err := session.Open(ctx, args[2], opts)
			if err != nil {
				fail(l, "open", err)
			}
			cur.s = s
			o, err := add(s, args[1], args[3:])
			if err != nil {
				fail(l, args[1], err)
			}
			if err := s.Save(ctx, ""); err != nil {
				fail(l, "save", err)
			}
			fmt.Printf("Added %s %s at (%.0f, %.0f)\n", o.Kind(), o.ID, o.X, o.Y)
		case "export":
			need(args, 4, "export requires <board.wboard> and <out.pdf|png>")
			s, err := session.Open(ctx, args[2], opts)
			if err != nil {
				fail(l, "open", err)
			}
			cur.s = s
			if err := s.Export(args[3], export.PresetScreen, false); err != nil {
				fail(l, "export", err)
			}
			fmt.Println("Exported", args[3])
		case "export-batch":
			need(args, 4, "export-batch requires <board.wboard> and <dir>")
			preset := export.PresetScreen
			if len(args) >= 5 {
				preset = export.PresetName(args[4])
			}
			s, err := session.Open(ctx, args[2], opts)
			if err != nil {
				fail(l, "open", err)
			}
			cur.s = s
			if err := os.MkdirAll(args[3], 0o755); err != nil {
				fail(l, "export-batch", err)
			}
			paths, err := s.ExportBatch(args[3], preset, nil)
			for _, p := range paths {
				fmt.Println("Exported", p)
			}
			if err != nil {
				fail(l, "export-batch", err)
			}
		case "ui":
			var path string
			if len(args) >= 3 {
				path = args[2]
			}
			if err := ui.Run(path); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
		default:
			usage()
			os.Exit(2)
		}
		telemetry.Default().Flush(ctx)
		return
	}

	usage()
}

func add(s *session.Session, cmd string, vals []string) (domain.Object, error) {
	switch cmd {
	case "add-note":
		o, err := s.AddNote(vals[0])
		if err != nil || len(vals) < 2 {
			return o, err
		}
		return s.SetNoteColor(o.ID, domain.NoteColor(vals[1]))
	case "add-text":
		return s.AddText(vals[0])
	default:
		return s.AddImageFile(vals[0])
	}
}

func printInfo(s *session.Session) {
	doc := s.Document()
	counts := map[domain.Kind]int{}
	for _, o := range doc.Objects {
		counts[o.Kind()]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	abs, _ := filepath.Abs(s.Path())
	fmt.Printf("Board: %s\n", abs)
	fmt.Printf("Created: %s\n", doc.Meta.CreatedAt.Local().Format(time.RFC3339))
	fmt.Printf("Objects: %d\n", len(doc.Objects))
	for _, k := range kinds {
		fmt.Printf("  %s: %d\n", k, counts[domain.Kind(k)])
	}
	fmt.Printf("Assets: %d\n", doc.Assets.Len())
	if st := doc.Meta.Viewport; st != nil {
		fmt.Printf("Viewport: offset (%.1f, %.1f) zoom %.0f%%\n", st.OffsetX, st.OffsetY, st.Zoom*100)
	}
	if r, ok := s.Store().Bounds(); ok {
		fmt.Printf("Extent: %.0f x %.0f at (%.0f, %.0f)\n", r.W, r.H, r.X, r.Y)
	}
}
