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
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// DBEntryName is the archive entry holding the structured store.
	DBEntryName = "board.db"
	// AssetsDir prefixes every asset entry in the archive.
	AssetsDir = "assets/"

	// SchemaVersion is the newest board format this codec reads and the one it writes.
	// Bump this when the tables or payload blobs change incompatibly.
	SchemaVersion = 1
)

// Metadata keys in board_metadata.
const (
	metaSchemaVersion = "schema_version"
	metaCreatedAt     = "created_at"
	metaModifiedAt    = "modified_at"
	metaAppVersion    = "app_version"
	metaViewport      = "viewport"
)

// objectRow mirrors one row of the objects table.
type objectRow struct {
	ID         string
	Type       string
	X, Y       float64
	Width      float64
	Height     float64
	ZIndex     int64
	Data       string
	CreatedAt  int64
	ModifiedAt int64
}

// openBoardDB opens (creating if needed) the SQLite file at path. The board
// database is single-writer and lives in a private temp dir, so one
// connection is enough.
func openBoardDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// rollback journal keeps the database a single file we can archive
		`PRAGMA journal_mode=DELETE;`,
		`CREATE TABLE IF NOT EXISTS board_metadata (
			key   TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS objects (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			x           REAL NOT NULL,
			y           REAL NOT NULL,
			width       REAL NOT NULL,
			height      REAL NOT NULL,
			z_index     INTEGER NOT NULL,
			data        TEXT NOT NULL,
			created_at  INTEGER NOT NULL,
			modified_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_objects_position ON objects(x, y);`,
		`CREATE INDEX IF NOT EXISTS idx_objects_z_index ON objects(z_index);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// writeBoard stores metadata and rows in one transaction.
func writeBoard(ctx context.Context, db *sql.DB, meta map[string]string, rows []objectRow) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO board_metadata (key, value) VALUES (?, ?)`, k, v); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write metadata %s: %w", k, err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO objects
		(id, type, x, y, width, height, z_index, data, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Type, r.X, r.Y, r.Width, r.Height, r.ZIndex, r.Data, r.CreatedAt, r.ModifiedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert object %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func readMetadata(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM board_metadata`)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		out[k] = v.String
	}
	return out, rows.Err()
}

// readObjects returns rows in z order. NULLs in required columns surface as
// scan errors.
func readObjects(ctx context.Context, db *sql.DB) ([]objectRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, type, x, y, width, height, z_index, data, created_at, modified_at
		FROM objects ORDER BY z_index`)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()
	var out []objectRow
	for rows.Next() {
		var r objectRow
		if err := rows.Scan(&r.ID, &r.Type, &r.X, &r.Y, &r.Width, &r.Height, &r.ZIndex, &r.Data, &r.CreatedAt, &r.ModifiedAt); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string { return strconv.FormatInt(t.UnixNano(), 10) }

func parseTime(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}
