/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below match them with errors.Is.
var (
	ErrDuplicateID       = errors.New("duplicate object id")
	ErrNotFound          = errors.New("object not found")
	ErrUnsupportedSchema = errors.New("unsupported board schema")
	ErrCorruptBoard      = errors.New("corrupt board")
	ErrAssetIO           = errors.New("asset i/o failed")
	ErrStorageWrite      = errors.New("storage write failed")
	ErrZIndexConflict    = errors.New("z-index already in use")
	ErrInvalidGeometry   = errors.New("invalid geometry")
)

// DuplicateIDError is returned when an object id is inserted twice.
type DuplicateIDError struct{ ID string }

func (e *DuplicateIDError) Error() string        { return fmt.Sprintf("duplicate object id %q", e.ID) }
func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// NotFoundError is returned by store operations on a missing id.
type NotFoundError struct{ ID string }

func (e *NotFoundError) Error() string        { return fmt.Sprintf("object %q not found", e.ID) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnsupportedSchemaError is returned when a board was written by a newer format version.
type UnsupportedSchemaError struct {
	Version int
	Max     int
}

func (e *UnsupportedSchemaError) Error() string {
	return fmt.Sprintf("board schema version %d is not supported (max %d)", e.Version, e.Max)
}
func (e *UnsupportedSchemaError) Is(target error) bool { return target == ErrUnsupportedSchema }

// CorruptBoardError reports malformed or semantically invalid archive contents.
type CorruptBoardError struct {
	Reason string
	Err    error
}

func (e *CorruptBoardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt board: %s: %v", e.Reason, e.Err)
	}
	return "corrupt board: " + e.Reason
}
func (e *CorruptBoardError) Is(target error) bool { return target == ErrCorruptBoard }
func (e *CorruptBoardError) Unwrap() error        { return e.Err }

// Corrupt is shorthand for a CorruptBoardError with a formatted reason.
func Corrupt(err error, format string, args ...any) error {
	return &CorruptBoardError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// AssetIOError reports a failure reading or copying image bytes.
type AssetIOError struct {
	Asset string
	Err   error
}

func (e *AssetIOError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.Asset, e.Err)
}
func (e *AssetIOError) Is(target error) bool { return target == ErrAssetIO }
func (e *AssetIOError) Unwrap() error        { return e.Err }

// StorageWriteError wraps a filesystem failure during save.
type StorageWriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("save %s: %s: %v", e.Path, e.Op, e.Err)
}
func (e *StorageWriteError) Is(target error) bool { return target == ErrStorageWrite }
func (e *StorageWriteError) Unwrap() error        { return e.Err }
