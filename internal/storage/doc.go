/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements board persistence.
// A board file (.wboard) is a ZIP archive holding board.db, an SQLite database with a
// key/value board_metadata table and an objects table, plus one file per distinct image
// under assets/, named by the SHA-256 of its content.
// Saves are transactional (temp file then rename) and keep timestamped backups of the
// previous file; loads validate every row and fail as a whole on the first bad one.
package storage
