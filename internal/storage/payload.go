/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gowhiteboard/internal/domain"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[domain.Kind]*gojsonschema.Schema
	schemasErr  error
)

// payloadSchema returns the compiled JSON schema for the payload blob of kind.
func payloadSchema(kind domain.Kind) (*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas = map[domain.Kind]*gojsonschema.Schema{}
		for _, k := range domain.Kinds {
			b, err := schemaFS.ReadFile("schemas/" + string(k) + ".schema.json")
			if err != nil {
				schemasErr = fmt.Errorf("read %s schema: %w", k, err)
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
			if err != nil {
				schemasErr = fmt.Errorf("compile %s schema: %w", k, err)
				return
			}
			schemas[k] = s
		}
	})
	if schemasErr != nil {
		return nil, schemasErr
	}
	s, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown object kind %q", kind)
	}
	return s, nil
}

// imageRecord is the stored form of an image payload: the archive-relative
// asset path travels next to the content id.
type imageRecord struct {
	domain.ImagePayload
	AssetPath string `json:"asset_path"`
}

// assetPath is the archive entry name of an asset.
func assetPath(fileName string) string { return AssetsDir + fileName }

// encodePayload renders the data column for p. assetFile is used for images only.
func encodePayload(p domain.Payload, assetFile string) (string, error) {
	var v any = p
	if img, ok := p.(domain.ImagePayload); ok {
		v = imageRecord{ImagePayload: img, AssetPath: assetPath(assetFile)}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", p.Kind(), err)
	}
	return string(b), nil
}

// decodePayload validates the data column against the schema of kind and
// rebuilds the typed payload. For images it also returns the asset path.
func decodePayload(kind domain.Kind, data string) (domain.Payload, string, error) {
	schema, err := payloadSchema(kind)
	if err != nil {
		return nil, "", err
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(data))
	if err != nil {
		return nil, "", fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, "", fmt.Errorf("payload violates %s schema: %s", kind, strings.Join(msgs, "; "))
	}
	switch kind {
	case domain.KindNote:
		var p domain.NotePayload
		err = json.Unmarshal([]byte(data), &p)
		return p, "", err
	case domain.KindText:
		var p domain.TextPayload
		err = json.Unmarshal([]byte(data), &p)
		return p, "", err
	case domain.KindImage:
		var r imageRecord
		err = json.Unmarshal([]byte(data), &r)
		return r.ImagePayload, r.AssetPath, err
	}
	return nil, "", fmt.Errorf("unknown object kind %q", kind)
}
