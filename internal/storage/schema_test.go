/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"strings"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gowhiteboard/internal/domain"
)

func TestEncodedPayloadsConformToSchema(t *testing.T) {
	id := strings.Repeat("ab", 32)
	cases := []domain.Payload{
		domain.NotePayload{Text: "hello", Color: domain.NoteGreen, FontSize: 14},
		domain.NotePayload{Text: "", Color: domain.NoteYellow, FontSize: 1},
		domain.TextPayload{Text: "title", FontFamily: "Sans", FontSize: 16, Color: 0x000000},
		domain.ImagePayload{AssetID: id, OriginalWidth: 10, OriginalHeight: 10},
	}
	for _, p := range cases {
		data, err := encodePayload(p, id+".png")
		if err != nil {
			t.Fatalf("encode %s: %v", p.Kind(), err)
		}
		b, err := schemaFS.ReadFile("schemas/" + string(p.Kind()) + ".schema.json")
		if err != nil {
			t.Fatalf("read schema: %v", err)
		}
		result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(b), gojsonschema.NewStringLoader(data))
		if err != nil {
			t.Fatalf("schema validate error: %v", err)
		}
		if !result.Valid() {
			for _, e := range result.Errors() {
				t.Logf("schema error: %s", e)
			}
			t.Fatalf("%s payload %s does not conform to schema", p.Kind(), data)
		}

		back, path, err := decodePayload(p.Kind(), data)
		if err != nil {
			t.Fatalf("decode %s: %v", p.Kind(), err)
		}
		if back != p {
			t.Fatalf("decode mismatch: got %#v want %#v", back, p)
		}
		if p.Kind() == domain.KindImage && path != "assets/"+id+".png" {
			t.Fatalf("asset path = %q", path)
		}
	}
}

func TestDecodePayloadRejectsInvalid(t *testing.T) {
	id := strings.Repeat("0f", 32)
	cases := []struct {
		name string
		kind domain.Kind
		data string
	}{
		{"note unknown colour", domain.KindNote, `{"text":"x","color":"red","font_size":14}`},
		{"note missing text", domain.KindNote, `{"color":"yellow","font_size":14}`},
		{"note zero font", domain.KindNote, `{"text":"x","color":"yellow","font_size":0}`},
		{"text bad colour", domain.KindText, `{"text":"x","font_family":"Sans","font_size":16,"color":"black"}`},
		{"text empty family", domain.KindText, `{"text":"x","font_family":"","font_size":16,"color":"#000000"}`},
		{"image short id", domain.KindImage, `{"asset_id":"abc","original_width":1,"original_height":1,"asset_path":"assets/abc.png"}`},
		{"image zero width", domain.KindImage, `{"asset_id":"` + id + `","original_width":0,"original_height":1,"asset_path":"assets/` + id + `.png"}`},
		{"image path outside assets", domain.KindImage, `{"asset_id":"` + id + `","original_width":1,"original_height":1,"asset_path":"../` + id + `.png"}`},
		{"array", domain.KindNote, `[]`},
		{"unknown kind", domain.Kind("shape"), `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := decodePayload(tc.kind, tc.data); err == nil {
				t.Fatalf("expected %s to be rejected", tc.data)
			}
		})
	}
}
