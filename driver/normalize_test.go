// Copyright 2025 The Visatlas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package driver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	for _, test := range []struct {
		name string
		doc  Document
		want Document
	}{
		{
			name: "id preferred over slug and internal id",
			doc:  Document{"id": "x", "slug": "y", "_id": "z"},
			want: Document{"id": "x", "slug": "y"},
		},
		{
			name: "slug preferred over internal id",
			doc:  Document{"slug": "france", "_id": "abc123"},
			want: Document{"id": "france", "slug": "france"},
		},
		{
			name: "internal id stringified",
			doc:  Document{"_id": 42, "name": "X"},
			want: Document{"id": "42", "name": "X"},
		},
		{
			name: "internal id always stripped",
			doc:  Document{"id": "a", "_id": "b"},
			want: Document{"id": "a"},
		},
	} {
		got := Normalize(test.doc)
		withLists := Document{}
		for k, v := range test.want {
			withLists[k] = v
		}
		for _, f := range ListFields {
			withLists[f] = []interface{}{}
		}
		if diff := cmp.Diff(withLists, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", test.name, diff)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	doc := Normalize(Document{"slug": "japan", "_id": "oid", "keywords": []interface{}{"visa"}})
	again := Document{}
	for k, v := range doc {
		again[k] = v
	}
	Normalize(again)
	if diff := cmp.Diff(doc, again); diff != "" {
		t.Errorf("second Normalize changed the document (-first +second):\n%s", diff)
	}
}

func TestNormalizeNil(t *testing.T) {
	if got := Normalize(nil); got != nil {
		t.Errorf("Normalize(nil) = %v, want nil", got)
	}
}

func TestEnsureID(t *testing.T) {
	doc := Document{"id": "keep", "slug": "other"}
	if got := EnsureID(doc); got != "keep" {
		t.Errorf(`EnsureID = %q, want "keep"`, got)
	}

	doc = Document{"slug": "france"}
	if got := EnsureID(doc); got != "france" {
		t.Errorf(`EnsureID = %q, want "france"`, got)
	}
	if doc["id"] != "france" {
		t.Errorf(`doc["id"] = %v, want "france"`, doc["id"])
	}

	doc = Document{"name": "no slug"}
	id := EnsureID(doc)
	if id == "" {
		t.Error("EnsureID returned empty identifier")
	}
	if doc["id"] != id {
		t.Errorf(`doc["id"] = %v, want %q`, doc["id"], id)
	}
}
