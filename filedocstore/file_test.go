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

package filedocstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/visatlas/docstore"
	"github.com/visatlas/docstore/drivertest"
	"github.com/visatlas/docstore/dserrors"
)

type harness struct {
	dir string
}

func newHarness(ctx context.Context, t *testing.T) (drivertest.Harness, error) {
	return &harness{dir: t.TempDir()}, nil
}

func (h *harness) MakeStore(ctx context.Context) (*docstore.Store, error) {
	return OpenStore(h.dir, nil)
}

func (h *harness) Close() {}

func TestConformance(t *testing.T) {
	drivertest.RunConformanceTests(t, newHarness)
}

func TestMissingFileIsEmptyCollection(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	coll := store.Collection("nothing-here")
	n, err := coll.CountDocuments(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
	docs, err := coll.Find(ctx, nil).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d documents, want 0", len(docs))
	}
}

func TestFileFormat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := OpenStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	coll := store.Collection("countries")
	if _, err := coll.InsertOne(ctx, docstore.Document{"slug": "france", "name": "France"}); err != nil {
		t.Fatal(err)
	}

	// One JSON array per collection, indented for hand editing.
	data, err := os.ReadFile(filepath.Join(dir, "countries.json"))
	if err != nil {
		t.Fatal(err)
	}
	var docs []map[string]interface{}
	if err := json.Unmarshal(data, &docs); err != nil {
		t.Fatalf("collection file is not a JSON array: %v", err)
	}
	if len(docs) != 1 || docs[0]["slug"] != "france" {
		t.Errorf("file contents = %v", docs)
	}
	if data[0] != '[' || data[1] != '\n' {
		t.Error("collection file is not indented")
	}
}

func TestHandEditedFile(t *testing.T) {
	// A file written by hand, without identifiers, is readable; ids are
	// derived from slugs on the way out.
	ctx := context.Background()
	dir := t.TempDir()
	contents := `[{"slug": "japan", "name": "Japan"}]`
	if err := os.WriteFile(filepath.Join(dir, "countries.json"), []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := OpenStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	doc, err := store.Collection("countries").FindOne(ctx, docstore.Filter{"slug": "japan"})
	if err != nil {
		t.Fatal(err)
	}
	if doc["id"] != "japan" {
		t.Errorf(`doc["id"] = %v, want "japan"`, doc["id"])
	}
}

func TestCorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "countries.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := OpenStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	_, err = store.Collection("countries").CountDocuments(ctx, nil)
	if dserrors.Code(err) != dserrors.IOFailure {
		t.Errorf("got %v, want IOFailure", err)
	}
}

func TestInvalidCollectionName(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		_, err := store.Collection(name).CountDocuments(ctx, nil)
		if dserrors.Code(err) != dserrors.InvalidArgument {
			t.Errorf("%q: got %v, want InvalidArgument", name, err)
		}
	}
}

func TestLastWriteWins(t *testing.T) {
	// Two stores over the same directory model two processes. Each write
	// rewrites the collection file in full, so whichever writes last
	// determines the file's contents.
	ctx := context.Background()
	dir := t.TempDir()
	s1, err := OpenStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s1.Close()
	s2, err := OpenStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if _, err := s1.Collection("countries").InsertOne(ctx, docstore.Document{"slug": "france"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s2.Collection("countries").InsertOne(ctx, docstore.Document{"slug": "japan"}); err != nil {
		t.Fatal(err)
	}
	// The second writer read the first writer's document before rewriting,
	// so both are present and readable from either store.
	for _, s := range []*docstore.Store{s1, s2} {
		n, err := s.Collection("countries").CountDocuments(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("count = %d, want 2", n)
		}
	}

	// Concurrent unsynchronized rewrites do not corrupt the file: the last
	// write wins and the file remains a well-formed snapshot.
	if _, err := s1.Collection("countries").UpdateOne(ctx, docstore.Filter{"slug": "france"}, docstore.Document{"fee": 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := s2.Collection("countries").UpdateOne(ctx, docstore.Filter{"slug": "japan"}, docstore.Document{"fee": 2}); err != nil {
		t.Fatal(err)
	}
	docs, err := s1.Collection("countries").Find(ctx, nil).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2", len(docs))
	}
}

func TestOpenStoreURL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := docstore.OpenStore(ctx, "file://"+dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := store.Collection("countries").InsertOne(ctx, docstore.Document{"slug": "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "countries.json")); err != nil {
		t.Errorf("collection file not created: %v", err)
	}

	if _, err := docstore.OpenStore(ctx, "file://"+dir+"?param=1"); err == nil {
		t.Error("query parameter accepted, want error")
	}
}
