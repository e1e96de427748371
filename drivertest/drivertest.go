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

// Package drivertest provides a conformance test for implementations of the
// docstore backend interface. Both backends must pass it unchanged; it is
// the executable statement that they are indistinguishable to callers.
package drivertest // import "github.com/visatlas/docstore/drivertest"

import (
	"context"
	"io"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/visatlas/docstore"
	"github.com/visatlas/docstore/dserrors"
)

// Harness descibes the functionality test harnesses must provide to run
// conformance tests.
type Harness interface {
	// MakeStore returns a docstore.Store to test.
	// Repeated calls must return Stores over the same underlying data.
	MakeStore(ctx context.Context) (*docstore.Store, error)

	// Close closes resources used by the harness.
	Close()
}

// HarnessMaker describes functions that construct a harness for running
// tests. It is called exactly once per test; Harness.Close() will be called
// when the test is complete.
type HarnessMaker func(ctx context.Context, t *testing.T) (Harness, error)

// RunConformanceTests runs conformance tests for backend implementations of
// docstore.
func RunConformanceTests(t *testing.T, newHarness HarnessMaker) {
	t.Run("InsertAndFindOne", func(t *testing.T) { withStore(t, newHarness, testInsertAndFindOne) })
	t.Run("Normalization", func(t *testing.T) { withStore(t, newHarness, testNormalization) })
	t.Run("FilterMatching", func(t *testing.T) { withStore(t, newHarness, testFilterMatching) })
	t.Run("UnsupportedFilter", func(t *testing.T) { withStore(t, newHarness, testUnsupportedFilter) })
	t.Run("CursorSort", func(t *testing.T) { withStore(t, newHarness, testCursorSort) })
	t.Run("CursorSkipLimit", func(t *testing.T) { withStore(t, newHarness, testCursorSkipLimit) })
	t.Run("CursorSnapshot", func(t *testing.T) { withStore(t, newHarness, testCursorSnapshot) })
	t.Run("UpdateOne", func(t *testing.T) { withStore(t, newHarness, testUpdateOne) })
	t.Run("FindOneAndUpdate", func(t *testing.T) { withStore(t, newHarness, testFindOneAndUpdate) })
	t.Run("Delete", func(t *testing.T) { withStore(t, newHarness, testDelete) })
	t.Run("CountAndDistinct", func(t *testing.T) { withStore(t, newHarness, testCountAndDistinct) })
	t.Run("Aggregate", func(t *testing.T) { withStore(t, newHarness, testAggregate) })
	t.Run("TextSearch", func(t *testing.T) { withStore(t, newHarness, testTextSearch) })
}

const collectionName = "countries"

func withStore(t *testing.T, newHarness HarnessMaker, f func(*testing.T, context.Context, *docstore.Collection)) {
	ctx := context.Background()
	h, err := newHarness(ctx, t)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	store, err := h.MakeStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	coll := store.Collection(collectionName)
	if _, err := coll.DeleteMany(ctx, nil); err != nil {
		t.Fatalf("clearing collection: %v", err)
	}
	f(t, ctx, coll)
}

// seed puts a small fixed dataset into coll, in a fixed order.
func seed(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	t.Helper()
	for _, doc := range []docstore.Document{
		{"slug": "france", "name": "France", "region": "Europe", "published": true, "visa_required": false, "fee": float64(80), "summary": "Schengen area member."},
		{"slug": "japan", "name": "Japan", "region": "Asia", "published": true, "visa_required": true, "fee": float64(30), "summary": "Island nation with eVisa support."},
		{"slug": "brazil", "name": "Brazil", "region": "Americas", "published": false, "visa_required": true, "fee": float64(80), "summary": "Largest country in South America."},
		{"slug": "germany", "name": "Germany", "region": "Europe", "published": true, "visa_required": false, "fee": float64(80), "summary": "Schengen area member."},
		{"slug": "kenya", "name": "Kenya", "region": "Africa", "published": true, "visa_required": true, "summary": "Electronic travel authorisation required."},
	} {
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			t.Fatalf("seeding %v: %v", doc["slug"], err)
		}
	}
}

func ids(docs []docstore.Document) []string {
	var out []string
	for _, d := range docs {
		id, _ := d["id"].(string)
		out = append(out, id)
	}
	return out
}

func testInsertAndFindOne(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	res, err := coll.InsertOne(ctx, docstore.Document{"slug": "chile", "name": "Chile", "region": "Americas"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "chile" {
		t.Errorf("insert ID = %q, want slug", res.ID)
	}

	got, err := coll.FindOne(ctx, docstore.Filter{"id": "chile"})
	if err != nil {
		t.Fatal(err)
	}
	if got["name"] != "Chile" {
		t.Errorf(`got name %v, want "Chile"`, got["name"])
	}

	if _, err := coll.FindOne(ctx, docstore.Filter{"id": "atlantis"}); dserrors.Code(err) != dserrors.NotFound {
		t.Errorf("missing document: got %v, want NotFound", err)
	}

	// A document with no slug gets a generated identifier.
	res, err = coll.InsertOne(ctx, docstore.Document{"name": "Unnamed"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID == "" {
		t.Error("insert without slug: empty ID")
	}
	if _, err := coll.FindOne(ctx, docstore.Filter{"id": res.ID}); err != nil {
		t.Errorf("finding generated ID: %v", err)
	}
}

func testNormalization(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	if _, err := coll.InsertOne(ctx, docstore.Document{"slug": "peru", "name": "Peru"}); err != nil {
		t.Fatal(err)
	}
	doc, err := coll.FindOne(ctx, docstore.Filter{"slug": "peru"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["_id"]; ok {
		t.Error(`document exposes "_id"`)
	}
	if doc["id"] != "peru" {
		t.Errorf(`doc["id"] = %v, want "peru"`, doc["id"])
	}
	// Sequence fields read back as empty slices, never nil.
	for _, f := range []string{"visa_types", "documents", "embassies", "keywords"} {
		v, ok := doc[f]
		if !ok {
			t.Errorf("missing list field %q", f)
			continue
		}
		s, ok := v.([]interface{})
		if !ok || s == nil {
			t.Errorf("list field %q = %#v, want empty slice", f, v)
		} else if len(s) != 0 {
			t.Errorf("list field %q has %d elements, want 0", f, len(s))
		}
	}
}

func testFilterMatching(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)
	for _, test := range []struct {
		filter docstore.Filter
		want   []string
	}{
		{nil, []string{"france", "japan", "brazil", "germany", "kenya"}},
		{docstore.Filter{"region": "Europe"}, []string{"france", "germany"}},
		{docstore.Filter{"region": "Europe", "published": true}, []string{"france", "germany"}},
		{docstore.Filter{"region": "Americas", "published": true}, nil},
		{docstore.Filter{"fee": 80}, []string{"france", "brazil", "germany"}},
		{docstore.Filter{"region": "Atlantis"}, nil},
		{docstore.Filter{"$text": "schengen"}, []string{"france", "germany"}},
		{docstore.Filter{"$text": "ISLAND"}, []string{"japan"}},
	} {
		got, err := coll.Find(ctx, test.filter).Sort("slug", docstore.Ascending).All(ctx)
		if err != nil {
			t.Fatalf("%v: %v", test.filter, err)
		}
		want := append([]string(nil), test.want...)
		sortStrings(want)
		if diff := cmp.Diff(want, ids(got), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%v: (-want +got):\n%s", test.filter, diff)
		}
	}
}

func testUnsupportedFilter(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)
	for _, filter := range []docstore.Filter{
		{"$or": []interface{}{}},
		{"fee": map[string]interface{}{"$gt": 50}},
		{"$where": "1"},
	} {
		if _, err := coll.Find(ctx, filter).All(ctx); dserrors.Code(err) != dserrors.UnsupportedQuery {
			t.Errorf("Find(%v): got %v, want UnsupportedQuery", filter, err)
		}
		if _, err := coll.CountDocuments(ctx, filter); dserrors.Code(err) != dserrors.UnsupportedQuery {
			t.Errorf("Count(%v): got %v, want UnsupportedQuery", filter, err)
		}
		if _, err := coll.DeleteMany(ctx, filter); dserrors.Code(err) != dserrors.UnsupportedQuery {
			t.Errorf("DeleteMany(%v): got %v, want UnsupportedQuery", filter, err)
		}
	}
}

func testCursorSort(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)

	got, err := coll.Find(ctx, nil).Sort("name", docstore.Ascending).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"brazil", "france", "germany", "japan", "kenya"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("ascending (-want +got):\n%s", diff)
	}

	got, err = coll.Find(ctx, nil).Sort("name", docstore.Descending).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	reverse(want)
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("descending (-want +got):\n%s", diff)
	}

	// The sort is stable: equal keys keep insertion order. Kenya has no fee,
	// so it sorts as zero, before the others.
	got, err = coll.Find(ctx, nil).Sort("fee", docstore.Ascending).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want = []string{"kenya", "japan", "france", "brazil", "germany"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("stable sort with missing field (-want +got):\n%s", diff)
	}
}

func testCursorSkipLimit(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)
	base := func() *docstore.Cursor {
		return coll.Find(ctx, nil).Sort("slug", docstore.Ascending)
	}
	// All slugs sorted: brazil, france, germany, japan, kenya.
	for _, test := range []struct {
		name string
		cur  *docstore.Cursor
		want []string
	}{
		{"skip", base().Skip(2), []string{"germany", "japan", "kenya"}},
		{"limit", base().Limit(2), []string{"brazil", "france"}},
		{"skip+limit", base().Skip(1).Limit(2), []string{"france", "germany"}},
		{"skip beyond end", base().Skip(10), nil},
		{"skip at end", base().Skip(5), nil},
		{"zero limit means all", base().Limit(0), []string{"brazil", "france", "germany", "japan", "kenya"}},
		{"limit beyond end", base().Limit(100), []string{"brazil", "france", "germany", "japan", "kenya"}},
	} {
		got, err := test.cur.All(ctx)
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		if diff := cmp.Diff(test.want, ids(got), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s: (-want +got):\n%s", test.name, diff)
		}
	}

	if _, err := coll.Find(ctx, nil).Skip(-1).All(ctx); dserrors.Code(err) != dserrors.InvalidArgument {
		t.Errorf("negative skip: got %v, want InvalidArgument", err)
	}
}

func testCursorSnapshot(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)
	cur := coll.Find(ctx, nil).Sort("slug", docstore.Ascending)
	defer cur.Stop()
	// Run the query by pulling one result.
	first, err := cur.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first["id"] != "brazil" {
		t.Fatalf("first = %v, want brazil", first["id"])
	}
	// A write after the query has run does not appear in its results.
	if _, err := coll.InsertOne(ctx, docstore.Document{"slug": "albania", "name": "Albania"}); err != nil {
		t.Fatal(err)
	}
	var rest []string
	for {
		doc, err := cur.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		rest = append(rest, doc["id"].(string))
	}
	want := []string{"france", "germany", "japan", "kenya"}
	if diff := cmp.Diff(want, rest); diff != "" {
		t.Errorf("results after concurrent insert (-want +got):\n%s", diff)
	}
}

func testUpdateOne(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)

	res, err := coll.UpdateOne(ctx, docstore.Filter{"slug": "japan"},
		docstore.Document{"fee": float64(35), "keywords": []interface{}{"evisa"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchedCount != 1 || res.ModifiedCount != 1 {
		t.Errorf("got %+v, want matched=1 modified=1", res)
	}
	// Applying the same update again matches but modifies nothing.
	res, err = coll.UpdateOne(ctx, docstore.Filter{"slug": "japan"},
		docstore.Document{"fee": float64(35), "keywords": []interface{}{"evisa"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchedCount != 1 || res.ModifiedCount != 0 {
		t.Errorf("repeated update: got %+v, want matched=1 modified=0", res)
	}
	doc, err := coll.FindOne(ctx, docstore.Filter{"slug": "japan"})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := doc["fee"].(float64); got != 35 {
		t.Errorf("fee = %v, want 35", doc["fee"])
	}
	// Untouched fields survive the merge.
	if doc["region"] != "Asia" {
		t.Errorf("region = %v, want Asia", doc["region"])
	}

	// A list-valued field is replaced wholesale, not appended to.
	if _, err := coll.UpdateOne(ctx, docstore.Filter{"slug": "japan"},
		docstore.Document{"keywords": []interface{}{"visa", "tourism"}}); err != nil {
		t.Fatal(err)
	}
	doc, err = coll.FindOne(ctx, docstore.Filter{"slug": "japan"})
	if err != nil {
		t.Fatal(err)
	}
	want := []interface{}{"visa", "tourism"}
	if diff := cmp.Diff(want, doc["keywords"]); diff != "" {
		t.Errorf("keywords (-want +got):\n%s", diff)
	}

	// A {"$set": ...} wrapper is accepted; no other operator is.
	if _, err := coll.UpdateOne(ctx, docstore.Filter{"slug": "japan"},
		docstore.Document{"$set": map[string]interface{}{"featured": true}}); err != nil {
		t.Fatal(err)
	}
	doc, err = coll.FindOne(ctx, docstore.Filter{"slug": "japan"})
	if err != nil {
		t.Fatal(err)
	}
	if doc["featured"] != true {
		t.Errorf("featured = %v, want true", doc["featured"])
	}
	_, err = coll.UpdateOne(ctx, docstore.Filter{"slug": "japan"},
		docstore.Document{"$push": map[string]interface{}{"keywords": "x"}})
	if dserrors.Code(err) != dserrors.UnsupportedQuery {
		t.Errorf("$push: got %v, want UnsupportedQuery", err)
	}

	// Updating a document nothing matches reports zero counts, no error.
	res, err = coll.UpdateOne(ctx, docstore.Filter{"slug": "atlantis"}, docstore.Document{"fee": 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchedCount != 0 || res.ModifiedCount != 0 {
		t.Errorf("got %+v, want zero counts", res)
	}
}

func testFindOneAndUpdate(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)
	doc, err := coll.FindOneAndUpdate(ctx, docstore.Filter{"slug": "kenya"}, docstore.Document{"published": false})
	if err != nil {
		t.Fatal(err)
	}
	if doc["published"] != false {
		t.Errorf("returned document not updated: published = %v", doc["published"])
	}
	if doc["id"] != "kenya" {
		t.Errorf("id = %v, want kenya", doc["id"])
	}
	_, err = coll.FindOneAndUpdate(ctx, docstore.Filter{"slug": "atlantis"}, docstore.Document{"published": false})
	if dserrors.Code(err) != dserrors.NotFound {
		t.Errorf("got %v, want NotFound", err)
	}
}

func testDelete(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)

	res, err := coll.DeleteOne(ctx, docstore.Filter{"region": "Europe"})
	if err != nil {
		t.Fatal(err)
	}
	if res.DeletedCount != 1 {
		t.Errorf("DeleteOne: deleted %d, want 1", res.DeletedCount)
	}
	n, err := coll.CountDocuments(ctx, docstore.Filter{"region": "Europe"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("after DeleteOne: %d Europe docs, want 1", n)
	}

	res, err = coll.DeleteOne(ctx, docstore.Filter{"region": "Atlantis"})
	if err != nil {
		t.Fatal(err)
	}
	if res.DeletedCount != 0 {
		t.Errorf("DeleteOne with no match: deleted %d, want 0", res.DeletedCount)
	}

	res, err = coll.DeleteMany(ctx, docstore.Filter{"published": true})
	if err != nil {
		t.Fatal(err)
	}
	if res.DeletedCount != 3 {
		t.Errorf("DeleteMany: deleted %d, want 3", res.DeletedCount)
	}

	res, err = coll.DeleteMany(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.DeletedCount != 1 {
		t.Errorf("DeleteMany(all): deleted %d, want 1", res.DeletedCount)
	}
	n, err = coll.CountDocuments(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("after deleting everything: count %d, want 0", n)
	}
}

func testCountAndDistinct(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	// Counting a collection that does not exist yet.
	n, err := coll.CountDocuments(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("empty collection count = %d, want 0", n)
	}

	seed(t, ctx, coll)
	for _, test := range []struct {
		filter docstore.Filter
		want   int64
	}{
		{nil, 5},
		{docstore.Filter{}, 5},
		{docstore.Filter{"published": true}, 4},
		{docstore.Filter{"region": "Europe", "visa_required": false}, 2},
		{docstore.Filter{"region": "Atlantis"}, 0},
	} {
		n, err := coll.CountDocuments(ctx, test.filter)
		if err != nil {
			t.Fatalf("%v: %v", test.filter, err)
		}
		if n != test.want {
			t.Errorf("Count(%v) = %d, want %d", test.filter, n, test.want)
		}
	}

	vals, err := coll.Distinct(ctx, "region", nil)
	if err != nil {
		t.Fatal(err)
	}
	var regions []string
	for _, v := range vals {
		regions = append(regions, v.(string))
	}
	sortStrings(regions)
	want := []string{"Africa", "Americas", "Asia", "Europe"}
	if diff := cmp.Diff(want, regions); diff != "" {
		t.Errorf("Distinct(region) (-want +got):\n%s", diff)
	}

	vals, err = coll.Distinct(ctx, "region", docstore.Filter{"published": true})
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 3 {
		t.Errorf("Distinct(region, published) returned %d values, want 3", len(vals))
	}

	// A field no document has yields no values.
	vals, err = coll.Distinct(ctx, "nonexistent", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 0 {
		t.Errorf("Distinct(nonexistent) = %v, want none", vals)
	}
}

func testAggregate(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)

	rows, err := coll.Aggregate(ctx, docstore.NewPipeline().
		Match(docstore.Filter{"published": true}).
		GroupBy("region").
		SortBy("count", docstore.Descending)).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	// Europe has two published countries and sorts first.
	if rows[0]["id"] != "Europe" || rowCount(t, rows[0]) != 2 {
		t.Errorf("first row = %v, want Europe count 2", rows[0])
	}
	for _, row := range rows[1:] {
		if rowCount(t, row) != 1 {
			t.Errorf("row %v: count %v, want 1", row["id"], row["count"])
		}
	}

	// GroupAll counts everything into one row.
	rows, err = coll.Aggregate(ctx, docstore.NewPipeline().GroupAll()).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rowCount(t, rows[0]) != 5 {
		t.Errorf("GroupAll rows = %v, want one row with count 5", rows)
	}

	// A filtered GroupAll agrees with CountDocuments on the same filter.
	filter := docstore.Filter{"published": true}
	rows, err = coll.Aggregate(ctx, docstore.NewPipeline().Match(filter).GroupAll()).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rowCount(t, rows[0]) != n {
		t.Errorf("filtered GroupAll rows = %v, want one row with count %d", rows, n)
	}

	// A match-only pipeline yields normalized documents.
	rows, err = coll.Aggregate(ctx, docstore.NewPipeline().
		Match(docstore.Filter{"region": "Europe"}).
		SortBy("slug", docstore.Ascending)).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"france", "germany"}
	if diff := cmp.Diff(want, ids(rows)); diff != "" {
		t.Errorf("match pipeline (-want +got):\n%s", diff)
	}

	// Rows matching nothing.
	rows, err = coll.Aggregate(ctx, docstore.NewPipeline().
		Match(docstore.Filter{"region": "Atlantis"}).
		GroupBy("region")).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("empty match grouped: %v, want no rows", rows)
	}

	// An invalid pipeline fails with a code, not silently.
	_, err = coll.Aggregate(ctx, docstore.NewPipeline().
		Match(docstore.Filter{"fee": map[string]interface{}{"$gt": 1}})).All(ctx)
	if dserrors.Code(err) != dserrors.UnsupportedQuery {
		t.Errorf("unsupported match: got %v, want UnsupportedQuery", err)
	}
	_, err = coll.Aggregate(ctx, docstore.NewPipeline()).All(ctx)
	if dserrors.Code(err) != dserrors.InvalidArgument {
		t.Errorf("empty pipeline: got %v, want InvalidArgument", err)
	}
}

func testTextSearch(t *testing.T, ctx context.Context, coll *docstore.Collection) {
	seed(t, ctx, coll)
	if _, err := coll.InsertOne(ctx, docstore.Document{
		"slug": "schengen-guide", "name": "Schengen overview", "region": "Europe",
		"summary": "How the Schengen rules work.",
	}); err != nil {
		t.Fatal(err)
	}

	docs, err := coll.TextSearch(ctx, "schengen", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d results, want 3", len(docs))
	}
	// A name match outranks summary-only matches.
	if docs[0]["id"] != "schengen-guide" {
		t.Errorf("first result = %v, want schengen-guide", docs[0]["id"])
	}

	docs, err = coll.TextSearch(ctx, "SCHENGEN", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("limited search: got %d results, want 2", len(docs))
	}

	docs, err = coll.TextSearch(ctx, "atlantis", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("no-match search: got %v, want none", docs)
	}

	if _, err := coll.TextSearch(ctx, "", 0); dserrors.Code(err) != dserrors.InvalidArgument {
		t.Errorf("empty term: got %v, want InvalidArgument", err)
	}
}

// rowCount returns a group row's count. Every backend must report counts as
// int64, so any other type fails the test.
func rowCount(t *testing.T, row docstore.Document) int64 {
	t.Helper()
	n, ok := row["count"].(int64)
	if !ok {
		t.Fatalf("row %v: count is %T, want int64", row, row["count"])
	}
	return n
}

func sortStrings(s []string) { sort.Strings(s) }

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
