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

package docstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/dserrors"
)

// fakeBackend implements driver.Backend with canned results, recording the
// arguments of the last call so tests can check what the portable layer
// passed down.
type fakeBackend struct {
	docs    []driver.Document // results for RunQuery, Aggregate and TextSearch
	err     error             // forced error for every call
	errCode dserrors.ErrorCode

	lastQuery  *driver.Query
	lastSet    driver.Document
	lastStages []driver.Stage
	calls      int
}

func (b *fakeBackend) RunQuery(ctx context.Context, coll string, q *driver.Query) (driver.DocumentIterator, error) {
	b.calls++
	b.lastQuery = q
	if b.err != nil {
		return nil, b.err
	}
	return &sliceIterator{docs: b.docs}, nil
}

func (b *fakeBackend) Insert(ctx context.Context, coll string, doc driver.Document) (driver.InsertResult, error) {
	b.calls++
	if b.err != nil {
		return driver.InsertResult{}, b.err
	}
	id, _ := doc[driver.IDField].(string)
	return driver.InsertResult{ID: id}, nil
}

func (b *fakeBackend) UpdateOne(ctx context.Context, coll string, filter driver.Filter, set driver.Document) (driver.UpdateResult, error) {
	b.calls++
	b.lastSet = set
	if b.err != nil {
		return driver.UpdateResult{}, b.err
	}
	return driver.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (b *fakeBackend) FindOneAndUpdate(ctx context.Context, coll string, filter driver.Filter, set driver.Document) (driver.Document, error) {
	b.calls++
	b.lastSet = set
	if b.err != nil {
		return nil, b.err
	}
	if len(b.docs) == 0 {
		return nil, nil
	}
	return b.docs[0], nil
}

func (b *fakeBackend) DeleteOne(ctx context.Context, coll string, filter driver.Filter) (driver.DeleteResult, error) {
	b.calls++
	if b.err != nil {
		return driver.DeleteResult{}, b.err
	}
	return driver.DeleteResult{DeletedCount: 1}, nil
}

func (b *fakeBackend) DeleteMany(ctx context.Context, coll string, filter driver.Filter) (driver.DeleteResult, error) {
	b.calls++
	if b.err != nil {
		return driver.DeleteResult{}, b.err
	}
	return driver.DeleteResult{DeletedCount: int64(len(b.docs))}, nil
}

func (b *fakeBackend) Count(ctx context.Context, coll string, filter driver.Filter) (int64, error) {
	b.calls++
	if b.err != nil {
		return 0, b.err
	}
	return int64(len(b.docs)), nil
}

func (b *fakeBackend) Distinct(ctx context.Context, coll, field string, filter driver.Filter) ([]interface{}, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return nil, nil
}

func (b *fakeBackend) Aggregate(ctx context.Context, coll string, stages []driver.Stage) (driver.DocumentIterator, error) {
	b.calls++
	b.lastStages = stages
	if b.err != nil {
		return nil, b.err
	}
	return &sliceIterator{docs: b.docs}, nil
}

func (b *fakeBackend) TextSearch(ctx context.Context, coll, term string, limit int) ([]driver.Document, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.docs, nil
}

func (b *fakeBackend) ErrorCode(error) dserrors.ErrorCode {
	if b.errCode != dserrors.OK {
		return b.errCode
	}
	return dserrors.Internal
}

func (b *fakeBackend) Close() error { return b.err }

type sliceIterator struct {
	docs []driver.Document
	pos  int
}

func (it *sliceIterator) Next(ctx context.Context) (driver.Document, error) {
	if it.pos >= len(it.docs) {
		return nil, io.EOF
	}
	doc := it.docs[it.pos]
	it.pos++
	return doc, nil
}

func (it *sliceIterator) Stop() {}

func newFakeStore(b *fakeBackend) *Store {
	return NewStore(b, nil)
}

func TestUpdateSetUnwrapping(t *testing.T) {
	ctx := context.Background()
	for _, test := range []struct {
		name     string
		set      Document
		want     Document // what reaches the backend; nil if an error is wanted
		wantCode dserrors.ErrorCode
	}{
		{
			name: "plain",
			set:  Document{"name": "Peru"},
			want: Document{"name": "Peru"},
		},
		{
			name: "dollar set wrapper",
			set:  Document{"$set": map[string]interface{}{"name": "Peru"}},
			want: Document{"name": "Peru"},
		},
		{
			name:     "empty",
			set:      Document{},
			wantCode: dserrors.InvalidArgument,
		},
		{
			name:     "dollar set non-document",
			set:      Document{"$set": "Peru"},
			wantCode: dserrors.InvalidArgument,
		},
		{
			name:     "unsupported operator",
			set:      Document{"$push": map[string]interface{}{"keywords": "visa"}},
			wantCode: dserrors.UnsupportedQuery,
		},
		{
			name:     "identifier",
			set:      Document{"id": "other"},
			wantCode: dserrors.InvalidArgument,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			b := &fakeBackend{}
			store := newFakeStore(b)
			defer store.Close()
			_, err := store.Collection("countries").UpdateOne(ctx, Filter{"id": "peru"}, test.set)
			if test.want != nil {
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(test.want, b.lastSet); diff != "" {
					t.Errorf("set mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if got := dserrors.Code(err); got != test.wantCode {
				t.Errorf("got code %v, want %v (err: %v)", got, test.wantCode, err)
			}
			if b.calls != 0 {
				t.Errorf("backend called %d times, want 0", b.calls)
			}
		})
	}
}

func TestInvalidFilterRejectedBeforeBackend(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{}
	store := newFakeStore(b)
	defer store.Close()
	coll := store.Collection("countries")
	filter := Filter{"$where": "this.fee > 50"}

	if _, err := coll.FindOne(ctx, filter); dserrors.Code(err) != dserrors.UnsupportedQuery {
		t.Errorf("FindOne: got %v, want UnsupportedQuery", err)
	}
	if _, err := coll.CountDocuments(ctx, filter); dserrors.Code(err) != dserrors.UnsupportedQuery {
		t.Errorf("CountDocuments: got %v, want UnsupportedQuery", err)
	}
	if _, err := coll.DeleteMany(ctx, filter); dserrors.Code(err) != dserrors.UnsupportedQuery {
		t.Errorf("DeleteMany: got %v, want UnsupportedQuery", err)
	}
	if b.calls != 0 {
		t.Errorf("backend called %d times, want 0", b.calls)
	}
}

func TestFindOneNotFound(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(&fakeBackend{})
	defer store.Close()
	_, err := store.Collection("countries").FindOne(ctx, Filter{"id": "nowhere"})
	if got := dserrors.Code(err); got != dserrors.NotFound {
		t.Errorf("got code %v, want NotFound (err: %v)", got, err)
	}
}

func TestFindOneNormalizes(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(&fakeBackend{docs: []driver.Document{
		{"_id": "5f3c", "slug": "peru", "name": "Peru"},
	}})
	defer store.Close()
	got, err := store.Collection("countries").FindOne(ctx, Filter{"slug": "peru"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got["_id"]; ok {
		t.Error(`got "_id" field, want it stripped`)
	}
	if got["id"] != "peru" {
		t.Errorf(`got id %v, want "peru"`, got["id"])
	}
	for _, f := range driver.ListFields {
		if _, ok := got[f]; !ok {
			t.Errorf("missing list field %q", f)
		}
	}
}

func TestInsertAssignsID(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(&fakeBackend{})
	defer store.Close()
	coll := store.Collection("countries")

	doc := Document{"slug": "peru", "name": "Peru"}
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "peru" {
		t.Errorf(`got ID %q, want "peru"`, res.ID)
	}
	if doc["id"] != "peru" {
		t.Errorf(`doc not updated: id = %v`, doc["id"])
	}

	res, err = coll.InsertOne(ctx, Document{"name": "Unknown"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID == "" {
		t.Error("got empty ID, want a generated one")
	}

	if _, err := coll.InsertOne(ctx, nil); dserrors.Code(err) != dserrors.InvalidArgument {
		t.Errorf("nil document: got %v, want InvalidArgument", err)
	}
}

func TestArgumentChecks(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(&fakeBackend{})
	defer store.Close()
	coll := store.Collection("countries")

	if _, err := coll.Distinct(ctx, "", nil); dserrors.Code(err) != dserrors.InvalidArgument {
		t.Errorf("Distinct with empty field: got %v, want InvalidArgument", err)
	}
	if _, err := coll.TextSearch(ctx, "", 10); dserrors.Code(err) != dserrors.InvalidArgument {
		t.Errorf("TextSearch with empty term: got %v, want InvalidArgument", err)
	}
}

func TestBackendErrorsAreCoded(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{err: errors.New("connection reset"), errCode: dserrors.BackendUnavailable}
	store := newFakeStore(b)
	defer store.Close()
	coll := store.Collection("countries")

	if _, err := coll.CountDocuments(ctx, nil); dserrors.Code(err) != dserrors.BackendUnavailable {
		t.Errorf("CountDocuments: got %v, want BackendUnavailable", err)
	}
	if _, err := coll.FindOne(ctx, nil); dserrors.Code(err) != dserrors.BackendUnavailable {
		t.Errorf("FindOne: got %v, want BackendUnavailable", err)
	}
	if _, err := coll.InsertOne(ctx, Document{"slug": "x"}); dserrors.Code(err) != dserrors.BackendUnavailable {
		t.Errorf("InsertOne: got %v, want BackendUnavailable", err)
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(&fakeBackend{})
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	// A second Close reports the store closed.
	if got := dserrors.Code(store.Close()); got != dserrors.NotConnected {
		t.Errorf("second Close: got code %v, want NotConnected", got)
	}

	coll := store.Collection("countries")
	if _, err := coll.FindOne(ctx, nil); dserrors.Code(err) != dserrors.NotConnected {
		t.Errorf("FindOne: got %v, want NotConnected", err)
	}
	if _, err := coll.InsertOne(ctx, Document{"slug": "x"}); dserrors.Code(err) != dserrors.NotConnected {
		t.Errorf("InsertOne: got %v, want NotConnected", err)
	}
	if _, err := coll.Find(ctx, nil).All(ctx); dserrors.Code(err) != dserrors.NotConnected {
		t.Errorf("Find: got %v, want NotConnected", err)
	}
	if _, err := coll.TextSearch(ctx, "peru", 0); dserrors.Code(err) != dserrors.NotConnected {
		t.Errorf("TextSearch: got %v, want NotConnected", err)
	}
}

func TestZeroStore(t *testing.T) {
	// A Store that was never opened fails like a closed one rather than
	// panicking on its nil driver.
	ctx := context.Background()
	var store Store
	coll := store.Collection("countries")
	if _, err := coll.FindOne(ctx, nil); dserrors.Code(err) != dserrors.NotConnected {
		t.Errorf("FindOne: got %v, want NotConnected", err)
	}
	if _, err := coll.InsertOne(ctx, Document{"slug": "x"}); dserrors.Code(err) != dserrors.NotConnected {
		t.Errorf("InsertOne: got %v, want NotConnected", err)
	}
	if _, err := coll.Find(ctx, nil).All(ctx); dserrors.Code(err) != dserrors.NotConnected {
		t.Errorf("Find: got %v, want NotConnected", err)
	}
	if _, err := coll.Aggregate(ctx, NewPipeline().GroupAll()).All(ctx); dserrors.Code(err) != dserrors.NotConnected {
		t.Errorf("Aggregate: got %v, want NotConnected", err)
	}
	if got := dserrors.Code(store.Close()); got != dserrors.NotConnected {
		t.Errorf("Close: got code %v, want NotConnected", got)
	}
}
