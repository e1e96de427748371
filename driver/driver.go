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

// Package driver defines the interface to be implemented by docstore backends,
// which is used by the docstore package to interact with the underlying stores.
// Application code should use package docstore.
package driver // import "github.com/visatlas/docstore/driver"

import (
	"context"

	"github.com/visatlas/docstore/dserrors"
)

// A Document is a single stored record: a set of field-value pairs. Values are
// scalars, nested maps, or slices of either. After normalization every document
// carries exactly one external identifier field.
type Document = map[string]interface{}

// A Filter is an equality-based predicate over documents. Each key names a
// field that must be present with an equal value; keys are implicitly AND-ed.
// The one reserved operator key is TextOperator, whose value is a search term
// matched case-insensitively against the document's searchable fields.
//
// The grammar is deliberately closed: no logical-OR, no ranges, no "in", no
// existence checks. Backends that cannot evaluate a filter must fail with an
// UnsupportedQuery error rather than ignore the part they don't understand.
type Filter = map[string]interface{}

// A Backend is a set of named document collections. It is implemented by each
// storage mode and consumed by the docstore package; the two implementations
// must be behaviorally indistinguishable through this interface.
type Backend interface {
	// RunQuery executes q against the named collection and returns an iterator
	// over the matching documents, ordered per q. The iterator must observe a
	// consistent snapshot taken when RunQuery (or, for lazy backends, the first
	// Next) runs; iterating must never mutate the collection.
	RunQuery(ctx context.Context, collection string, q *Query) (DocumentIterator, error)

	// Insert adds doc to the collection, creating the collection if needed.
	// The document's identifier has already been assigned by the caller;
	// Insert must store it verbatim.
	Insert(ctx context.Context, collection string, doc Document) (InsertResult, error)

	// UpdateOne applies a shallow field-level merge of set into the first
	// document matching filter. Each field in set replaces the stored value
	// wholesale, so sequence-valued fields are replaced, not appended to.
	UpdateOne(ctx context.Context, collection string, filter Filter, set Document) (UpdateResult, error)

	// FindOneAndUpdate is UpdateOne returning the updated document,
	// or nil if nothing matched.
	FindOneAndUpdate(ctx context.Context, collection string, filter Filter, set Document) (Document, error)

	// DeleteOne removes the first document matching filter.
	DeleteOne(ctx context.Context, collection string, filter Filter) (DeleteResult, error)

	// DeleteMany removes every document matching filter. An empty filter
	// removes everything in the collection.
	DeleteMany(ctx context.Context, collection string, filter Filter) (DeleteResult, error)

	// Count returns the number of documents matching filter.
	// A nil filter counts all documents.
	Count(ctx context.Context, collection string, filter Filter) (int64, error)

	// Distinct returns the set of non-nil values of field across the documents
	// matching filter. Order is unspecified.
	Distinct(ctx context.Context, collection, field string, filter Filter) ([]interface{}, error)

	// Aggregate runs the pipeline stages in order over a single snapshot of
	// the collection, each stage consuming the previous stage's output.
	Aggregate(ctx context.Context, collection string, stages []Stage) (DocumentIterator, error)

	// TextSearch returns up to limit documents whose searchable fields contain
	// term (case-insensitive), best matches first.
	TextSearch(ctx context.Context, collection, term string, limit int) ([]Document, error)

	// ErrorCode should return a code that describes the error, which was
	// returned by one of the other methods in this interface.
	ErrorCode(error) dserrors.ErrorCode

	// Close cleans up any resources used by the Backend.
	Close() error
}

// A Query describes a deferred read: filter, then sort, then skip, then limit,
// always in that order.
type Query struct {
	// Filter selects the documents. A nil or empty filter selects all.
	Filter Filter

	// Offset is the number of leading results to drop. An offset beyond the
	// result length yields an empty sequence.
	Offset int

	// Limit caps the number of results returned. When Limit <= 0 the backend
	// returns all remaining results.
	Limit int

	// OrderByField is the field to sort the results by. Empty means natural
	// (insertion) order. The sort is stable; a document missing the field
	// sorts as the field type's zero value.
	OrderByField string

	// OrderAscending specifies the sort direction.
	OrderAscending bool
}

// A StageKind discriminates the pipeline stage variants.
type StageKind int

// Values for StageKind.
const (
	MatchKind StageKind = iota
	GroupKind
	SortKind
)

//go:generate stringer -type=StageKind

// A Stage is one step of an aggregation pipeline. The set of kinds is closed;
// backends must reject a kind they do not recognize with an UnsupportedQuery
// error instead of passing rows through silently.
type Stage struct {
	Kind StageKind

	// Match retains only the rows satisfying the filter. Valid for MatchKind.
	Match Filter

	// GroupKey names the field to group rows by; each distinct value produces
	// one output row {id: value, count: n}. The empty string groups all rows
	// into a single {id: nil, count: n} row. The count accumulator is the only
	// one supported. Valid for GroupKind.
	GroupKey string

	// SortField and SortAscending order the rows; a row missing the field
	// sorts as 0. Valid for SortKind.
	SortField     string
	SortAscending bool
}

// An InsertResult reports the outcome of an insert.
type InsertResult struct {
	// ID is the external identifier of the stored document.
	ID string
}

// An UpdateResult reports the outcome of an update.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// A DeleteResult reports the outcome of a delete.
type DeleteResult struct {
	DeletedCount int64
}

// A DocumentIterator iterates through the results of a query or pipeline.
type DocumentIterator interface {
	// Next returns the next document. When there are no more results, it
	// returns io.EOF. Once Next returns a non-nil error, it will never be
	// called again.
	Next(context.Context) (Document, error)

	// Stop terminates the iterator before Next returns io.EOF, allowing any
	// cleanup needed.
	Stop()
}
