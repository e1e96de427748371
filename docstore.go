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
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"
	"sync"

	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/dserrors"
	"github.com/visatlas/docstore/internal/dserr"
	"github.com/visatlas/docstore/internal/oc"
)

// A Document is a set of field-value pairs. Values are scalars, nested maps,
// or slices of either. Every document read from a Store carries exactly one
// identifier field, "id"; backend-native identifiers are never exposed.
type Document = map[string]interface{}

// A Filter selects documents by field equality. Each entry names a field that
// must be present with an equal value; entries are AND-ed together. The one
// operator entry supported is "$text", whose string value is matched
// case-insensitively as a substring of the document's name and summary fields.
// A nil or empty Filter selects all documents.
type Filter = map[string]interface{}

// A Store provides access to a set of named document collections, backed by a
// document database or by flat files. The two backends are indistinguishable
// through this type.
// To create a Store, use constructors found in backend subpackages.
type Store struct {
	driver   driver.Backend
	tracer   *oc.Tracer
	throttle *driver.Throttle
	mu       sync.Mutex
	closed   bool
}

const pkgName = "github.com/visatlas/docstore"

var (
	latencyMeasure = oc.LatencyMeasure(pkgName)

	// OpenCensusViews are predefined views for OpenCensus metrics.
	// The views include counts and latency distributions for API method calls.
	// See the example at https://godoc.org/go.opencensus.io/stats/view for usage.
	OpenCensusViews = oc.Views(pkgName, latencyMeasure)
)

// Options sets behavior of a Store that is independent of the backend.
type Options struct {
	// MaxOutstanding is the maximum number of backend calls in flight at once.
	// Values <= 0 mean no limit.
	MaxOutstanding int
}

// NewStore is intended for use by backend implementations only. Do not use in
// application code.
var NewStore = newStore

// newStore makes a Store.
func newStore(d driver.Backend, opts *Options) *Store {
	if opts == nil {
		opts = &Options{}
	}
	s := &Store{
		driver: d,
		tracer: &oc.Tracer{
			Package:        pkgName,
			Provider:       oc.ProviderName(d),
			LatencyMeasure: latencyMeasure,
		},
		throttle: driver.NewThrottle(opts.MaxOutstanding),
	}
	_, file, lineno, ok := runtime.Caller(1)
	runtime.SetFinalizer(s, func(s *Store) {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			var caller string
			if ok {
				caller = fmt.Sprintf(" (%s:%d)", file, lineno)
			}
			log.Printf("A docstore.Store was never closed%s", caller)
		}
	})
	return s
}

// Collection returns a handle for the named collection. The collection need
// not exist yet; writes create it.
func (s *Store) Collection(name string) *Collection {
	return &Collection{store: s, name: name}
}

// A Collection is a handle for one named set of documents within a Store.
// It is cheap to create and safe for concurrent use.
type Collection struct {
	store *Store
	name  string
}

// Name returns the collection's name.
func (c *Collection) Name() string { return c.name }

// FindOne returns the first document matching filter, or an error with code
// NotFound if no document matches.
func (c *Collection) FindOne(ctx context.Context, filter Filter) (doc Document, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.FindOne")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.prepare(filter); err != nil {
		return nil, err
	}
	it, err := c.store.call(ctx, func() (driver.DocumentIterator, error) {
		return c.store.driver.RunQuery(ctx, c.name, &driver.Query{Filter: filter, Limit: 1})
	})
	if err != nil {
		return nil, c.store.wrap(err)
	}
	defer it.Stop()
	doc, err = it.Next(ctx)
	if err != nil {
		if err == io.EOF {
			return nil, dserr.Newf(dserr.NotFound, nil, "no document matches %v in %q", filter, c.name)
		}
		return nil, c.store.wrap(err)
	}
	return driver.Normalize(doc), nil
}

// Find returns a Cursor over the documents matching filter. The query does
// not run until the cursor is iterated, so Skip, Limit and Sort may be
// applied first.
func (c *Collection) Find(ctx context.Context, filter Filter) *Cursor {
	return &Cursor{coll: c, query: driver.Query{Filter: filter}}
}

// InsertOne stores doc in the collection and returns the result, which
// carries the document's identifier. If doc has no identifier, one is
// assigned: the document's slug when present, otherwise a generated unique
// string. doc is modified to carry the assigned identifier.
func (c *Collection) InsertOne(ctx context.Context, doc Document) (res InsertResult, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.InsertOne")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.active(); err != nil {
		return InsertResult{}, err
	}
	if doc == nil {
		return InsertResult{}, dserr.Newf(dserr.InvalidArgument, nil, "nil document")
	}
	driver.EnsureID(doc)
	res, err = c.store.callInsert(ctx, c.name, doc)
	if err != nil {
		return InsertResult{}, c.store.wrap(err)
	}
	return res, nil
}

// UpdateOne merges the fields of set into the first document matching filter
// and reports how many documents matched and were modified. Each field in set
// replaces the stored value wholesale; in particular a list-valued field is
// replaced, not extended. If no document matches, UpdateOne returns a zero
// UpdateResult and no error.
//
// For compatibility with document-database callers, set may be wrapped as
// {"$set": {...}}. Any other "$" operator is rejected with an
// UnsupportedQuery error.
func (c *Collection) UpdateOne(ctx context.Context, filter Filter, set Document) (res UpdateResult, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.UpdateOne")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.prepare(filter); err != nil {
		return UpdateResult{}, err
	}
	set, err = unwrapSet(set)
	if err != nil {
		return UpdateResult{}, err
	}
	res, err = c.store.callUpdate(ctx, c.name, filter, set)
	if err != nil {
		return UpdateResult{}, c.store.wrap(err)
	}
	return res, nil
}

// FindOneAndUpdate is UpdateOne returning the updated document. It returns an
// error with code NotFound if no document matches.
func (c *Collection) FindOneAndUpdate(ctx context.Context, filter Filter, set Document) (doc Document, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.FindOneAndUpdate")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.prepare(filter); err != nil {
		return nil, err
	}
	set, err = unwrapSet(set)
	if err != nil {
		return nil, err
	}
	c.store.throttle.Acquire()
	doc, err = c.store.driver.FindOneAndUpdate(ctx, c.name, filter, set)
	c.store.throttle.Release()
	if err != nil {
		return nil, c.store.wrap(err)
	}
	if doc == nil {
		return nil, dserr.Newf(dserr.NotFound, nil, "no document matches %v in %q", filter, c.name)
	}
	return driver.Normalize(doc), nil
}

// DeleteOne removes the first document matching filter. Deleting with a
// filter nothing matches is not an error; the result reports zero deletions.
func (c *Collection) DeleteOne(ctx context.Context, filter Filter) (res DeleteResult, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.DeleteOne")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.prepare(filter); err != nil {
		return DeleteResult{}, err
	}
	c.store.throttle.Acquire()
	res, err = c.store.driver.DeleteOne(ctx, c.name, filter)
	c.store.throttle.Release()
	if err != nil {
		return DeleteResult{}, c.store.wrap(err)
	}
	return res, nil
}

// DeleteMany removes every document matching filter. An empty filter empties
// the collection.
func (c *Collection) DeleteMany(ctx context.Context, filter Filter) (res DeleteResult, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.DeleteMany")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.prepare(filter); err != nil {
		return DeleteResult{}, err
	}
	c.store.throttle.Acquire()
	res, err = c.store.driver.DeleteMany(ctx, c.name, filter)
	c.store.throttle.Release()
	if err != nil {
		return DeleteResult{}, c.store.wrap(err)
	}
	return res, nil
}

// CountDocuments returns the number of documents matching filter. A nil
// filter counts the whole collection; a collection that does not exist
// counts as empty.
func (c *Collection) CountDocuments(ctx context.Context, filter Filter) (n int64, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.CountDocuments")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.prepare(filter); err != nil {
		return 0, err
	}
	c.store.throttle.Acquire()
	n, err = c.store.driver.Count(ctx, c.name, filter)
	c.store.throttle.Release()
	if err != nil {
		return 0, c.store.wrap(err)
	}
	return n, nil
}

// Distinct returns the distinct non-nil values of field across the documents
// matching filter. Order is unspecified.
func (c *Collection) Distinct(ctx context.Context, field string, filter Filter) (vals []interface{}, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.Distinct")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.prepare(filter); err != nil {
		return nil, err
	}
	if field == "" {
		return nil, dserr.Newf(dserr.InvalidArgument, nil, "empty field name")
	}
	c.store.throttle.Acquire()
	vals, err = c.store.driver.Distinct(ctx, c.name, field, filter)
	c.store.throttle.Release()
	if err != nil {
		return nil, c.store.wrap(err)
	}
	return vals, nil
}

// Aggregate runs p over a snapshot of the collection and returns a Cursor
// over the result rows. A row produced by a grouping stage has the shape
// {"id": groupValue, "count": n}; rows that are documents are normalized like
// any other read.
func (c *Collection) Aggregate(ctx context.Context, p *Pipeline) *Cursor {
	cur := &Cursor{coll: c, pipeline: p}
	if p == nil {
		cur.err = dserr.Newf(dserr.InvalidArgument, nil, "nil pipeline")
	}
	return cur
}

// TextSearch returns up to limit documents whose name or summary contains
// term, case-insensitively, best matches first. A limit <= 0 means no limit.
func (c *Collection) TextSearch(ctx context.Context, term string, limit int) (docs []Document, err error) {
	ctx = c.store.tracer.Start(ctx, "Collection.TextSearch")
	defer func() { c.store.tracer.End(ctx, err) }()

	if err := c.store.active(); err != nil {
		return nil, err
	}
	if term == "" {
		return nil, dserr.Newf(dserr.InvalidArgument, nil, "empty search term")
	}
	c.store.throttle.Acquire()
	docs, err = c.store.driver.TextSearch(ctx, c.name, term, limit)
	c.store.throttle.Release()
	if err != nil {
		return nil, c.store.wrap(err)
	}
	for _, d := range docs {
		driver.Normalize(d)
	}
	return docs, nil
}

// An InsertResult reports the outcome of an InsertOne.
type InsertResult = driver.InsertResult

// An UpdateResult reports the outcome of an UpdateOne.
type UpdateResult = driver.UpdateResult

// A DeleteResult reports the outcome of a DeleteOne or DeleteMany.
type DeleteResult = driver.DeleteResult

// unwrapSet accepts a plain set document or one wrapped as {"$set": {...}},
// and rejects every other "$" operator.
func unwrapSet(set Document) (Document, error) {
	if len(set) == 0 {
		return nil, dserr.Newf(dserr.InvalidArgument, nil, "no fields to update")
	}
	if inner, ok := set["$set"]; ok && len(set) == 1 {
		m, ok := inner.(map[string]interface{})
		if !ok || len(m) == 0 {
			return nil, dserr.Newf(dserr.InvalidArgument, nil, `"$set" value must be a non-empty document`)
		}
		set = m
	}
	for k := range set {
		if strings.HasPrefix(k, "$") {
			return nil, dserr.Newf(dserr.UnsupportedQuery, nil, "unsupported update operator %q", k)
		}
	}
	// The identifier is assigned at insert and immutable afterward.
	if _, ok := set[driver.IDField]; ok {
		return nil, dserr.Newf(dserr.InvalidArgument, nil, "cannot update the %q field", driver.IDField)
	}
	return set, nil
}

// prepare is the common front half of a filtered operation: it checks that
// the store is open and that filter stays inside the supported grammar.
func (s *Store) prepare(filter Filter) error {
	if err := s.active(); err != nil {
		return err
	}
	return driver.ValidateFilter(filter)
}

// call runs f under the store's concurrency limit.
func (s *Store) call(ctx context.Context, f func() (driver.DocumentIterator, error)) (driver.DocumentIterator, error) {
	s.throttle.Acquire()
	defer s.throttle.Release()
	return f()
}

func (s *Store) callInsert(ctx context.Context, coll string, doc Document) (InsertResult, error) {
	s.throttle.Acquire()
	defer s.throttle.Release()
	return s.driver.Insert(ctx, coll, doc)
}

func (s *Store) callUpdate(ctx context.Context, coll string, filter Filter, set Document) (UpdateResult, error) {
	s.throttle.Acquire()
	defer s.throttle.Release()
	return s.driver.UpdateOne(ctx, coll, filter, set)
}

var errClosed = dserr.Newf(dserr.NotConnected, nil, "docstore: Store is closed or was never opened")

// Close releases any resources used for the store.
func (s *Store) Close() error {
	s.mu.Lock()
	prev := s.closed
	s.closed = true
	s.mu.Unlock()
	if prev || s.driver == nil {
		return errClosed
	}
	return s.wrap(s.driver.Close())
}

// active reports whether the store can serve calls. A zero Store has a nil
// driver and is treated like a closed one.
func (s *Store) active() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.driver == nil {
		return errClosed
	}
	return nil
}

func (s *Store) wrap(err error) error {
	return wrapError(s.driver, err)
}

func wrapError(b driver.Backend, err error) error {
	if err == nil {
		return nil
	}
	if dserr.DoNotWrap(err) {
		return err
	}
	if _, ok := err.(*dserr.Error); ok {
		return err
	}
	return dserr.New(b.ErrorCode(err), err, 2, "docstore")
}

// ErrorCode reports the code of err. It is a convenience for
// dserrors.Code(err).
func ErrorCode(err error) dserrors.ErrorCode {
	return dserrors.Code(err)
}
