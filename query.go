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
	"io"
	"sort"

	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/internal/dserr"
)

// Sort directions.
const (
	Ascending  = "asc"
	Descending = "desc"
)

// A Cursor is a deferred query over a collection: nothing runs until the
// first call to Next or All, so Skip, Limit and Sort may be chained first.
// The results observe a consistent snapshot of the collection taken when the
// query runs; writes made afterward do not appear.
//
// Always call Stop when finished with a Cursor. A Cursor is not safe for
// concurrent use.
type Cursor struct {
	coll     *Collection
	query    driver.Query
	pipeline *Pipeline // non-nil for aggregation cursors
	sorted   bool      // an explicit Sort was applied

	err     error
	started bool
	it      driver.DocumentIterator
	rows    []Document // materialized aggregation rows
	pos     int
	ctx     context.Context // for tracing only
}

// Skip arranges for the first n results to be dropped. A skip past the end
// of the results yields none. Skip returns the Cursor to allow chaining.
func (cur *Cursor) Skip(n int) *Cursor {
	if cur.checkModify("Skip") {
		if n < 0 {
			cur.err = dserr.Newf(dserr.InvalidArgument, nil, "negative skip: %d", n)
		} else {
			cur.query.Offset = n
		}
	}
	return cur
}

// Limit caps the number of results at n. A limit <= 0 means no limit.
// Limit returns the Cursor to allow chaining.
func (cur *Cursor) Limit(n int) *Cursor {
	if cur.checkModify("Limit") {
		cur.query.Limit = n
	}
	return cur
}

// Sort orders the results by field in the given direction (Ascending or
// Descending). The sort is stable, and a document missing the field sorts as
// the field type's zero value. Sorting happens before Skip and Limit apply.
// Sort returns the Cursor to allow chaining.
func (cur *Cursor) Sort(field, direction string) *Cursor {
	if cur.checkModify("Sort") {
		switch {
		case field == "":
			cur.err = dserr.Newf(dserr.InvalidArgument, nil, "empty sort field")
		case direction != Ascending && direction != Descending:
			cur.err = dserr.Newf(dserr.InvalidArgument, nil, "invalid sort direction %q", direction)
		default:
			cur.query.OrderByField = field
			cur.query.OrderAscending = direction == Ascending
			cur.sorted = true
		}
	}
	return cur
}

func (cur *Cursor) checkModify(method string) bool {
	if cur.err != nil {
		return false
	}
	if cur.started {
		cur.err = dserr.Newf(dserr.InvalidArgument, nil, "%s called after the query has run", method)
		return false
	}
	return true
}

// Next returns the next result, or io.EOF when there are none left. Once
// Next returns an error, it returns the same error forever.
func (cur *Cursor) Next(ctx context.Context) (Document, error) {
	if !cur.started {
		cur.start(ctx)
	}
	if cur.err != nil {
		return nil, cur.err
	}
	if cur.pipeline != nil {
		return cur.nextRow()
	}
	doc, err := cur.it.Next(ctx)
	if err != nil {
		cur.fail(err)
		return nil, cur.err
	}
	return driver.Normalize(doc), nil
}

// All runs the query and returns all its results. The Cursor is exhausted
// afterward; Stop need not be called.
func (cur *Cursor) All(ctx context.Context) ([]Document, error) {
	defer cur.Stop()
	var docs []Document
	for {
		doc, err := cur.Next(ctx)
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}

// Stop terminates the cursor and releases its resources. It is safe to call
// Stop more than once, and before any call to Next.
func (cur *Cursor) Stop() {
	if cur.it != nil {
		cur.it.Stop()
		cur.it = nil
	}
	cur.rows = nil
	if cur.started && cur.ctx != nil {
		cur.coll.store.tracer.End(cur.ctx, nil)
		cur.ctx = nil
	}
	if cur.err == nil {
		cur.err = io.EOF
	}
}

// start runs the deferred query, at the first Next.
func (cur *Cursor) start(ctx context.Context) {
	cur.started = true
	if cur.err != nil {
		return
	}
	s := cur.coll.store
	if cur.pipeline != nil {
		cur.ctx = s.tracer.Start(ctx, "Collection.Aggregate")
		cur.startPipeline(ctx)
		return
	}
	cur.ctx = s.tracer.Start(ctx, "Collection.Find")
	if err := s.prepare(cur.query.Filter); err != nil {
		cur.fail(err)
		return
	}
	it, err := s.call(ctx, func() (driver.DocumentIterator, error) {
		return s.driver.RunQuery(ctx, cur.coll.name, &cur.query)
	})
	if err != nil {
		cur.fail(err)
		return
	}
	cur.it = it
}

// startPipeline runs the aggregation and materializes its rows so that
// cursor-level Sort, Skip and Limit behave identically on both backends.
func (cur *Cursor) startPipeline(ctx context.Context) {
	s := cur.coll.store
	if err := s.active(); err != nil {
		cur.fail(err)
		return
	}
	stages, err := cur.pipeline.stages()
	if err != nil {
		cur.fail(err)
		return
	}
	it, err := s.call(ctx, func() (driver.DocumentIterator, error) {
		return s.driver.Aggregate(ctx, cur.coll.name, stages)
	})
	if err != nil {
		cur.fail(err)
		return
	}
	defer it.Stop()
	var rows []Document
	for {
		row, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			cur.fail(err)
			return
		}
		if !cur.pipeline.grouped {
			driver.Normalize(row)
		}
		rows = append(rows, row)
	}
	if cur.sorted {
		field, asc := cur.query.OrderByField, cur.query.OrderAscending
		sort.SliceStable(rows, func(i, j int) bool {
			c, ok := driver.Compare(rows[i][field], rows[j][field])
			if !ok {
				return false
			}
			if asc {
				return c < 0
			}
			return c > 0
		})
	}
	if cur.query.Offset > 0 {
		if cur.query.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[cur.query.Offset:]
		}
	}
	if cur.query.Limit > 0 && len(rows) > cur.query.Limit {
		rows = rows[:cur.query.Limit]
	}
	cur.rows = rows
}

func (cur *Cursor) nextRow() (Document, error) {
	if cur.pos >= len(cur.rows) {
		cur.fail(io.EOF)
		return nil, cur.err
	}
	row := cur.rows[cur.pos]
	cur.pos++
	return row, nil
}

// fail records a terminal error on the cursor and closes its trace span.
func (cur *Cursor) fail(err error) {
	if err != io.EOF {
		err = cur.coll.store.wrap(err)
	}
	cur.err = err
	if cur.ctx != nil {
		var spanErr error
		if err != io.EOF {
			spanErr = err
		}
		cur.coll.store.tracer.End(cur.ctx, spanErr)
		cur.ctx = nil
	}
}
