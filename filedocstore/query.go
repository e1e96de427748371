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
	"fmt"
	"io"
	"sort"

	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/internal/dserr"
)

func (b *backend) RunQuery(ctx context.Context, collection string, q *driver.Query) (driver.DocumentIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	// The fresh read is the query's snapshot; later writes rewrite the file
	// and cannot touch these documents.
	docs, err := b.readCollection(collection)
	if err != nil {
		return nil, err
	}
	var results []driver.Document
	for _, doc := range docs {
		if driver.Matches(q.Filter, doc) {
			results = append(results, doc)
		}
	}
	if q.OrderByField != "" {
		sortDocs(results, q.OrderByField, q.OrderAscending)
	}
	if q.Offset > 0 {
		if q.Offset >= len(results) {
			results = nil
		} else {
			results = results[q.Offset:]
		}
	}
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return &docIterator{docs: results}, nil
}

// sortDocs sorts in place, stably, so documents equal under the sort field
// keep their insertion order. A document missing the field sorts as the
// field type's zero value.
func sortDocs(docs []driver.Document, field string, asc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		c, ok := driver.Compare(docs[i][field], docs[j][field])
		if !ok {
			return false
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
}

type docIterator struct {
	docs []driver.Document
	err  error
}

func (it *docIterator) Next(ctx context.Context) (driver.Document, error) {
	if it.err != nil {
		return nil, it.err
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return nil, err
	}
	if len(it.docs) == 0 {
		it.err = io.EOF
		return nil, it.err
	}
	doc := it.docs[0]
	it.docs = it.docs[1:]
	return doc, nil
}

func (it *docIterator) Stop() { it.err = io.EOF }

func (b *backend) Aggregate(ctx context.Context, collection string, stages []driver.Stage) (driver.DocumentIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	docs, err := b.readCollection(collection)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	rows := docs
	for _, stage := range stages {
		switch stage.Kind {
		case driver.MatchKind:
			var kept []driver.Document
			for _, row := range rows {
				if driver.Matches(stage.Match, row) {
					kept = append(kept, row)
				}
			}
			rows = kept
		case driver.GroupKind:
			rows = groupRows(rows, stage.GroupKey)
		case driver.SortKind:
			sortDocs(rows, stage.SortField, stage.SortAscending)
		default:
			return nil, dserr.Newf(dserr.UnsupportedQuery, nil, "unsupported pipeline stage %s", stage.Kind)
		}
	}
	return &docIterator{docs: rows}, nil
}

// groupRows buckets rows by the value of key and counts each bucket,
// producing {"id": value, "count": n} rows in first-seen order. An empty key
// counts everything into a single bucket.
func groupRows(rows []driver.Document, key string) []driver.Document {
	var order []string
	buckets := map[string]driver.Document{}
	for _, row := range rows {
		var v interface{}
		if key != "" {
			v = row[key]
		}
		k := fmt.Sprintf("%T:%v", v, v)
		out, ok := buckets[k]
		if !ok {
			out = driver.Document{driver.IDField: v, "count": int64(0)}
			buckets[k] = out
			order = append(order, k)
		}
		out["count"] = out["count"].(int64) + 1
	}
	// Like a document database, grouping an empty input yields no rows.
	out := make([]driver.Document, len(order))
	for i, k := range order {
		out[i] = buckets[k]
	}
	return out
}
