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

package mongodocstore

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/internal/dserr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (b *backend) RunQuery(ctx context.Context, collection string, q *driver.Query) (driver.DocumentIterator, error) {
	opts := options.Find()
	if q.Offset > 0 {
		offset := int64(q.Offset)
		opts.Skip = &offset
	}
	if q.Limit > 0 {
		lim := int64(q.Limit)
		opts.Limit = &lim
	}
	if q.OrderByField != "" {
		dir := 1
		if !q.OrderAscending {
			dir = -1
		}
		opts.Sort = bson.D{{Key: q.OrderByField, Value: dir}}
	}
	filter, err := filterToBSON(q.Filter)
	if err != nil {
		return nil, err
	}
	cursor, err := b.collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return &docIterator{cursor: cursor, ctx: ctx}, nil
}

func (b *backend) Aggregate(ctx context.Context, collection string, stages []driver.Stage) (driver.DocumentIterator, error) {
	pipeline := mongo.Pipeline{}
	grouped := false
	for _, stage := range stages {
		switch stage.Kind {
		case driver.MatchKind:
			match, err := filterToBSON(stage.Match)
			if err != nil {
				return nil, err
			}
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
		case driver.GroupKind:
			var key interface{}
			if stage.GroupKey != "" {
				key = "$" + stage.GroupKey
			}
			pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
				{Key: mongoIDField, Value: key},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}})
			grouped = true
		case driver.SortKind:
			dir := 1
			if !stage.SortAscending {
				dir = -1
			}
			field := stage.SortField
			if grouped && field == driver.IDField {
				// Group rows carry their key in Mongo's native field until
				// the iterator renames it.
				field = mongoIDField
			}
			pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: field, Value: dir}}}})
		default:
			return nil, dserr.Newf(dserr.UnsupportedQuery, nil, "unsupported pipeline stage %s", stage.Kind)
		}
	}
	cursor, err := b.collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return &docIterator{cursor: cursor, ctx: ctx, renameGroupID: grouped}, nil
}

// filterToBSON converts a driver.Filter to the MongoDB equivalent. Equality
// conditions pass through; the text operator becomes case-insensitive
// substring regexps over the searchable fields.
func filterToBSON(filter driver.Filter) (bson.D, error) {
	out := bson.D{} // must be a zero-length slice, not nil
	for k, v := range filter {
		if k == driver.TextOperator {
			term, ok := v.(string)
			if !ok {
				return nil, dserr.Newf(dserr.InvalidArgument, nil, "text operator value %v is not a string", v)
			}
			pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
			var or bson.A
			for _, f := range driver.TextSearchFields {
				or = append(or, bson.M{f: pattern})
			}
			out = append(out, bson.E{Key: "$or", Value: or})
			continue
		}
		if strings.HasPrefix(k, "$") {
			return nil, dserr.Newf(dserr.UnsupportedQuery, nil, "unsupported filter operator %q", k)
		}
		out = append(out, bson.E{Key: k, Value: v})
	}
	return out, nil
}

type docIterator struct {
	cursor        *mongo.Cursor
	ctx           context.Context // remember for Stop
	renameGroupID bool
}

func (it *docIterator) Next(ctx context.Context) (driver.Document, error) {
	if !it.cursor.Next(ctx) {
		if it.cursor.Err() != nil {
			return nil, it.cursor.Err()
		}
		return nil, io.EOF
	}
	var m map[string]interface{}
	if err := it.cursor.Decode(&m); err != nil {
		return nil, fmt.Errorf("cursor.Decode: %v", err)
	}
	doc := decodeDoc(m)
	if it.renameGroupID {
		doc[driver.IDField] = doc[mongoIDField]
		delete(doc, mongoIDField)
	}
	return doc, nil
}

func (it *docIterator) Stop() {
	// Ignore error on Close.
	_ = it.cursor.Close(it.ctx)
}
