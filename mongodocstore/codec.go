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
	"time"

	"github.com/visatlas/docstore/driver"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// decodeDoc turns a map decoded by the mongo client into a plain document:
// BSON wrapper types become their ordinary Go equivalents so the rest of the
// system cannot tell which backend produced the document.
func decodeDoc(m map[string]interface{}) driver.Document {
	doc := make(driver.Document, len(m))
	for k, v := range m {
		doc[k] = toGoValue(v)
	}
	return doc
}

func toGoValue(v interface{}) interface{} {
	switch v := v.(type) {
	case primitive.A:
		r := make([]interface{}, len(v))
		for i, e := range v {
			r[i] = toGoValue(e)
		}
		return r
	case primitive.M:
		r := make(map[string]interface{}, len(v))
		for k, e := range v {
			r[k] = toGoValue(e)
		}
		return r
	case primitive.D:
		r := make(map[string]interface{}, len(v))
		for _, e := range v {
			r[e.Key] = toGoValue(e.Value)
		}
		return r
	case map[string]interface{}:
		r := make(map[string]interface{}, len(v))
		for k, e := range v {
			r[k] = toGoValue(e)
		}
		return r
	case int32:
		// BSON stores small integers as int32. Widen them so integer
		// values, group-row counts included, have one shape no matter
		// which backend produced them.
		return int64(v)
	case primitive.ObjectID:
		// The canonical hex form, matching what identifier derivation expects.
		return v.Hex()
	case primitive.Binary:
		return v.Data
	case primitive.DateTime:
		return bsonDateTimeToTime(v)
	default:
		return v
	}
}

func bsonDateTimeToTime(dt primitive.DateTime) time.Time {
	return time.Unix(int64(dt)/1000, int64(dt)%1000*1e6)
}
