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

import "fmt"

// Identity field names. IDField is the one external identifier every
// normalized document exposes; InternalIDField is a backend-private key that
// never leaves the storage layer.
const (
	IDField         = "id"
	InternalIDField = "_id"
	SlugField       = "slug"
)

// ListFields are document fields whose value is a sequence. Normalize
// guarantees they are present as empty slices rather than nil or absent, so
// callers can range over them unconditionally.
var ListFields = []string{
	"visa_types",
	"documents",
	"processing_times",
	"application_methods",
	"embassies",
	"important_notes",
	"sections",
	"fees",
	"special_conditions",
	"keywords",
}

// Normalize rewrites doc in place into the external document shape:
//
//   - Exactly one identifier field, IDField, preferring an existing IDField
//     value, then SlugField, then the stringified InternalIDField.
//   - No InternalIDField; backend-native identifiers never escape.
//   - Every field in ListFields present as a (possibly empty) slice.
//
// Normalize is idempotent: applying it to an already-normalized document
// changes nothing. It returns doc for convenience.
func Normalize(doc Document) Document {
	if doc == nil {
		return nil
	}
	if _, ok := doc[IDField]; !ok {
		if slug, ok := doc[SlugField].(string); ok && slug != "" {
			doc[IDField] = slug
		} else if oid, ok := doc[InternalIDField]; ok {
			doc[IDField] = stringifyID(oid)
		}
	}
	delete(doc, InternalIDField)
	for _, f := range ListFields {
		if doc[f] == nil {
			doc[f] = []interface{}{}
		}
	}
	return doc
}

// EnsureID assigns doc's external identifier if it does not have one,
// preferring the document's slug and falling back to a generated unique
// string. It returns the identifier.
func EnsureID(doc Document) string {
	if id, ok := doc[IDField].(string); ok && id != "" {
		return id
	}
	if slug, ok := doc[SlugField].(string); ok && slug != "" {
		doc[IDField] = slug
		return slug
	}
	id := UniqueString()
	doc[IDField] = id
	return id
}

func stringifyID(x interface{}) string {
	if s, ok := x.(string); ok {
		return s
	}
	return fmt.Sprint(x)
}
