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

// Package docstore provides a portable document-collection API for the
// visatlas content backend, backed interchangeably by a MongoDB deployment or
// by local flat files. The two backends implement identical semantics, so an
// application written against this package behaves the same whichever one
// serves it.
//
// In docstore, documents are grouped into named collections. A document is a
// map of field names to values; values are scalars, nested maps, or slices of
// either. Every document read from a Store carries exactly one identifier
// field, "id". Backend-native identifiers (such as Mongo ObjectIDs) never
// appear in documents this package returns.
//
// Subpackages contain the backend implementations: mongodocstore for a Mongo
// deployment, and filedocstore for a directory of JSON files, which needs no
// server and suits development and small installations.
//
// Your application should import one of these subpackages and use its
// exported functions to create a *Store; do not use the NewStore function in
// this package. For example:
//
//	store, err := filedocstore.OpenStore("/var/lib/visatlas/data", nil)
//	if err != nil {
//	    return fmt.Errorf("opening store: %v", err)
//	}
//	defer store.Close()
//	// store is a *docstore.Store
//
// Alternatively, construct a *Store via a URL and the OpenStore function in
// this package:
//
//	store, err := docstore.OpenStore(ctx, "file:///var/lib/visatlas/data")
//
// The anystore subpackage selects between the two backends at startup by
// probing the Mongo deployment and falling back to files.
//
// # Queries
//
// Find returns a Cursor, a deferred query that runs when first iterated.
// Before iterating you may refine it:
//
//	cur := coll.Find(ctx, docstore.Filter{"region": "Europe"})
//	defer cur.Stop()
//	docs, err := cur.Sort("name", docstore.Ascending).Skip(20).Limit(10).All(ctx)
//
// Filters are field-equality conditions, AND-ed together, plus the "$text"
// operator for case-insensitive substring search over a document's name and
// summary. Richer operators are deliberately unsupported and rejected with an
// UnsupportedQuery error.
//
// Cursors iterate over a consistent snapshot: writes made after the query
// starts do not appear in its results.
//
// # Aggregation
//
// Aggregate runs a small pipeline of match, group-and-count and sort stages:
//
//	p := docstore.NewPipeline().
//	    Match(docstore.Filter{"published": true}).
//	    GroupBy("region").
//	    SortBy("count", docstore.Descending)
//	rows, err := coll.Aggregate(ctx, p).All(ctx)
//
// # Errors
//
// The errors returned from this package can be inspected with the Code
// function from github.com/visatlas/docstore/dserrors, which reports an
// ErrorCode also defined in that package. Backend-specific failures are
// mapped onto those codes; callers never see which backend produced an error.
//
// # OpenCensus Integration
//
// OpenCensus supports tracing and metric collection for multiple languages
// and backend providers. See https://opencensus.io.
//
// This API collects OpenCensus traces and metrics for the Store's methods.
// All trace and metric names begin with the package import path. The traces
// add the method name. For example, "github.com/visatlas/docstore/Collection.Find".
// The metrics are "completed_calls", a count of completed method calls by
// backend, method and status (error code); and "latency", a distribution of
// method latency by backend and method.
//
// To enable trace collection in your application, see "Configure Exporter" at
// https://opencensus.io/quickstart/go/tracing.
// To enable metric collection in your application, see "Exporting stats" at
// https://opencensus.io/quickstart/go/metrics.
package docstore // import "github.com/visatlas/docstore"
