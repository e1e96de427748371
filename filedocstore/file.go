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

// Package filedocstore provides a docstore backend stored in local JSON
// files. It needs no server, which makes it suitable for development and for
// small installations.
//
// Each collection lives in one file, <dir>/<collection>.json, holding a JSON
// array of documents. Every operation reads the file afresh, applies its
// change in memory, and rewrites the whole file, so the file on disk is
// always a complete, human-editable snapshot of the collection. Two
// processes writing the same collection do not corrupt it; the last write
// wins.
//
// # URLs
//
// For docstore.OpenStore, filedocstore registers for the scheme "file".
// The URL's path is the collection directory:
//
//	docstore.OpenStore(ctx, "file:///var/lib/visatlas/data")
//
// To customize the URL opener, or for more details on the URL format, see
// URLOpener.
package filedocstore // import "github.com/visatlas/docstore/filedocstore"

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/visatlas/docstore"
	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/dserrors"
	"github.com/visatlas/docstore/internal/dserr"
)

// Options are optional arguments to OpenStore.
type Options struct {
	// FileMode for collection files the backend creates. Zero means 0644.
	FileMode os.FileMode

	// The maximum number of concurrent backend calls made by the returned
	// Store. If less than 1, there is no limit.
	MaxOutstanding int
}

// OpenStore creates a *docstore.Store whose collections are JSON files under
// dir. The directory is created if it does not exist.
func OpenStore(dir string, opts *Options) (*docstore.Store, error) {
	b, err := newBackend(dir, opts)
	if err != nil {
		return nil, err
	}
	return docstore.NewStore(b, &docstore.Options{MaxOutstanding: b.opts.MaxOutstanding}), nil
}

func newBackend(dir string, opts *Options) (*backend, error) {
	if dir == "" {
		return nil, dserr.Newf(dserr.InvalidArgument, nil, "filedocstore: empty directory")
	}
	if opts == nil {
		opts = &Options{}
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0644
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, dserr.New(dserr.IOFailure, err, 1, "filedocstore: creating directory")
	}
	return &backend{dir: dir, opts: opts}, nil
}

type backend struct {
	dir  string
	opts *Options

	// Guards read-modify-write cycles within this process. Cross-process
	// writers are not coordinated; the last full-file rewrite wins.
	mu sync.Mutex
}

// collectionPath maps a collection name to its file. Names that would escape
// the store directory are rejected.
func (b *backend) collectionPath(collection string) (string, error) {
	if collection == "" || strings.ContainsAny(collection, `/\`) || collection == "." || collection == ".." {
		return "", dserr.Newf(dserr.InvalidArgument, nil, "invalid collection name %q", collection)
	}
	return filepath.Join(b.dir, collection+".json"), nil
}

// readCollection loads the collection's documents. A missing file is an
// empty collection.
func (b *backend) readCollection(collection string) ([]driver.Document, error) {
	path, err := b.collectionPath(collection)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dserr.New(dserr.IOFailure, err, 1, "filedocstore: reading collection")
	}
	var docs []driver.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, dserr.New(dserr.IOFailure, err, 1, "filedocstore: decoding collection")
	}
	return docs, nil
}

// writeCollection rewrites the collection file in full. The file stays
// human-editable: an indented JSON array.
func (b *backend) writeCollection(collection string, docs []driver.Document) error {
	path, err := b.collectionPath(collection)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []driver.Document{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return dserr.New(dserr.IOFailure, err, 1, "filedocstore: encoding collection")
	}
	if err := os.WriteFile(path, data, b.opts.FileMode); err != nil {
		return dserr.New(dserr.IOFailure, err, 1, "filedocstore: writing collection")
	}
	return nil
}

func (b *backend) Insert(ctx context.Context, collection string, doc driver.Document) (driver.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return driver.InsertResult{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.readCollection(collection)
	if err != nil {
		return driver.InsertResult{}, err
	}
	stored := copyDoc(doc)
	if err := b.writeCollection(collection, append(docs, stored)); err != nil {
		return driver.InsertResult{}, err
	}
	id, _ := stored[driver.IDField].(string)
	return driver.InsertResult{ID: id}, nil
}

func (b *backend) UpdateOne(ctx context.Context, collection string, filter driver.Filter, set driver.Document) (driver.UpdateResult, error) {
	res, _, err := b.update(ctx, collection, filter, set)
	return res, err
}

func (b *backend) FindOneAndUpdate(ctx context.Context, collection string, filter driver.Filter, set driver.Document) (driver.Document, error) {
	_, doc, err := b.update(ctx, collection, filter, set)
	return doc, err
}

func (b *backend) update(ctx context.Context, collection string, filter driver.Filter, set driver.Document) (driver.UpdateResult, driver.Document, error) {
	if err := ctx.Err(); err != nil {
		return driver.UpdateResult{}, nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.readCollection(collection)
	if err != nil {
		return driver.UpdateResult{}, nil, err
	}
	for _, doc := range docs {
		if !driver.Matches(filter, doc) {
			continue
		}
		modified := false
		for k, v := range set {
			if !driver.Equal(doc[k], v) {
				doc[k] = v
				modified = true
			}
		}
		if modified {
			if err := b.writeCollection(collection, docs); err != nil {
				return driver.UpdateResult{}, nil, err
			}
		}
		res := driver.UpdateResult{MatchedCount: 1}
		if modified {
			res.ModifiedCount = 1
		}
		return res, copyDoc(doc), nil
	}
	return driver.UpdateResult{}, nil, nil
}

func (b *backend) DeleteOne(ctx context.Context, collection string, filter driver.Filter) (driver.DeleteResult, error) {
	return b.delete(ctx, collection, filter, 1)
}

func (b *backend) DeleteMany(ctx context.Context, collection string, filter driver.Filter) (driver.DeleteResult, error) {
	return b.delete(ctx, collection, filter, 0)
}

// delete removes up to max matching documents; max <= 0 means all.
func (b *backend) delete(ctx context.Context, collection string, filter driver.Filter, max int) (driver.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return driver.DeleteResult{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.readCollection(collection)
	if err != nil {
		return driver.DeleteResult{}, err
	}
	var kept []driver.Document
	deleted := int64(0)
	for _, doc := range docs {
		if (max <= 0 || deleted < int64(max)) && driver.Matches(filter, doc) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	if deleted == 0 {
		return driver.DeleteResult{}, nil
	}
	if err := b.writeCollection(collection, kept); err != nil {
		return driver.DeleteResult{}, err
	}
	return driver.DeleteResult{DeletedCount: deleted}, nil
}

func (b *backend) Count(ctx context.Context, collection string, filter driver.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.readCollection(collection)
	if err != nil {
		return 0, err
	}
	n := int64(0)
	for _, doc := range docs {
		if driver.Matches(filter, doc) {
			n++
		}
	}
	return n, nil
}

func (b *backend) Distinct(ctx context.Context, collection, field string, filter driver.Filter) ([]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.readCollection(collection)
	if err != nil {
		return nil, err
	}
	var vals []interface{}
	for _, doc := range docs {
		if !driver.Matches(filter, doc) {
			continue
		}
		v := doc[field]
		if v == nil {
			continue
		}
		seen := false
		for _, got := range vals {
			if driver.Equal(got, v) {
				seen = true
				break
			}
		}
		if !seen {
			vals = append(vals, v)
		}
	}
	return vals, nil
}

func (b *backend) TextSearch(ctx context.Context, collection, term string, limit int) ([]driver.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.readCollection(collection)
	if err != nil {
		return nil, err
	}
	type scored struct {
		doc   driver.Document
		score int
	}
	var matches []scored
	for _, doc := range docs {
		if s := driver.TextScore(term, doc); s > 0 {
			matches = append(matches, scored{doc, s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]driver.Document, len(matches))
	for i, m := range matches {
		out[i] = m.doc
	}
	return out, nil
}

// ErrorCode implements driver.Backend.ErrorCode.
func (b *backend) ErrorCode(err error) dserrors.ErrorCode {
	return dserrors.Code(err)
}

// Close implements driver.Backend.Close. The files are already on disk;
// there is nothing to flush.
func (b *backend) Close() error { return nil }

// copyDoc returns a shallow copy of doc. The backend re-reads the file on
// every operation, so a top-level copy is enough to keep callers from
// mutating state it retains.
func copyDoc(doc driver.Document) driver.Document {
	out := make(driver.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
