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

// Package mongodocstore provides a docstore backend for MongoDB and
// MongoDB-compatible services hosted on-premise or by cloud providers,
// including Amazon DocumentDB and Azure Cosmos DB.
//
// # URLs
//
// For docstore.OpenStore, mongodocstore registers for the scheme "mongo".
// The default URL opener will dial a Mongo server using the environment
// variable "MONGO_SERVER_URL". To customize the URL opener, or for more
// details on the URL format, see URLOpener.
//
// # Special Considerations
//
// Documents are stored with their external "id" field as an ordinary indexed
// field; Mongo's own "_id" stays backend-internal and is stripped from every
// document this backend returns. MongoDB represents times to millisecond
// precision, so sub-millisecond detail is lost on a round trip.
package mongodocstore // import "github.com/visatlas/docstore/mongodocstore"

// MongoDB reference manual: https://docs.mongodb.com/manual
// Client documentation: https://godoc.org/go.mongodb.org/mongo-driver/mongo

import (
	"context"
	"regexp"
	"sort"

	"github.com/google/wire"
	"github.com/visatlas/docstore"
	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/dserrors"
	"github.com/visatlas/docstore/internal/dserr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMaxPoolSize is the connection pool size Dial configures when the
// URI does not set one.
const DefaultMaxPoolSize = 10

// Dial returns a new mongoDB client that is connected to the server URI.
func Dial(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	if opts.MaxPoolSize == nil {
		opts.SetMaxPoolSize(DefaultMaxPoolSize)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	client, err := mongo.NewClient(opts)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Set holds Wire providers for this package.
var Set = wire.NewSet(
	Dial,
	wire.Struct(new(URLOpener), "Client"),
)

// Options holds various options.
type Options struct {
	// The maximum number of concurrent backend calls made by the returned
	// Store. If less than 1, there is no limit.
	MaxOutstanding int
}

// OpenStore opens the MongoDB database for use with docstore. The client
// must already be connected; collections are created by Mongo on first
// write.
func OpenStore(db *mongo.Database, opts *Options) (*docstore.Store, error) {
	b, err := newBackend(db, opts)
	if err != nil {
		return nil, err
	}
	return docstore.NewStore(b, &docstore.Options{MaxOutstanding: b.opts.MaxOutstanding}), nil
}

func newBackend(db *mongo.Database, opts *Options) (*backend, error) {
	if db == nil {
		return nil, dserr.Newf(dserr.InvalidArgument, nil, "mongodocstore: nil database")
	}
	if opts == nil {
		opts = &Options{}
	}
	return &backend{db: db, opts: opts}, nil
}

type backend struct {
	db   *mongo.Database
	opts *Options
}

// From https://docs.mongodb.com/manual/core/document: "The field name _id is
// reserved for use as a primary key; its value must be unique in the collection, is
// immutable, and may be of any type other than an array."
const mongoIDField = "_id"

func (b *backend) collection(name string) *mongo.Collection {
	return b.db.Collection(name)
}

func (b *backend) Insert(ctx context.Context, collection string, doc driver.Document) (driver.InsertResult, error) {
	if _, err := b.collection(collection).InsertOne(ctx, bson.M(doc)); err != nil {
		return driver.InsertResult{}, err
	}
	id, _ := doc[driver.IDField].(string)
	return driver.InsertResult{ID: id}, nil
}

func (b *backend) UpdateOne(ctx context.Context, collection string, filter driver.Filter, set driver.Document) (driver.UpdateResult, error) {
	bf, err := filterToBSON(filter)
	if err != nil {
		return driver.UpdateResult{}, err
	}
	res, err := b.collection(collection).UpdateOne(ctx, bf, bson.D{{Key: "$set", Value: bson.M(set)}})
	if err != nil {
		return driver.UpdateResult{}, err
	}
	return driver.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (b *backend) FindOneAndUpdate(ctx context.Context, collection string, filter driver.Filter, set driver.Document) (driver.Document, error) {
	bf, err := filterToBSON(filter)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := b.collection(collection).FindOneAndUpdate(ctx, bf, bson.D{{Key: "$set", Value: bson.M(set)}}, opts)
	if res.Err() == mongo.ErrNoDocuments {
		return nil, nil
	}
	if res.Err() != nil {
		return nil, res.Err()
	}
	var m map[string]interface{}
	if err := res.Decode(&m); err != nil {
		return nil, err
	}
	return decodeDoc(m), nil
}

func (b *backend) DeleteOne(ctx context.Context, collection string, filter driver.Filter) (driver.DeleteResult, error) {
	bf, err := filterToBSON(filter)
	if err != nil {
		return driver.DeleteResult{}, err
	}
	res, err := b.collection(collection).DeleteOne(ctx, bf)
	if err != nil {
		return driver.DeleteResult{}, err
	}
	return driver.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (b *backend) DeleteMany(ctx context.Context, collection string, filter driver.Filter) (driver.DeleteResult, error) {
	bf, err := filterToBSON(filter)
	if err != nil {
		return driver.DeleteResult{}, err
	}
	res, err := b.collection(collection).DeleteMany(ctx, bf)
	if err != nil {
		return driver.DeleteResult{}, err
	}
	return driver.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (b *backend) Count(ctx context.Context, collection string, filter driver.Filter) (int64, error) {
	bf, err := filterToBSON(filter)
	if err != nil {
		return 0, err
	}
	return b.collection(collection).CountDocuments(ctx, bf)
}

func (b *backend) Distinct(ctx context.Context, collection, field string, filter driver.Filter) ([]interface{}, error) {
	bf, err := filterToBSON(filter)
	if err != nil {
		return nil, err
	}
	vals, err := b.collection(collection).Distinct(ctx, field, bf)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		out = append(out, toGoValue(v))
	}
	return out, nil
}

func (b *backend) TextSearch(ctx context.Context, collection, term string, limit int) ([]driver.Document, error) {
	// The term arrives as a substring query, not a Mongo $text expression, so
	// it is matched with case-insensitive regular expressions over the
	// searchable fields, weighted the same way the file backend weighs them.
	pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
	var or bson.A
	for _, f := range driver.TextSearchFields {
		or = append(or, bson.M{f: pattern})
	}
	cursor, err := b.collection(collection).Find(ctx, bson.M{"$or": or})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	type scored struct {
		doc   driver.Document
		score int
	}
	var matches []scored
	for cursor.Next(ctx) {
		var m map[string]interface{}
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		doc := decodeDoc(m)
		matches = append(matches, scored{doc, driver.TextScore(term, doc)})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
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

// Close implements driver.Backend.Close, disconnecting the underlying
// client.
func (b *backend) Close() error {
	return b.db.Client().Disconnect(context.Background())
}

// ErrorCode implements driver.Backend.ErrorCode.
func (b *backend) ErrorCode(err error) dserrors.ErrorCode {
	if e, ok := err.(*dserr.Error); ok {
		return e.Code
	}
	switch {
	case err == mongo.ErrNoDocuments:
		return dserrors.NotFound
	case err == mongo.ErrClientDisconnected:
		return dserrors.NotConnected
	case mongo.IsDuplicateKeyError(err):
		return dserrors.InvalidArgument
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return dserrors.BackendUnavailable
	}
	if wexc, ok := err.(mongo.WriteException); ok && len(wexc.WriteErrors) > 0 {
		return translateMongoCode(wexc.WriteErrors[0].Code)
	}
	return dserrors.Unknown
}

// Error code for a write error on a unique-index violation.
// (The Go mongo driver doesn't define an exported constant for this.)
const mongoDupKeyCode = 11000

func translateMongoCode(code int) dserrors.ErrorCode {
	switch code {
	case mongoDupKeyCode:
		return dserrors.InvalidArgument
	default:
		return dserrors.Unknown
	}
}

// EnsureIndexes creates the indexes the content workload expects on the
// named collection: a unique index on the document identifier and on slug,
// single-field indexes for the common filters, and a text index over the
// searchable fields. It is safe to call repeatedly; Mongo treats an existing
// identical index as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database, collection string) error {
	unique := true
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: driver.IDField, Value: 1}}, Options: &options.IndexOptions{Unique: &unique}},
		{Keys: bson.D{{Key: driver.SlugField, Value: 1}}, Options: &options.IndexOptions{Unique: &unique}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "region", Value: 1}}},
		{Keys: bson.D{{Key: "visa_required", Value: 1}}},
		{Keys: bson.D{{Key: "published", Value: 1}}},
		{Keys: bson.D{{Key: "featured", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "summary", Value: "text"}}},
	}
	_, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	return err
}
