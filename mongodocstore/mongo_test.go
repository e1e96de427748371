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

// To run the conformance tests against a real MongoDB server, set
// MONGO_SERVER_URL (e.g. mongodb://localhost:27017/?directConnection=true)
// and wait a few seconds for the server to be ready.

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/visatlas/docstore"
	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/drivertest"
	"github.com/visatlas/docstore/dserrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const dbName = "docstore-test"

type harness struct {
	client *mongo.Client
}

func newHarness(ctx context.Context, t *testing.T) (drivertest.Harness, error) {
	uri := os.Getenv("MONGO_SERVER_URL")
	if uri == "" {
		t.Skip("MONGO_SERVER_URL not set")
	}
	// The client doesn't actually connect until the first RPC, so time out
	// quickly if there's a problem.
	tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := Dial(tctx, uri)
	if err != nil {
		return nil, err
	}
	if err := client.Database(dbName).Drop(tctx); err != nil {
		return nil, err
	}
	return &harness{client: client}, nil
}

func (h *harness) MakeStore(ctx context.Context) (*docstore.Store, error) {
	return OpenStore(h.client.Database(dbName), nil)
}

func (h *harness) Close() {
	_ = h.client.Disconnect(context.Background())
}

func TestConformance(t *testing.T) {
	drivertest.RunConformanceTests(t, newHarness)
}

// The remaining tests need no server.

func TestFilterToBSON(t *testing.T) {
	got, err := filterToBSON(driver.Filter{"region": "Europe"})
	if err != nil {
		t.Fatal(err)
	}
	want := bson.D{{Key: "region", Value: "Europe"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got, err = filterToBSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("nil filter: got %#v, want empty bson.D", got)
	}

	if _, err := filterToBSON(driver.Filter{"$where": "1"}); dserrors.Code(err) != dserrors.UnsupportedQuery {
		t.Errorf("$where: got %v, want UnsupportedQuery", err)
	}

	// The text operator becomes a $or of case-insensitive regexps, with the
	// term quoted so regexp metacharacters match literally.
	got, err = filterToBSON(driver.Filter{driver.TextOperator: "e.g. (visa)"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Key != "$or" {
		t.Fatalf("got %#v, want single $or condition", got)
	}
	branches := got[0].Value.(bson.A)
	if len(branches) != len(driver.TextSearchFields) {
		t.Errorf("got %d branches, want %d", len(branches), len(driver.TextSearchFields))
	}
	pattern := branches[0].(bson.M)[driver.TextSearchFields[0]].(bson.M)["$regex"].(string)
	if pattern == "e.g. (visa)" {
		t.Error("regexp metacharacters not quoted")
	}
}

func TestDecodeDoc(t *testing.T) {
	oid := primitive.NewObjectID()
	m := map[string]interface{}{
		"_id":      oid,
		"name":     "France",
		"fee":      int32(80),
		"keywords": primitive.A{"visa", "schengen"},
		"meta":     primitive.M{"source": "manual", "revision": int32(3)},
		"updated":  primitive.DateTime(1700000000000),
	}
	doc := decodeDoc(m)
	if got := doc["_id"]; got != oid.Hex() {
		t.Errorf("_id = %v, want hex string %q", got, oid.Hex())
	}
	if got := doc["fee"]; got != int64(80) {
		t.Errorf("fee = %v (%[1]T), want int64 80", got)
	}
	want := []interface{}{"visa", "schengen"}
	if diff := cmp.Diff(want, doc["keywords"]); diff != "" {
		t.Errorf("keywords (-want +got):\n%s", diff)
	}
	meta, ok := doc["meta"].(map[string]interface{})
	if !ok || meta["source"] != "manual" || meta["revision"] != int64(3) {
		t.Errorf("meta = %#v", doc["meta"])
	}
	tm, ok := doc["updated"].(time.Time)
	if !ok || tm.Unix() != 1700000000 {
		t.Errorf("updated = %#v", doc["updated"])
	}
}

func TestTranslateMongoCode(t *testing.T) {
	if got := translateMongoCode(mongoDupKeyCode); got != dserrors.InvalidArgument {
		t.Errorf("duplicate key: got %s, want InvalidArgument", got)
	}
	if got := translateMongoCode(999); got != dserrors.Unknown {
		t.Errorf("unknown code: got %s, want Unknown", got)
	}
}

func TestErrorCode(t *testing.T) {
	b := &backend{}
	if got := b.ErrorCode(mongo.ErrNoDocuments); got != dserrors.NotFound {
		t.Errorf("ErrNoDocuments: got %s, want NotFound", got)
	}
	if got := b.ErrorCode(mongo.ErrClientDisconnected); got != dserrors.NotConnected {
		t.Errorf("ErrClientDisconnected: got %s, want NotConnected", got)
	}
}
