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
	"net/url"
	"os"
	"sync"

	"github.com/visatlas/docstore"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	docstore.DefaultURLMux().RegisterStore(Scheme, new(defaultDialer))
}

// defaultDialer dials a default Mongo server based on the environment
// variable MONGO_SERVER_URL.
type defaultDialer struct {
	mongoServerURL string
	mu             sync.Mutex
	opener         *URLOpener
}

func (o *defaultDialer) OpenStoreURL(ctx context.Context, u *url.URL) (*docstore.Store, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	currentEnv := os.Getenv("MONGO_SERVER_URL")

	if currentEnv == "" {
		return nil, fmt.Errorf("open store %s: MONGO_SERVER_URL environment variable is not set", u)
	}

	// If MONGO_SERVER_URL has been updated, then update o.opener as well
	if currentEnv != o.mongoServerURL {
		client, err := Dial(ctx, currentEnv)
		if err != nil {
			return nil, fmt.Errorf("open store %s: failed to dial default Mongo server at %q: %v", u, currentEnv, err)
		}
		o.mongoServerURL = currentEnv
		o.opener = &URLOpener{Client: client}
	}
	return o.opener.OpenStoreURL(ctx, u)
}

// Scheme is the URL scheme mongodocstore registers its URLOpener under on
// docstore.DefaultURLMux.
const Scheme = "mongo"

// URLOpener opens URLs like "mongo://mydb".
// See https://docs.mongodb.com/manual/reference/limits/#naming-restrictions
// for naming restrictions.
//
// The URL Host is used as the database name.
//
// No query parameters are supported.
type URLOpener struct {
	// A Client is a MongoDB client that performs operations on the db, must be
	// non-nil.
	Client *mongo.Client

	// Options specifies the options to pass to OpenStore.
	Options Options
}

// OpenStoreURL opens the Store URL.
func (o *URLOpener) OpenStoreURL(ctx context.Context, u *url.URL) (*docstore.Store, error) {
	for param := range u.Query() {
		return nil, fmt.Errorf("open store %s: invalid query parameter %q", u, param)
	}
	dbName := u.Host
	if dbName == "" {
		return nil, fmt.Errorf("open store %s: URL must have a non-empty Host (database name)", u)
	}
	return OpenStore(o.Client.Database(dbName), &o.Options)
}
