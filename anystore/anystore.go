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

// Package anystore selects a docstore backend at process startup: it probes
// the configured MongoDB deployment and, if the deployment cannot be
// reached in time, falls back to the flat-file backend. The choice is made
// once; the rest of the application sees only a *docstore.Store and never
// learns which backend serves it.
package anystore // import "github.com/visatlas/docstore/anystore"

import (
	"context"
	"log"
	"time"

	"github.com/visatlas/docstore"
	"github.com/visatlas/docstore/filedocstore"
	"github.com/visatlas/docstore/mongodocstore"
)

// DefaultProbeTimeout bounds how long Open waits for the Mongo deployment
// to answer before falling back.
const DefaultProbeTimeout = 10 * time.Second

// Config tells Open where each backend lives.
type Config struct {
	// MongoURI is the connection string of the preferred backend. Empty
	// means skip Mongo and use files directly.
	MongoURI string

	// Database is the Mongo database name. Required when MongoURI is set.
	Database string

	// DataDir is the directory of the fallback file store.
	DataDir string

	// Collections are ensured to have the content indexes when the Mongo
	// backend is selected.
	Collections []string

	// ProbeTimeout bounds the Mongo reachability probe. Zero means
	// DefaultProbeTimeout.
	ProbeTimeout time.Duration
}

// Open returns a Store over the first reachable backend: Mongo when the
// probe succeeds, the file store otherwise. Falling back is logged but is
// not an error; only a failure to open the file store makes Open fail.
func Open(ctx context.Context, cfg Config) (*docstore.Store, error) {
	if cfg.MongoURI != "" {
		store, err := openMongo(ctx, cfg)
		if err == nil {
			return store, nil
		}
		log.Printf("anystore: mongo at %s unreachable, falling back to files in %s: %v", cfg.MongoURI, cfg.DataDir, err)
	}
	return filedocstore.OpenStore(cfg.DataDir, nil)
}

func openMongo(ctx context.Context, cfg Config) (*docstore.Store, error) {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongodocstore.Dial(tctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	// Dialing alone doesn't reach the server; ping to prove it's there.
	if err := client.Ping(tctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	db := client.Database(cfg.Database)
	for _, coll := range cfg.Collections {
		if err := mongodocstore.EnsureIndexes(tctx, db, coll); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}
	return mongodocstore.OpenStore(db, nil)
}
