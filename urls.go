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

package docstore

import (
	"context"
	"net/url"

	"github.com/visatlas/docstore/internal/openurl"
)

// StoreURLOpener opens a document store based on a URL.
// The opener must not modify the URL argument. It must be safe to call from
// multiple goroutines.
//
// This interface is generally implemented by types in backend packages.
type StoreURLOpener interface {
	OpenStoreURL(ctx context.Context, u *url.URL) (*Store, error)
}

// URLMux is a URL opener multiplexer. It matches the scheme of the URLs
// against a set of registered schemes and calls the opener that matches the
// URL's scheme.
//
// The zero value is a multiplexer with no registered scheme.
type URLMux struct {
	schemes openurl.SchemeMap
}

// StoreSchemes returns a sorted slice of the registered Store schemes.
func (mux *URLMux) StoreSchemes() []string { return mux.schemes.Schemes() }

// ValidStoreScheme returns true iff scheme has been registered for Stores.
func (mux *URLMux) ValidStoreScheme(scheme string) bool { return mux.schemes.ValidScheme(scheme) }

// RegisterStore registers the opener with the given scheme. If an opener
// already exists for the scheme, RegisterStore panics.
func (mux *URLMux) RegisterStore(scheme string, opener StoreURLOpener) {
	mux.schemes.Register("docstore", "Store", scheme, opener)
}

// OpenStore calls OpenStoreURL with the URL parsed from urlstr.
// OpenStore is safe to call from multiple goroutines.
func (mux *URLMux) OpenStore(ctx context.Context, urlstr string) (*Store, error) {
	opener, u, err := mux.schemes.FromString("Store", urlstr)
	if err != nil {
		return nil, err
	}
	return opener.(StoreURLOpener).OpenStoreURL(ctx, u)
}

// OpenStoreURL dispatches the URL to the opener that is registered with the
// URL's scheme. OpenStoreURL is safe to call from multiple goroutines.
func (mux *URLMux) OpenStoreURL(ctx context.Context, u *url.URL) (*Store, error) {
	opener, err := mux.schemes.FromURL("Store", u)
	if err != nil {
		return nil, err
	}
	return opener.(StoreURLOpener).OpenStoreURL(ctx, u)
}

var defaultURLMux = new(URLMux)

// DefaultURLMux returns the URLMux used by OpenStore.
//
// Backend packages can use this to register their StoreURLOpener on the mux.
func DefaultURLMux() *URLMux {
	return defaultURLMux
}

// OpenStore opens the store identified by the URL given.
// See the URLOpener documentation in backend subpackages for details on
// supported URL formats.
func OpenStore(ctx context.Context, urlstr string) (*Store, error) {
	return defaultURLMux.OpenStore(ctx, urlstr)
}
