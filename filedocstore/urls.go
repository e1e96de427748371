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

package filedocstore

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/visatlas/docstore"
)

func init() {
	docstore.DefaultURLMux().RegisterStore(Scheme, &URLOpener{})
}

// Scheme is the URL scheme filedocstore registers its URLOpener under on
// docstore.DefaultURLMux.
const Scheme = "file"

// URLOpener opens URLs like "file:///path/to/directory".
//
// The URL's path is the directory holding the collection files; a relative
// path may be given as "file:data" or "file:./data".
//
// No query parameters are supported.
type URLOpener struct {
	// Options specifies the options to pass to OpenStore.
	Options Options
}

// OpenStoreURL opens a docstore.Store based on u.
func (o *URLOpener) OpenStoreURL(ctx context.Context, u *url.URL) (*docstore.Store, error) {
	for param := range u.Query() {
		return nil, fmt.Errorf("open store %v: invalid query parameter %q", u, param)
	}
	dir := u.Path
	if u.Opaque != "" {
		dir = u.Opaque
	}
	return OpenStore(filepath.FromSlash(dir), &o.Options)
}
