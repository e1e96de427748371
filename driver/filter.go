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

import (
	"strings"

	"github.com/visatlas/docstore/internal/dserr"
)

// TextOperator is the one operator key a Filter may carry. Its value is a
// search term matched case-insensitively as a substring against the
// document's searchable fields.
const TextOperator = "$text"

// TextSearchFields are the fields TextOperator (and Backend.TextSearch)
// examine, in decreasing order of weight.
var TextSearchFields = []string{"name", "summary"}

// ValidateFilter checks that filter stays inside the supported grammar:
// equality conditions plus TextOperator. Any other operator key, or an
// operator-document value like {"$gt": 5}, is rejected with an
// UnsupportedQuery error so callers learn about the unsupported condition
// instead of silently matching too much.
func ValidateFilter(filter Filter) error {
	for k, v := range filter {
		if strings.HasPrefix(k, "$") && k != TextOperator {
			return dserr.Newf(dserr.UnsupportedQuery, nil, "unsupported filter operator %q", k)
		}
		if k == TextOperator {
			continue
		}
		if m, ok := v.(map[string]interface{}); ok {
			for vk := range m {
				if strings.HasPrefix(vk, "$") {
					return dserr.Newf(dserr.UnsupportedQuery, nil, "unsupported filter operator %q on field %q", vk, k)
				}
			}
		}
	}
	return nil
}

// Matches reports whether doc satisfies filter. The filter must already have
// passed ValidateFilter. A nil or empty filter matches every document.
func Matches(filter Filter, doc Document) bool {
	for k, v := range filter {
		if k == TextOperator {
			term, _ := v.(string)
			if !matchesText(term, doc) {
				return false
			}
			continue
		}
		got, ok := doc[k]
		if !ok || !Equal(got, v) {
			return false
		}
	}
	return true
}

func matchesText(term string, doc Document) bool {
	term = strings.ToLower(term)
	for _, f := range TextSearchFields {
		if s, ok := doc[f].(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// TextScore ranks doc against term for TextSearch result ordering. Earlier
// entries of TextSearchFields weigh more; a zero score means no match.
func TextScore(term string, doc Document) int {
	term = strings.ToLower(term)
	score := 0
	weight := 1 << len(TextSearchFields)
	for _, f := range TextSearchFields {
		weight /= 2
		s, ok := doc[f].(string)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(s), term) {
			score += weight
		}
	}
	return score
}
