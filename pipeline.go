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
	"github.com/visatlas/docstore/driver"
	"github.com/visatlas/docstore/internal/dserr"
)

// A Pipeline describes a sequence of aggregation stages. Build one with
// NewPipeline and the chaining methods, then pass it to Collection.Aggregate.
// The stage vocabulary is closed: matching, grouping with a count, and
// sorting. A stage outside it cannot be expressed, so no backend can be asked
// to silently ignore one.
type Pipeline struct {
	list    []driver.Stage
	grouped bool
	err     error
}

// NewPipeline returns an empty Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Match appends a stage that keeps only the rows matching filter.
func (p *Pipeline) Match(filter Filter) *Pipeline {
	if p.err == nil {
		if err := driver.ValidateFilter(filter); err != nil {
			p.err = err
		} else {
			p.list = append(p.list, driver.Stage{Kind: driver.MatchKind, Match: filter})
		}
	}
	return p
}

// GroupBy appends a stage that groups rows by the named field and counts
// them. Each distinct field value yields one row of the shape
// {"id": value, "count": n}. Rows missing the field group under nil.
func (p *Pipeline) GroupBy(field string) *Pipeline {
	if p.err == nil {
		if field == "" {
			p.err = dserr.Newf(dserr.InvalidArgument, nil, "empty group field; use GroupAll to count all rows")
		} else {
			p.list = append(p.list, driver.Stage{Kind: driver.GroupKind, GroupKey: field})
			p.grouped = true
		}
	}
	return p
}

// GroupAll appends a stage that counts all rows into a single
// {"id": nil, "count": n} row.
func (p *Pipeline) GroupAll() *Pipeline {
	if p.err == nil {
		p.list = append(p.list, driver.Stage{Kind: driver.GroupKind})
		p.grouped = true
	}
	return p
}

// SortBy appends a stage that orders the rows by field in the given
// direction (Ascending or Descending). Rows missing the field sort first in
// ascending order.
func (p *Pipeline) SortBy(field, direction string) *Pipeline {
	if p.err != nil {
		return p
	}
	switch {
	case field == "":
		p.err = dserr.Newf(dserr.InvalidArgument, nil, "empty sort field")
	case direction != Ascending && direction != Descending:
		p.err = dserr.Newf(dserr.InvalidArgument, nil, "invalid sort direction %q", direction)
	default:
		p.list = append(p.list, driver.Stage{
			Kind:          driver.SortKind,
			SortField:     field,
			SortAscending: direction == Ascending,
		})
	}
	return p
}

// stages returns the built stage list, or the first error recorded while
// building.
func (p *Pipeline) stages() ([]driver.Stage, error) {
	if p.err != nil {
		return nil, p.err
	}
	if len(p.list) == 0 {
		return nil, dserr.Newf(dserr.InvalidArgument, nil, "empty pipeline")
	}
	return p.list, nil
}
