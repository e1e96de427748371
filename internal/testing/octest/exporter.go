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

// Package octest supports testing of OpenCensus integrations.
package octest

import (
	"log"
	"strings"
	"sync"
	"time"

	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"
)

// TestExporter is an exporter of OpenCensus traces and metrics, for testing.
// It should be created with NewTestExporter.
type TestExporter struct {
	mu    sync.Mutex
	spans []*trace.SpanData
	rows  []*view.Row
}

// NewTestExporter creates a TestExporter and registers it with OpenCensus.
func NewTestExporter(views []*view.View) *TestExporter {
	te := &TestExporter{}

	// Register for metrics.
	view.RegisterExporter(te)
	view.SetReportingPeriod(time.Millisecond)
	if err := view.Register(views...); err != nil {
		log.Fatal(err)
	}

	// Register for traces.
	trace.RegisterExporter(te)
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})

	return te
}

// ExportSpan "exports" a span by remembering it.
func (te *TestExporter) ExportSpan(s *trace.SpanData) {
	te.mu.Lock()
	defer te.mu.Unlock()
	te.spans = append(te.spans, s)
}

// ExportView exports a view by remembering the rows of the call-count view.
func (te *TestExporter) ExportView(vd *view.Data) {
	if !strings.HasSuffix(vd.View.Name, "/completed_calls") || len(vd.Rows) == 0 {
		return
	}
	te.mu.Lock()
	defer te.mu.Unlock()
	te.rows = vd.Rows
}

// Spans returns the exported spans, in the order they finished.
func (te *TestExporter) Spans() []*trace.SpanData {
	te.mu.Lock()
	defer te.mu.Unlock()
	return append([]*trace.SpanData(nil), te.spans...)
}

// Counts waits for the call-count view to be reported and returns its rows.
func (te *TestExporter) Counts() []*view.Row {
	for start := time.Now(); time.Since(start) < 2*time.Second; {
		te.mu.Lock()
		rows := te.rows
		te.mu.Unlock()
		if len(rows) > 0 {
			return rows
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

// Unregister unregisters the exporter from OpenCensus.
func (te *TestExporter) Unregister() {
	view.UnregisterExporter(te)
	trace.UnregisterExporter(te)
	view.SetReportingPeriod(0) // reset to default value
}
