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

// Package oc supports OpenCensus tracing and metrics for the docstore APIs.
package oc

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/visatlas/docstore/dserrors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"go.opencensus.io/trace"
)

// A Tracer supports OpenCensus tracing and latency metrics.
type Tracer struct {
	Package        string
	Provider       string
	LatencyMeasure *stats.Float64Measure
}

// ProviderName returns the name of the provider associated with the driver value.
// It is intended to be used for Tracer.Provider.
// It actually returns the package path of the value's type.
func ProviderName(driver interface{}) string {
	// Return the last component of the package path.
	if driver == nil {
		return ""
	}
	t := reflect.TypeOf(driver)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath()
}

// Keys for tagging operation counts and latencies.
var (
	// MethodKey is the tag key holding the fully qualified API method name.
	MethodKey = tag.MustNewKey("visatlas_method")
	// StatusKey is the tag key holding the error code of the call, or "OK".
	StatusKey = tag.MustNewKey("visatlas_status")
	// ProviderKey is the tag key holding the backend provider name.
	ProviderKey = tag.MustNewKey("visatlas_provider")
)

type startTimeKey struct{}

// Start adds a span to the trace, and prepares for recording a latency measurement.
// A nil Tracer records nothing.
func (t *Tracer) Start(ctx context.Context, methodName string) context.Context {
	if t == nil {
		return ctx
	}
	fullName := t.Package + "." + methodName
	ctx, _ = tag.New(ctx,
		tag.Upsert(MethodKey, fullName),
		tag.Upsert(ProviderKey, t.Provider))
	ctx, _ = trace.StartSpan(ctx, fullName)
	return context.WithValue(ctx, startTimeKey{}, time.Now())
}

// End ends a span with the given error, and records a latency measurement.
func (t *Tracer) End(ctx context.Context, err error) {
	if t == nil {
		return
	}
	startTime := ctx.Value(startTimeKey{}).(time.Time)
	elapsed := time.Since(startTime)
	code := dserrors.Code(err)
	span := trace.FromContext(ctx)
	if err != nil {
		span.SetStatus(trace.Status{Code: int32(code), Message: err.Error()})
	}
	span.End()
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(StatusKey, fmt.Sprint(code))},
		t.LatencyMeasure.M(float64(elapsed.Nanoseconds())/1e6)) // milliseconds
}
