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
	"sync"
	"sync/atomic"
	"testing"
)

func TestThrottleLimitsConcurrency(t *testing.T) {
	const max = 3
	tr := NewThrottle(max)
	var cur, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Acquire()
			n := atomic.AddInt64(&cur, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			atomic.AddInt64(&cur, -1)
			tr.Release()
		}()
	}
	wg.Wait()
	tr.Wait()
	if peak > max {
		t.Errorf("peak concurrency %d, want at most %d", peak, max)
	}
}

func TestThrottleUnlimited(t *testing.T) {
	tr := NewThrottle(0)
	for i := 0; i < 100; i++ {
		tr.Acquire()
	}
	for i := 0; i < 100; i++ {
		tr.Release()
	}
	tr.Wait()
}

func TestUniqueString(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s := UniqueString()
		if s == "" {
			t.Fatal("got empty string")
		}
		if seen[s] {
			t.Fatalf("duplicate string %q", s)
		}
		seen[s] = true
	}
}
