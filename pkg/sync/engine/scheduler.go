/* Copyright 2025 Stridewell Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"sync"
	"time"
)

// Scheduler invokes a function periodically. The coordinator runs one per
// entity family.
type Scheduler interface {
	// Start begins invoking fn every interval. Calling Start on a started
	// scheduler is a no-op.
	Start(interval time.Duration, fn func())
	// Stop ceases invocations. Calling Stop on a stopped scheduler is a no-op.
	Stop()
}

// tickerScheduler drives its function off a time.Ticker in a goroutine
type tickerScheduler struct {
	mu   sync.Mutex
	done chan struct{}
}

// NewTickerScheduler returns a real-time scheduler
func NewTickerScheduler() Scheduler {
	return &tickerScheduler{}
}

func (s *tickerScheduler) Start(interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	done := make(chan struct{})
	s.done = done

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
}

func (s *tickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return
	}

	close(s.done)
	s.done = nil
}

// ManualScheduler is a Scheduler fired by hand, for tests and one-shot runs
type ManualScheduler struct {
	mu sync.Mutex
	fn func()
}

// Start records the function to fire
func (s *ManualScheduler) Start(interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fn == nil {
		s.fn = fn
	}
}

// Stop clears the recorded function
func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fn = nil
}

// Fire invokes the recorded function synchronously, if the scheduler is
// started
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}
