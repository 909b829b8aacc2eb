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
	"context"
	"sync"
	"time"

	"github.com/stridewell/stridewell/pkg/log"
)

// DefaultSyncInterval is how often each family syncs when auto sync is on
const DefaultSyncInterval = 5 * time.Minute

// Coordinator owns the sync lifecycle: periodic timers, manual triggers, the
// entitlement gate, and the at-most-one-in-flight guarantee per family. All
// of its methods are safe for concurrent use.
type Coordinator struct {
	engine       *Engine
	gate         Gate
	interval     time.Duration
	newScheduler func() Scheduler

	mu         sync.Mutex
	schedulers map[string]Scheduler
	inFlight   map[string]bool
	lastErr    map[string]error
}

// NewCoordinator constructs a coordinator. A non-positive interval falls back
// to DefaultSyncInterval; a nil scheduler factory falls back to real-time
// ticker schedulers.
func NewCoordinator(e *Engine, gate Gate, interval time.Duration, newScheduler func() Scheduler) *Coordinator {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if newScheduler == nil {
		newScheduler = NewTickerScheduler
	}

	return &Coordinator{
		engine:       e,
		gate:         gate,
		interval:     interval,
		newScheduler: newScheduler,
		schedulers:   map[string]Scheduler{},
		inFlight:     map[string]bool{},
		lastErr:      map[string]error{},
	}
}

// StartAutoSync begins periodic sync cycles for the family. It is a no-op
// when the gate disallows syncing for the family. Calling it while the
// family's timer is already running stops the prior timer and starts a fresh
// one.
func (c *Coordinator) StartAutoSync(ctx context.Context, fam Family) {
	if !c.gate.CanSync(fam.Name) {
		log.Debug("not starting %s auto sync: sync is not allowed\n", fam.Name)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prior, ok := c.schedulers[fam.Name]; ok {
		prior.Stop()
	}

	s := c.newScheduler()
	c.schedulers[fam.Name] = s
	s.Start(c.interval, func() {
		c.runCycle(ctx, fam)
	})
}

// StopAutoSync stops the family's periodic sync cycles. Safe to call when the
// family is not running; a cycle already in flight finishes on its own.
func (c *Coordinator) StopAutoSync(fam Family) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.schedulers[fam.Name]; ok {
		s.Stop()
		delete(c.schedulers, fam.Name)
	}
}

// Running reports whether the family's auto sync timer is on
func (c *Coordinator) Running(fam Family) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.schedulers[fam.Name]
	return ok
}

// EntitlementChanged reacts to an entitlement transition: on grant it starts
// auto sync for every family, on revocation it stops it. The gate itself is
// consulted again on every cycle, so a revocation also silences any timer
// still about to fire.
func (c *Coordinator) EntitlementChanged(ctx context.Context, entitled bool) {
	for _, fam := range Families() {
		if entitled {
			c.StartAutoSync(ctx, fam)
		} else {
			c.StopAutoSync(fam)
		}
	}
}

// SyncNow triggers one sync cycle for the family. It reports false when the
// cycle was dropped: either the gate disallows syncing or a cycle for the
// family is already in flight. A dropped trigger is not queued.
func (c *Coordinator) SyncNow(ctx context.Context, fam Family) bool {
	return c.runCycle(ctx, fam)
}

// RefreshNow triggers one sync cycle followed by a full refresh for the
// family, under the same in-flight guarantee as SyncNow
func (c *Coordinator) RefreshNow(ctx context.Context, fam Family) bool {
	return c.run(ctx, fam, func() error {
		if err := c.engine.Sync(ctx, fam); err != nil {
			return err
		}

		return c.engine.Refresh(ctx, fam)
	})
}

func (c *Coordinator) runCycle(ctx context.Context, fam Family) bool {
	return c.run(ctx, fam, func() error {
		return c.engine.Sync(ctx, fam)
	})
}

func (c *Coordinator) run(ctx context.Context, fam Family, fn func() error) bool {
	if !c.gate.CanSync(fam.Name) {
		log.Debug("dropping a %s sync cycle: sync is not allowed\n", fam.Name)
		return false
	}

	c.mu.Lock()
	if c.inFlight[fam.Name] {
		c.mu.Unlock()
		log.Debug("dropping a %s sync cycle: one is already in flight\n", fam.Name)
		return false
	}
	c.inFlight[fam.Name] = true
	c.mu.Unlock()

	err := fn()

	c.mu.Lock()
	c.inFlight[fam.Name] = false
	c.lastErr[fam.Name] = err
	c.mu.Unlock()

	if err != nil {
		log.Debug("%s sync cycle failed: %v\n", fam.Name, err)
	}

	return true
}

// FamilyStatus is a point-in-time view of one family's sync state
type FamilyStatus struct {
	Family       string
	InFlight     bool
	LastSyncedAt *time.Time
	LastError    error
}

// Status returns the sync state of every family
func (c *Coordinator) Status() ([]FamilyStatus, error) {
	var ret []FamilyStatus

	for _, fam := range Families() {
		lastSyncedAt, err := c.engine.LastSyncedAt(fam)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		s := FamilyStatus{
			Family:       fam.Name,
			InFlight:     c.inFlight[fam.Name],
			LastSyncedAt: lastSyncedAt,
			LastError:    c.lastErr[fam.Name],
		}
		c.mu.Unlock()

		ret = append(ret, s)
	}

	return ret, nil
}
