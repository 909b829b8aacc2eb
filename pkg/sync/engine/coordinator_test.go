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
	"testing"
	"time"

	"github.com/stridewell/stridewell/pkg/assert"
	"github.com/stridewell/stridewell/pkg/sync/record"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

// newTestCoordinator wires a coordinator to manual schedulers so tests drive
// the timers by hand
func newTestCoordinator(t *testing.T, gate Gate) (*Coordinator, *store.DB, *fakeRemote) {
	t.Helper()

	e, db, fake, _ := newTestEngine(t)

	factory := func() Scheduler {
		return &ManualScheduler{}
	}

	return NewCoordinator(e, gate, time.Minute, factory), db, fake
}

// manualSchedulers snapshots the coordinator's running schedulers by family
func manualSchedulers(c *Coordinator) map[string]*ManualScheduler {
	c.mu.Lock()
	defer c.mu.Unlock()

	ret := map[string]*ManualScheduler{}
	for name, s := range c.schedulers {
		ret[name] = s.(*ManualScheduler)
	}

	return ret
}

func TestSyncNowWhenGated(t *testing.T) {
	gate := NewStaticGate(false)
	c, db, fake := newTestCoordinator(t, gate)

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	entry := record.NewJournalEntry(now, record.MoodGood, "", now)
	assert.NoError(t, store.InsertJournalEntry(db, entry), "inserting entry")

	ran := c.SyncNow(context.Background(), JournalFamily())
	assert.Equal(t, ran, false, "a gated trigger should be dropped")
	assert.Equal(t, fake.callCount(), 0, "a gated trigger must not reach the remote store")
}

func TestSyncNowDropsWhenInFlight(t *testing.T) {
	gate := NewStaticGate(true)
	c, _, fake := newTestCoordinator(t, gate)

	// buffered so that select calls made after the test stops listening do
	// not block
	fake.enterSelect = make(chan struct{}, 16)
	fake.releaseSelect = make(chan struct{})

	done := make(chan bool)
	go func() {
		done <- c.SyncNow(context.Background(), JournalFamily())
	}()

	// the first cycle is now blocked mid-pull
	<-fake.enterSelect

	ran := c.SyncNow(context.Background(), JournalFamily())
	assert.Equal(t, ran, false, "a trigger during an in-flight cycle should be dropped")

	close(fake.releaseSelect)
	assert.Equal(t, <-done, true, "the first cycle should have run")

	status, err := c.Status()
	assert.NoError(t, err, "getting status")
	assert.Equal(t, status[0].Family, FamilyJournal, "family order mismatch")
	assert.Equal(t, status[0].InFlight, false, "the cycle should no longer be in flight")
}

func TestIndependentFamiliesDoNotBlockEachOther(t *testing.T) {
	gate := NewStaticGate(true)
	c, _, fake := newTestCoordinator(t, gate)

	// buffered so that select calls made after the test stops listening do
	// not block
	fake.enterSelect = make(chan struct{}, 16)
	fake.releaseSelect = make(chan struct{})

	journalDone := make(chan bool)
	go func() {
		journalDone <- c.SyncNow(context.Background(), JournalFamily())
	}()

	<-fake.enterSelect

	journeyDone := make(chan bool)
	go func() {
		journeyDone <- c.SyncNow(context.Background(), JourneyFamily())
	}()

	// the journey cycle reaches its own pull while the journal cycle is
	// still blocked
	<-fake.enterSelect

	close(fake.releaseSelect)
	assert.Equal(t, <-journalDone, true, "the journal cycle should have run")
	assert.Equal(t, <-journeyDone, true, "the journey cycle should have run concurrently")
}

func startAll(ctx context.Context, c *Coordinator) {
	for _, fam := range Families() {
		c.StartAutoSync(ctx, fam)
	}
}

func stopAll(c *Coordinator) {
	for _, fam := range Families() {
		c.StopAutoSync(fam)
	}
}

func TestAutoSyncRespectsGateMidTimer(t *testing.T) {
	gate := NewStaticGate(true)
	c, _, fake := newTestCoordinator(t, gate)

	ctx := context.Background()
	startAll(ctx, c)
	defer stopAll(c)

	schedulers := manualSchedulers(c)
	assert.Equal(t, len(schedulers), len(Families()), "one scheduler per family")

	journal := schedulers[FamilyJournal]

	journal.Fire()
	callsAfterFirst := fake.callCount()
	assert.True(t, callsAfterFirst > 0, "an entitled timer tick should sync")

	// the entitlement is revoked while the timer keeps ticking
	gate.SetAllowed(false)

	journal.Fire()
	assert.Equal(t, fake.callCount(), callsAfterFirst, "a revoked entitlement must silence the timer")
}

func TestStopAutoSync(t *testing.T) {
	gate := NewStaticGate(true)
	c, _, fake := newTestCoordinator(t, gate)

	ctx := context.Background()
	startAll(ctx, c)
	assert.Equal(t, c.Running(JournalFamily()), true, "auto sync should be running")

	schedulers := manualSchedulers(c)

	stopAll(c)
	assert.Equal(t, c.Running(JournalFamily()), false, "auto sync should have stopped")

	for _, s := range schedulers {
		s.Fire()
	}
	assert.Equal(t, fake.callCount(), 0, "a stopped scheduler must not sync")
}

func TestStopAutoSyncOneFamily(t *testing.T) {
	gate := NewStaticGate(true)
	c, _, fake := newTestCoordinator(t, gate)

	ctx := context.Background()
	startAll(ctx, c)
	defer stopAll(c)

	c.StopAutoSync(JournalFamily())
	assert.Equal(t, c.Running(JournalFamily()), false, "the stopped family should not be running")
	assert.Equal(t, c.Running(JourneyFamily()), true, "other families should keep running")

	schedulers := manualSchedulers(c)
	schedulers[FamilyJourney].Fire()
	assert.True(t, fake.callCount() > 0, "a still-running family should sync")
}

func TestStartAutoSyncRestarts(t *testing.T) {
	gate := NewStaticGate(true)
	c, _, fake := newTestCoordinator(t, gate)

	ctx := context.Background()
	c.StartAutoSync(ctx, JournalFamily())
	prior := manualSchedulers(c)

	c.StartAutoSync(ctx, JournalFamily())
	defer stopAll(c)

	assert.Equal(t, c.Running(JournalFamily()), true, "auto sync should still be running")

	for _, s := range prior {
		s.Fire()
	}
	assert.Equal(t, fake.callCount(), 0, "a replaced scheduler must not sync")

	current := manualSchedulers(c)
	current[FamilyJournal].Fire()
	assert.True(t, fake.callCount() > 0, "a fresh scheduler should sync")
}

func TestStartAutoSyncWhenGated(t *testing.T) {
	gate := NewStaticGate(false)
	c, _, _ := newTestCoordinator(t, gate)

	c.StartAutoSync(context.Background(), JournalFamily())
	assert.Equal(t, c.Running(JournalFamily()), false, "auto sync must not start without entitlement")
}

func TestEntitlementChanged(t *testing.T) {
	gate := NewStaticGate(true)
	c, _, _ := newTestCoordinator(t, gate)

	ctx := context.Background()

	c.EntitlementChanged(ctx, true)
	for _, fam := range Families() {
		assert.Equal(t, c.Running(fam), true, "granting the entitlement should start auto sync")
	}

	gate.SetAllowed(false)
	c.EntitlementChanged(ctx, false)
	for _, fam := range Families() {
		assert.Equal(t, c.Running(fam), false, "revoking the entitlement should stop auto sync")
	}
}

func TestStatusAfterSync(t *testing.T) {
	gate := NewStaticGate(true)
	c, db, _ := newTestCoordinator(t, gate)

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	entry := record.NewJournalEntry(now, record.MoodGood, "", now)
	assert.NoError(t, store.InsertJournalEntry(db, entry), "inserting entry")

	ran := c.SyncNow(context.Background(), JournalFamily())
	assert.Equal(t, ran, true, "the cycle should have run")

	status, err := c.Status()
	assert.NoError(t, err, "getting status")
	assert.Equal(t, len(status), len(Families()), "status count mismatch")

	journal := status[0]
	assert.Equal(t, journal.Family, FamilyJournal, "family mismatch")
	assert.True(t, journal.LastSyncedAt != nil, "last synced at should be set")
	assert.True(t, journal.LastError == nil, "last error should be nil")

	journey := status[1]
	assert.True(t, journey.LastSyncedAt == nil, "an unsynced family should have no last synced at")
}

func TestRefreshNow(t *testing.T) {
	gate := NewStaticGate(true)
	c, db, _ := newTestCoordinator(t, gate)

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	gone := record.NewJournalEntry(now, record.MoodGood, "removed on another device", now)
	gone.MarkSynced(now)
	assert.NoError(t, store.InsertJournalEntry(db, gone), "inserting entry")

	ran := c.RefreshNow(context.Background(), JournalFamily())
	assert.Equal(t, ran, true, "the refresh should have run")

	_, found, err := store.GetJournalEntry(db, gone.ID)
	assert.NoError(t, err, "getting entry")
	assert.True(t, !found, "the refresh should expunge the remotely absent entry")
}
