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

package record

import (
	"testing"
	"time"

	"github.com/stridewell/stridewell/pkg/assert"
)

func TestNewSyncMeta(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	m := NewSyncMeta(now)

	assert.NotEqual(t, m.ID, "", "id should be assigned at creation")
	assert.Equal(t, m.UpdatedAt, now, "updated at mismatch")
	assert.Equal(t, m.Dirty, true, "a new record should be dirty")
	assert.Equal(t, m.Synced, false, "a new record should not be synced")
	assert.Equal(t, m.Deleted, false, "a new record should not be deleted")
}

func TestSyncMetaTransitions(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	m := NewSyncMeta(now)

	later := now.Add(time.Minute)
	m.MarkSynced(later)

	assert.Equal(t, m.Dirty, false, "synced record should not be dirty")
	assert.Equal(t, m.Synced, true, "synced record should be synced")
	assert.Equal(t, *m.LastSyncedAt, later, "last synced at mismatch")

	evenLater := later.Add(time.Minute)
	m.Touch(evenLater)

	assert.Equal(t, m.Dirty, true, "touched record should be dirty")
	assert.Equal(t, m.Synced, false, "touched record should not be synced")
	assert.Equal(t, m.UpdatedAt, evenLater, "updated at should advance on touch")
}

func TestSoftDelete(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	m := NewSyncMeta(now)
	m.MarkSynced(now)

	m.SoftDelete(now.Add(time.Second))

	assert.Equal(t, m.Deleted, true, "record should be marked deleted")
	assert.Equal(t, m.Dirty, true, "deletion should mark the record dirty")
	assert.Equal(t, m.Synced, false, "deletion should clear the synced flag")
}

func TestMoodValidate(t *testing.T) {
	testCases := []struct {
		mood Mood
		ok   bool
	}{
		{mood: MoodAwful, ok: true},
		{mood: MoodBad, ok: true},
		{mood: MoodNeutral, ok: true},
		{mood: MoodGood, ok: true},
		{mood: MoodGreat, ok: true},
		{mood: Mood("ecstatic"), ok: false},
		{mood: Mood(""), ok: false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.mood), func(t *testing.T) {
			err := tc.mood.Validate()

			assert.Equal(t, err == nil, tc.ok, "validation result mismatch")
		})
	}
}

func TestJourneyTypeValidate(t *testing.T) {
	testCases := []struct {
		typ JourneyType
		ok  bool
	}{
		{typ: JourneyWalk, ok: true},
		{typ: JourneyDrive, ok: true},
		{typ: JourneyTransit, ok: true},
		{typ: JourneyCustom, ok: true},
		{typ: JourneyType("teleport"), ok: false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.typ), func(t *testing.T) {
			err := tc.typ.Validate()

			assert.Equal(t, err == nil, tc.ok, "validation result mismatch")
		})
	}
}

func TestNewJourneyTrackingSharesID(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	journey := NewJourney(now, JourneyWalk, now)
	tracking := NewJourneyTracking(now, journey.ID, now)

	assert.Equal(t, tracking.ID, journey.ID, "tracking should reuse the journey id")
	assert.Equal(t, tracking.Dirty, true, "new tracking should be dirty")
}
