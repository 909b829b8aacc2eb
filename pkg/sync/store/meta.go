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

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/stridewell/stridewell/pkg/sync/record"
)

// Table names of the syncable entity families
const (
	TableJournalEntries  = "journal_entries"
	TableJourneys        = "journeys"
	TableJourneyTracking = "journey_tracking"
	TableExposurePlans   = "exposure_plans"
	TableExposureTargets = "exposure_targets"
)

// Timestamps are persisted as unix nanoseconds so that updated-at comparisons
// made for conflict resolution never lose precision to a serialization format.

func encodeTime(t time.Time) int64 {
	return t.UnixNano()
}

func decodeTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func encodeNullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func decodeNullTime(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}

	t := decodeTime(n.Int64)
	return &t
}

// MarkSynced flips the record in the given table to the synced state:
// is_synced true, needs_sync false, last_synced_at set. Only the sync engine
// calls this; it is the sole path that clears the dirty flag.
func MarkSynced(q Queryer, table, id string, at time.Time) error {
	_, err := q.Exec(fmt.Sprintf("UPDATE %s SET is_synced = ?, needs_sync = ?, last_synced_at = ? WHERE id = ?", table),
		true, false, encodeTime(at), id)
	if err != nil {
		return errors.Wrapf(err, "marking %s record %s synced", table, id)
	}

	return nil
}

// Expunge physically removes the record from the given table. Used only by
// the refresh pass for records the remote store no longer knows about.
func Expunge(q Queryer, table, id string) error {
	_, err := q.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return errors.Wrapf(err, "expunging %s record %s", table, id)
	}

	return nil
}

func scanMeta(m *record.SyncMeta, updatedAt int64, lastSyncedAt sql.NullInt64) {
	m.UpdatedAt = decodeTime(updatedAt)
	m.LastSyncedAt = decodeNullTime(lastSyncedAt)
}
