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

	"github.com/pkg/errors"
	"github.com/stridewell/stridewell/pkg/sync/record"
)

// InsertJournalEntry inserts a new journal entry
func InsertJournalEntry(q Queryer, e record.JournalEntry) error {
	_, err := q.Exec(`INSERT INTO journal_entries
		(id, mood, body, entry_date, updated_at, is_deleted, is_synced, needs_sync, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Mood), e.Body, encodeTime(e.EntryDate), encodeTime(e.UpdatedAt),
		e.Deleted, e.Synced, e.Dirty, encodeNullTime(e.LastSyncedAt))
	if err != nil {
		return errors.Wrapf(err, "inserting journal entry %s", e.ID)
	}

	return nil
}

// UpdateJournalEntry overwrites all fields of the journal entry with the
// given id, including its sync flags
func UpdateJournalEntry(q Queryer, e record.JournalEntry) error {
	_, err := q.Exec(`UPDATE journal_entries
		SET mood = ?, body = ?, entry_date = ?, updated_at = ?, is_deleted = ?, is_synced = ?, needs_sync = ?, last_synced_at = ?
		WHERE id = ?`,
		string(e.Mood), e.Body, encodeTime(e.EntryDate), encodeTime(e.UpdatedAt),
		e.Deleted, e.Synced, e.Dirty, encodeNullTime(e.LastSyncedAt), e.ID)
	if err != nil {
		return errors.Wrapf(err, "updating journal entry %s", e.ID)
	}

	return nil
}

func scanJournalEntry(scan func(dest ...interface{}) error) (record.JournalEntry, error) {
	var e record.JournalEntry
	var mood string
	var entryDate, updatedAt int64
	var lastSyncedAt sql.NullInt64

	err := scan(&e.ID, &mood, &e.Body, &entryDate, &updatedAt, &e.Deleted, &e.Synced, &e.Dirty, &lastSyncedAt)
	if err != nil {
		return e, err
	}

	e.Mood = record.Mood(mood)
	e.EntryDate = decodeTime(entryDate)
	scanMeta(&e.SyncMeta, updatedAt, lastSyncedAt)

	return e, nil
}

const journalEntryColumns = "id, mood, body, entry_date, updated_at, is_deleted, is_synced, needs_sync, last_synced_at"

// GetJournalEntry retrieves the journal entry with the given id. The second
// return value reports whether it was found.
func GetJournalEntry(q Queryer, id string) (record.JournalEntry, bool, error) {
	row := q.QueryRow("SELECT "+journalEntryColumns+" FROM journal_entries WHERE id = ?", id)

	e, err := scanJournalEntry(row.Scan)
	if err == sql.ErrNoRows {
		return e, false, nil
	}
	if err != nil {
		return e, false, errors.Wrapf(err, "getting journal entry %s", id)
	}

	return e, true, nil
}

func queryJournalEntries(q Queryer, query string, args ...interface{}) ([]record.JournalEntry, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying journal entries")
	}
	defer rows.Close()

	var ret []record.JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a journal entry")
		}

		ret = append(ret, e)
	}

	return ret, rows.Err()
}

// DirtyJournalEntries returns all journal entries with unconfirmed local
// mutations, the work list for the push phase
func DirtyJournalEntries(q Queryer) ([]record.JournalEntry, error) {
	return queryJournalEntries(q, "SELECT "+journalEntryColumns+" FROM journal_entries WHERE needs_sync")
}

// AllJournalEntries returns every journal entry, including soft-deleted ones
func AllJournalEntries(q Queryer) ([]record.JournalEntry, error) {
	return queryJournalEntries(q, "SELECT "+journalEntryColumns+" FROM journal_entries")
}
