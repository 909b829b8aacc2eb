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
	"github.com/stridewell/stridewell/pkg/sync/record"
	"github.com/stridewell/stridewell/pkg/sync/remote"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

// JournalFamily returns the family syncing journal entries
func JournalFamily() Family {
	return Family{
		Name:  FamilyJournal,
		Steps: []Step{journalEntryStep()},
	}
}

func journalEntryRecords(entries []record.JournalEntry) []record.Record {
	ret := make([]record.Record, 0, len(entries))
	for i := range entries {
		ret = append(ret, &entries[i])
	}

	return ret
}

func journalEntryStep() Step {
	return Step{
		Table: store.TableJournalEntries,
		LoadDirty: func(q store.Queryer) ([]record.Record, error) {
			entries, err := store.DirtyJournalEntries(q)
			if err != nil {
				return nil, err
			}

			return journalEntryRecords(entries), nil
		},
		ListAll: func(q store.Queryer) ([]record.Record, error) {
			entries, err := store.AllJournalEntries(q)
			if err != nil {
				return nil, err
			}

			return journalEntryRecords(entries), nil
		},
		Get: func(q store.Queryer, id string) (record.Record, bool, error) {
			e, found, err := store.GetJournalEntry(q, id)
			return &e, found, err
		},
		Insert: func(q store.Queryer, r record.Record) error {
			return store.InsertJournalEntry(q, *r.(*record.JournalEntry))
		},
		Overwrite: func(q store.Queryer, r record.Record) error {
			return store.UpdateJournalEntry(q, *r.(*record.JournalEntry))
		},
		Encode: func(r record.Record, userID string) remote.Row {
			e := r.(*record.JournalEntry)

			row := metaRow(&e.SyncMeta, userID)
			row["mood"] = string(e.Mood)
			row["body"] = e.Body
			row["entry_date"] = remote.FormatTime(e.EntryDate)

			return row
		},
		Decode: func(row remote.Row) (record.Record, error) {
			meta, err := decodeMeta(row)
			if err != nil {
				return nil, err
			}

			mood, err := row.String("mood")
			if err != nil {
				return nil, err
			}
			if err := record.Mood(mood).Validate(); err != nil {
				return nil, err
			}

			body, err := row.NullString("body")
			if err != nil {
				return nil, err
			}

			entryDate, err := row.Time("entry_date")
			if err != nil {
				return nil, err
			}

			return &record.JournalEntry{
				SyncMeta:  meta,
				Mood:      record.Mood(mood),
				Body:      body,
				EntryDate: entryDate,
			}, nil
		},
		ConflictText: func(r record.Record) string {
			return r.(*record.JournalEntry).Body
		},
	}
}
