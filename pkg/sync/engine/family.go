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

// Package engine implements the push-then-pull sync cycle that reconciles the
// local record store with the remote table service, one entity family at a
// time.
package engine

import (
	"github.com/stridewell/stridewell/pkg/sync/record"
	"github.com/stridewell/stridewell/pkg/sync/remote"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

// Names of the entity families
const (
	FamilyJournal  = "journal"
	FamilyJourney  = "journey"
	FamilyExposure = "exposure"
)

// Step binds one table to the operations the engine needs to sync it. The
// engine itself carries no per-entity knowledge; everything entity-specific
// lives in the step configuration.
type Step struct {
	// Table is the name of the table, identical locally and remotely
	Table string

	// LoadDirty returns the records with unconfirmed local mutations
	LoadDirty func(q store.Queryer) ([]record.Record, error)
	// ListAll returns every local record of the table
	ListAll func(q store.Queryer) ([]record.Record, error)
	// Get retrieves one record by primary key
	Get func(q store.Queryer, id string) (record.Record, bool, error)
	// Insert writes a record that does not exist locally
	Insert func(q store.Queryer, r record.Record) error
	// Overwrite replaces every field of an existing record, flags included
	Overwrite func(q store.Queryer, r record.Record) error

	// Encode serializes a record into its remote row shape
	Encode func(r record.Record, userID string) remote.Row
	// Decode parses a remote row. An error marks the row malformed; the
	// engine skips it rather than aborting the pull.
	Decode func(row remote.Row) (record.Record, error)

	// ParentSynced reports whether the record's parent has made a confirmed
	// remote round trip. Nil when the step has no parent dependency. A record
	// whose parent is not yet synced is deferred to a later cycle, keeping
	// referential integrity on the remote side.
	ParentSynced func(q store.Queryer, r record.Record) (bool, error)

	// ConflictText extracts the user-authored text of the record for the
	// conflict log. Nil for records with no free text worth diffing.
	ConflictText func(r record.Record) string
}

// Family is an independently synced group of tables. Steps are ordered
// parent-first: the push phase walks them forward so parents reach the remote
// store before their dependents, and the pull phase walks them forward so
// parents exist locally before dependent rows arrive.
type Family struct {
	Name  string
	Steps []Step
}

// Families returns every entity family, in a stable order
func Families() []Family {
	return []Family{
		JournalFamily(),
		JourneyFamily(),
		ExposureFamily(),
	}
}

func metaRow(m *record.SyncMeta, userID string) remote.Row {
	return remote.Row{
		"id":         m.ID,
		"user_id":    userID,
		"updated_at": remote.FormatTime(m.UpdatedAt),
		"is_deleted": m.Deleted,
	}
}

func decodeMeta(row remote.Row) (record.SyncMeta, error) {
	var m record.SyncMeta
	var err error

	if m.ID, err = row.String("id"); err != nil {
		return m, err
	}
	if m.UpdatedAt, err = row.Time("updated_at"); err != nil {
		return m, err
	}
	if m.Deleted, err = row.Bool("is_deleted"); err != nil {
		return m, err
	}

	return m, nil
}
