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
)

// migration is a single, numbered schema change. Migrations run in order
// inside one transaction each; the current schema version lives in the
// system table under SystemSchema.
type migration struct {
	name string
	run  func(tx *sql.Tx) error
}

var migrationSequence = []migration{
	{
		name: "create-syncable-tables",
		run: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
		CREATE TABLE journal_entries (
			id text PRIMARY KEY,
			mood text NOT NULL,
			body text NOT NULL,
			entry_date integer NOT NULL,
			updated_at integer NOT NULL,
			is_deleted bool NOT NULL DEFAULT false,
			is_synced bool NOT NULL DEFAULT false,
			needs_sync bool NOT NULL DEFAULT true,
			last_synced_at integer
		);

		CREATE TABLE journeys (
			id text PRIMARY KEY,
			journey_type text NOT NULL,
			started_at integer NOT NULL,
			completed bool NOT NULL DEFAULT false,
			current bool NOT NULL DEFAULT false,
			updated_at integer NOT NULL,
			is_deleted bool NOT NULL DEFAULT false,
			is_synced bool NOT NULL DEFAULT false,
			needs_sync bool NOT NULL DEFAULT true,
			last_synced_at integer
		);

		CREATE TABLE journey_tracking (
			id text PRIMARY KEY,
			start_time integer NOT NULL,
			end_time integer,
			distance real NOT NULL DEFAULT 0,
			duration real NOT NULL DEFAULT 0,
			path_points text NOT NULL DEFAULT '[]',
			feeling_checkpoints text NOT NULL DEFAULT '[]',
			hesitation_points text NOT NULL DEFAULT '[]',
			updated_at integer NOT NULL,
			is_deleted bool NOT NULL DEFAULT false,
			is_synced bool NOT NULL DEFAULT false,
			needs_sync bool NOT NULL DEFAULT true,
			last_synced_at integer
		);

		CREATE TABLE exposure_plans (
			id text PRIMARY KEY,
			name text NOT NULL,
			updated_at integer NOT NULL,
			is_deleted bool NOT NULL DEFAULT false,
			is_synced bool NOT NULL DEFAULT false,
			needs_sync bool NOT NULL DEFAULT true,
			last_synced_at integer
		);

		CREATE TABLE exposure_targets (
			id text PRIMARY KEY,
			plan_id text NOT NULL REFERENCES exposure_plans(id) ON DELETE CASCADE,
			name text NOT NULL,
			lat real NOT NULL,
			lon real NOT NULL,
			wait_time integer NOT NULL DEFAULT 0,
			position integer NOT NULL DEFAULT 0,
			updated_at integer NOT NULL,
			is_deleted bool NOT NULL DEFAULT false,
			is_synced bool NOT NULL DEFAULT false,
			needs_sync bool NOT NULL DEFAULT true,
			last_synced_at integer
		);

		CREATE INDEX idx_journal_entries_needs_sync ON journal_entries(needs_sync);
		CREATE INDEX idx_journeys_needs_sync ON journeys(needs_sync);
		CREATE INDEX idx_journey_tracking_needs_sync ON journey_tracking(needs_sync);
		CREATE INDEX idx_exposure_plans_needs_sync ON exposure_plans(needs_sync);
		CREATE INDEX idx_exposure_targets_needs_sync ON exposure_targets(needs_sync);
		CREATE INDEX idx_exposure_targets_plan_id ON exposure_targets(plan_id);
		`)
			return err
		},
	},
	{
		name: "create-conflict-log",
		run: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
		CREATE TABLE conflict_log (
			id integer PRIMARY KEY AUTOINCREMENT,
			family text NOT NULL,
			table_name text NOT NULL,
			record_id text NOT NULL,
			diff text NOT NULL,
			recorded_at integer NOT NULL
		);`)
			return err
		},
	},
}

func getSchemaVersion(q Queryer) (int, error) {
	var ret int
	err := GetSystem(q, SystemSchema, &ret)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "querying schema version")
	}

	return ret, nil
}

// InitSchema brings the record store schema up to date. It creates the system
// table if missing and applies any pending migrations, recording the schema
// version as it goes. It is safe to call on every startup.
func (d *DB) InitSchema() error {
	_, err := d.Exec(`CREATE TABLE IF NOT EXISTS system (
		key text NOT NULL UNIQUE,
		value text NOT NULL
	);`)
	if err != nil {
		return errors.Wrap(err, "creating system table")
	}

	version, err := getSchemaVersion(d)
	if err != nil {
		return errors.Wrap(err, "getting schema version")
	}

	for i := version; i < len(migrationSequence); i++ {
		m := migrationSequence[i]

		err := d.WriteTx(func(tx *sql.Tx) error {
			if err := m.run(tx); err != nil {
				return errors.Wrapf(err, "running migration %s", m.name)
			}
			if err := UpdateSystem(tx, SystemSchema, i+1); err != nil {
				return errors.Wrap(err, "updating schema version")
			}

			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "applying migration #%d", i+1)
		}
	}

	return nil
}
