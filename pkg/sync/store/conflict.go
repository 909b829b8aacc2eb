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
	"time"

	"github.com/pkg/errors"
)

// Conflict is one entry in the conflict log: a record whose local edits were
// overwritten by a newer remote copy during a pull. The log is diagnostic
// only; it plays no part in conflict resolution.
type Conflict struct {
	ID         int64
	Family     string
	Table      string
	RecordID   string
	Diff       string
	RecordedAt time.Time
}

// InsertConflict appends an entry to the conflict log
func InsertConflict(q Queryer, c Conflict) error {
	_, err := q.Exec(`INSERT INTO conflict_log (family, table_name, record_id, diff, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.Family, c.Table, c.RecordID, c.Diff, encodeTime(c.RecordedAt))
	if err != nil {
		return errors.Wrapf(err, "inserting conflict log entry for %s", c.RecordID)
	}

	return nil
}

// ListConflicts returns the conflict log, most recent first
func ListConflicts(q Queryer) ([]Conflict, error) {
	rows, err := q.Query(`SELECT id, family, table_name, record_id, diff, recorded_at
		FROM conflict_log ORDER BY recorded_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying conflict log")
	}
	defer rows.Close()

	var ret []Conflict
	for rows.Next() {
		var c Conflict
		var recordedAt int64

		if err := rows.Scan(&c.ID, &c.Family, &c.Table, &c.RecordID, &c.Diff, &recordedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a conflict log entry")
		}

		c.RecordedAt = decodeTime(recordedAt)
		ret = append(ret, c)
	}

	return ret, rows.Err()
}
