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
	"github.com/pkg/errors"
)

// Keys in the system table
const (
	// SystemSchema is the key for the local schema version
	SystemSchema = "schema"
	// SystemLastSyncedAtPrefix prefixes per-family keys holding the unix
	// timestamp of the last successful sync cycle
	SystemLastSyncedAtPrefix = "last_synced_at_"
)

// GetSystem retrieves the system value for the given key into dest, which
// must be a pointer to a string, an int or an int64. It returns sql.ErrNoRows
// when the key is not present.
func GetSystem(q Queryer, key string, dest interface{}) error {
	err := q.QueryRow("SELECT value FROM system WHERE key = ?", key).Scan(dest)
	if err != nil {
		return err
	}

	return nil
}

// UpdateSystem inserts or updates the system value for the given key
func UpdateSystem(q Queryer, key string, value interface{}) error {
	var count int
	if err := q.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting system entries for key %s", key)
	}

	if count == 0 {
		if _, err := q.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, value); err != nil {
			return errors.Wrapf(err, "inserting system value for key %s", key)
		}

		return nil
	}

	if _, err := q.Exec("UPDATE system SET value = ? WHERE key = ?", value, key); err != nil {
		return errors.Wrapf(err, "updating system value for key %s", key)
	}

	return nil
}
