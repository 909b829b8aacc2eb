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
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/stridewell/stridewell/pkg/sync/record"
)

// InsertJourney inserts a new journey
func InsertJourney(q Queryer, j record.Journey) error {
	_, err := q.Exec(`INSERT INTO journeys
		(id, journey_type, started_at, completed, current, updated_at, is_deleted, is_synced, needs_sync, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, string(j.Type), encodeTime(j.StartedAt), j.Completed, j.Current, encodeTime(j.UpdatedAt),
		j.Deleted, j.Synced, j.Dirty, encodeNullTime(j.LastSyncedAt))
	if err != nil {
		return errors.Wrapf(err, "inserting journey %s", j.ID)
	}

	return nil
}

// UpdateJourney overwrites all fields of the journey with the given id
func UpdateJourney(q Queryer, j record.Journey) error {
	_, err := q.Exec(`UPDATE journeys
		SET journey_type = ?, started_at = ?, completed = ?, current = ?, updated_at = ?, is_deleted = ?, is_synced = ?, needs_sync = ?, last_synced_at = ?
		WHERE id = ?`,
		string(j.Type), encodeTime(j.StartedAt), j.Completed, j.Current, encodeTime(j.UpdatedAt),
		j.Deleted, j.Synced, j.Dirty, encodeNullTime(j.LastSyncedAt), j.ID)
	if err != nil {
		return errors.Wrapf(err, "updating journey %s", j.ID)
	}

	return nil
}

const journeyColumns = "id, journey_type, started_at, completed, current, updated_at, is_deleted, is_synced, needs_sync, last_synced_at"

func scanJourney(scan func(dest ...interface{}) error) (record.Journey, error) {
	var j record.Journey
	var typ string
	var startedAt, updatedAt int64
	var lastSyncedAt sql.NullInt64

	err := scan(&j.ID, &typ, &startedAt, &j.Completed, &j.Current, &updatedAt, &j.Deleted, &j.Synced, &j.Dirty, &lastSyncedAt)
	if err != nil {
		return j, err
	}

	j.Type = record.JourneyType(typ)
	j.StartedAt = decodeTime(startedAt)
	scanMeta(&j.SyncMeta, updatedAt, lastSyncedAt)

	return j, nil
}

// GetJourney retrieves the journey with the given id
func GetJourney(q Queryer, id string) (record.Journey, bool, error) {
	row := q.QueryRow("SELECT "+journeyColumns+" FROM journeys WHERE id = ?", id)

	j, err := scanJourney(row.Scan)
	if err == sql.ErrNoRows {
		return j, false, nil
	}
	if err != nil {
		return j, false, errors.Wrapf(err, "getting journey %s", id)
	}

	return j, true, nil
}

func queryJourneys(q Queryer, query string, args ...interface{}) ([]record.Journey, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying journeys")
	}
	defer rows.Close()

	var ret []record.Journey
	for rows.Next() {
		j, err := scanJourney(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a journey")
		}

		ret = append(ret, j)
	}

	return ret, rows.Err()
}

// DirtyJourneys returns all journeys with unconfirmed local mutations
func DirtyJourneys(q Queryer) ([]record.Journey, error) {
	return queryJourneys(q, "SELECT "+journeyColumns+" FROM journeys WHERE needs_sync")
}

// AllJourneys returns every journey, including soft-deleted ones
func AllJourneys(q Queryer) ([]record.Journey, error) {
	return queryJourneys(q, "SELECT "+journeyColumns+" FROM journeys")
}

// The three point collections of a journey tracking record are persisted as
// single JSON columns. A journey can carry thousands of GPS samples; storing
// them row-per-point would turn every sync into that many round trips.

func encodePoints(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshalling points")
	}

	return string(b), nil
}

func decodePoints(s string, dest interface{}) error {
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return errors.Wrap(err, "unmarshalling points")
	}

	return nil
}

// A tracking record that is still being recorded has no end time yet.
func encodeEndTime(t record.JourneyTracking) interface{} {
	if t.EndTime.IsZero() {
		return nil
	}

	return encodeTime(t.EndTime)
}

// InsertJourneyTracking inserts new tracking data. Its id equals the id of
// the owning journey.
func InsertJourneyTracking(q Queryer, t record.JourneyTracking) error {
	paths, err := encodePoints(t.PathPoints)
	if err != nil {
		return err
	}
	feelings, err := encodePoints(t.FeelingCheckpoints)
	if err != nil {
		return err
	}
	hesitations, err := encodePoints(t.HesitationPoints)
	if err != nil {
		return err
	}

	_, err = q.Exec(`INSERT INTO journey_tracking
		(id, start_time, end_time, distance, duration, path_points, feeling_checkpoints, hesitation_points, updated_at, is_deleted, is_synced, needs_sync, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, encodeTime(t.StartTime), encodeEndTime(t), t.Distance, t.Duration,
		paths, feelings, hesitations, encodeTime(t.UpdatedAt),
		t.Deleted, t.Synced, t.Dirty, encodeNullTime(t.LastSyncedAt))
	if err != nil {
		return errors.Wrapf(err, "inserting journey tracking %s", t.ID)
	}

	return nil
}

// UpdateJourneyTracking overwrites all fields of the tracking record,
// replacing the point collections wholesale
func UpdateJourneyTracking(q Queryer, t record.JourneyTracking) error {
	paths, err := encodePoints(t.PathPoints)
	if err != nil {
		return err
	}
	feelings, err := encodePoints(t.FeelingCheckpoints)
	if err != nil {
		return err
	}
	hesitations, err := encodePoints(t.HesitationPoints)
	if err != nil {
		return err
	}

	_, err = q.Exec(`UPDATE journey_tracking
		SET start_time = ?, end_time = ?, distance = ?, duration = ?, path_points = ?, feeling_checkpoints = ?, hesitation_points = ?, updated_at = ?, is_deleted = ?, is_synced = ?, needs_sync = ?, last_synced_at = ?
		WHERE id = ?`,
		encodeTime(t.StartTime), encodeEndTime(t), t.Distance, t.Duration,
		paths, feelings, hesitations, encodeTime(t.UpdatedAt),
		t.Deleted, t.Synced, t.Dirty, encodeNullTime(t.LastSyncedAt), t.ID)
	if err != nil {
		return errors.Wrapf(err, "updating journey tracking %s", t.ID)
	}

	return nil
}

const journeyTrackingColumns = "id, start_time, end_time, distance, duration, path_points, feeling_checkpoints, hesitation_points, updated_at, is_deleted, is_synced, needs_sync, last_synced_at"

func scanJourneyTracking(scan func(dest ...interface{}) error) (record.JourneyTracking, error) {
	var t record.JourneyTracking
	var startTime, updatedAt int64
	var endTime sql.NullInt64
	var paths, feelings, hesitations string
	var lastSyncedAt sql.NullInt64

	err := scan(&t.ID, &startTime, &endTime, &t.Distance, &t.Duration,
		&paths, &feelings, &hesitations, &updatedAt, &t.Deleted, &t.Synced, &t.Dirty, &lastSyncedAt)
	if err != nil {
		return t, err
	}

	t.StartTime = decodeTime(startTime)
	if endTime.Valid {
		t.EndTime = decodeTime(endTime.Int64)
	}
	scanMeta(&t.SyncMeta, updatedAt, lastSyncedAt)

	if err := decodePoints(paths, &t.PathPoints); err != nil {
		return t, errors.Wrapf(err, "decoding path points of %s", t.ID)
	}
	if err := decodePoints(feelings, &t.FeelingCheckpoints); err != nil {
		return t, errors.Wrapf(err, "decoding feeling checkpoints of %s", t.ID)
	}
	if err := decodePoints(hesitations, &t.HesitationPoints); err != nil {
		return t, errors.Wrapf(err, "decoding hesitation points of %s", t.ID)
	}

	return t, nil
}

// GetJourneyTracking retrieves the tracking data for the journey with the
// given id
func GetJourneyTracking(q Queryer, id string) (record.JourneyTracking, bool, error) {
	row := q.QueryRow("SELECT "+journeyTrackingColumns+" FROM journey_tracking WHERE id = ?", id)

	t, err := scanJourneyTracking(row.Scan)
	if err == sql.ErrNoRows {
		return t, false, nil
	}
	if err != nil {
		return t, false, errors.Wrapf(err, "getting journey tracking %s", id)
	}

	return t, true, nil
}

func queryJourneyTracking(q Queryer, query string, args ...interface{}) ([]record.JourneyTracking, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying journey tracking")
	}
	defer rows.Close()

	var ret []record.JourneyTracking
	for rows.Next() {
		t, err := scanJourneyTracking(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "scanning journey tracking")
		}

		ret = append(ret, t)
	}

	return ret, rows.Err()
}

// DirtyJourneyTracking returns all tracking records with unconfirmed local
// mutations
func DirtyJourneyTracking(q Queryer) ([]record.JourneyTracking, error) {
	return queryJourneyTracking(q, "SELECT "+journeyTrackingColumns+" FROM journey_tracking WHERE needs_sync")
}

// AllJourneyTracking returns every tracking record
func AllJourneyTracking(q Queryer) ([]record.JourneyTracking, error) {
	return queryJourneyTracking(q, "SELECT "+journeyTrackingColumns+" FROM journey_tracking")
}
