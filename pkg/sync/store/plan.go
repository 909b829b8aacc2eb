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

// InsertExposurePlan inserts a new exposure plan
func InsertExposurePlan(q Queryer, p record.ExposurePlan) error {
	_, err := q.Exec(`INSERT INTO exposure_plans
		(id, name, updated_at, is_deleted, is_synced, needs_sync, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, encodeTime(p.UpdatedAt), p.Deleted, p.Synced, p.Dirty, encodeNullTime(p.LastSyncedAt))
	if err != nil {
		return errors.Wrapf(err, "inserting exposure plan %s", p.ID)
	}

	return nil
}

// UpdateExposurePlan overwrites all fields of the plan with the given id
func UpdateExposurePlan(q Queryer, p record.ExposurePlan) error {
	_, err := q.Exec(`UPDATE exposure_plans
		SET name = ?, updated_at = ?, is_deleted = ?, is_synced = ?, needs_sync = ?, last_synced_at = ?
		WHERE id = ?`,
		p.Name, encodeTime(p.UpdatedAt), p.Deleted, p.Synced, p.Dirty, encodeNullTime(p.LastSyncedAt), p.ID)
	if err != nil {
		return errors.Wrapf(err, "updating exposure plan %s", p.ID)
	}

	return nil
}

const exposurePlanColumns = "id, name, updated_at, is_deleted, is_synced, needs_sync, last_synced_at"

func scanExposurePlan(scan func(dest ...interface{}) error) (record.ExposurePlan, error) {
	var p record.ExposurePlan
	var updatedAt int64
	var lastSyncedAt sql.NullInt64

	err := scan(&p.ID, &p.Name, &updatedAt, &p.Deleted, &p.Synced, &p.Dirty, &lastSyncedAt)
	if err != nil {
		return p, err
	}

	scanMeta(&p.SyncMeta, updatedAt, lastSyncedAt)

	return p, nil
}

// GetExposurePlan retrieves the exposure plan with the given id
func GetExposurePlan(q Queryer, id string) (record.ExposurePlan, bool, error) {
	row := q.QueryRow("SELECT "+exposurePlanColumns+" FROM exposure_plans WHERE id = ?", id)

	p, err := scanExposurePlan(row.Scan)
	if err == sql.ErrNoRows {
		return p, false, nil
	}
	if err != nil {
		return p, false, errors.Wrapf(err, "getting exposure plan %s", id)
	}

	return p, true, nil
}

func queryExposurePlans(q Queryer, query string, args ...interface{}) ([]record.ExposurePlan, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying exposure plans")
	}
	defer rows.Close()

	var ret []record.ExposurePlan
	for rows.Next() {
		p, err := scanExposurePlan(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "scanning an exposure plan")
		}

		ret = append(ret, p)
	}

	return ret, rows.Err()
}

// DirtyExposurePlans returns all plans with unconfirmed local mutations
func DirtyExposurePlans(q Queryer) ([]record.ExposurePlan, error) {
	return queryExposurePlans(q, "SELECT "+exposurePlanColumns+" FROM exposure_plans WHERE needs_sync")
}

// AllExposurePlans returns every plan, including soft-deleted ones
func AllExposurePlans(q Queryer) ([]record.ExposurePlan, error) {
	return queryExposurePlans(q, "SELECT "+exposurePlanColumns+" FROM exposure_plans")
}

// InsertExposureTarget inserts a new exposure target. The referenced plan
// must exist locally; the reference cascades on delete.
func InsertExposureTarget(q Queryer, t record.ExposureTarget) error {
	_, err := q.Exec(`INSERT INTO exposure_targets
		(id, plan_id, name, lat, lon, wait_time, position, updated_at, is_deleted, is_synced, needs_sync, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PlanID, t.Name, t.Lat, t.Lon, t.WaitTime, t.Position,
		encodeTime(t.UpdatedAt), t.Deleted, t.Synced, t.Dirty, encodeNullTime(t.LastSyncedAt))
	if err != nil {
		return errors.Wrapf(err, "inserting exposure target %s", t.ID)
	}

	return nil
}

// UpdateExposureTarget overwrites all fields of the target with the given id
func UpdateExposureTarget(q Queryer, t record.ExposureTarget) error {
	_, err := q.Exec(`UPDATE exposure_targets
		SET plan_id = ?, name = ?, lat = ?, lon = ?, wait_time = ?, position = ?, updated_at = ?, is_deleted = ?, is_synced = ?, needs_sync = ?, last_synced_at = ?
		WHERE id = ?`,
		t.PlanID, t.Name, t.Lat, t.Lon, t.WaitTime, t.Position,
		encodeTime(t.UpdatedAt), t.Deleted, t.Synced, t.Dirty, encodeNullTime(t.LastSyncedAt), t.ID)
	if err != nil {
		return errors.Wrapf(err, "updating exposure target %s", t.ID)
	}

	return nil
}

const exposureTargetColumns = "id, plan_id, name, lat, lon, wait_time, position, updated_at, is_deleted, is_synced, needs_sync, last_synced_at"

func scanExposureTarget(scan func(dest ...interface{}) error) (record.ExposureTarget, error) {
	var t record.ExposureTarget
	var updatedAt int64
	var lastSyncedAt sql.NullInt64

	err := scan(&t.ID, &t.PlanID, &t.Name, &t.Lat, &t.Lon, &t.WaitTime, &t.Position,
		&updatedAt, &t.Deleted, &t.Synced, &t.Dirty, &lastSyncedAt)
	if err != nil {
		return t, err
	}

	scanMeta(&t.SyncMeta, updatedAt, lastSyncedAt)

	return t, nil
}

// GetExposureTarget retrieves the exposure target with the given id
func GetExposureTarget(q Queryer, id string) (record.ExposureTarget, bool, error) {
	row := q.QueryRow("SELECT "+exposureTargetColumns+" FROM exposure_targets WHERE id = ?", id)

	t, err := scanExposureTarget(row.Scan)
	if err == sql.ErrNoRows {
		return t, false, nil
	}
	if err != nil {
		return t, false, errors.Wrapf(err, "getting exposure target %s", id)
	}

	return t, true, nil
}

func queryExposureTargets(q Queryer, query string, args ...interface{}) ([]record.ExposureTarget, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying exposure targets")
	}
	defer rows.Close()

	var ret []record.ExposureTarget
	for rows.Next() {
		t, err := scanExposureTarget(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "scanning an exposure target")
		}

		ret = append(ret, t)
	}

	return ret, rows.Err()
}

// DirtyExposureTargets returns all targets with unconfirmed local mutations
func DirtyExposureTargets(q Queryer) ([]record.ExposureTarget, error) {
	return queryExposureTargets(q, "SELECT "+exposureTargetColumns+" FROM exposure_targets WHERE needs_sync")
}

// AllExposureTargets returns every target, including soft-deleted ones
func AllExposureTargets(q Queryer) ([]record.ExposureTarget, error) {
	return queryExposureTargets(q, "SELECT "+exposureTargetColumns+" FROM exposure_targets")
}

// TargetsForPlan returns the live targets of a plan in their user-defined
// order
func TargetsForPlan(q Queryer, planID string) ([]record.ExposureTarget, error) {
	return queryExposureTargets(q,
		"SELECT "+exposureTargetColumns+" FROM exposure_targets WHERE plan_id = ? AND NOT is_deleted ORDER BY position", planID)
}
