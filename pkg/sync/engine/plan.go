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

// ExposureFamily returns the family syncing exposure plans and their targets.
// Plans come first so that a target never reaches the remote store before the
// plan it references.
func ExposureFamily() Family {
	return Family{
		Name:  FamilyExposure,
		Steps: []Step{exposurePlanStep(), exposureTargetStep()},
	}
}

func exposurePlanRecords(plans []record.ExposurePlan) []record.Record {
	ret := make([]record.Record, 0, len(plans))
	for i := range plans {
		ret = append(ret, &plans[i])
	}

	return ret
}

func exposurePlanStep() Step {
	return Step{
		Table: store.TableExposurePlans,
		LoadDirty: func(q store.Queryer) ([]record.Record, error) {
			plans, err := store.DirtyExposurePlans(q)
			if err != nil {
				return nil, err
			}

			return exposurePlanRecords(plans), nil
		},
		ListAll: func(q store.Queryer) ([]record.Record, error) {
			plans, err := store.AllExposurePlans(q)
			if err != nil {
				return nil, err
			}

			return exposurePlanRecords(plans), nil
		},
		Get: func(q store.Queryer, id string) (record.Record, bool, error) {
			p, found, err := store.GetExposurePlan(q, id)
			return &p, found, err
		},
		Insert: func(q store.Queryer, r record.Record) error {
			return store.InsertExposurePlan(q, *r.(*record.ExposurePlan))
		},
		Overwrite: func(q store.Queryer, r record.Record) error {
			return store.UpdateExposurePlan(q, *r.(*record.ExposurePlan))
		},
		Encode: func(r record.Record, userID string) remote.Row {
			p := r.(*record.ExposurePlan)

			row := metaRow(&p.SyncMeta, userID)
			row["name"] = p.Name

			return row
		},
		Decode: func(row remote.Row) (record.Record, error) {
			meta, err := decodeMeta(row)
			if err != nil {
				return nil, err
			}

			name, err := row.NullString("name")
			if err != nil {
				return nil, err
			}

			return &record.ExposurePlan{
				SyncMeta: meta,
				Name:     name,
			}, nil
		},
		ConflictText: func(r record.Record) string {
			return r.(*record.ExposurePlan).Name
		},
	}
}

func exposureTargetRecords(targets []record.ExposureTarget) []record.Record {
	ret := make([]record.Record, 0, len(targets))
	for i := range targets {
		ret = append(ret, &targets[i])
	}

	return ret
}

func exposureTargetStep() Step {
	return Step{
		Table: store.TableExposureTargets,
		LoadDirty: func(q store.Queryer) ([]record.Record, error) {
			targets, err := store.DirtyExposureTargets(q)
			if err != nil {
				return nil, err
			}

			return exposureTargetRecords(targets), nil
		},
		ListAll: func(q store.Queryer) ([]record.Record, error) {
			targets, err := store.AllExposureTargets(q)
			if err != nil {
				return nil, err
			}

			return exposureTargetRecords(targets), nil
		},
		Get: func(q store.Queryer, id string) (record.Record, bool, error) {
			t, found, err := store.GetExposureTarget(q, id)
			return &t, found, err
		},
		Insert: func(q store.Queryer, r record.Record) error {
			return store.InsertExposureTarget(q, *r.(*record.ExposureTarget))
		},
		Overwrite: func(q store.Queryer, r record.Record) error {
			return store.UpdateExposureTarget(q, *r.(*record.ExposureTarget))
		},
		Encode: func(r record.Record, userID string) remote.Row {
			t := r.(*record.ExposureTarget)

			row := metaRow(&t.SyncMeta, userID)
			row["plan_id"] = t.PlanID
			row["name"] = t.Name
			row["lat"] = t.Lat
			row["lon"] = t.Lon
			row["wait_time"] = t.WaitTime
			row["position"] = t.Position

			return row
		},
		Decode: func(row remote.Row) (record.Record, error) {
			meta, err := decodeMeta(row)
			if err != nil {
				return nil, err
			}

			planID, err := row.String("plan_id")
			if err != nil {
				return nil, err
			}

			name, err := row.NullString("name")
			if err != nil {
				return nil, err
			}

			lat, err := row.Float("lat")
			if err != nil {
				return nil, err
			}
			lon, err := row.Float("lon")
			if err != nil {
				return nil, err
			}
			waitTime, err := row.Int("wait_time")
			if err != nil {
				return nil, err
			}
			position, err := row.Int("position")
			if err != nil {
				return nil, err
			}

			return &record.ExposureTarget{
				SyncMeta: meta,
				PlanID:   planID,
				Name:     name,
				Lat:      lat,
				Lon:      lon,
				WaitTime: waitTime,
				Position: position,
			}, nil
		},
		// A target references its plan by id. Until the plan has made a
		// confirmed round trip, the target stays local.
		ParentSynced: func(q store.Queryer, r record.Record) (bool, error) {
			p, found, err := store.GetExposurePlan(q, r.(*record.ExposureTarget).PlanID)
			if err != nil {
				return false, err
			}

			return found && p.Synced, nil
		},
	}
}
