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

// JourneyFamily returns the family syncing journeys and their tracking data.
// Journeys come first: a tracking record shares its journey's id and must
// never reach the remote store before the journey itself.
func JourneyFamily() Family {
	return Family{
		Name:  FamilyJourney,
		Steps: []Step{journeyStep(), journeyTrackingStep()},
	}
}

func journeyRecords(journeys []record.Journey) []record.Record {
	ret := make([]record.Record, 0, len(journeys))
	for i := range journeys {
		ret = append(ret, &journeys[i])
	}

	return ret
}

func journeyStep() Step {
	return Step{
		Table: store.TableJourneys,
		LoadDirty: func(q store.Queryer) ([]record.Record, error) {
			journeys, err := store.DirtyJourneys(q)
			if err != nil {
				return nil, err
			}

			return journeyRecords(journeys), nil
		},
		ListAll: func(q store.Queryer) ([]record.Record, error) {
			journeys, err := store.AllJourneys(q)
			if err != nil {
				return nil, err
			}

			return journeyRecords(journeys), nil
		},
		Get: func(q store.Queryer, id string) (record.Record, bool, error) {
			j, found, err := store.GetJourney(q, id)
			return &j, found, err
		},
		Insert: func(q store.Queryer, r record.Record) error {
			return store.InsertJourney(q, *r.(*record.Journey))
		},
		Overwrite: func(q store.Queryer, r record.Record) error {
			return store.UpdateJourney(q, *r.(*record.Journey))
		},
		Encode: func(r record.Record, userID string) remote.Row {
			j := r.(*record.Journey)

			row := metaRow(&j.SyncMeta, userID)
			row["journey_type"] = string(j.Type)
			row["started_at"] = remote.FormatTime(j.StartedAt)
			row["completed"] = j.Completed
			row["current"] = j.Current

			return row
		},
		Decode: func(row remote.Row) (record.Record, error) {
			meta, err := decodeMeta(row)
			if err != nil {
				return nil, err
			}

			typ, err := row.String("journey_type")
			if err != nil {
				return nil, err
			}
			if err := record.JourneyType(typ).Validate(); err != nil {
				return nil, err
			}

			startedAt, err := row.Time("started_at")
			if err != nil {
				return nil, err
			}

			completed, err := row.Bool("completed")
			if err != nil {
				return nil, err
			}
			current, err := row.Bool("current")
			if err != nil {
				return nil, err
			}

			return &record.Journey{
				SyncMeta:  meta,
				Type:      record.JourneyType(typ),
				StartedAt: startedAt,
				Completed: completed,
				Current:   current,
			}, nil
		},
	}
}

func journeyTrackingRecords(trackings []record.JourneyTracking) []record.Record {
	ret := make([]record.Record, 0, len(trackings))
	for i := range trackings {
		ret = append(ret, &trackings[i])
	}

	return ret
}

func journeyTrackingStep() Step {
	return Step{
		Table: store.TableJourneyTracking,
		LoadDirty: func(q store.Queryer) ([]record.Record, error) {
			trackings, err := store.DirtyJourneyTracking(q)
			if err != nil {
				return nil, err
			}

			return journeyTrackingRecords(trackings), nil
		},
		ListAll: func(q store.Queryer) ([]record.Record, error) {
			trackings, err := store.AllJourneyTracking(q)
			if err != nil {
				return nil, err
			}

			return journeyTrackingRecords(trackings), nil
		},
		Get: func(q store.Queryer, id string) (record.Record, bool, error) {
			t, found, err := store.GetJourneyTracking(q, id)
			return &t, found, err
		},
		Insert: func(q store.Queryer, r record.Record) error {
			return store.InsertJourneyTracking(q, *r.(*record.JourneyTracking))
		},
		Overwrite: func(q store.Queryer, r record.Record) error {
			return store.UpdateJourneyTracking(q, *r.(*record.JourneyTracking))
		},
		Encode: func(r record.Record, userID string) remote.Row {
			t := r.(*record.JourneyTracking)

			row := metaRow(&t.SyncMeta, userID)
			row["start_time"] = remote.FormatTime(t.StartTime)
			if t.EndTime.IsZero() {
				row["end_time"] = nil
			} else {
				row["end_time"] = remote.FormatTime(t.EndTime)
			}
			row["distance"] = t.Distance
			row["duration"] = t.Duration
			row["path_points"] = t.PathPoints
			row["feeling_checkpoints"] = t.FeelingCheckpoints
			row["hesitation_points"] = t.HesitationPoints

			return row
		},
		Decode: func(row remote.Row) (record.Record, error) {
			meta, err := decodeMeta(row)
			if err != nil {
				return nil, err
			}

			startTime, err := row.Time("start_time")
			if err != nil {
				return nil, err
			}
			endTime, err := row.NullTime("end_time")
			if err != nil {
				return nil, err
			}

			distance, err := row.Float("distance")
			if err != nil {
				return nil, err
			}
			duration, err := row.Float("duration")
			if err != nil {
				return nil, err
			}

			t := record.JourneyTracking{
				SyncMeta:  meta,
				StartTime: startTime,
				Distance:  distance,
				Duration:  duration,
			}
			if endTime != nil {
				t.EndTime = *endTime
			}

			if err := row.JSON("path_points", &t.PathPoints); err != nil {
				return nil, err
			}
			if err := row.JSON("feeling_checkpoints", &t.FeelingCheckpoints); err != nil {
				return nil, err
			}
			if err := row.JSON("hesitation_points", &t.HesitationPoints); err != nil {
				return nil, err
			}

			return &t, nil
		},
		// Tracking shares its journey's id. Until the journey has made a
		// confirmed round trip, the tracking record stays local.
		ParentSynced: func(q store.Queryer, r record.Record) (bool, error) {
			j, found, err := store.GetJourney(q, r.Meta().ID)
			if err != nil {
				return false, err
			}

			return found && j.Synced, nil
		},
	}
}
