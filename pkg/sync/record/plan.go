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

package record

import "time"

// ExposurePlan is a named, ordered sequence of exposure targets. Targets are
// separate rows rather than a serialized column because the user reorders and
// edits them independently.
type ExposurePlan struct {
	SyncMeta

	Name string
}

// NewExposurePlan constructs an exposure plan created at the given time
func NewExposurePlan(now time.Time, name string) ExposurePlan {
	return ExposurePlan{
		SyncMeta: NewSyncMeta(now),
		Name:     name,
	}
}

// ExposureTarget is one location in an exposure plan. It references its plan
// by id; locally the reference cascades on delete, and remotely the plan row
// is always pushed before its targets to satisfy the foreign key.
type ExposureTarget struct {
	SyncMeta

	PlanID   string
	Name     string
	Lat      float64
	Lon      float64
	WaitTime int // seconds to remain at the target
	Position int // order within the plan
}

// NewExposureTarget constructs a target belonging to the given plan
func NewExposureTarget(now time.Time, planID, name string, lat, lon float64, waitTime, position int) ExposureTarget {
	return ExposureTarget{
		SyncMeta: NewSyncMeta(now),
		PlanID:   planID,
		Name:     name,
		Lat:      lat,
		Lon:      lon,
		WaitTime: waitTime,
		Position: position,
	}
}
