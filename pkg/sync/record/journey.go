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

import (
	"time"

	"github.com/pkg/errors"
)

// JourneyType categorizes how a journey is undertaken
type JourneyType string

// Journey types
const (
	JourneyWalk    JourneyType = "walk"
	JourneyDrive   JourneyType = "drive"
	JourneyTransit JourneyType = "transit"
	JourneyCustom  JourneyType = "custom"
)

// ErrInvalidJourneyType is an error for a journey type outside the known set
var ErrInvalidJourneyType = errors.New("invalid journey type")

// Validate checks that the journey type is one of the known kinds
func (t JourneyType) Validate() error {
	switch t {
	case JourneyWalk, JourneyDrive, JourneyTransit, JourneyCustom:
		return nil
	}

	return errors.Wrapf(ErrInvalidJourneyType, "%q", string(t))
}

// Journey is one outing. It owns zero or one JourneyTracking, joined by
// sharing the same id across the two tables rather than by a foreign key.
// The join-by-shared-id scheme is preserved from the original data model.
type Journey struct {
	SyncMeta

	Type      JourneyType
	StartedAt time.Time
	Completed bool
	Current   bool
}

// NewJourney constructs a journey created at the given time
func NewJourney(now time.Time, typ JourneyType, startedAt time.Time) Journey {
	return Journey{
		SyncMeta:  NewSyncMeta(now),
		Type:      typ,
		StartedAt: startedAt,
		Current:   true,
	}
}

// PathPoint is a single GPS sample along a journey
type PathPoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// FeelingCheckpoint is a user-reported feeling at a location
type FeelingCheckpoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Feeling   string    `json:"feeling"`
	Timestamp time.Time `json:"timestamp"`
}

// HesitationPoint marks a span during which the user stopped moving
type HesitationPoint struct {
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration float64   `json:"duration"`
}

// JourneyTracking holds the recorded movement data of a journey. The three
// point collections are stored as single serialized columns, both locally and
// remotely, so that a journey with thousands of GPS samples costs one row
// round trip instead of one per point. When a journey tracking record is
// overwritten during a pull, the collections are replaced wholesale from the
// winning side; they are never merged element-wise.
//
// A JourneyTracking has the same id as its owning Journey.
type JourneyTracking struct {
	SyncMeta

	StartTime time.Time
	EndTime   time.Time
	Distance  float64 // meters
	Duration  float64 // seconds

	PathPoints         []PathPoint
	FeelingCheckpoints []FeelingCheckpoint
	HesitationPoints   []HesitationPoint
}

// NewJourneyTracking constructs tracking data for the journey with the given
// id. It reuses the journey's id rather than generating a fresh one.
func NewJourneyTracking(now time.Time, journeyID string, startTime time.Time) JourneyTracking {
	meta := NewSyncMeta(now)
	meta.ID = journeyID

	return JourneyTracking{
		SyncMeta:  meta,
		StartTime: startTime,
	}
}
