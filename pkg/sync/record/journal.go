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

// Mood is the mood rating attached to a journal entry
type Mood string

// Mood ratings, from worst to best
const (
	MoodAwful   Mood = "awful"
	MoodBad     Mood = "bad"
	MoodNeutral Mood = "neutral"
	MoodGood    Mood = "good"
	MoodGreat   Mood = "great"
)

// ErrInvalidMood is an error for a mood rating outside the known set
var ErrInvalidMood = errors.New("invalid mood")

// Validate checks that the mood is one of the known ratings
func (m Mood) Validate() error {
	switch m {
	case MoodAwful, MoodBad, MoodNeutral, MoodGood, MoodGreat:
		return nil
	}

	return errors.Wrapf(ErrInvalidMood, "%q", string(m))
}

// JournalEntry is a dated free-text entry with a mood rating. It is the
// simplest entity family: flat, with no nested records.
type JournalEntry struct {
	SyncMeta

	Mood      Mood
	Body      string
	EntryDate time.Time
}

// NewJournalEntry constructs a journal entry created at the given time
func NewJournalEntry(now time.Time, mood Mood, body string, entryDate time.Time) JournalEntry {
	return JournalEntry{
		SyncMeta:  NewSyncMeta(now),
		Mood:      mood,
		Body:      body,
		EntryDate: entryDate,
	}
}
