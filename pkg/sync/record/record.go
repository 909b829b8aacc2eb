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

// Package record defines the syncable record types that Stridewell keeps in
// the local store and reconciles with the remote table service.
package record

import (
	"time"

	"github.com/google/uuid"
)

// SyncMeta is the set of bookkeeping fields shared by every syncable record.
// A record is identified by the same id locally and remotely. UpdatedAt is
// authoritative for conflict resolution. Deleted is a soft-delete flag; the
// row is kept locally until the deletion has made a remote round trip.
//
// Invariant: Synced and Dirty are never simultaneously true. Any local write
// sets Dirty and clears Synced. Only the sync engine flips them back.
type SyncMeta struct {
	ID           string     `json:"id"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Deleted      bool       `json:"is_deleted"`
	Synced       bool       `json:"is_synced"`
	Dirty        bool       `json:"needs_sync"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

// NewSyncMeta returns sync metadata for a freshly created record. New records
// are born dirty so that the next cycle picks them up.
func NewSyncMeta(now time.Time) SyncMeta {
	return SyncMeta{
		ID:        uuid.NewString(),
		UpdatedAt: now,
		Dirty:     true,
		Synced:    false,
	}
}

// Meta returns the sync metadata. It makes any embedding type satisfy Record.
func (m *SyncMeta) Meta() *SyncMeta {
	return m
}

// Touch marks the record as locally mutated at the given time
func (m *SyncMeta) Touch(now time.Time) {
	m.UpdatedAt = now
	m.Dirty = true
	m.Synced = false
}

// SoftDelete marks the record as deleted. The deletion propagates to the
// remote store on the next push as a flag update, never a row removal.
func (m *SyncMeta) SoftDelete(now time.Time) {
	m.Deleted = true
	m.Touch(now)
}

// MarkSynced records a confirmed round trip with the remote store
func (m *SyncMeta) MarkSynced(now time.Time) {
	m.Dirty = false
	m.Synced = true
	t := now
	m.LastSyncedAt = &t
}

// Record is any syncable entity. All entity families embed SyncMeta.
type Record interface {
	Meta() *SyncMeta
}
