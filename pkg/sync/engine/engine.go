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
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/stridewell/stridewell/pkg/clock"
	"github.com/stridewell/stridewell/pkg/log"
	"github.com/stridewell/stridewell/pkg/sync/record"
	"github.com/stridewell/stridewell/pkg/sync/remote"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

// Engine reconciles the local record store with the remote table service. It
// is stateless between cycles; all sync state lives in the records themselves.
type Engine struct {
	db     *store.DB
	remote remote.TableService
	users  UserProvider
	clock  clock.Clock
}

// New constructs a sync engine
func New(db *store.DB, svc remote.TableService, users UserProvider, c clock.Clock) *Engine {
	return &Engine{
		db:     db,
		remote: svc,
		users:  users,
		clock:  c,
	}
}

func isAuthError(err error) bool {
	var httpErr *remote.HTTPError
	return errors.As(err, &httpErr) && httpErr.IsAuth()
}

// Sync runs one push-then-pull cycle for the family. Pushing first means a
// subsequent pull can never clobber a local edit that had not yet reached the
// remote store.
//
// A returned error does not invalidate the cycle's partial progress: every
// record that made a clean round trip has already been committed.
func (e *Engine) Sync(ctx context.Context, fam Family) error {
	userID, err := e.users.CurrentUserID()
	if err != nil {
		return errors.Wrap(err, "getting current user")
	}

	nFailed, nDeferred, err := e.push(ctx, fam, userID)
	if err != nil {
		return errors.Wrapf(err, "pushing %s changes", fam.Name)
	}

	if err := e.pull(ctx, fam, userID); err != nil {
		return errors.Wrapf(err, "pulling %s changes", fam.Name)
	}

	if nFailed > 0 {
		return errors.Errorf("%d %s record(s) failed to push and will retry on the next cycle", nFailed, fam.Name)
	}

	// A deferred record is not a failure, but the cycle did leave dirty work
	// behind, so it must not count as clean for staleness reporting.
	if nDeferred > 0 {
		return nil
	}

	key := store.SystemLastSyncedAtPrefix + fam.Name
	if err := store.UpdateSystem(e.db, key, e.clock.Now().Unix()); err != nil {
		return errors.Wrap(err, "recording the sync time")
	}

	return nil
}

// LastSyncedAt returns the completion time of the family's last fully clean
// cycle, or nil if it has never had one
func (e *Engine) LastSyncedAt(fam Family) (*time.Time, error) {
	var ts int64

	err := store.GetSystem(e.db, store.SystemLastSyncedAtPrefix+fam.Name, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting the last sync time of %s", fam.Name)
	}

	t := time.Unix(ts, 0).UTC()
	return &t, nil
}

// push uploads every dirty record of the family, parent tables first. A
// record that fails to upload is left dirty and counted; the push moves on to
// the next record. A record deferred behind an unsynced parent is counted
// separately. Only an authorization failure or a local store failure aborts
// the push, since neither can succeed for any remaining record.
func (e *Engine) push(ctx context.Context, fam Family, userID string) (int, int, error) {
	var nFailed, nDeferred int

	for _, step := range fam.Steps {
		recs, err := step.LoadDirty(e.db)
		if err != nil {
			return nFailed, nDeferred, errors.Wrapf(err, "loading dirty %s records", step.Table)
		}
		if len(recs) == 0 {
			continue
		}

		for _, rec := range recs {
			m := rec.Meta()

			if step.ParentSynced != nil {
				ok, err := step.ParentSynced(e.db, rec)
				if err != nil {
					return nFailed, nDeferred, errors.Wrapf(err, "checking the parent of %s record %s", step.Table, m.ID)
				}
				if !ok {
					log.Debug("deferring %s record %s until its parent syncs\n", step.Table, m.ID)
					nDeferred++
					continue
				}
			}

			if err := e.remote.Upsert(ctx, step.Table, step.Encode(rec, userID)); err != nil {
				if isAuthError(err) {
					return nFailed, nDeferred, errors.Wrap(err, "authorizing with the remote store")
				}

				log.Debug("failed to push %s record %s: %v\n", step.Table, m.ID, err)
				nFailed++
				continue
			}

			if err := e.confirmPush(step, m); err != nil {
				return nFailed, nDeferred, errors.Wrapf(err, "confirming push of %s record %s", step.Table, m.ID)
			}
		}
	}

	return nFailed, nDeferred, nil
}

// confirmPush flips the pushed record to the synced state. The record is
// re-fetched by primary key inside the transaction: if it changed locally
// while the upload was in flight, its flags are left alone so the new
// mutation is picked up by the next cycle.
func (e *Engine) confirmPush(step Step, pushed *record.SyncMeta) error {
	return e.db.WriteTx(func(tx *sql.Tx) error {
		cur, found, err := step.Get(tx, pushed.ID)
		if err != nil {
			return err
		}
		if !found || !cur.Meta().UpdatedAt.Equal(pushed.UpdatedAt) {
			return nil
		}

		return store.MarkSynced(tx, step.Table, pushed.ID, e.clock.Now())
	})
}

// pull fetches the family's remote rows and merges them into the local store,
// parent tables first. Each merged record commits in its own transaction, so
// a failure partway through loses nothing already merged.
func (e *Engine) pull(ctx context.Context, fam Family, userID string) error {
	for _, step := range fam.Steps {
		rows, err := e.remote.SelectAll(ctx, step.Table, userID)
		if err != nil {
			return errors.Wrapf(err, "fetching %s rows", step.Table)
		}

		for _, row := range rows {
			rec, err := step.Decode(row)
			if err != nil {
				log.Debug("skipping a malformed %s row: %v\n", step.Table, err)
				continue
			}

			if err := e.merge(fam, step, rec); err != nil {
				return errors.Wrapf(err, "merging %s record %s", step.Table, rec.Meta().ID)
			}
		}
	}

	return nil
}

// merge applies one remote record to the local store under last-write-wins.
// The remote copy wins when its updated-at is strictly newer, or when the
// local copy has neither synced nor pending state to protect. Ties keep the
// local copy, so re-pulling an already merged record is a no-op.
func (e *Engine) merge(fam Family, step Step, rrec record.Record) error {
	return e.db.WriteTx(func(tx *sql.Tx) error {
		rm := rrec.Meta()

		local, found, err := step.Get(tx, rm.ID)
		if err != nil {
			return err
		}

		now := e.clock.Now()

		if !found {
			rm.MarkSynced(now)
			return step.Insert(tx, rrec)
		}

		lm := local.Meta()
		remoteWins := rm.UpdatedAt.After(lm.UpdatedAt) || (!lm.Synced && !lm.Dirty)
		if !remoteWins {
			return nil
		}

		if lm.Dirty && step.ConflictText != nil {
			localText, remoteText := step.ConflictText(local), step.ConflictText(rrec)
			if localText != remoteText {
				c := store.Conflict{
					Family:     fam.Name,
					Table:      step.Table,
					RecordID:   rm.ID,
					Diff:       renderDiff(localText, remoteText),
					RecordedAt: now,
				}
				if err := store.InsertConflict(tx, c); err != nil {
					return err
				}
			}
		}

		rm.MarkSynced(now)
		return step.Overwrite(tx, rrec)
	})
}

// Refresh reconciles the family against the full remote state and then
// expunges local records the remote store no longer has. A record that is
// dirty and has never synced survives: it is a new local record the remote
// store has simply not seen yet.
//
// Every step merges before anything is expunged. A dependent row must be able
// to land while its parent still exists locally; expunging the parent
// afterwards cascades the dependents away with it.
func (e *Engine) Refresh(ctx context.Context, fam Family) error {
	userID, err := e.users.CurrentUserID()
	if err != nil {
		return errors.Wrap(err, "getting current user")
	}

	present := map[string]map[string]bool{}

	for _, step := range fam.Steps {
		rows, err := e.remote.SelectAll(ctx, step.Table, userID)
		if err != nil {
			return errors.Wrapf(err, "fetching %s rows", step.Table)
		}

		present[step.Table] = map[string]bool{}
		for _, row := range rows {
			rec, err := step.Decode(row)
			if err != nil {
				log.Debug("skipping a malformed %s row: %v\n", step.Table, err)
				continue
			}

			present[step.Table][rec.Meta().ID] = true

			if err := e.merge(fam, step, rec); err != nil {
				return errors.Wrapf(err, "merging %s record %s", step.Table, rec.Meta().ID)
			}
		}
	}

	for _, step := range fam.Steps {
		locals, err := step.ListAll(e.db)
		if err != nil {
			return errors.Wrapf(err, "listing local %s records", step.Table)
		}

		for _, rec := range locals {
			m := rec.Meta()
			if present[step.Table][m.ID] {
				continue
			}
			if m.Dirty && m.LastSyncedAt == nil {
				continue
			}

			err := e.db.WriteTx(func(tx *sql.Tx) error {
				return store.Expunge(tx, step.Table, m.ID)
			})
			if err != nil {
				return errors.Wrapf(err, "expunging %s record %s", step.Table, m.ID)
			}
		}
	}

	return nil
}
