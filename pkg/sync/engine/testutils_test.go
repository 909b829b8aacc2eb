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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stridewell/stridewell/pkg/clock"
	"github.com/stridewell/stridewell/pkg/sync/remote"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

const testUserID = "user-1"

// fakeRemote is an in-memory remote.TableService with failure injection and
// a call log
type fakeRemote struct {
	mu      sync.Mutex
	tables  map[string]map[string]remote.Row
	upserts []string // "table/id", in call order
	calls   int

	failUpserts map[string]error // record id -> injected error
	failSelects map[string]error // table -> injected error

	// when set, SelectAll announces itself on enterSelect and then waits on
	// releaseSelect, so tests can hold a cycle in flight
	enterSelect   chan struct{}
	releaseSelect chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		tables:      map[string]map[string]remote.Row{},
		failUpserts: map[string]error{},
		failSelects: map[string]error{},
	}
}

func (f *fakeRemote) Upsert(ctx context.Context, table string, row remote.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	id := row["id"].(string)
	if err := f.failUpserts[id]; err != nil {
		return err
	}

	if f.tables[table] == nil {
		f.tables[table] = map[string]remote.Row{}
	}
	f.tables[table][id] = row
	f.upserts = append(f.upserts, fmt.Sprintf("%s/%s", table, id))

	return nil
}

func (f *fakeRemote) SelectAll(ctx context.Context, table, userID string) ([]remote.Row, error) {
	if f.enterSelect != nil {
		f.enterSelect <- struct{}{}
	}
	if f.releaseSelect != nil {
		<-f.releaseSelect
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if err := f.failSelects[table]; err != nil {
		return nil, err
	}

	var rows []remote.Row
	for _, row := range f.tables[table] {
		if row["user_id"] == userID {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// put seeds a remote row without recording a call
func (f *fakeRemote) put(table string, row remote.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tables[table] == nil {
		f.tables[table] = map[string]remote.Row{}
	}
	f.tables[table][row["id"].(string)] = row
}

func (f *fakeRemote) get(table, id string) (remote.Row, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.tables[table][id]
	return row, ok
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func (f *fakeRemote) upsertLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string{}, f.upserts...)
}

func newTestEngine(t *testing.T) (*Engine, *store.DB, *fakeRemote, *clock.Mock) {
	t.Helper()

	db := store.InitTestDB(t)
	fake := newFakeRemote()
	c := clock.NewMock()

	e := New(db, fake, StaticUserProvider{UserID: testUserID}, c)

	return e, db, fake, c
}

func remoteJournalRow(id, mood, body string, at time.Time) remote.Row {
	return remote.Row{
		"id":         id,
		"user_id":    testUserID,
		"mood":       mood,
		"body":       body,
		"entry_date": remote.FormatTime(at),
		"updated_at": remote.FormatTime(at),
		"is_deleted": false,
	}
}
