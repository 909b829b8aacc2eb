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

package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stridewell/stridewell/pkg/assert"
)

func TestUpsert(t *testing.T) {
	var gotPath, gotPrefer, gotAPIKey, gotAuth string
	var gotBody []Row

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotPrefer = r.Header.Get("Prefer")
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(errors.Wrap(err, "decoding request body"))
		}

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-api-key", "test-token", server.Client())

	err := c.Upsert(context.Background(), "journal_entries", Row{"id": "abc", "mood": "good"})
	assert.NoError(t, err, "upserting")

	assert.Equal(t, gotPath, "/rest/v1/journal_entries?on_conflict=id", "path mismatch")
	assert.Equal(t, gotPrefer, "resolution=merge-duplicates,return=minimal", "prefer header mismatch")
	assert.Equal(t, gotAPIKey, "test-api-key", "apikey header mismatch")
	assert.Equal(t, gotAuth, "Bearer test-token", "authorization header mismatch")
	assert.Equal(t, len(gotBody), 1, "body row count mismatch")
	assert.Equal(t, gotBody[0]["id"], "abc", "body id mismatch")
}

func TestSelectAllScopesToUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/rest/v1/journeys", "path mismatch")
		assert.Equal(t, r.URL.Query().Get("user_id"), "eq.user-1", "user scoping mismatch")
		assert.Equal(t, r.URL.Query().Get("select"), "*", "select param mismatch")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": "j1", "is_deleted": false}, {"id": "j2", "is_deleted": true}]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", "t", server.Client())

	rows, err := c.SelectAll(context.Background(), "journeys", "user-1")
	assert.NoError(t, err, "selecting")
	assert.Equal(t, len(rows), 2, "row count mismatch")

	id, err := rows[0].String("id")
	assert.NoError(t, err, "reading id")
	assert.Equal(t, id, "j1", "id mismatch")

	deleted, err := rows[1].Bool("is_deleted")
	assert.NoError(t, err, "reading is_deleted")
	assert.Equal(t, deleted, true, "is_deleted mismatch")
}

func TestHTTPError(t *testing.T) {
	testCases := []struct {
		status int
		isAuth bool
	}{
		{status: http.StatusInternalServerError, isAuth: false},
		{status: http.StatusUnauthorized, isAuth: true},
		{status: http.StatusForbidden, isAuth: true},
	}

	for _, tc := range testCases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))

		c := NewClient(server.URL, "k", "t", server.Client())
		err := c.Upsert(context.Background(), "journeys", Row{"id": "x"})

		var httpErr *HTTPError
		assert.True(t, errors.As(err, &httpErr), "expected an HTTPError")
		assert.Equal(t, httpErr.StatusCode, tc.status, "status code mismatch")
		assert.Equal(t, httpErr.IsAuth(), tc.isAuth, "IsAuth mismatch")

		server.Close()
	}
}

func TestRowTime(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 30, 45, 123000000, time.UTC)

	row := Row{"updated_at": FormatTime(now)}

	got, err := row.Time("updated_at")
	assert.NoError(t, err, "parsing time")
	assert.Equal(t, got, now, "time round trip mismatch")

	_, err = Row{"updated_at": "yesterday-ish"}.Time("updated_at")
	assert.True(t, err != nil, "malformed timestamp should error")
}

func TestRowJSON(t *testing.T) {
	type point struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}

	row := Row{"path_points": []interface{}{
		map[string]interface{}{"lat": 51.5, "lon": -0.12},
	}}

	var points []point
	assert.NoError(t, row.JSON("path_points", &points), "decoding nested json")
	assert.Equal(t, len(points), 1, "point count mismatch")
	assert.Equal(t, points[0].Lat, 51.5, "lat mismatch")
}
