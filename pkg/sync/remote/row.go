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
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Row is one remote table row as a plain key-value record
type Row map[string]interface{}

// FormatTime renders a timestamp in the ISO-8601 shape the remote store
// exchanges
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime parses an ISO-8601 timestamp from the remote store
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing timestamp %q", s)
	}

	return t.UTC(), nil
}

// String extracts a string field from the row. A missing or mistyped field
// is a data error: the caller skips the row rather than aborting the pull.
func (r Row) String(key string) (string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", errors.Errorf("missing field %q", key)
	}

	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("field %q is not a string", key)
	}

	return s, nil
}

// NullString extracts an optional string field from the row. A missing or
// null field reads as the empty string.
func (r Row) NullString(key string) (string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", nil
	}

	return r.String(key)
}

// Bool extracts a boolean field from the row. A missing or mistyped field is
// a data error: flags like the tombstone must never default silently.
func (r Row) Bool(key string) (bool, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return false, errors.Errorf("missing field %q", key)
	}

	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("field %q is not a boolean", key)
	}

	return b, nil
}

// Float extracts a numeric field from the row. A missing field reads as zero.
func (r Row) Float(key string) (float64, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, nil
	}

	f, ok := v.(float64)
	if !ok {
		return 0, errors.Errorf("field %q is not a number", key)
	}

	return f, nil
}

// Int extracts an integer field from the row. A missing field reads as zero.
func (r Row) Int(key string) (int, error) {
	f, err := r.Float(key)
	if err != nil {
		return 0, err
	}

	return int(f), nil
}

// Time extracts an ISO-8601 timestamp field from the row
func (r Row) Time(key string) (time.Time, error) {
	s, err := r.String(key)
	if err != nil {
		return time.Time{}, err
	}

	return ParseTime(s)
}

// NullTime extracts an optional ISO-8601 timestamp field from the row
func (r Row) NullTime(key string) (*time.Time, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, nil
	}

	t, err := r.Time(key)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// JSON re-marshals a nested field of the row into dest. Serialized point
// collections arrive from the remote store as JSON arrays; decoding them
// goes through an encode-decode round trip because the row itself was
// decoded into untyped values.
func (r Row) JSON(key string, dest interface{}) error {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "re-marshalling field %q", key)
	}

	if err := json.Unmarshal(b, dest); err != nil {
		return errors.Wrapf(err, "unmarshalling field %q", key)
	}

	return nil
}
