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

// Package context defines the stridewell runtime context
package context

import (
	"net/http"

	"github.com/stridewell/stridewell/pkg/clock"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// StridewellCtx is a context holding the information of the current runtime
type StridewellCtx struct {
	Paths   Paths
	Version string
	DB      *store.DB

	APIEndpoint string
	APIKey      string
	Token       string
	UserID      string

	Entitled            bool
	SyncIntervalSeconds int
	FullRefreshSchedule string

	Clock      clock.Clock
	HTTPClient *http.Client
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx StridewellCtx) StridewellCtx {
	ctx.APIKey = redactFlag(ctx.APIKey)
	ctx.Token = redactFlag(ctx.Token)

	return ctx
}

func redactFlag(val string) string {
	if val != "" {
		return "1"
	}

	return "0"
}
