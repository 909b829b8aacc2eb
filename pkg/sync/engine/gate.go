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
	"sync"

	"github.com/pkg/errors"
)

// ErrNoUser is returned when sync is attempted without a signed-in user
var ErrNoUser = errors.New("not logged in")

// Gate decides whether sync may run for an entity family. Local reads and
// writes are never gated; only the exchange with the remote store is.
type Gate interface {
	CanSync(family string) bool
}

// UserProvider supplies the id of the currently signed-in user. Every remote
// row is scoped to it.
type UserProvider interface {
	CurrentUserID() (string, error)
}

// StaticGate is a Gate holding an externally set entitlement flag. The
// entitlement covers the whole account, so every family reads the same flag.
type StaticGate struct {
	mu      sync.Mutex
	allowed bool
}

// NewStaticGate returns a gate with the given initial entitlement
func NewStaticGate(allowed bool) *StaticGate {
	return &StaticGate{allowed: allowed}
}

// CanSync reports the current entitlement
func (g *StaticGate) CanSync(family string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.allowed
}

// SetAllowed updates the entitlement. Safe to call from any goroutine.
func (g *StaticGate) SetAllowed(allowed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.allowed = allowed
}

// StaticUserProvider is a UserProvider returning a fixed user id
type StaticUserProvider struct {
	UserID string
}

// CurrentUserID returns the configured user id, or ErrNoUser if none is set
func (p StaticUserProvider) CurrentUserID() (string, error) {
	if p.UserID == "" {
		return "", ErrNoUser
	}

	return p.UserID, nil
}
