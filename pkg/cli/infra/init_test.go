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

package infra

import (
	"path/filepath"
	"testing"

	"github.com/stridewell/stridewell/pkg/assert"
	"github.com/stridewell/stridewell/pkg/cli/config"
	"github.com/stridewell/stridewell/pkg/cli/consts"
	"github.com/stridewell/stridewell/pkg/cli/utils"
	"github.com/stridewell/stridewell/pkg/dirs"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

func setupTestDirs(t *testing.T) {
	t.Helper()

	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))

	dirs.Reload()
	t.Cleanup(dirs.Reload)
}

func TestInit(t *testing.T) {
	setupTestDirs(t)

	ctx, err := Init("test", "https://api.example.test", "")
	assert.NoError(t, err, "initializing")
	defer ctx.DB.Close()

	configPath := filepath.Join(dirs.ConfigHome, consts.StridewellDirName, consts.ConfigFilename)
	ok, err := utils.FileExists(configPath)
	assert.NoError(t, err, "checking config file")
	assert.True(t, ok, "config file should have been bootstrapped")

	cf, err := config.Read(*ctx)
	assert.NoError(t, err, "reading config")
	assert.Equal(t, cf.APIEndpoint, "https://api.example.test", "bootstrapped endpoint mismatch")
	assert.Equal(t, cf.SyncIntervalSeconds, 300, "bootstrapped sync interval mismatch")
	assert.Equal(t, cf.Entitled, false, "a fresh install should not be entitled")

	var version int
	assert.NoError(t, store.GetSystem(ctx.DB, store.SystemSchema, &version), "getting schema version")
	assert.True(t, version > 0, "schema should have been initialized")
}

func TestInitEnvOverrides(t *testing.T) {
	setupTestDirs(t)

	t.Setenv(consts.EnvUserID, "user-from-env")
	t.Setenv(consts.EnvToken, "token-from-env")
	t.Setenv(consts.EnvAPIKey, "key-from-env")

	ctx, err := Init("test", "", "")
	assert.NoError(t, err, "initializing")
	defer ctx.DB.Close()

	assert.Equal(t, ctx.UserID, "user-from-env", "user id override mismatch")
	assert.Equal(t, ctx.Token, "token-from-env", "token override mismatch")
	assert.Equal(t, ctx.APIKey, "key-from-env", "api key override mismatch")
	assert.Equal(t, ctx.APIEndpoint, DefaultAPIEndpoint, "default endpoint mismatch")
}
