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

// Package infra provides operations and definitions for the
// local infrastructure for Stridewell
package infra

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stridewell/stridewell/pkg/cli/config"
	"github.com/stridewell/stridewell/pkg/cli/consts"
	"github.com/stridewell/stridewell/pkg/cli/context"
	"github.com/stridewell/stridewell/pkg/cli/utils"
	"github.com/stridewell/stridewell/pkg/clock"
	"github.com/stridewell/stridewell/pkg/dirs"
	"github.com/stridewell/stridewell/pkg/log"
	"github.com/stridewell/stridewell/pkg/sync/engine"
	"github.com/stridewell/stridewell/pkg/sync/remote"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:54321"
)

// RunEFunc is a function type of stridewell commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.StridewellDirName, consts.StridewellDBFileName)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.StridewellCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := context.InitStridewellDirs(paths); err != nil {
		return context.StridewellCtx{}, errors.Wrap(err, "creating the stridewell dirs")
	}

	db, err := store.Open(getDBPath(paths, customDBPath))
	if err != nil {
		return context.StridewellCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.StridewellCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the Stridewell environment and returns a new context.
// apiEndpoint is used when creating a new config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.StridewellCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if err := ctx.DB.InitSchema(); err != nil {
		return nil, errors.Wrap(err, "initializing the schema")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from the config file and the
// environment. Environment values win over config values so that credentials
// never have to live in the config file.
func setupCtx(ctx context.StridewellCtx) (context.StridewellCtx, error) {
	if err := config.LoadEnv(ctx); err != nil {
		return ctx, errors.Wrap(err, "loading the dotenv file")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	ret := context.StridewellCtx{
		Paths:               ctx.Paths,
		Version:             ctx.Version,
		DB:                  ctx.DB,
		APIEndpoint:         overrideEnv(cf.APIEndpoint, consts.EnvAPIEndpoint),
		APIKey:              overrideEnv(cf.APIKey, consts.EnvAPIKey),
		Token:               os.Getenv(consts.EnvToken),
		UserID:              overrideEnv(cf.UserID, consts.EnvUserID),
		Entitled:            cf.Entitled,
		SyncIntervalSeconds: cf.SyncIntervalSeconds,
		FullRefreshSchedule: cf.FullRefreshSchedule,
		Clock:               clock.New(),
		HTTPClient:          remote.NewRateLimitedHTTPClient(),
	}

	return ret, nil
}

func overrideEnv(val, envName string) string {
	if env := os.Getenv(envName); env != "" {
		return env
	}

	return val
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.StridewellCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint:         endpoint,
		SyncIntervalSeconds: int(engine.DefaultSyncInterval / time.Second),
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// NewSyncCoordinator wires a coordinator and its entitlement gate out of the
// runtime context
func NewSyncCoordinator(ctx context.StridewellCtx) (*engine.Coordinator, *engine.StaticGate) {
	svc := remote.NewClient(ctx.APIEndpoint, ctx.APIKey, ctx.Token, ctx.HTTPClient)
	users := engine.StaticUserProvider{UserID: ctx.UserID}
	eng := engine.New(ctx.DB, svc, users, ctx.Clock)

	gate := engine.NewStaticGate(ctx.Entitled)
	interval := time.Duration(ctx.SyncIntervalSeconds) * time.Second

	return engine.NewCoordinator(eng, gate, interval, nil), gate
}
