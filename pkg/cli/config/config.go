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

// Package config reads and writes the stridewell configuration file
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/stridewell/stridewell/pkg/cli/consts"
	"github.com/stridewell/stridewell/pkg/cli/context"
	"github.com/stridewell/stridewell/pkg/cli/utils"
	"gopkg.in/yaml.v2"
)

// Config holds stridewell configuration. Credentials may be supplied or
// overridden through the environment; the config file holds everything that
// is safe to keep in plain sight.
type Config struct {
	APIEndpoint         string `yaml:"apiEndpoint"`
	APIKey              string `yaml:"apiKey"`
	UserID              string `yaml:"userId"`
	Entitled            bool   `yaml:"entitled"`
	SyncIntervalSeconds int    `yaml:"syncIntervalSeconds"`
	FullRefreshSchedule string `yaml:"fullRefreshSchedule"`
}

// GetPath returns the path to the stridewell config file
func GetPath(ctx context.StridewellCtx) string {
	return fmt.Sprintf("%s/%s/%s", ctx.Paths.Config, consts.StridewellDirName, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.StridewellCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.StridewellCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}

// LoadEnv loads the optional dotenv file next to the config file, so that
// credentials can live outside the config. Variables already present in the
// environment win.
func LoadEnv(ctx context.StridewellCtx) error {
	path := filepath.Join(ctx.Paths.Config, consts.StridewellDirName, consts.EnvFilename)

	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if dotenv file exists")
	}
	if !ok {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(err, "loading dotenv file")
	}

	return nil
}
