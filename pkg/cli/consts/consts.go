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

// Package consts provides definitions of constants
package consts

var (
	// StridewellDirName is the name of the directory containing stridewell files
	StridewellDirName = "stridewell"
	// StridewellDBFileName is a filename for the Stridewell SQLite database
	StridewellDBFileName = "stridewell.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "stridewellrc"
	// EnvFilename is the name of the optional dotenv file holding credentials
	EnvFilename = ".env"

	// EnvAPIEndpoint overrides the configured remote endpoint
	EnvAPIEndpoint = "STRIDEWELL_API_ENDPOINT"
	// EnvAPIKey overrides the configured API key
	EnvAPIKey = "STRIDEWELL_API_KEY"
	// EnvToken supplies the bearer token for the remote store
	EnvToken = "STRIDEWELL_TOKEN"
	// EnvUserID overrides the configured user id
	EnvUserID = "STRIDEWELL_USER_ID"
)
