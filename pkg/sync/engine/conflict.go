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
	"github.com/sergi/go-diff/diffmatchpatch"
)

// renderDiff produces a textual patch from the losing local text to the
// winning remote text, for the conflict log
func renderDiff(localText, remoteText string) string {
	dmp := diffmatchpatch.New()

	diffs := dmp.DiffMain(localText, remoteText, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.PatchToText(dmp.PatchMake(localText, diffs))
}
