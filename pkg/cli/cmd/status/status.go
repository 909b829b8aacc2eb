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

package status

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stridewell/stridewell/pkg/cli/context"
	"github.com/stridewell/stridewell/pkg/cli/infra"
	"github.com/stridewell/stridewell/pkg/log"
	"github.com/stridewell/stridewell/pkg/sync/store"
)

// NewCmd returns a new status command
func NewCmd(ctx context.StridewellCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync state of every entity family",
		RunE:  newRun(ctx),
	}

	return cmd
}

func describeStaleness(lastSyncedAt *time.Time, now time.Time) string {
	if lastSyncedAt == nil {
		return "never synced"
	}

	return lastSyncedAt.Format(time.RFC3339) + " (" + now.Sub(*lastSyncedAt).Round(time.Second).String() + " ago)"
}

func newRun(ctx context.StridewellCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		coordinator, gate := infra.NewSyncCoordinator(ctx)

		status, err := coordinator.Status()
		if err != nil {
			return errors.Wrap(err, "getting sync status")
		}

		for _, s := range status {
			line := describeStaleness(s.LastSyncedAt, ctx.Clock.Now())
			if !gate.CanSync(s.Family) {
				line += ", sync disabled"
			}
			log.Plainf("%s: %s\n", s.Family, line)
		}

		conflicts, err := store.ListConflicts(ctx.DB)
		if err != nil {
			return errors.Wrap(err, "listing conflicts")
		}
		if len(conflicts) > 0 {
			log.Warnf("%d record(s) had local edits overwritten by newer remote copies\n", len(conflicts))
			for _, c := range conflicts {
				log.Plainf("%s %s at %s\n", c.Table, c.RecordID, c.RecordedAt.Format(time.RFC3339))
			}
		}

		return nil
	}
}
