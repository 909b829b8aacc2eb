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

package sync

import (
	stdctx "context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stridewell/stridewell/pkg/cli/context"
	"github.com/stridewell/stridewell/pkg/cli/infra"
	"github.com/stridewell/stridewell/pkg/log"
	"github.com/stridewell/stridewell/pkg/sync/engine"
)

var example = `
  stridewell sync
  stridewell sync --family journal
  stridewell sync --full`

var isFullRefresh bool
var familyFlag string

// NewCmd returns a new sync command
func NewCmd(ctx context.StridewellCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   "Sync records with the remote store",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&isFullRefresh, "full", "f", false, "run a full refresh, expunging records the remote store no longer has")
	f.StringVar(&familyFlag, "family", "", "sync only the given entity family")

	return cmd
}

func selectFamilies(name string) ([]engine.Family, error) {
	if name == "" {
		return engine.Families(), nil
	}

	for _, fam := range engine.Families() {
		if fam.Name == name {
			return []engine.Family{fam}, nil
		}
	}

	return nil, errors.Errorf("unknown entity family %q", name)
}

func newRun(ctx context.StridewellCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		families, err := selectFamilies(familyFlag)
		if err != nil {
			return err
		}

		coordinator, gate := infra.NewSyncCoordinator(ctx)

		log.Infof("syncing with %s\n", ctx.APIEndpoint)

		bg := stdctx.Background()
		for _, fam := range families {
			if !gate.CanSync(fam.Name) {
				log.Warnf("skipped %s: sync is not enabled for this account\n", fam.Name)
				continue
			}

			var ran bool
			if isFullRefresh {
				ran = coordinator.RefreshNow(bg, fam)
			} else {
				ran = coordinator.SyncNow(bg, fam)
			}

			if !ran {
				log.Warnf("skipped %s: a cycle is already in flight\n", fam.Name)
			}
		}

		status, err := coordinator.Status()
		if err != nil {
			return errors.Wrap(err, "getting sync status")
		}

		var failed int
		for _, s := range status {
			if s.LastError != nil {
				log.Errorf("%s: %s\n", s.Family, s.LastError)
				failed++
			}
		}
		if failed > 0 {
			return errors.Errorf("%d famil(ies) did not sync cleanly", failed)
		}

		log.Success("success\n")

		return nil
	}
}
