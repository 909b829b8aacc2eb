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

package daemon

import (
	stdctx "context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"github.com/stridewell/stridewell/pkg/cli/config"
	"github.com/stridewell/stridewell/pkg/cli/context"
	"github.com/stridewell/stridewell/pkg/cli/infra"
	"github.com/stridewell/stridewell/pkg/log"
	"github.com/stridewell/stridewell/pkg/sync/engine"
)

// NewCmd returns a new daemon command
func NewCmd(ctx context.StridewellCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the background sync daemon",
		Long: `Run the background sync daemon.

The daemon syncs every entity family on its own timer, honoring the
entitlement in the config file. SIGHUP re-reads the config and applies an
entitlement change without a restart.`,
		RunE: newRun(ctx),
	}

	return cmd
}

// startFullRefresh schedules a full refresh of every family on the
// configured cron expression
func startFullRefresh(bg stdctx.Context, coordinator *engine.Coordinator, schedule string) (*cron.Cron, error) {
	c := cron.New()

	err := c.AddFunc(schedule, func() {
		log.Debug("running a scheduled full refresh\n")

		for _, fam := range engine.Families() {
			if !coordinator.RefreshNow(bg, fam) {
				log.Debug("skipped a full refresh of %s\n", fam.Name)
			}
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling a full refresh on %q", schedule)
	}

	c.Start()

	return c, nil
}

func reload(bg stdctx.Context, ctx context.StridewellCtx, coordinator *engine.Coordinator, gate *engine.StaticGate) {
	cf, err := config.Read(ctx)
	if err != nil {
		log.Errorf("reloading config: %s\n", err)
		return
	}

	gate.SetAllowed(cf.Entitled)
	coordinator.EntitlementChanged(bg, cf.Entitled)

	log.Infof("config reloaded; entitled: %t\n", cf.Entitled)
}

func newRun(ctx context.StridewellCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		coordinator, gate := infra.NewSyncCoordinator(ctx)

		bg := stdctx.Background()

		var nRunning int
		for _, fam := range engine.Families() {
			coordinator.StartAutoSync(bg, fam)
			if coordinator.Running(fam) {
				nRunning++
			}
		}
		if nRunning > 0 {
			log.Infof("auto sync started for %d famil(ies)\n", nRunning)
		} else {
			log.Warnf("auto sync is off; waiting for the entitlement\n")
		}

		if ctx.FullRefreshSchedule != "" {
			c, err := startFullRefresh(bg, coordinator, ctx.FullRefreshSchedule)
			if err != nil {
				return err
			}
			defer c.Stop()
		}

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

		for sig := range signals {
			if sig == syscall.SIGHUP {
				reload(bg, ctx, coordinator, gate)
				continue
			}

			log.Infof("shutting down\n")
			for _, fam := range engine.Families() {
				coordinator.StopAutoSync(fam)
			}
			return nil
		}

		return nil
	}
}
