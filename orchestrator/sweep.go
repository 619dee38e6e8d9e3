// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"context"
	"time"
)

func (o *Orchestrator) sweepLoop() {
	defer close(o.sweepDone)

	ticker := time.NewTicker(o.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopSweep:
			return
		case <-ticker.C:
			if _, err := o.Sweep(o.ctx); err != nil {
				o.logger.Warn("job sweep failed", "err", err)
			}
		}
	}
}

// Sweep removes terminal jobs that completed more than the configured TTL
// ago and returns how many were removed. It is a no-op without a TTL.
func (o *Orchestrator) Sweep(ctx context.Context) (int, error) {
	if o.jobTTL <= 0 {
		return 0, nil
	}
	cutoff := o.now().UTC().Add(-o.jobTTL)
	n, err := o.store.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		o.logger.Info("expired jobs removed", "count", n)
	}
	return n, nil
}
