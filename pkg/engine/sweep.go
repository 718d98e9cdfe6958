package engine

import "time"

// planCacheSweepInterval is the tick period the plan cache's TTL is
// expressed in (pkg/planner.Cache.Tick is called once per interval).
const planCacheSweepInterval = time.Second

// startPlanCacheSweep runs the plan cache's TTL eviction on a
// background ticker, grounded on the teacher's pkg/reconciler
// Start/run/stopCh loop — repurposed from cluster-state reconciliation
// into periodic expired-plan eviction so Cache.Tick never depends on
// wall-clock time directly (keeping it deterministically testable).
func (e *Engine) startPlanCacheSweep() {
	go e.runPlanCacheSweep()
}

func (e *Engine) runPlanCacheSweep() {
	defer close(e.sweepDone)
	ticker := time.NewTicker(planCacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.planner.Cache.Tick()
		case <-e.sweepStop:
			return
		}
	}
}
