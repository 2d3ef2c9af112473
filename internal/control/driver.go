package control

import (
	"context"

	"turbodriver/internal/storage"
)

// maxStepsPerRun bounds a single run's event budget so a misconfigured
// scenario (e.g. an unbounded spawn rate with no end time) cannot pin a
// control-plane goroutine forever.
const maxStepsPerRun = 2_000_000

// runToCompletion drives one run's engine until its queue drains or its
// end time is reached, broadcasting a snapshot after every step and
// persisting the final result once done. It runs on its own goroutine,
// started by Handler.CreateRun, the same "fire and let a background
// goroutine finish the job" shape as the teacher's awaitAcceptance.
func runToCompletion(reg *Registry, hub *RunHub, store *storage.Postgres, id string) {
	runner, ok := reg.Runner(id)
	if !ok {
		return
	}

	steps := 0
	for steps < maxStepsPerRun {
		if !runner.RunNextEvent() {
			break
		}
		steps++
		if hub != nil {
			snaps := runner.Ctx.Telemetry.Snapshots()
			if len(snaps) > 0 {
				hub.Publish(id, snaps[len(snaps)-1])
			}
		}
	}

	reg.MarkDone(id, steps, nil)

	if store == nil {
		return
	}
	view, err := reg.View(id)
	if err != nil {
		return
	}
	trips, err := reg.Trips(id)
	if err != nil {
		return
	}
	_ = store.FinishRunWithTrips(context.Background(), id, view.StepsRun, view.Counters, trips)
}
