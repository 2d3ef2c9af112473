package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"turbodriver/internal/engine"
	"turbodriver/internal/scenario"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario config JSON file (defaults applied for omitted fields)")
	maxSteps := flag.Int("max-steps", 0, "cap on events executed; 0 means run until the queue drains or the end time is hit")
	snapshotRingCapacity := flag.Int("snapshot-ring", 500, "telemetry snapshot ring buffer capacity")
	flag.Parse()

	cfg := scenario.Default()
	if *scenarioPath != "" {
		data, err := os.ReadFile(*scenarioPath)
		if err != nil {
			log.Fatalf("read scenario: %v", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("parse scenario: %v", err)
		}
		cfg = cfg.ApplyDefaults()
	}

	runner := engine.New(cfg, *snapshotRingCapacity)
	steps := runner.RunUntilEmpty(*maxSteps)

	fmt.Printf("ran %d events (runner reports %d)\n", steps, runner.StepsRun())
	counters := runner.Ctx.Telemetry.Counters
	fmt.Printf("riders completed:   %d\n", counters.RidersCompletedTotal)
	fmt.Printf("riders cancelled:   %d (pickup timeout: %d)\n", counters.RidersCancelledTotal, counters.RidersCancelledPickupTimeout)
	fmt.Printf("riders abandoned:   %d (price: %d, eta: %d, stochastic: %d)\n",
		counters.RidersAbandonedTotal, counters.RidersAbandonedPrice, counters.RidersAbandonedEta, counters.RidersAbandonedStochastic)
	fmt.Printf("platform revenue:   %.2f\n", counters.PlatformRevenueTotal)
	fmt.Printf("total fares:        %.2f\n", counters.TotalFaresCollected)
}
