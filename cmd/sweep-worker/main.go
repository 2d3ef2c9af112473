package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"turbodriver/internal/engine"
	"turbodriver/internal/sweep"
)

// sweep-worker claims scenario variants off a Redis queue and drives each
// to completion independently, reporting counters back into the queue's
// results hash. Multiple instances can run against the same queue name
// since nothing but the queue itself is shared.
func main() {
	queueName := flag.String("queue", "default", "sweep queue name")
	redisAddr := flag.String("redis", envOrDefault("REDIS_ADDR", "localhost:6379"), "redis address")
	maxSteps := flag.Int("max-steps", 0, "per-job event cap; 0 means run until drained")
	snapshotRingCapacity := flag.Int("snapshot-ring", 100, "telemetry snapshot ring buffer capacity")
	claimTimeout := flag.Duration("claim-timeout", 5*time.Second, "how long to block waiting for a job")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()
	queue := sweep.NewQueue(client, *queueName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("shutting down")
		cancel()
	}()

	log.Printf("sweep-worker polling queue %q on %s", *queueName, *redisAddr)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := queue.Claim(ctx, *claimTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("claim failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log.Printf("running job %s (variant %s)", job.ID, job.Variant)
		result := runJob(*job, *maxSteps, *snapshotRingCapacity)
		if err := queue.Complete(ctx, *job, result); err != nil {
			log.Printf("complete failed for job %s: %v", job.ID, err)
		}
	}
}

func runJob(job sweep.Job, maxSteps, snapshotRingCapacity int) sweep.Result {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("job %s panicked: %v", job.ID, r)
		}
	}()

	runner := engine.New(job.Config, snapshotRingCapacity)
	steps := runner.RunUntilEmpty(maxSteps)

	counters := runner.Ctx.Telemetry.Counters
	raw, _ := json.Marshal(counters)
	var asMap map[string]any
	_ = json.Unmarshal(raw, &asMap)

	return sweep.Result{
		JobID:    job.ID,
		Variant:  job.Variant,
		StepsRun: steps,
		Counters: asMap,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
