package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue wraps a Redis list as a work queue of Jobs, and a hash as the
// results table workers report into. Mirrors the teacher's Index
// wrapping a single redis.Client around one purpose-built key.
type Queue struct {
	client     *redis.Client
	pendingKey string
	claimedKey string
	resultsKey string
}

func NewQueue(client *redis.Client, name string) *Queue {
	return &Queue{
		client:     client,
		pendingKey: "sweep:" + name + ":pending",
		claimedKey: "sweep:" + name + ":claimed",
		resultsKey: "sweep:" + name + ":results",
	}
}

// Enqueue pushes jobs onto the pending list for workers to claim.
func (q *Queue) Enqueue(ctx context.Context, jobs []Job) error {
	for _, job := range jobs {
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		if err := q.client.LPush(ctx, q.pendingKey, data).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Claim blocks up to timeout for a job, atomically moving it from the
// pending list to a per-worker claimed list so a crashed worker's job is
// recoverable rather than silently lost.
func (q *Queue) Claim(ctx context.Context, timeout time.Duration) (*Job, error) {
	raw, err := q.client.BRPopLPush(ctx, q.pendingKey, q.claimedKey, timeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Complete records a job's result and removes it from the claimed list.
func (q *Queue) Complete(ctx context.Context, job Job, result Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.resultsKey, job.ID, data)
	rawJob, _ := json.Marshal(job)
	pipe.LRem(ctx, q.claimedKey, 1, rawJob)
	_, err = pipe.Exec(ctx)
	return err
}

// Results returns every recorded result, keyed by job id.
func (q *Queue) Results(ctx context.Context) (map[string]Result, error) {
	raw, err := q.client.HGetAll(ctx, q.resultsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Result, len(raw))
	for id, data := range raw {
		var r Result
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			continue
		}
		out[id] = r
	}
	return out, nil
}

// PendingCount reports the number of jobs still waiting to be claimed.
func (q *Queue) PendingCount(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.pendingKey).Result()
}
