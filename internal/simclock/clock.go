package simclock

import (
	"container/heap"
	"fmt"
)

// Clock is the authoritative simulation time and event ordering service.
// It is not safe for concurrent use — the engine is single-threaded by
// design (spec.md §5).
type Clock struct {
	nowMS   int64
	EpochMS int64 // real-world time at sim-time 0

	queue   eventHeap
	seqNext int64

	// endTimeMS, when non-nil, instructs the runner to stop popping once
	// the next event's timestamp would be at or beyond it.
	endTimeMS *int64
}

func NewClock(epochMS int64) *Clock {
	q := make(eventHeap, 0)
	heap.Init(&q)
	return &Clock{EpochMS: epochMS, queue: q}
}

// SetEndTime installs the optional SimulationEndTimeMs bound.
func (c *Clock) SetEndTime(ts int64) {
	v := ts
	c.endTimeMS = &v
}

func (c *Clock) EndTime() (int64, bool) {
	if c.endTimeMS == nil {
		return 0, false
	}
	return *c.endTimeMS, true
}

// NowMS returns current simulation time.
func (c *Clock) NowMS() int64 { return c.nowMS }

// ScheduleAt schedules an event at an absolute timestamp. Precondition:
// ts >= NowMS(); violating it is an engine bug (invariant breach, spec.md
// §7), so it panics rather than silently clamping.
func (c *Clock) ScheduleAt(ts int64, kind EventKind, subject Subject) {
	if ts < c.nowMS {
		panic(fmt.Sprintf("simclock: schedule_at %s at %dms is before now (%dms)", kind, ts, c.nowMS))
	}
	c.seqNext++
	heap.Push(&c.queue, Event{TimestampMS: ts, Kind: kind, Subject: subject, seq: c.seqNext})
}

// ScheduleIn schedules an event delta milliseconds from now.
func (c *Clock) ScheduleIn(delta int64, kind EventKind, subject Subject) {
	if delta < 0 {
		panic(fmt.Sprintf("simclock: schedule_in negative delta %dms for %s", delta, kind))
	}
	c.ScheduleAt(c.nowMS+delta, kind, subject)
}

// Pop removes and returns the next event in (timestamp, kind, seq) order,
// advancing now to its timestamp. Returns ok=false if the queue is empty.
func (c *Clock) Pop() (Event, bool) {
	if c.queue.Len() == 0 {
		return Event{}, false
	}
	ev := heap.Pop(&c.queue).(Event)
	if ev.TimestampMS < c.nowMS {
		panic(fmt.Sprintf("simclock: timestamp regression popping %s: %dms < now %dms", ev.Kind, ev.TimestampMS, c.nowMS))
	}
	c.nowMS = ev.TimestampMS
	return ev, true
}

// PendingCount returns the number of events still queued.
func (c *Clock) PendingCount() int { return c.queue.Len() }

// Peek returns the next event without popping it.
func (c *Clock) Peek() (Event, bool) {
	if c.queue.Len() == 0 {
		return Event{}, false
	}
	return c.queue[0], true
}

// eventHeap is a container/heap min-heap ordered by (timestamp, kind, seq).
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].TimestampMS != h[j].TimestampMS {
		return h[i].TimestampMS < h[j].TimestampMS
	}
	if h[i].Kind != h[j].Kind {
		return h[i].Kind < h[j].Kind
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
