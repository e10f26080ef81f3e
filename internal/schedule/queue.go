package schedule

import (
	"sync"

	"github.com/rkellett/holdfast/internal/world"
)

// invocation is one pending task: a cached system handle plus the input
// captured at enqueue time. Consumed exactly once when drained.
type invocation struct {
	id    world.SystemID
	input any
}

// taskQueues is the world-scoped resource holding one FIFO list per phase.
//
// The mutex exists so hooks and commands can append while a drain iterates
// its captured batch; there is no internal parallelism beyond that.
type taskQueues struct {
	mu      sync.Mutex
	byPhase [numPhases][]invocation
}

// append adds an invocation to the back of a phase's queue.
func (q *taskQueues) append(p Phase, inv invocation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.byPhase[p] = append(q.byPhase[p], inv)
}

// take atomically swaps a phase's queue for an empty one and returns the
// captured batch. Invocations appended after the swap wait for the next
// drain.
func (q *taskQueues) take(p Phase) []invocation {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.byPhase[p]
	q.byPhase[p] = nil
	return batch
}

// pending returns a phase's current queue length.
func (q *taskQueues) pending(p Phase) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byPhase[p])
}

// queuesFor returns the world's task queues, creating them on first use.
func queuesFor(w *world.World) *taskQueues {
	return world.InitResource[taskQueues](w)
}
