package schedule

import (
	"log/slog"

	"github.com/rkellett/holdfast/internal/world"
)

// Enqueue registers fn through the world's cached system registry and
// queues a single execution of it in the given phase. Repeat enqueues of
// the same function reuse the cached handle.
func Enqueue(w *world.World, p Phase, fn world.SystemFunc) {
	EnqueueWith(w, p, fn, nil)
}

// EnqueueWith is Enqueue with a per-invocation input value, passed to fn
// when the phase drains.
func EnqueueWith(w *world.World, p Phase, fn world.SystemFunc, input any) {
	id := w.RegisterSystem(fn)
	queuesFor(w).append(p, invocation{id: id, input: input})
}

// Defer is Enqueue for restricted contexts: it routes the registration
// itself through the command queue, so it is safe to call from inside an
// attribute hook.
func Defer(dw world.DeferredWorld, p Phase, fn world.SystemFunc) {
	DeferWith(dw, p, fn, nil)
}

// DeferWith is Defer with a per-invocation input value.
func DeferWith(dw world.DeferredWorld, p Phase, fn world.SystemFunc, input any) {
	dw.Commands().Queue(func(w *world.World) {
		EnqueueWith(w, p, fn, input)
	})
}

// Drain atomically takes the phase's pending invocations and executes them
// in enqueue order against the world. Invocations enqueued during the
// drain are excluded and wait for the next one.
//
// A failing invocation is logged with its phase, batch position, and
// system name; the rest of the batch still runs. Returns the number of
// invocations executed.
func Drain(w *world.World, p Phase) int {
	batch := queuesFor(w).take(p)
	for i, inv := range batch {
		if err := w.RunSystem(inv.id, inv.input); err != nil {
			slog.Error("deferred task failed",
				"phase", p.String(),
				"pos", i,
				"system", w.SystemName(inv.id),
				"error", err)
		}
	}
	return len(batch)
}

// Pending returns the number of invocations currently queued for a phase.
// Introspection for tests.
func Pending(w *world.World, p Phase) int {
	return queuesFor(w).pending(p)
}
