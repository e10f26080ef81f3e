package schedule

import (
	"log/slog"

	"github.com/rkellett/holdfast/internal/world"
)

// Runner is the frame driver: it invokes each recognized phase once per
// update cycle, in order, flushing the command queue around every drain so
// mutation scheduled from hooks lands before the next phase observes the
// world.
type Runner struct {
	tokens TokenGenerator
	log    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTokenGenerator overrides the cycle token generator. Tests use a
// FixedGenerator for deterministic traces.
func WithTokenGenerator(g TokenGenerator) RunnerOption {
	return func(r *Runner) {
		r.tokens = g
	}
}

// WithLogger overrides the runner's logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// NewRunner creates a Runner with UUIDv7 cycle tokens and the default
// logger.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		tokens: UUIDv7Generator{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cycle runs one full update cycle and returns its correlation token.
//
// Per phase: flush commands, drain the phase's deferred tasks, flush again.
// The trailing flush makes mutation queued by drained tasks visible before
// the next phase begins.
func (r *Runner) Cycle(w *world.World) string {
	token := r.tokens.Generate()
	log := r.log.With("cycle", token)
	log.Debug("cycle begin")

	for _, p := range Phases() {
		w.FlushCommands()
		if n := Drain(w, p); n > 0 {
			log.Debug("phase drained", "phase", p.String(), "tasks", n)
		}
		w.FlushCommands()
	}

	log.Debug("cycle end")
	return token
}
