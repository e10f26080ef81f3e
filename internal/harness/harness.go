// Package harness executes scenario files against a fresh world and
// records a deterministic trace of observable effects. Tests compare
// traces against golden files; the CLI prints them.
package harness

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rkellett/holdfast/internal/expect"
	"github.com/rkellett/holdfast/internal/scenario"
	"github.com/rkellett/holdfast/internal/schedule"
	"github.com/rkellett/holdfast/internal/world"
)

// TraceEvent is one observable effect of scenario execution.
type TraceEvent struct {
	Seq    int    `json:"seq"`
	Op     string `json:"op"`
	Entity string `json:"entity,omitempty"`
	Attr   string `json:"attr,omitempty"`
	Value  any    `json:"value,omitempty"`
	Phase  string `json:"phase,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Result captures a completed scenario run. World and Entities stay
// available so tests can assert on final state beyond the trace.
type Result struct {
	Scenario string       `json:"scenario"`
	Trace    []TraceEvent `json:"trace"`

	World    *world.World            `json:"-"`
	Entities map[string]world.Entity `json:"-"`
}

// counterGenerator issues sequential cycle tokens so traces are
// deterministic without a pre-sized token list.
type counterGenerator struct {
	n int
}

func (g *counterGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("cycle-%03d", g.n)
}

// runState threads execution context through the step handlers.
type runState struct {
	w        *world.World
	runner   *schedule.Runner
	attrs    map[string]world.AttrID
	entities map[string]world.Entity
	scopes   map[string]*expect.Scope
	trace    []TraceEvent
}

func (st *runState) record(ev TraceEvent) {
	ev.Seq = len(st.trace) + 1
	st.trace = append(st.trace, ev)
}

// NewWorldFor creates a fresh world with the scenario's attributes
// registered (including their requirement hooks) but no steps executed.
// Snapshot restore uses this to rebuild a registry for stored attributes.
func NewWorldFor(s *scenario.Scenario) (*world.World, map[string]world.AttrID, error) {
	st := &runState{
		w:     world.NewWorld(),
		attrs: make(map[string]world.AttrID),
	}
	if err := registerAttrs(st, s.Attrs); err != nil {
		return nil, nil, err
	}
	return st.w, st.attrs, nil
}

// Run executes a validated scenario against a fresh world.
//
// A requirement violation raised during execution is recovered at this
// boundary and returned as an error wrapping *expect.ViolationError; the
// trace up to and including the violation comes back with it. Any other
// panic propagates.
func Run(s *scenario.Scenario) (result *Result, err error) {
	st := &runState{
		w:        world.NewWorld(),
		attrs:    make(map[string]world.AttrID),
		entities: make(map[string]world.Entity),
		scopes:   make(map[string]*expect.Scope),
	}
	st.runner = schedule.NewRunner(
		schedule.WithTokenGenerator(&counterGenerator{}),
		schedule.WithLogger(slog.Default()),
	)

	if err := registerAttrs(st, s.Attrs); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			violation, ok := r.(*expect.ViolationError)
			if !ok {
				panic(r)
			}
			st.record(TraceEvent{Op: "violation", Detail: violation.Error()})
			result = &Result{Scenario: s.Name, Trace: st.trace, World: st.w, Entities: st.entities}
			err = fmt.Errorf("scenario %q: %w", s.Name, violation)
		}
	}()

	for i, step := range s.Steps {
		if stepErr := runStep(st, step); stepErr != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, stepErr)
		}
	}

	// Land any mutation still sitting in the command queue so the final
	// world state matches what the trace promises.
	st.w.FlushCommands()

	return &Result{
		Scenario: s.Name,
		Trace:    st.trace,
		World:    st.w,
		Entities: st.entities,
	}, nil
}

// registerAttrs registers scenario attributes, deferring any whose
// required attribute has not been registered yet. scenario.Validate has
// already established that every requirement names a declared attribute,
// so only a requirement cycle can stall the loop.
func registerAttrs(st *runState, decls []scenario.AttrDecl) error {
	pending := make([]scenario.AttrDecl, len(decls))
	copy(pending, decls)

	for len(pending) > 0 {
		progressed := false
		var next []scenario.AttrDecl
		for _, decl := range pending {
			if decl.Requires != "" {
				requiredID, ok := st.attrs[decl.Requires]
				if !ok {
					next = append(next, decl)
					continue
				}
				id, err := st.w.RegisterAttr(decl.Name, expect.Required(requiredID))
				if err != nil {
					return err
				}
				st.attrs[decl.Name] = id
			} else {
				id, err := st.w.RegisterAttr(decl.Name)
				if err != nil {
					return err
				}
				st.attrs[decl.Name] = id
			}
			progressed = true
		}
		if !progressed {
			return fmt.Errorf("attribute requirements form a cycle")
		}
		pending = next
	}
	return nil
}

// taskInput is the per-enqueue payload for the deferred set task.
type taskInput struct {
	st    *runState
	label string
	attr  string
	value any
}

// deferredSet is the system scheduled by enqueue steps: it sets an
// attribute on an entity when its phase drains and records the execution.
func deferredSet(w *world.World, input any) error {
	in, ok := input.(taskInput)
	if !ok {
		return errors.New("unexpected input type")
	}
	e, ok := in.st.entities[in.label]
	if !ok {
		return fmt.Errorf("entity %q not found", in.label)
	}
	if !w.Set(e, in.st.attrs[in.attr], in.value) {
		return fmt.Errorf("entity %q (%s) is dead", in.label, e)
	}
	in.st.record(TraceEvent{Op: "task", Entity: in.label, Attr: in.attr, Value: in.value})
	return nil
}

func runStep(st *runState, step scenario.Step) error {
	switch step.Op {
	case "spawn":
		e := st.w.Spawn()
		st.entities[step.Entity] = e
		st.record(TraceEvent{Op: "spawn", Entity: step.Entity, Detail: e.String()})

	case "set":
		// Record first: if the flush raises a requirement violation, the
		// trace should show which set triggered it.
		st.record(TraceEvent{Op: "set", Entity: step.Entity, Attr: step.Attr, Value: step.Value})
		st.w.Set(st.entities[step.Entity], st.attrs[step.Attr], step.Value)
		st.w.FlushCommands()

	case "despawn":
		st.w.Despawn(st.entities[step.Entity])
		st.w.FlushCommands()
		st.record(TraceEvent{Op: "despawn", Entity: step.Entity})

	case "enqueue":
		phase, err := schedule.ParsePhase(step.Phase)
		if err != nil {
			return err
		}
		schedule.EnqueueWith(st.w, phase, deferredSet, taskInput{
			st:    st,
			label: step.Entity,
			attr:  step.Attr,
			value: step.Value,
		})
		st.record(TraceEvent{Op: "enqueue", Entity: step.Entity, Attr: step.Attr, Value: step.Value, Phase: step.Phase})

	case "cycle":
		count := step.Count
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			token := st.runner.Cycle(st.w)
			st.record(TraceEvent{Op: "cycle", Detail: token})
		}

	case "suppress":
		if step.Entity == "" {
			st.scopes[""] = expect.Suppress(st.w)
		} else {
			st.scopes[step.Entity] = expect.SuppressEntity(st.w, st.entities[step.Entity])
		}
		st.record(TraceEvent{Op: "suppress", Entity: step.Entity})

	case "resolve":
		scope, ok := st.scopes[step.Entity]
		if !ok {
			return fmt.Errorf("no open scope for %q", step.Entity)
		}
		delete(st.scopes, step.Entity)
		st.w.FlushCommands()
		scope.Resolve()
		st.record(TraceEvent{Op: "resolve", Entity: step.Entity})

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}
