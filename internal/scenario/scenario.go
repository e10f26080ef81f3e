// Package scenario defines declarative scenario files: a named sequence of
// world operations (spawn, set, despawn, enqueue, cycle, suppress, resolve)
// used by the harness and the CLI.
//
// Scenario files are YAML. Before the decoded document is trusted it is
// unified against an embedded CUE schema, then semantically validated in
// Go (entity labels resolve, attributes are declared, scopes balance).
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one scenario document.
type Scenario struct {
	Name  string     `yaml:"name"`
	Attrs []AttrDecl `yaml:"attrs,omitempty"`
	Steps []Step     `yaml:"steps"`
}

// AttrDecl declares an attribute the scenario uses. Requires names another
// declared attribute that every entity receiving this one must also carry.
type AttrDecl struct {
	Name     string `yaml:"name"`
	Requires string `yaml:"requires,omitempty"`
}

// Step is a single scenario operation. Which fields apply depends on Op:
//
//	spawn:    entity
//	set:      entity, attr, value
//	despawn:  entity
//	enqueue:  phase, entity, attr, value (deferred set, runs at drain)
//	cycle:    count (default 1)
//	suppress: entity (optional; absent means global)
//	resolve:  entity (optional; must match an open suppress)
type Step struct {
	Op     string `yaml:"op"`
	Entity string `yaml:"entity,omitempty"`
	Attr   string `yaml:"attr,omitempty"`
	Value  any    `yaml:"value,omitempty"`
	Phase  string `yaml:"phase,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

// Load reads, vets, and decodes a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(raw)
}

// Parse vets raw YAML against the CUE schema, decodes it, and runs
// semantic validation.
func Parse(raw []byte) (*Scenario, error) {
	if err := Vet(raw); err != nil {
		return nil, err
	}

	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario's internal references: steps may only name
// declared attributes and previously spawned entities, phases must parse,
// and suppress/resolve must balance.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	declared := make(map[string]bool, len(s.Attrs))
	for _, a := range s.Attrs {
		if declared[a.Name] {
			return fmt.Errorf("attribute %q declared twice", a.Name)
		}
		declared[a.Name] = true
	}
	for _, a := range s.Attrs {
		if a.Requires != "" && !declared[a.Requires] {
			return fmt.Errorf("attribute %q requires undeclared attribute %q", a.Name, a.Requires)
		}
	}

	spawned := make(map[string]bool)
	openGlobal := false
	openEntity := make(map[string]bool)

	for i, step := range s.Steps {
		fail := func(format string, args ...any) error {
			return fmt.Errorf("step %d (%s): %s", i, step.Op, fmt.Sprintf(format, args...))
		}

		needEntity := func() error {
			if step.Entity == "" {
				return fail("entity is required")
			}
			if !spawned[step.Entity] {
				return fail("entity %q not spawned", step.Entity)
			}
			return nil
		}
		needAttr := func() error {
			if step.Attr == "" {
				return fail("attr is required")
			}
			if !declared[step.Attr] {
				return fail("attribute %q not declared", step.Attr)
			}
			return nil
		}

		switch step.Op {
		case "spawn":
			if step.Entity == "" {
				return fail("entity is required")
			}
			if spawned[step.Entity] {
				return fail("entity %q already spawned", step.Entity)
			}
			spawned[step.Entity] = true
		case "set":
			if err := needEntity(); err != nil {
				return err
			}
			if err := needAttr(); err != nil {
				return err
			}
		case "despawn":
			if err := needEntity(); err != nil {
				return err
			}
			delete(spawned, step.Entity)
		case "enqueue":
			if step.Phase == "" {
				return fail("phase is required")
			}
			if err := needEntity(); err != nil {
				return err
			}
			if err := needAttr(); err != nil {
				return err
			}
		case "cycle":
			// count defaults to 1 at execution time
		case "suppress":
			if step.Entity == "" {
				openGlobal = true
			} else {
				if err := needEntity(); err != nil {
					return err
				}
				openEntity[step.Entity] = true
			}
		case "resolve":
			if step.Entity == "" {
				if !openGlobal {
					return fail("no open global suppression")
				}
				openGlobal = false
			} else {
				if !openEntity[step.Entity] {
					return fail("no open suppression for entity %q", step.Entity)
				}
				delete(openEntity, step.Entity)
			}
		default:
			return fail("unknown op")
		}
	}

	return nil
}
