package scenario

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Vet unifies a raw YAML scenario document against the embedded CUE schema.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// Vet only establishes that the document has the right shape; referential
// checks (entity labels, declared attributes, scope balance) live in
// Validate, which needs the decoded document.
func Vet(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("scenario is not valid YAML: %w", err)
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal: scenario schema does not compile: %w", err)
	}
	scenarioDef := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := scenarioDef.Err(); err != nil {
		return fmt.Errorf("internal: #Scenario missing from schema: %w", err)
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("scenario does not encode to CUE: %w", err)
	}

	unified := scenarioDef.Unify(value)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario does not match schema: %s", formatCUEError(err))
	}
	return nil
}

// formatCUEError flattens a CUE error list into one line per problem.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += "; "
		}
		out += e.Error()
	}
	return out
}
