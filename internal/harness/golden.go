package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/rkellett/holdfast/internal/scenario"
)

// RunWithGolden executes a scenario and compares its trace against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can make further assertions on final
// world state. Test failure (via goldie) occurs if the trace doesn't
// match the golden file.
func RunWithGolden(t *testing.T, s *scenario.Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return result, err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result, err
	}
	encoded = append(encoded, '\n')

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, s.Name, encoded)
	return result, nil
}
