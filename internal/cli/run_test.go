package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkellett/holdfast/internal/harness"
)

const runScenarioYAML = `name: demo
attrs:
  - name: position
  - name: velocity
    requires: position
steps:
  - op: spawn
    entity: probe
  - op: set
    entity: probe
    attr: position
    value: 0
  - op: set
    entity: probe
    attr: velocity
    value: 5
  - op: enqueue
    phase: update
    entity: probe
    attr: velocity
    value: 7
  - op: cycle
`

func TestRun_TextTrace(t *testing.T) {
	path := writeScenario(t, runScenarioYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "scenario demo: 6 events")
	assert.Contains(t, output, "spawn")
	assert.Contains(t, output, "velocity=7 @update")
	assert.Contains(t, output, "(cycle-001)")
}

func TestRun_JSONTrace(t *testing.T) {
	path := writeScenario(t, runScenarioYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var result harness.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "demo", result.Scenario)
	assert.Len(t, result.Trace, 6)
}

func TestRun_ViolationExitsFailure(t *testing.T) {
	path := writeScenario(t, `name: bad-probe
attrs:
  - name: position
  - name: velocity
    requires: position
steps:
  - op: spawn
    entity: probe
  - op: set
    entity: probe
    attr: velocity
    value: 5
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// The partial trace is printed so the failing step is visible.
	assert.Contains(t, buf.String(), "violation")
}

func TestRun_MalformedScenarioExitsCommandError(t *testing.T) {
	path := writeScenario(t, `name: demo
steps:
  - op: set
    entity: ghost
    attr: position
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
