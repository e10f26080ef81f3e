package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_SaveThenRestore(t *testing.T) {
	scenarioPath := writeScenario(t, validateScenario)
	dbPath := filepath.Join(t.TempDir(), "world.db")

	save := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSnapshotCommand(rootOpts)
	cmd.SetOut(save)
	cmd.SetArgs([]string{"save", "--db", dbPath, scenarioPath})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, save.String(), "saved to "+dbPath)

	restore := &bytes.Buffer{}
	cmd = NewSnapshotCommand(rootOpts)
	cmd.SetOut(restore)
	cmd.SetArgs([]string{"restore", "--db", dbPath, scenarioPath})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, restore.String(), "restored: 1 entities, 1 attributes")
}

func TestSnapshot_RestoreEmptyDatabase(t *testing.T) {
	scenarioPath := writeScenario(t, validateScenario)
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSnapshotCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"restore", "--db", dbPath, scenarioPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no snapshot")
}

func TestSnapshot_DatabaseFlagRequired(t *testing.T) {
	scenarioPath := writeScenario(t, validateScenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSnapshotCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"save", scenarioPath})

	assert.Error(t, cmd.Execute())
}
