package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incrementCounter(w *World, input any) error {
	return nil
}

func alwaysFails(w *World, input any) error {
	return errors.New("boom")
}

func TestRegisterSystem_CachedPerIdentity(t *testing.T) {
	w := NewWorld()

	id1 := w.RegisterSystem(incrementCounter)
	id2 := w.RegisterSystem(incrementCounter)
	id3 := w.RegisterSystem(alwaysFails)

	assert.Equal(t, id1, id2, "repeat registration must reuse the handle")
	assert.NotEqual(t, id1, id3)
	assert.Equal(t, 2, w.RegisteredSystems())
}

func TestRunSystem_PassesInput(t *testing.T) {
	w := NewWorld()

	var got any
	id := w.RegisterSystem(func(w *World, input any) error {
		got = input
		return nil
	})

	require.NoError(t, w.RunSystem(id, 42))
	assert.Equal(t, 42, got)
}

func TestRunSystem_UnknownHandle(t *testing.T) {
	w := NewWorld()

	err := w.RunSystem(SystemID(7), nil)
	assert.ErrorContains(t, err, "unknown system handle")
}

func TestRunSystem_WrapsFailureWithName(t *testing.T) {
	w := NewWorld()

	id := w.RegisterSystem(alwaysFails)
	err := w.RunSystem(id, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
	assert.Contains(t, err.Error(), "alwaysFails")
}

func TestSystemName_Unknown(t *testing.T) {
	w := NewWorld()
	assert.Equal(t, "system#3", w.SystemName(SystemID(3)))
}
