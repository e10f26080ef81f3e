package expect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkellett/holdfast/internal/world"
)

func newWorldWith(t *testing.T, names ...string) (*world.World, []world.AttrID) {
	t.Helper()
	w := world.NewWorld()
	ids := make([]world.AttrID, len(names))
	for i, name := range names {
		id, err := w.RegisterAttr(name)
		require.NoError(t, err)
		ids[i] = id
	}
	return w, ids
}

func TestRequire_PresentPasses(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	e := w.Spawn()
	w.Set(e, ids[0], 1)

	assert.NotPanics(t, func() { Require(w, e, ids[0]) })
}

func TestRequire_AbsentPanics(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	e := w.Spawn()

	assert.PanicsWithError(t,
		`expected attribute "position" does not exist on entity e0v1`,
		func() { Require(w, e, ids[0]) })
}

func TestRequire_DeadEntityDrops(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	e := w.Spawn()
	w.Despawn(e)

	assert.NotPanics(t, func() { Require(w, e, ids[0]) })
}

func TestSuppress_BuffersUntilResolve(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	e := w.Spawn()

	scope := Suppress(w)
	Require(w, e, ids[0])
	assert.Equal(t, 1, BufferedCount(w), "check must not run while suppressed")

	// Satisfying the requirement before the scope resolves is the whole
	// point of suppression.
	w.Set(e, ids[0], 1)
	assert.NotPanics(t, scope.Resolve)
	assert.Equal(t, 0, BufferedCount(w))
}

func TestSuppress_ResolvePanicsOnUnmetCheck(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	e := w.Spawn()

	scope := Suppress(w)
	Require(w, e, ids[0])

	assert.PanicsWithError(t,
		`expected attribute "position" does not exist on entity e0v1`,
		scope.Resolve)
}

func TestSuppress_DespawnBeforeResolveDrops(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	e := w.Spawn()

	scope := Suppress(w)
	Require(w, e, ids[0])
	w.Despawn(e)

	assert.NotPanics(t, scope.Resolve)
	assert.Equal(t, 0, BufferedCount(w))
}

func TestSuppressEntity_OnlyBuffersThatEntity(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	covered := w.Spawn()
	other := w.Spawn()

	scope := SuppressEntity(w, covered)
	defer scope.Resolve()

	Require(w, covered, ids[0])
	assert.Equal(t, 1, BufferedCount(w))

	// The other entity is outside the window; its check runs immediately.
	assert.PanicsWithError(t,
		`expected attribute "position" does not exist on entity e1v1`,
		func() { Require(w, other, ids[0]) })

	w.Set(covered, ids[0], 1)
}

func TestSuppressEntity_ResolveFlushesOnlyOwnChecks(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	a := w.Spawn()
	b := w.Spawn()

	scopeA := SuppressEntity(w, a)
	scopeB := SuppressEntity(w, b)
	Require(w, a, ids[0])
	Require(w, b, ids[0])

	w.Set(a, ids[0], 1)
	scopeA.Resolve()
	assert.Equal(t, 1, BufferedCount(w), "b's check stays buffered")

	w.Set(b, ids[0], 1)
	assert.NotPanics(t, scopeB.Resolve)
	assert.Equal(t, 0, BufferedCount(w))
}

func TestResolve_GlobalTakesPrecedence(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	e := w.Spawn()

	global := Suppress(w)
	perEntity := SuppressEntity(w, e)
	Require(w, e, ids[0])

	// While the global window is open, resolving the per-entity scope must
	// not flush: the check is still suppressed.
	assert.NotPanics(t, perEntity.Resolve)
	assert.Equal(t, 1, BufferedCount(w))

	w.Set(e, ids[0], 1)
	assert.NotPanics(t, global.Resolve)
	assert.Equal(t, 0, BufferedCount(w))
}

func TestResolve_Idempotent(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	e := w.Spawn()

	scope := Suppress(w)
	Require(w, e, ids[0])
	w.Set(e, ids[0], 1)

	scope.Resolve()
	assert.True(t, scope.Resolved())

	// The second resolve must not re-run checks, even ones that would now
	// fail again.
	w.Remove(e, ids[0])
	assert.NotPanics(t, scope.Resolve)
}

func TestResolve_GlobalFlushOrderIsFirstBuffered(t *testing.T) {
	w, ids := newWorldWith(t, "position")
	first := w.Spawn()
	second := w.Spawn()

	scope := Suppress(w)
	Require(w, second, ids[0])
	Require(w, first, ids[0])

	// Both checks are unmet; the panic must name the entity buffered first.
	assert.PanicsWithError(t,
		`expected attribute "position" does not exist on entity e1v1`,
		scope.Resolve)
}

func TestRequired_HookChecksAtFlush(t *testing.T) {
	w := world.NewWorld()
	position, err := w.RegisterAttr("position")
	require.NoError(t, err)
	velocity, err := w.RegisterAttr("velocity", Required(position))
	require.NoError(t, err)

	e := w.Spawn()
	w.Set(e, velocity, 5)

	// The hook defers through the command queue; nothing validates until
	// the flush point.
	assert.PanicsWithError(t,
		`expected attribute "position" does not exist on entity e0v1`,
		w.FlushCommands)
}

func TestRequired_SatisfiedBeforeFlushPasses(t *testing.T) {
	w := world.NewWorld()
	position, err := w.RegisterAttr("position")
	require.NoError(t, err)
	velocity, err := w.RegisterAttr("velocity", Required(position))
	require.NoError(t, err)

	e := w.Spawn()
	w.Set(e, velocity, 5)
	w.Set(e, position, 0)

	assert.NotPanics(t, w.FlushCommands)
}

func TestRequired_SuppressionDefersToResolve(t *testing.T) {
	w := world.NewWorld()
	position, err := w.RegisterAttr("position")
	require.NoError(t, err)
	velocity, err := w.RegisterAttr("velocity", Required(position))
	require.NoError(t, err)

	e := w.Spawn()
	scope := Suppress(w)

	w.Set(e, velocity, 5)
	assert.NotPanics(t, w.FlushCommands)
	assert.Equal(t, 1, BufferedCount(w))

	w.Set(e, position, 0)
	w.FlushCommands()
	assert.NotPanics(t, scope.Resolve)
}

func TestPattern_MatchingChunkDelegates(t *testing.T) {
	w, ids := newWorldWith(t, "position", "velocity")
	e := w.Spawn()
	w.Set(e, ids[0], 10)
	w.Set(e, ids[1], 2)

	var got [][]any
	w.Query(world.Read(ids[0]), New(w, ids[1])).ForEach(func(_ world.Entity, values []any) {
		got = append(got, values)
	})

	require.Len(t, got, 1)
	assert.Equal(t, []any{10, 2}, got[0])
}

func TestPattern_MismatchPanicsInsteadOfFiltering(t *testing.T) {
	w, ids := newWorldWith(t, "position", "velocity")
	e := w.Spawn()
	w.Set(e, ids[0], 10)

	q := w.Query(world.Read(ids[0]), New(w, ids[1]))
	assert.PanicsWithError(t,
		`expected attribute "velocity" does not match entity e0v1`,
		func() { q.ForEach(func(world.Entity, []any) {}) })
}

func TestPattern_DeclaresInnerRead(t *testing.T) {
	w, ids := newWorldWith(t, "velocity")

	q := w.Query(New(w, ids[0]))
	assert.True(t, q.Access().HasRead(ids[0]),
		"conflict detection needs the inner access even without filtering")
}

func TestPattern_CachesMembershipPerChunk(t *testing.T) {
	w, ids := newWorldWith(t, "position", "velocity")

	p := New(w, ids[1])
	e := w.Spawn()
	w.Set(e, ids[0], 1)
	w.Set(e, ids[1], 2)

	var chunk *world.Chunk
	for _, c := range w.Chunks() {
		if c.Has(ids[0]) && c.Has(ids[1]) {
			chunk = c
		}
	}
	require.NotNil(t, chunk)

	assert.True(t, p.MatchChunk(chunk))
	assert.True(t, p.MatchChunk(chunk), "repeat matches reuse the cached result")
	assert.Equal(t, 2, p.Fetch(chunk, 0))
}
