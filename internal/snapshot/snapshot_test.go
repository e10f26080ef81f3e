package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkellett/holdfast/internal/expect"
	"github.com/rkellett/holdfast/internal/world"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestManifest_EmptyStore(t *testing.T) {
	s := openTemp(t)

	_, _, _, err := s.Manifest()
	assert.ErrorContains(t, err, "no snapshot")
}

func TestSaveRestore_RoundTrip(t *testing.T) {
	src := world.NewWorld()
	position, err := src.RegisterAttr("position")
	require.NoError(t, err)
	label, err := src.RegisterAttr("label")
	require.NoError(t, err)

	a := src.Spawn()
	src.Set(a, position, 10)
	src.Set(a, label, "alpha")
	b := src.Spawn()
	src.Set(b, position, 20)

	s := openTemp(t)
	id, err := s.Save(src)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	manifestID, _, _, err := s.Manifest()
	require.NoError(t, err)
	assert.Equal(t, id, manifestID)

	dst := world.NewWorld()
	dstPosition, err := dst.RegisterAttr("position")
	require.NoError(t, err)
	dstLabel, err := dst.RegisterAttr("label")
	require.NoError(t, err)

	stats, err := s.Restore(dst)
	require.NoError(t, err)
	assert.Equal(t, id, stats.SnapshotID)
	assert.Equal(t, 2, stats.Entities)
	assert.Equal(t, 3, stats.Attributes)

	// JSON round-trips integers as float64; string values survive as-is.
	var positions []any
	var labels []string
	dst.Query(world.Read(dstPosition)).ForEach(func(_ world.Entity, values []any) {
		positions = append(positions, values[0])
	})
	dst.Query(world.Read(dstLabel)).ForEach(func(_ world.Entity, values []any) {
		labels = append(labels, values[0].(string))
	})
	assert.ElementsMatch(t, []any{float64(10), float64(20)}, positions)
	assert.Equal(t, []string{"alpha"}, labels)
}

func TestSaveRestore_HashStableAcrossRoundTrip(t *testing.T) {
	src := world.NewWorld()
	position, err := src.RegisterAttr("position")
	require.NoError(t, err)

	// Burn some handles so the source allocator's indices are sparse; the
	// restored world assigns fresh dense ones.
	burn := src.Spawn()
	src.Despawn(burn)
	e := src.Spawn()
	src.Set(e, position, 1)
	f := src.Spawn()
	src.Set(f, position, 2)

	s1 := openTemp(t)
	_, err = s1.Save(src)
	require.NoError(t, err)
	_, _, hash1, err := s1.Manifest()
	require.NoError(t, err)

	dst := world.NewWorld()
	_, err = dst.RegisterAttr("position")
	require.NoError(t, err)
	_, err = s1.Restore(dst)
	require.NoError(t, err)

	s2 := openTemp(t)
	_, err = s2.Save(dst)
	require.NoError(t, err)
	_, _, hash2, err := s2.Manifest()
	require.NoError(t, err)

	assert.Equal(t, hash1, hash2, "restore then re-save must preserve content identity")
}

func TestSave_ReplacesPreviousSnapshot(t *testing.T) {
	w := world.NewWorld()
	position, err := w.RegisterAttr("position")
	require.NoError(t, err)
	e := w.Spawn()
	w.Set(e, position, 1)

	s := openTemp(t)
	first, err := s.Save(w)
	require.NoError(t, err)

	w.Set(e, position, 2)
	second, err := s.Save(w)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	id, _, _, err := s.Manifest()
	require.NoError(t, err)
	assert.Equal(t, second, id, "one snapshot per file")
}

func TestRestore_SuppressesRequirementChecksDuringBatch(t *testing.T) {
	// "zz_anchor" sorts after "attachment", so storage order restores the
	// dependent attribute first. The batch-wide suppression scope is what
	// keeps that from tripping the requirement check mid-restore.
	src := world.NewWorld()
	anchor, err := src.RegisterAttr("zz_anchor")
	require.NoError(t, err)
	attachment, err := src.RegisterAttr("attachment")
	require.NoError(t, err)

	e := src.Spawn()
	src.Set(e, anchor, true)
	src.Set(e, attachment, "hook")

	s := openTemp(t)
	_, err = s.Save(src)
	require.NoError(t, err)

	dst := world.NewWorld()
	dstAnchor, err := dst.RegisterAttr("zz_anchor")
	require.NoError(t, err)
	_, err = dst.RegisterAttr("attachment", expect.Required(dstAnchor))
	require.NoError(t, err)

	stats, err := s.Restore(dst)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entities)
	assert.Equal(t, 2, stats.Attributes)
}

func TestRestore_RequirementViolationPanics(t *testing.T) {
	src := world.NewWorld()
	_, err := src.RegisterAttr("zz_anchor")
	require.NoError(t, err)
	attachment, err := src.RegisterAttr("attachment")
	require.NoError(t, err)

	e := src.Spawn()
	src.Set(e, attachment, "hook")

	s := openTemp(t)
	_, err = s.Save(src)
	require.NoError(t, err)

	dst := world.NewWorld()
	dstAnchor, err := dst.RegisterAttr("zz_anchor")
	require.NoError(t, err)
	_, err = dst.RegisterAttr("attachment", expect.Required(dstAnchor))
	require.NoError(t, err)

	assert.PanicsWithError(t,
		`expected attribute "zz_anchor" does not exist on entity e0v1`,
		func() { s.Restore(dst) })
}

func TestRestore_UnregisteredAttribute(t *testing.T) {
	src := world.NewWorld()
	position, err := src.RegisterAttr("position")
	require.NoError(t, err)
	e := src.Spawn()
	src.Set(e, position, 1)

	s := openTemp(t)
	_, err = s.Save(src)
	require.NoError(t, err)

	dst := world.NewWorld()
	_, err = s.Restore(dst)
	assert.ErrorContains(t, err, `unregistered attribute "position"`)

	rows := 0
	for _, c := range dst.Chunks() {
		rows += c.Len()
	}
	assert.Equal(t, 0, rows, "restore must not half-apply")
}

func TestRestore_ContentHashMismatch(t *testing.T) {
	src := world.NewWorld()
	position, err := src.RegisterAttr("position")
	require.NoError(t, err)
	e := src.Spawn()
	src.Set(e, position, 1)

	s := openTemp(t)
	_, err = s.Save(src)
	require.NoError(t, err)

	// Tamper with a stored value behind the manifest's back.
	_, err = s.db.Exec(`UPDATE attributes SET value = '99'`)
	require.NoError(t, err)

	dst := world.NewWorld()
	_, err = dst.RegisterAttr("position")
	require.NoError(t, err)
	_, err = s.Restore(dst)
	assert.ErrorContains(t, err, "content hash mismatch")
}

func TestMarshalCanonical_KeyOrderAndEscaping(t *testing.T) {
	got, err := marshalCanonical(map[string]any{
		"b":     "<&>",
		"a":     1,
		"count": []any{"x", true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"<&>","count":["x",true]}`, string(got))
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := marshalCanonical(map[string]any{"f": 1.5})
	assert.ErrorContains(t, err, "floats are forbidden")

	_, err = marshalCanonical(nil)
	assert.ErrorContains(t, err, "null is forbidden")
}

func TestLessUTF16_SupplementaryPlane(t *testing.T) {
	// U+1D11E encodes as a surrogate pair starting at 0xD834, so it sorts
	// before U+FF41 by UTF-16 code units despite its higher code point.
	assert.True(t, lessUTF16("\U0001d11e", "ａ"))
	assert.True(t, lessUTF16("a", "b"))
	assert.True(t, lessUTF16("a", "ab"))
}
