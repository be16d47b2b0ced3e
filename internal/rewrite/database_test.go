package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabase() *Database {
	return NewDatabase(
		Pair{Index: 9, Primary: "one"},
		Pair{Primary: "two"},
		Pair{Primary: "three"},
	)
}

func TestDatabase_Renumbers(t *testing.T) {
	db := testDatabase()
	require.Equal(t, 3, db.Len())
	for i, p := range db.Pairs() {
		assert.Equal(t, i+1, p.Index)
	}
}

func TestDatabase_At(t *testing.T) {
	db := testDatabase()

	p, err := db.At(2)
	require.NoError(t, err)
	assert.Equal(t, "two", p.Primary)

	for _, i := range []int{0, 4, -1} {
		_, err := db.At(i)
		assert.ErrorIs(t, err, ErrRestartOutOfRange)
	}
}

func TestDatabase_From(t *testing.T) {
	db := testDatabase()

	all, err := db.From(1)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tail, err := db.From(3)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, 3, tail[0].Index)

	none, err := db.From(4)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = db.From(0)
	assert.ErrorIs(t, err, ErrRestartOutOfRange)
	_, err = db.From(5)
	assert.ErrorIs(t, err, ErrRestartOutOfRange)
}

func TestDatabase_PairsIsCopy(t *testing.T) {
	db := testDatabase()
	pairs := db.Pairs()
	pairs[0].Primary = "changed"

	p, err := db.At(1)
	require.NoError(t, err)
	assert.Equal(t, "one", p.Primary)
}

func TestNameMap(t *testing.T) {
	m := NewNameMap()
	assert.Equal(t, "kernel", m.Resolve("kernel"))

	m.Record("kernel", "kernel_copy")
	m.Record("prog", "prog_fpc")
	m.Record("kernel", "kernel_v2_copy")

	got, ok := m.Lookup("kernel")
	require.True(t, ok)
	assert.Equal(t, "kernel_v2_copy", got)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []Mapping{
		{Original: "kernel", Renamed: "kernel_v2_copy"},
		{Original: "prog", Renamed: "prog_fpc"},
	}, m.Entries())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("plugin")
	require.NoError(t, err)
	assert.Equal(t, ModeHostPlugin, m)

	m, err = ParseMode("pass")
	require.NoError(t, err)
	assert.Equal(t, ModeNativePass, m)

	_, err = ParseMode("jit")
	assert.Error(t, err)
}

func TestCopyName(t *testing.T) {
	assert.Equal(t, "src/k_copy.cu", CopyName("src/k.cu", "_copy"))
	assert.Equal(t, "k_copy", CopyName("k", "_copy"))
}
