package aliases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	table, err := New(map[string]string{
		"CB:B8:33:4C:88:4F": "Living room",
		"f7:2a:60:0d:6e:1e": "Sauna",
	})
	require.NoError(t, err)
	t.Run("configured address", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Living room", table.Resolve("CB:B8:33:4C:88:4F"))
	})
	t.Run("case-insensitive lookup", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Living room", table.Resolve("cb:b8:33:4c:88:4f"))
		assert.Equal(t, "Sauna", table.Resolve("F7:2A:60:0D:6E:1E"))
	})
	t.Run("unconfigured address falls back to canonical form", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "DE:AD:BE:EF:00:00", table.Resolve("de:ad:be:ef:00:00"))
	})
}

func TestResolveEmptyTable(t *testing.T) {
	t.Parallel()

	table, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "CB:B8:33:4C:88:4F", table.Resolve("cb:b8:33:4c:88:4f"))
	assert.Equal(t, 0, table.Len())
}

func TestDuplicateAddress(t *testing.T) {
	t.Parallel()

	_, err := New(map[string]string{
		"CB:B8:33:4C:88:4F": "Living room",
		"cb:b8:33:4c:88:4f": "Bedroom",
	})
	assert.ErrorIs(t, err, ErrDuplicateAddress)
}
