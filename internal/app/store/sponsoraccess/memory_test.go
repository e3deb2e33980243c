package sponsoraccess_test

import (
	"context"
	"testing"

	"github.com/mta-community/mtahub/internal/app/store/sponsoraccess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReplacesCode(t *testing.T) {
	ctx := context.Background()
	m := sponsoraccess.NewMemory()

	_, err := m.Check(ctx, "sp-1", "x")
	assert.ErrorIs(t, err, sponsoraccess.ErrNoCode)

	require.NoError(t, m.SetCode(ctx, "sp-1", "first-code", "Admin"))
	require.NoError(t, m.SetCode(ctx, "sp-1", "second-code", "Admin"))

	ok, err := m.Check(ctx, "sp-1", "first-code")
	require.NoError(t, err)
	assert.False(t, ok, "old code should stop working")

	ok, err = m.Check(ctx, "sp-1", "second-code")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "sp-1"))
	_, err = m.Check(ctx, "sp-1", "second-code")
	assert.ErrorIs(t, err, sponsoraccess.ErrNoCode)
}
