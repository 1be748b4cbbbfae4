package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudconstruct/securefile/pkg/securefile"
	"github.com/cloudconstruct/securefile/pkg/securefile/storage/memory"
)

func TestInsertGetRoundTrip(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	payload := []byte("in memory")
	require.NoError(t, provider.Insert(ctx, "doc.txt", payload, "text/plain", int64(len(payload)), false))

	file, err := provider.Get(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, payload, file.Bytes)
	assert.Equal(t, "text/plain", file.ContentType)
}

func TestGet_ReturnsCopy(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	require.NoError(t, provider.Insert(ctx, "doc.txt", []byte("stable"), "text/plain", 6, false))

	file, err := provider.Get(ctx, "doc.txt")
	require.NoError(t, err)
	file.Bytes[0] = 'X'

	again, err := provider.Get(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("stable"), again.Bytes)
}

func TestInsert_Conflict(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	require.NoError(t, provider.Insert(ctx, "doc.txt", []byte("a"), "text/plain", 1, false))
	err := provider.Insert(ctx, "doc.txt", []byte("b"), "text/plain", 1, false)
	assert.ErrorIs(t, err, securefile.ErrObjectExists)
}

func TestDeleteExists(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	removed, err := provider.Delete(ctx, "doc.txt")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, provider.Insert(ctx, "doc.txt", []byte("a"), "text/plain", 1, false))

	ok, err := provider.Exists(ctx, "doc.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err = provider.Delete(ctx, "doc.txt")
	require.NoError(t, err)
	assert.True(t, removed)

	ok, err = provider.Exists(ctx, "doc.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignedURL_Unsupported(t *testing.T) {
	provider := memory.New()

	_, err := provider.SignedURL(context.Background(), "doc.txt", 0)
	assert.ErrorIs(t, err, securefile.ErrSignedURLUnsupported)
}
