package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	buf := []byte("value")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'X'

	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", string(v), "stored value must not alias the caller's buffer")

	v[0] = 'Y'
	v2, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "value", string(v2), "returned value must not alias storage")
}

func TestMemoryQuota(t *testing.T) {
	m := NewMemory(WithQuota(3))
	ctx := context.Background()

	assert.NoError(t, m.Set(ctx, "k", []byte("abc")))
	assert.ErrorIs(t, m.Set(ctx, "k", []byte("abcd")), ErrQuotaExceeded)

	seq, err := m.WriteSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestMemoryFailWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("disk full")

	m.FailWrites(boom)
	assert.ErrorIs(t, m.Set(ctx, "k", []byte("v")), boom)

	m.FailWrites(nil)
	assert.NoError(t, m.Set(ctx, "k", []byte("v")))
}

func TestMemoryEntries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "z", nil))
	require.NoError(t, m.Set(ctx, "a", []byte("abc")))
	m.FailWrites(errors.New("disk full"))
	require.Error(t, m.Set(ctx, "z", []byte("lost")))

	entries, err := m.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: "a", Bytes: 3, UpdatedSeq: 2},
		{Key: "z", Bytes: 0, UpdatedSeq: 1},
	}, entries)

	seq, err := m.WriteSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}
