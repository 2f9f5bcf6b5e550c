package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVisible(t *testing.T) {
	db := setupTestDB(t)
	insertUsers(t, db, "alice", "bob", "carol", "dave")
	graph := NewAccessGraph(db)
	resolver := NewVisibilityResolver(db)

	visible, err := resolver.ResolveVisible(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, visible)

	for _, target := range []string{"dave", "alice"} {
		_, err := graph.Grant(ctx, "bob", target)
		require.NoError(t, err)
	}
	// A grant in the other direction does not widen bob's view.
	_, err = graph.Grant(ctx, "carol", "bob")
	require.NoError(t, err)

	visible, err = resolver.ResolveVisible(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice", "dave"}, visible)

	_, err = graph.Revoke(ctx, "bob", "dave")
	require.NoError(t, err)
	visible, err = resolver.ResolveVisible(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, visible)
}

func TestResolveVisible_UnknownRequester(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewVisibilityResolver(db)

	visible, err := resolver.ResolveVisible(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, []string{"nobody"}, visible)
}

func TestCanView(t *testing.T) {
	db := setupTestDB(t)
	insertUsers(t, db, "alice", "bob")
	resolver := NewVisibilityResolver(db)

	ok, err := resolver.CanView(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.CanView(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewAccessGraph(db).Grant(ctx, "alice", "bob")
	require.NoError(t, err)

	ok, err = resolver.CanView(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOwnerFilter(t *testing.T) {
	where, args := ownerFilter("owner", nil)
	assert.Equal(t, "1 = 0", where)
	assert.Empty(t, args)

	where, args = ownerFilter("owner", []string{"a", "b"})
	assert.Equal(t, "owner IN (?, ?)", where)
	assert.Equal(t, []interface{}{"a", "b"}, args)
}
