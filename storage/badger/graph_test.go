package badger

import (
	"context"
	"testing"

	"github.com/poiesic/hybrid/core"
	"github.com/poiesic/hybrid/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	acme     = core.EntityMention{Name: "Acme Corp", Type: core.EntityTypeOrganization}
	acmeLong = core.EntityMention{Name: "Acme Corporation", Type: core.EntityTypeOrganization}
	jane     = core.EntityMention{Name: "Jane Doe", Type: core.EntityTypePerson}
	berlin   = core.EntityMention{Name: "Berlin", Type: core.EntityTypeLocation}
)

func seedGraph(t *testing.T, c *Corpus) {
	t.Helper()
	require.NoError(t, c.Passages.PutPassages(context.Background(),
		testPassage("a1", "docA", "Acme hired Jane", core.PageOf(1), acme, jane),
		testPassage("a2", "docA", "Acme results", core.PageOf(2), acme),
		testPassage("b1", "docB", "Acme Corporation opens in Berlin", nil, acmeLong, berlin),
		testPassage("c1", "docC", "Jane moved to Berlin", core.PageOf(5), jane, berlin),
	))
}

func TestGraphStore_FindDocumentsMentioning(t *testing.T) {
	c := newTestCorpus(t)
	seedGraph(t, c)
	ctx := context.Background()

	t.Run("exact match is case-insensitive", func(t *testing.T) {
		docs, err := c.Graph.FindDocumentsMentioning(ctx, "ACME  corp", false)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "docA", docs[0].DocumentID)
		assert.Equal(t, []int{1, 2}, docs[0].Pages)
	})

	t.Run("fuzzy match uses containment", func(t *testing.T) {
		docs, err := c.Graph.FindDocumentsMentioning(ctx, "acme", true)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "docA", docs[0].DocumentID)
		assert.Equal(t, "docB", docs[1].DocumentID)
		assert.Empty(t, docs[1].Pages)
	})

	t.Run("fuzzy match finds longer query", func(t *testing.T) {
		docs, err := c.Graph.FindDocumentsMentioning(ctx, "Berlin Germany", true)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "docB", docs[0].DocumentID)
		assert.Equal(t, "docC", docs[1].DocumentID)
		assert.Equal(t, []int{5}, docs[1].Pages)
	})

	t.Run("exact match does not use containment", func(t *testing.T) {
		docs, err := c.Graph.FindDocumentsMentioning(ctx, "acme", false)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("empty entity", func(t *testing.T) {
		_, err := c.Graph.FindDocumentsMentioning(ctx, "  ", true)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}

func TestGraphStore_FindRelatedEntities(t *testing.T) {
	c := newTestCorpus(t)
	seedGraph(t, c)
	ctx := context.Background()

	t.Run("one hop", func(t *testing.T) {
		related, err := c.Graph.FindRelatedEntities(ctx, "Acme Corp", 1, 5)
		require.NoError(t, err)
		assert.Equal(t, []storage.RelatedEntity{
			{Name: "Jane Doe", Type: core.EntityTypePerson, SharedDocumentCount: 1},
		}, related)
	})

	t.Run("two hops", func(t *testing.T) {
		related, err := c.Graph.FindRelatedEntities(ctx, "Acme Corp", 2, 5)
		require.NoError(t, err)
		assert.Equal(t, []storage.RelatedEntity{
			{Name: "Berlin", Type: core.EntityTypeLocation, SharedDocumentCount: 1},
			{Name: "Jane Doe", Type: core.EntityTypePerson, SharedDocumentCount: 1},
		}, related)
	})

	t.Run("shared count orders results", func(t *testing.T) {
		related, err := c.Graph.FindRelatedEntities(ctx, "Berlin", 1, 5)
		require.NoError(t, err)
		assert.Equal(t, []storage.RelatedEntity{
			{Name: "Acme Corporation", Type: core.EntityTypeOrganization, SharedDocumentCount: 1},
			{Name: "Jane Doe", Type: core.EntityTypePerson, SharedDocumentCount: 1},
		}, related)
	})

	t.Run("limit truncates", func(t *testing.T) {
		related, err := c.Graph.FindRelatedEntities(ctx, "Berlin", 1, 1)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, "Acme Corporation", related[0].Name)
	})

	t.Run("unknown entity", func(t *testing.T) {
		related, err := c.Graph.FindRelatedEntities(ctx, "Nobody", 1, 5)
		require.NoError(t, err)
		assert.Empty(t, related)
	})
}

func TestGraphStore_SharedDocumentCount(t *testing.T) {
	c := newTestCorpus(t)
	ctx := context.Background()
	require.NoError(t, c.Passages.PutPassages(ctx,
		testPassage("x1", "d1", "one", nil, acme, jane),
		testPassage("x2", "d2", "two", nil, acme, jane),
		testPassage("x3", "d3", "three", nil, acme, berlin),
	))

	related, err := c.Graph.FindRelatedEntities(ctx, "acme corp", 1, 5)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, "Jane Doe", related[0].Name)
	assert.Equal(t, 2, related[0].SharedDocumentCount)
	assert.Equal(t, "Berlin", related[1].Name)
	assert.Equal(t, 1, related[1].SharedDocumentCount)
}

func TestGraphStore_ReplacementDropsEdges(t *testing.T) {
	c := newTestCorpus(t)
	seedGraph(t, c)
	ctx := context.Background()

	require.NoError(t, c.Passages.PutPassages(ctx,
		testPassage("a1", "docA", "Acme hired nobody", core.PageOf(1), acme)))

	related, err := c.Graph.FindRelatedEntities(ctx, "Acme Corp", 1, 5)
	require.NoError(t, err)
	assert.Empty(t, related)

	docs, err := c.Graph.FindDocumentsMentioning(ctx, "Acme Corp", false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, []int{1, 2}, docs[0].Pages)
}
