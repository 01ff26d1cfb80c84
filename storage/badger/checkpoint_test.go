package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/hybrid/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRepository(t *testing.T) {
	c := newTestCorpus(t)
	ctx := context.Background()

	t.Run("missing checkpoint", func(t *testing.T) {
		cp, err := c.Checkpoints.LoadCheckpoint(ctx, "corpus.jsonl")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})

	t.Run("save and load", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		require.NoError(t, c.Checkpoints.SaveCheckpoint(ctx, &storage.Checkpoint{Name: "corpus.jsonl", Offset: 42}))

		cp, err := c.Checkpoints.LoadCheckpoint(ctx, "corpus.jsonl")
		require.NoError(t, err)
		require.NotNil(t, cp)
		assert.Equal(t, "corpus.jsonl", cp.Name)
		assert.Equal(t, int64(42), cp.Offset)
		assert.True(t, cp.UpdatedAt.After(before))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, c.Checkpoints.SaveCheckpoint(ctx, &storage.Checkpoint{Name: "corpus.jsonl", Offset: 100}))
		cp, err := c.Checkpoints.LoadCheckpoint(ctx, "corpus.jsonl")
		require.NoError(t, err)
		assert.Equal(t, int64(100), cp.Offset)
	})
}
