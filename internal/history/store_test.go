package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relver/internal/engine"
)

func decision(artifact, kind, prev, next string) *engine.Decision {
	return &engine.Decision{
		RunID:          fmt.Sprintf("run-%s-%s", artifact, next),
		Artifact:       artifact,
		Kind:           engine.DecisionKind(kind),
		Reason:         engine.ReasonContentChanged,
		Changed:        kind != "noop",
		CurrentVersion: prev,
		NextVersion:    next,
		ContentHash:    "cafe" + next,
	}
}

func TestRecordAndQuery(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, decision("core", "minor", "0.1.0", "0.2.0")))
	require.NoError(t, store.Record(ctx, decision("core", "patch", "0.2.0", "0.2.1")))
	require.NoError(t, store.Record(ctx, decision("cli", "major", "1.0.0", "2.0.0")))

	entries, err := store.ByArtifact(ctx, "core", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "0.2.1", entries[0].NextVersion, "newest first")
	assert.Equal(t, "0.2.0", entries[1].NextVersion)
	assert.Equal(t, "patch", entries[0].Decision)
	assert.False(t, entries[0].CreatedAt.IsZero())

	all, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "cli", all[0].Artifact)
}

func TestLimit(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, decision("core", "patch", "0.1.0", fmt.Sprintf("0.1.%d", i+1))))
	}

	entries, err := store.ByArtifact(ctx, "core", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestOpenPersistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), decision("core", "minor", "", "0.1.0")))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
