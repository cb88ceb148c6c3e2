package state

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func record(id string, finished time.Time, fingerprint string) BuildRecord {
	return BuildRecord{
		ID:              id,
		StartedAt:       finished.Add(-time.Second),
		FinishedAt:      finished,
		Outcome:         "success",
		DocumentCount:   3,
		FindingCount:    0,
		DocsFingerprint: fingerprint,
	}
}

func TestStore_RecordAndLastBuild(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	last, err := store.LastBuild(ctx)
	require.NoError(t, err)
	require.Nil(t, last)

	now := time.Now().Truncate(time.Second).UTC()
	rec := record(uuid.NewString(), now, "fp-1")
	require.NoError(t, store.RecordBuild(ctx, rec, map[string]string{"index": "a", "quickstart": "b"}))

	last, err = store.LastBuild(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, rec.ID, last.ID)
	require.Equal(t, "success", last.Outcome)
	require.Equal(t, now, last.FinishedAt)
}

func TestStore_RecentBuildsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Second).UTC()

	require.NoError(t, store.RecordBuild(ctx, record("b1", base.Add(-2*time.Minute), "f1"), nil))
	require.NoError(t, store.RecordBuild(ctx, record("b2", base.Add(-time.Minute), "f2"), nil))
	require.NoError(t, store.RecordBuild(ctx, record("b3", base, "f3"), nil))

	builds, err := store.RecentBuilds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	require.Equal(t, "b3", builds[0].ID)
	require.Equal(t, "b2", builds[1].ID)
}

func TestStore_ChangedSince(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// No previous build: everything is new.
	changed, err := store.ChangedSince(ctx, map[string]string{"b": "2", "a": "1"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, changed)

	now := time.Now().UTC()
	require.NoError(t, store.RecordBuild(ctx, record("b1", now, "fp"), map[string]string{
		"index":      "h-index",
		"quickstart": "h-qs",
		"changelog":  "h-cl",
	}))

	// Modified quickstart, removed changelog, added api.
	changed, err = store.ChangedSince(ctx, map[string]string{
		"index":      "h-index",
		"quickstart": "h-qs-new",
		"api":        "h-api",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"api", "changelog", "quickstart"}, changed)
}

func TestStore_ChangedSince_NoChanges(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	fps := map[string]string{"index": "x"}
	require.NoError(t, store.RecordBuild(ctx, record("b1", time.Now().UTC(), "fp"), fps))

	changed, err := store.ChangedSince(ctx, fps)
	require.NoError(t, err)
	require.Empty(t, changed)
}

func TestStore_DuplicateBuildIDFails(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.RecordBuild(ctx, record("dup", now, "f"), nil))
	require.Error(t, store.RecordBuild(ctx, record("dup", now, "f"), nil))
}
