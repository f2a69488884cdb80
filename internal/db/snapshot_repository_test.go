package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strato-space/voicesync/internal/models"
)

func testSession(id string) models.Session {
	return models.Session{
		ID:        id,
		Name:      "standup " + id,
		Source:    models.SourceVoice,
		IsActive:  true,
		UpdatedAt: 1700000000,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := NewSnapshotStore(db)
	ctx := context.Background()

	messages := []models.Message{
		{LogicalID: "m1", Timestamp: 10, Text: "first", Segments: []models.Segment{
			{ID: "chunk-1", Start: "10", End: "12", Speaker: "Ada", Text: "first"},
		}},
		{LogicalID: "m2", Timestamp: 20, Text: "second"},
	}
	require.NoError(t, store.SaveSnapshot(ctx, testSession("s1"), messages))

	session, loaded, err := store.LoadSnapshot(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "standup s1", session.Name)
	require.True(t, session.IsActive)
	require.Len(t, loaded, 2)
	require.Equal(t, "m1", loaded[0].LogicalID)
	require.Equal(t, "Ada", loaded[0].Segments[0].Speaker)
	require.Equal(t, "second", loaded[1].Text)
}

func TestSaveSnapshotReplacesWholesale(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := NewSnapshotStore(db)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, testSession("s1"), []models.Message{
		{LogicalID: "m1", Timestamp: 10},
		{LogicalID: "m2", Timestamp: 20},
		{LogicalID: "m3", Timestamp: 30},
	}))
	require.NoError(t, store.SaveSnapshot(ctx, testSession("s1"), []models.Message{
		{LogicalID: "m2", Timestamp: 20},
	}))

	_, loaded, err := store.LoadSnapshot(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "m2", loaded[0].LogicalID)
}

func TestLoadSnapshotMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := NewSnapshotStore(db)

	_, _, err := store.LoadSnapshot(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestDeleteSessionCascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := NewSnapshotStore(db)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, testSession("s1"), []models.Message{{LogicalID: "m1"}}))
	require.NoError(t, store.DeleteSession(ctx, "s1"))

	_, _, err := store.LoadSnapshot(ctx, "s1")
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count))
	require.Zero(t, count)
}

func TestSessionsListsSaved(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := NewSnapshotStore(db)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, testSession("a"), nil))
	require.NoError(t, store.SaveSnapshot(ctx, testSession("b"), nil))

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
}
