package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/govspend/internal/common"
	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func openTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	dir := t.TempDir()
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func TestSnapshotStorage_SaveGetDelete(t *testing.T) {
	db := openTestDB(t)
	storage := NewSnapshotStorage(db, arbor.NewLogger())
	ctx := context.Background()

	_, err := storage.GetSnapshot(ctx, "acme")
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)

	snapshot := &models.AwardSnapshot{
		Key:   "  ACME ",
		Query: "Acme",
		RunID: "run_1",
		Awards: []models.RawAward{
			{ID: "A1", Amount: 100, Date: "2023-01-01", AwardingAgency: &models.Agency{ID: "097", Name: "DOD"}, Shape: models.AgencyShapeNested},
			{ID: "A2", Amount: 200, RecipientName: "Acme"},
		},
		FetchedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, storage.SaveSnapshot(ctx, snapshot))
	assert.Equal(t, "acme", snapshot.Key)

	got, err := storage.GetSnapshot(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "run_1", got.RunID)
	assert.Equal(t, 2, got.AwardCount)
	require.Len(t, got.Awards, 2)
	require.NotNil(t, got.Awards[0].AwardingAgency)
	assert.Equal(t, "DOD", got.Awards[0].AwardingAgency.Name)
	assert.Equal(t, 200.0, got.Awards[1].Amount.Float64())
	assert.True(t, snapshot.FetchedAt.Equal(got.FetchedAt))

	require.NoError(t, storage.DeleteSnapshot(ctx, "acme"))
	_, err = storage.GetSnapshot(ctx, "acme")
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)

	// deleting again is a no-op
	assert.NoError(t, storage.DeleteSnapshot(ctx, "acme"))
}

func TestSnapshotStorage_ListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	storage := NewSnapshotStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, storage.SaveSnapshot(ctx, &models.AwardSnapshot{Key: "", FetchedAt: base}))
	require.NoError(t, storage.SaveSnapshot(ctx, &models.AwardSnapshot{Key: "acme", FetchedAt: base.Add(time.Hour)}))

	snapshots, err := storage.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "acme", snapshots[0].Key)
	assert.Equal(t, models.AllRecipientsKey, snapshots[1].Key)
}

func TestSnapshotStorage_SaveNil(t *testing.T) {
	storage := NewSnapshotStorage(openTestDB(t), arbor.NewLogger())
	assert.Error(t, storage.SaveSnapshot(context.Background(), nil))
}

func TestAgencyHistoryStorage_MaxAge(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	storage := &AgencyHistoryStorage{db: db, logger: arbor.NewLogger(), now: func() time.Time { return now }}
	ctx := context.Background()

	require.NoError(t, storage.SaveHistory(ctx, &models.AgencyHistory{AgencyID: "097", NewAwardCount: 120, TotalObligations: 2e9}))

	got, err := storage.GetHistory(ctx, "097", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 120, got.NewAwardCount)
	assert.Equal(t, 2e9, got.TotalObligations)

	// two hours later the entry is stale for a one hour window but fine without a limit
	now = now.Add(2 * time.Hour)
	_, err = storage.GetHistory(ctx, "097", time.Hour)
	assert.ErrorIs(t, err, interfaces.ErrHistoryNotFound)

	_, err = storage.GetHistory(ctx, "097", 0)
	assert.NoError(t, err)

	_, err = storage.GetHistory(ctx, "missing", 0)
	assert.ErrorIs(t, err, interfaces.ErrHistoryNotFound)
}

func TestAgencyHistoryStorage_Purge(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	storage := &AgencyHistoryStorage{db: db, logger: arbor.NewLogger(), now: func() time.Time { return now }}
	ctx := context.Background()

	require.NoError(t, storage.SaveHistory(ctx, &models.AgencyHistory{AgencyID: "old"}))
	now = now.Add(48 * time.Hour)
	require.NoError(t, storage.SaveHistory(ctx, &models.AgencyHistory{AgencyID: "fresh"}))

	purged, err := storage.PurgeOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = storage.GetHistory(ctx, "old", 0)
	assert.ErrorIs(t, err, interfaces.ErrHistoryNotFound)
	_, err = storage.GetHistory(ctx, "fresh", 0)
	assert.NoError(t, err)
}

func TestAgencyHistoryStorage_RequiresID(t *testing.T) {
	storage := NewAgencyHistoryStorage(openTestDB(t), arbor.NewLogger())
	assert.Error(t, storage.SaveHistory(context.Background(), &models.AgencyHistory{}))
	assert.Error(t, storage.SaveHistory(context.Background(), nil))
}

func TestNewManager_ResetOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "govspend")
	logger := arbor.NewLogger()
	ctx := context.Background()

	manager, err := NewManager(logger, &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, manager.SnapshotStorage().SaveSnapshot(ctx, &models.AwardSnapshot{Key: "acme", FetchedAt: time.Now()}))
	require.NoError(t, manager.Close())

	// reopen keeps data
	manager, err = NewManager(logger, &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	_, err = manager.SnapshotStorage().GetSnapshot(ctx, "acme")
	require.NoError(t, err)
	require.NoError(t, manager.Close())

	// reset drops it
	manager, err = NewManager(logger, &common.BadgerConfig{Path: path, ResetOnStartup: true})
	require.NoError(t, err)
	defer manager.Close()
	_, err = manager.SnapshotStorage().GetSnapshot(ctx, "acme")
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)
}

func TestManager_CompactOnFreshStore(t *testing.T) {
	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "govspend")})
	require.NoError(t, err)
	defer manager.Close()

	// nothing to rewrite is not an error
	assert.NoError(t, manager.Compact())
}
