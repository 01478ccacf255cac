package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/models"
	"github.com/ternarybob/govspend/internal/usaspending"
)

// fakeSource is an in-memory AwardSource
type fakeSource struct {
	mu           sync.Mutex
	awards       []models.RawAward
	searchErr    error
	searches     []usaspending.AwardSearch
	histories    map[string]models.AgencyHistory
	failing      map[string]bool
	delay        time.Duration
	historyCalls atomic.Int32
	inFlight     atomic.Int32
	maxInFlight  atomic.Int32
}

func (f *fakeSource) SearchAwards(ctx context.Context, search usaspending.AwardSearch) ([]models.RawAward, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searches = append(f.searches, search)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]models.RawAward(nil), f.awards...), nil
}

func (f *fakeSource) GetAgencyHistory(ctx context.Context, agencyID string) (*models.AgencyHistory, error) {
	f.historyCalls.Add(1)

	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if current <= peak || f.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.failing[agencyID] {
		return nil, &usaspending.APIError{StatusCode: 500, Message: "boom", Endpoint: agencyID}
	}
	history, ok := f.histories[agencyID]
	if !ok {
		return nil, fmt.Errorf("agency %s not found", agencyID)
	}
	return &history, nil
}

func (f *fakeSource) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

// memStorage is an in-memory StorageManager
type memStorage struct {
	mu        sync.Mutex
	snapshots map[string]*models.AwardSnapshot
	histories map[string]models.CachedAgencyHistory
	now       func() time.Time
}

func newMemStorage(now func() time.Time) *memStorage {
	return &memStorage{
		snapshots: make(map[string]*models.AwardSnapshot),
		histories: make(map[string]models.CachedAgencyHistory),
		now:       now,
	}
}

func (m *memStorage) SnapshotStorage() interfaces.SnapshotStorage           { return m }
func (m *memStorage) AgencyHistoryStorage() interfaces.AgencyHistoryStorage { return m }
func (m *memStorage) Compact() error                                        { return nil }
func (m *memStorage) Close() error                                          { return nil }

func (m *memStorage) SaveSnapshot(ctx context.Context, snapshot *models.AwardSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot.AwardCount = len(snapshot.Awards)
	copied := *snapshot
	m.snapshots[snapshot.Key] = &copied
	return nil
}

func (m *memStorage) GetSnapshot(ctx context.Context, key string) (*models.AwardSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.snapshots[key]
	if !ok {
		return nil, interfaces.ErrSnapshotNotFound
	}
	copied := *snapshot
	return &copied, nil
}

func (m *memStorage) ListSnapshots(ctx context.Context) ([]*models.AwardSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.AwardSnapshot, 0, len(m.snapshots))
	for _, snapshot := range m.snapshots {
		result = append(result, snapshot)
	}
	return result, nil
}

func (m *memStorage) DeleteSnapshot(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, key)
	return nil
}

func (m *memStorage) SaveHistory(ctx context.Context, history *models.AgencyHistory) error {
	if history == nil || history.AgencyID == "" {
		return errors.New("agency history requires an agency id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[history.AgencyID] = models.CachedAgencyHistory{AgencyID: history.AgencyID, History: *history, CachedAt: m.now()}
	return nil
}

func (m *memStorage) GetHistory(ctx context.Context, agencyID string, maxAge time.Duration) (*models.AgencyHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.histories[agencyID]
	if !ok || (maxAge > 0 && m.now().Sub(entry.CachedAt) > maxAge) {
		return nil, interfaces.ErrHistoryNotFound
	}
	history := entry.History
	return &history, nil
}

func (m *memStorage) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	return 0, nil
}
