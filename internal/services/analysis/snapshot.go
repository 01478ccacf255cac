package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/govspend/internal/common"
	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/models"
	"github.com/ternarybob/govspend/internal/usaspending"
)

// snapshotKey is the storage key of the configured snapshot query
func (s *Service) snapshotKey() string {
	query := strings.ToLower(strings.TrimSpace(s.upstream.RecipientSearch))
	if query == "" {
		return models.AllRecipientsKey
	}
	return query
}

// FetchAwards searches the award source without touching the snapshot
func (s *Service) FetchAwards(ctx context.Context, recipientText string) ([]models.RawAward, error) {
	if s.source == nil {
		return nil, ErrNoAwardSource
	}

	awards, err := s.source.SearchAwards(ctx, usaspending.AwardSearch{
		RecipientText: strings.TrimSpace(recipientText),
		LookbackYears: s.upstream.LookbackYears,
		MaxPages:      s.upstream.MaxPages,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return awards, nil
}

// RefreshSnapshot fetches the configured query from the source and replaces the stored snapshot
func (s *Service) RefreshSnapshot(ctx context.Context) (*models.AwardSnapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	return s.refreshLocked(ctx)
}

func (s *Service) refreshLocked(ctx context.Context) (*models.AwardSnapshot, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot storage not configured")
	}

	awards, err := s.FetchAwards(ctx, s.upstream.RecipientSearch)
	if err != nil {
		return nil, err
	}

	snapshot := &models.AwardSnapshot{
		Key:       s.snapshotKey(),
		Query:     s.upstream.RecipientSearch,
		RunID:     common.NewRunID(),
		Awards:    awards,
		FetchedAt: s.now().UTC(),
	}
	if err := s.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.logger.Info().
		Str("key", snapshot.Key).
		Str("run_id", snapshot.RunID).
		Int("awards", snapshot.AwardCount).
		Msg("Award snapshot refreshed")

	return snapshot, nil
}

// currentSnapshot returns the stored snapshot, refreshing it when missing or stale.
// If a refresh fails but a stale snapshot exists, the stale one is served.
func (s *Service) currentSnapshot(ctx context.Context) (*models.AwardSnapshot, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot storage not configured")
	}

	snapshot, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot != nil && !snapshot.IsStale(s.now().UTC(), s.maxAge) {
		return snapshot, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited
	if latest, err := s.loadSnapshot(ctx); err == nil && latest != nil && !latest.IsStale(s.now().UTC(), s.maxAge) {
		return latest, nil
	}

	refreshed, err := s.refreshLocked(ctx)
	if err != nil {
		if snapshot != nil {
			s.logger.Warn().
				Err(err).
				Str("key", snapshot.Key).
				Str("fetched_at", snapshot.FetchedAt.Format(time.RFC3339)).
				Msg("Snapshot refresh failed, serving stale snapshot")
			return snapshot, nil
		}
		return nil, err
	}
	return refreshed, nil
}

// loadSnapshot returns nil without error when nothing is stored yet
func (s *Service) loadSnapshot(ctx context.Context) (*models.AwardSnapshot, error) {
	snapshot, err := s.snapshots.GetSnapshot(ctx, s.snapshotKey())
	if errors.Is(err, interfaces.ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snapshot, nil
}

// Snapshots lists the stored snapshots, most recent first
func (s *Service) Snapshots(ctx context.Context) ([]*models.AwardSnapshot, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot storage not configured")
	}

	snapshots, err := s.snapshots.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].FetchedAt.After(snapshots[j].FetchedAt)
	})
	return snapshots, nil
}

// PruneSnapshots deletes snapshots stored under any key other than the configured query.
// They are left behind when the recipient search changes and are never read again.
func (s *Service) PruneSnapshots(ctx context.Context) (int, error) {
	snapshots, err := s.Snapshots(ctx)
	if err != nil {
		return 0, err
	}

	current := s.snapshotKey()
	removed := 0
	for _, snapshot := range snapshots {
		if snapshot.Key == current {
			continue
		}
		if err := s.snapshots.DeleteSnapshot(ctx, snapshot.Key); err != nil {
			return removed, fmt.Errorf("failed to prune snapshot %s: %w", snapshot.Key, err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().
			Str("kept", current).
			Int("removed", removed).
			Msg("Pruned orphaned snapshots")
	}
	return removed, nil
}
