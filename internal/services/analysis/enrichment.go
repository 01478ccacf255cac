package analysis

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/models"
)

// agencyIDs returns the distinct non-empty agency ids in records, sorted
func agencyIDs(records []models.AwardRecord) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, r := range records {
		if r.AgencyID == "" {
			continue
		}
		if _, ok := seen[r.AgencyID]; ok {
			continue
		}
		seen[r.AgencyID] = struct{}{}
		ids = append(ids, r.AgencyID)
	}
	sort.Strings(ids)
	return ids
}

// enrich looks up agency histories for every agency in records.
// Lookups run concurrently up to the configured limit and all finish before it returns.
// A failed lookup is logged and left out, so the affected records fall back to the heuristic.
func (s *Service) enrich(ctx context.Context, records []models.AwardRecord) map[string]models.AgencyHistory {
	if !s.enrichment.Enabled || s.source == nil {
		return nil
	}

	ids := agencyIDs(records)
	if len(ids) == 0 {
		return nil
	}

	limit := s.enrichment.Concurrency
	if limit < 1 {
		limit = 1
	}

	var (
		mu        sync.Mutex
		histories = make(map[string]models.AgencyHistory, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, id := range ids {
		g.Go(func() error {
			history, err := s.lookupHistory(gctx, id)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("agency_id", id).
					Msg("Agency history lookup failed, using heuristic")
				return nil
			}

			mu.Lock()
			histories[id] = *history
			mu.Unlock()
			return nil
		})
	}

	// Lookups never return errors; failures were already logged
	_ = g.Wait()

	return histories
}

// lookupHistory serves from the cache when fresh, otherwise asks the source and caches the result
func (s *Service) lookupHistory(ctx context.Context, agencyID string) (*models.AgencyHistory, error) {
	ttl := s.enrichment.CacheTTLDuration()

	if s.histories != nil {
		history, err := s.histories.GetHistory(ctx, agencyID, ttl)
		if err == nil {
			return history, nil
		}
		if !errors.Is(err, interfaces.ErrHistoryNotFound) {
			s.logger.Warn().Err(err).Str("agency_id", agencyID).Msg("Failed to read agency history cache")
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.enrichment.TimeoutDuration())
	defer cancel()

	history, err := s.source.GetAgencyHistory(lookupCtx, agencyID)
	if err != nil {
		return nil, err
	}
	if history.AgencyID == "" {
		history.AgencyID = agencyID
	}

	if s.histories != nil {
		if err := s.histories.SaveHistory(ctx, history); err != nil {
			s.logger.Warn().Err(err).Str("agency_id", agencyID).Msg("Failed to cache agency history")
		}
	}

	return history, nil
}
