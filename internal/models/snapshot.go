package models

import "time"

// AllRecipientsKey is the snapshot key used when no recipient filter is applied
const AllRecipientsKey = "all"

// AwardSnapshot is a cached result of an upstream award search
type AwardSnapshot struct {
	Key        string     `json:"key"`
	Query      string     `json:"query"`
	RunID      string     `json:"run_id"`
	Awards     []RawAward `json:"awards"`
	AwardCount int        `json:"award_count"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// IsStale reports whether the snapshot is older than maxAge at now.
// A non-positive maxAge never expires.
func (s *AwardSnapshot) IsStale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.FetchedAt) > maxAge
}

// CachedAgencyHistory is an agency history with the time it was stored
type CachedAgencyHistory struct {
	AgencyID string        `json:"agency_id"`
	History  AgencyHistory `json:"history"`
	CachedAt time.Time     `json:"cached_at"`
}
