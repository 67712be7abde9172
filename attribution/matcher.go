package attribution

import (
	"context"
	"errors"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/model"
	"github.com/ClipsonBusiness/tracking-system-sub001/storage"

	"github.com/rs/zerolog/log"
)

// Matcher joins conversions that arrived without attribution to the click
// that most plausibly caused them.
type Matcher struct {
	clicks      storage.ClickStore
	conversions storage.ConversionStore
}

func NewMatcher(clicks storage.ClickStore, conversions storage.ConversionStore) *Matcher {
	return &Matcher{clicks: clicks, conversions: conversions}
}

// BatchResult tallies one reconciliation pass.
type BatchResult struct {
	Fixed  int `json:"fixed"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Reconcile assigns the most plausible originating click to an orphan
// conversion and returns the chosen link id, or nil when no click exists
// for the client at all (a normal terminal outcome).
//
// Primary rule: the newest click with paid_at-window <= ts <= paid_at.
// Fallback: the newest click ever recorded for the client, accepting weaker
// confidence over leaving the conversion permanently unlinked. A conversion
// that is already linked is left untouched.
func (m *Matcher) Reconcile(ctx context.Context, conv *model.Conversion, window time.Duration) (*uint, error) {
	if conv.Linked() {
		return conv.LinkID, nil
	}

	click, err := m.clicks.LatestInWindow(ctx, conv.ClientID, conv.PaidAt.Add(-window), conv.PaidAt)
	if errors.Is(err, storage.ErrNotFound) {
		click, err = m.clicks.LatestForClient(ctx, conv.ClientID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
	}
	if err != nil {
		return nil, err
	}

	assigned, err := m.conversions.AssignLink(ctx, conv.ID, click.LinkID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		// Linked by a concurrent pass between our read and the update.
		log.Info().Uint("conversion_id", conv.ID).Msg("Conversion already linked, skipping")
		return conv.LinkID, nil
	}

	log.Info().
		Uint("conversion_id", conv.ID).
		Uint("link_id", click.LinkID).
		Time("click_ts", click.TS).
		Time("paid_at", conv.PaidAt).
		Msg("Orphan conversion attributed")

	linkID := click.LinkID
	return &linkID, nil
}

// ReconcileBatch processes every orphan conversion paid within lookback.
// Conversions are independent: one failure is tallied, logged, and never
// aborts the pass. Re-runs are safe; already-linked conversions are no-ops.
func (m *Matcher) ReconcileBatch(ctx context.Context, lookback, window time.Duration) (BatchResult, error) {
	orphans, err := m.conversions.Orphans(ctx, time.Now().Add(-lookback))
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Total: len(orphans)}
	for i := range orphans {
		linkID, err := m.Reconcile(ctx, &orphans[i], window)
		if err != nil {
			log.Error().Err(err).Uint("conversion_id", orphans[i].ID).Msg("Failed to reconcile conversion")
			result.Failed++
			continue
		}
		if linkID == nil {
			result.Failed++
			continue
		}
		result.Fixed++
	}

	log.Info().
		Int("total", result.Total).
		Int("fixed", result.Fixed).
		Int("failed", result.Failed).
		Msg("Orphan reconciliation pass finished")

	return result, nil
}
