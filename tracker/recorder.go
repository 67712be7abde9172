// Package tracker captures click events for resolved links: contextual
// metadata, hashed IP, geolocation, UTM parameters.
package tracker

import (
	"context"
	"net/http"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/geo"
	"github.com/ClipsonBusiness/tracking-system-sub001/model"
	"github.com/ClipsonBusiness/tracking-system-sub001/storage"
	"github.com/ClipsonBusiness/tracking-system-sub001/utils"

	"github.com/rs/zerolog/log"
)

// Recorder builds and persists Click rows.
type Recorder struct {
	clicks  storage.ClickStore
	geo     geo.Resolver
	salt    string
	timeout time.Duration
}

func NewRecorder(clicks storage.ClickStore, resolver geo.Resolver, salt string, timeout time.Duration) *Recorder {
	return &Recorder{clicks: clicks, geo: resolver, salt: salt, timeout: timeout}
}

// Record captures and persists one click. Geolocation failures degrade to
// unknown fields; only the store write can fail.
func (rec *Recorder) Record(ctx context.Context, link *model.Link, r *http.Request, affiliateCode string) (*model.Click, error) {
	ip := utils.ClientIP(r)
	loc := rec.geo.Resolve(r, ip)
	query := r.URL.Query()

	click := &model.Click{
		LinkID:        link.ID,
		ClientID:      link.ClientID,
		TS:            time.Now(),
		Referer:       r.Referer(),
		UserAgent:     r.UserAgent(),
		IPHash:        utils.HashIP(ip, rec.salt),
		Country:       loc.Country,
		City:          loc.City,
		UTMSource:     query.Get("utm_source"),
		UTMMedium:     query.Get("utm_medium"),
		UTMCampaign:   query.Get("utm_campaign"),
		AffiliateCode: affiliateCode,
	}

	if err := rec.clicks.Create(ctx, click); err != nil {
		return nil, err
	}
	return click, nil
}

// RecordDetached records the click off the request's critical path. The
// request is cloned first so the handler can answer immediately; failures
// are logged and swallowed, never propagated.
func (rec *Recorder) RecordDetached(link *model.Link, r *http.Request, affiliateCode string) {
	req := r.Clone(context.Background())

	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error().Interface("panic", p).Msg("Click recording panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), rec.timeout)
		defer cancel()

		if _, err := rec.Record(ctx, link, req, affiliateCode); err != nil {
			log.Error().Err(err).Str("slug", link.Slug).Msg("Failed to record click")
		}
	}()
}
