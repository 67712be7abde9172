package model

import (
	"time"
)

// Click is an immutable visit event. TS is the authoritative ordering key
// for attribution; rows are never updated or deleted by normal flow.
type Click struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	LinkID        uint      `json:"link_id" gorm:"index;not null"`
	ClientID      uint      `json:"client_id" gorm:"index:idx_clicks_client_ts,priority:1;not null"`
	TS            time.Time `json:"ts" gorm:"column:ts;index:idx_clicks_client_ts,priority:2;not null"`
	Referer       string    `json:"referer"`
	UserAgent     string    `json:"user_agent"`
	IPHash        string    `json:"ip_hash" gorm:"size:64"` // keyed SHA-256, raw IP is never stored
	Country       string    `json:"country" gorm:"size:8"`
	City          string    `json:"city"`
	UTMSource     string    `json:"utm_source"`
	UTMMedium     string    `json:"utm_medium"`
	UTMCampaign   string    `json:"utm_campaign"`
	AffiliateCode string    `json:"affiliate_code" gorm:"index"`
}
