package model

import (
	"time"
)

// Link maps a short slug to a destination URL. The slug is globally unique
// and case-sensitive; the handle is a free grouping label.
type Link struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Slug           string    `json:"slug" gorm:"uniqueIndex;size:64;not null"`
	Handle         string    `json:"handle" gorm:"index"`
	DestinationURL string    `json:"destination_url"`
	ClientID       uint      `json:"client_id" gorm:"index;not null"`
	CampaignID     *uint     `json:"campaign_id,omitempty" gorm:"index"`
	ClipperID      *uint     `json:"clipper_id,omitempty" gorm:"index"`
	CreatedAt      time.Time `json:"created_at"`

	Campaign *Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
}

// Destination returns the link's own destination, falling back to the
// campaign destination when the link carries none. Empty means unresolvable.
func (l *Link) Destination() string {
	if l.DestinationURL != "" {
		return l.DestinationURL
	}
	if l.Campaign != nil {
		return l.Campaign.DestinationURL
	}
	return ""
}
