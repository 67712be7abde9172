package model

import (
	"time"
)

// Client owns campaigns and tracking links. Deleting a client cascades to
// its links.
type Client struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at"`
	Campaigns []Campaign `json:"campaigns,omitempty" gorm:"foreignKey:ClientID"`
	Links     []Link     `json:"links,omitempty" gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

type Campaign struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ClientID       uint      `json:"client_id" gorm:"index;not null"`
	Name           string    `json:"name" gorm:"not null"`
	DestinationURL string    `json:"destination_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// Clipper is a pseudo-identity for whoever generated a link. The 4-letter
// dashboard code is its only credential; lookups are case-insensitive.
type Clipper struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	DashboardCode string    `json:"dashboard_code" gorm:"uniqueIndex;size:8;not null"`
	CreatedAt     time.Time `json:"created_at"`
	Links         []Link    `json:"links,omitempty" gorm:"foreignKey:ClipperID"`
}
