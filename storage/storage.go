package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/model"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
)

// IsDuplicateKey reports whether err is a unique-constraint violation. The
// allocator treats this as an ordinary retry signal, not a failure.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// LinkStore persists tracking links.
type LinkStore interface {
	Create(ctx context.Context, link *model.Link) error
	BySlug(ctx context.Context, slug string) (*model.Link, error)
	ByID(ctx context.Context, id uint) (*model.Link, error)
	ByClient(ctx context.Context, clientID uint) ([]model.Link, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, link *model.Link) error
	Delete(ctx context.Context, id uint) error
}

// ClickStore persists click events and serves the attribution queries.
type ClickStore interface {
	Create(ctx context.Context, click *model.Click) error
	// LatestInWindow returns the most recent click for the client with
	// from <= ts <= to. Ties on ts break by lowest id.
	LatestInWindow(ctx context.Context, clientID uint, from, to time.Time) (*model.Click, error)
	// LatestForClient returns the most recent click for the client,
	// unbounded in time.
	LatestForClient(ctx context.Context, clientID uint) (*model.Click, error)
}

// ConversionStore persists conversions.
type ConversionStore interface {
	Create(ctx context.Context, conv *model.Conversion) error
	ByID(ctx context.Context, id uint) (*model.Conversion, error)
	// Orphans returns conversions without a link whose paid_at is at or
	// after since.
	Orphans(ctx context.Context, since time.Time) ([]model.Conversion, error)
	// AssignLink sets link_id only when it is still null. Returns false
	// when the conversion was already linked (or does not exist).
	AssignLink(ctx context.Context, conversionID, linkID uint) (bool, error)
}

// ClipperStore persists link generators keyed by dashboard code.
type ClipperStore interface {
	Create(ctx context.Context, clipper *model.Clipper) error
	ByCode(ctx context.Context, code string) (*model.Clipper, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// ClientStore persists clients and campaigns.
type ClientStore interface {
	CreateClient(ctx context.Context, client *model.Client) error
	ClientByID(ctx context.Context, id uint) (*model.Client, error)
	Clients(ctx context.Context) ([]model.Client, error)
	DeleteClient(ctx context.Context, id uint) error
	CreateCampaign(ctx context.Context, campaign *model.Campaign) error
	CampaignByID(ctx context.Context, id uint) (*model.Campaign, error)
}
