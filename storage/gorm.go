package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/model"

	"gorm.io/gorm"
)

// GormLinkStore implements LinkStore over GORM.
type GormLinkStore struct {
	db *gorm.DB
}

func NewLinkStore(db *gorm.DB) *GormLinkStore {
	return &GormLinkStore{db: db}
}

func (s *GormLinkStore) Create(ctx context.Context, link *model.Link) error {
	return s.db.WithContext(ctx).Create(link).Error
}

func (s *GormLinkStore) BySlug(ctx context.Context, slug string) (*model.Link, error) {
	var link model.Link
	err := s.db.WithContext(ctx).Preload("Campaign").Where("slug = ?", slug).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *GormLinkStore) ByID(ctx context.Context, id uint) (*model.Link, error) {
	var link model.Link
	err := s.db.WithContext(ctx).Preload("Campaign").First(&link, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *GormLinkStore) ByClient(ctx context.Context, clientID uint) ([]model.Link, error) {
	var links []model.Link
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at desc").Find(&links).Error
	return links, err
}

func (s *GormLinkStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Link{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (s *GormLinkStore) Update(ctx context.Context, link *model.Link) error {
	return s.db.WithContext(ctx).Save(link).Error
}

func (s *GormLinkStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Link{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormClickStore implements ClickStore over GORM.
type GormClickStore struct {
	db *gorm.DB
}

func NewClickStore(db *gorm.DB) *GormClickStore {
	return &GormClickStore{db: db}
}

func (s *GormClickStore) Create(ctx context.Context, click *model.Click) error {
	return s.db.WithContext(ctx).Create(click).Error
}

func (s *GormClickStore) LatestInWindow(ctx context.Context, clientID uint, from, to time.Time) (*model.Click, error) {
	var click model.Click
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND ts >= ? AND ts <= ?", clientID, from, to).
		Order("ts desc, id asc").
		First(&click).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &click, nil
}

func (s *GormClickStore) LatestForClient(ctx context.Context, clientID uint) (*model.Click, error) {
	var click model.Click
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("ts desc, id asc").
		First(&click).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &click, nil
}

// GormConversionStore implements ConversionStore over GORM.
type GormConversionStore struct {
	db *gorm.DB
}

func NewConversionStore(db *gorm.DB) *GormConversionStore {
	return &GormConversionStore{db: db}
}

func (s *GormConversionStore) Create(ctx context.Context, conv *model.Conversion) error {
	return s.db.WithContext(ctx).Create(conv).Error
}

func (s *GormConversionStore) ByID(ctx context.Context, id uint) (*model.Conversion, error) {
	var conv model.Conversion
	err := s.db.WithContext(ctx).First(&conv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *GormConversionStore) Orphans(ctx context.Context, since time.Time) ([]model.Conversion, error) {
	var convs []model.Conversion
	err := s.db.WithContext(ctx).
		Where("link_id IS NULL AND paid_at >= ?", since).
		Order("paid_at asc").
		Find(&convs).Error
	return convs, err
}

func (s *GormConversionStore) AssignLink(ctx context.Context, conversionID, linkID uint) (bool, error) {
	// Guarding on link_id IS NULL keeps re-runs idempotent: an already
	// linked conversion is never overwritten.
	res := s.db.WithContext(ctx).
		Model(&model.Conversion{}).
		Where("id = ? AND link_id IS NULL", conversionID).
		Update("link_id", linkID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GormClipperStore implements ClipperStore over GORM. Dashboard codes are
// stored lowercase; lookups lowercase their input for case-insensitivity.
type GormClipperStore struct {
	db *gorm.DB
}

func NewClipperStore(db *gorm.DB) *GormClipperStore {
	return &GormClipperStore{db: db}
}

func (s *GormClipperStore) Create(ctx context.Context, clipper *model.Clipper) error {
	clipper.DashboardCode = strings.ToLower(clipper.DashboardCode)
	return s.db.WithContext(ctx).Create(clipper).Error
}

func (s *GormClipperStore) ByCode(ctx context.Context, code string) (*model.Clipper, error) {
	var clipper model.Clipper
	err := s.db.WithContext(ctx).Where("dashboard_code = ?", strings.ToLower(code)).First(&clipper).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &clipper, nil
}

func (s *GormClipperStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Clipper{}).Where("dashboard_code = ?", strings.ToLower(code)).Count(&count).Error
	return count > 0, err
}

// GormClientStore implements ClientStore over GORM.
type GormClientStore struct {
	db *gorm.DB
}

func NewClientStore(db *gorm.DB) *GormClientStore {
	return &GormClientStore{db: db}
}

func (s *GormClientStore) CreateClient(ctx context.Context, client *model.Client) error {
	return s.db.WithContext(ctx).Create(client).Error
}

func (s *GormClientStore) ClientByID(ctx context.Context, id uint) (*model.Client, error) {
	var client model.Client
	err := s.db.WithContext(ctx).First(&client, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *GormClientStore) Clients(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&clients).Error
	return clients, err
}

func (s *GormClientStore) DeleteClient(ctx context.Context, id uint) error {
	// Links go with the client; clicks stay as historical events.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&model.Link{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Client{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormClientStore) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	return s.db.WithContext(ctx).Create(campaign).Error
}

func (s *GormClientStore) CampaignByID(ctx context.Context, id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	err := s.db.WithContext(ctx).First(&campaign, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}
