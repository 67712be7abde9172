package handler

import (
	"context"
	"sync"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/model"
	"github.com/ClipsonBusiness/tracking-system-sub001/storage"

	"gorm.io/gorm"
)

// In-memory stores backing the handler tests. They honor the same contract
// as the GORM implementations: unique slugs and invoice ids surface as
// gorm.ErrDuplicatedKey, missing rows as storage.ErrNotFound.

type fakeLinkStore struct {
	mu     sync.Mutex
	byID   map[uint]*model.Link
	nextID uint

	// forceDupes makes the next N Create calls fail with a duplicate-key
	// error regardless of the slug, simulating insert races.
	forceDupes int
	// everyoneExists makes SlugExists report every candidate as taken.
	everyoneExists bool
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{byID: make(map[uint]*model.Link)}
}

func (s *fakeLinkStore) seed(link *model.Link) *model.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	link.ID = s.nextID
	s.byID[link.ID] = link
	return link
}

func (s *fakeLinkStore) Create(ctx context.Context, link *model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forceDupes > 0 {
		s.forceDupes--
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range s.byID {
		if existing.Slug == link.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	s.nextID++
	link.ID = s.nextID
	link.CreatedAt = time.Now()
	s.byID[link.ID] = link
	return nil
}

func (s *fakeLinkStore) BySlug(ctx context.Context, slug string) (*model.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range s.byID {
		if link.Slug == slug {
			copied := *link
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeLinkStore) ByID(ctx context.Context, id uint) (*model.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (s *fakeLinkStore) ByClient(ctx context.Context, clientID uint) ([]model.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Link
	for _, link := range s.byID {
		if link.ClientID == clientID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (s *fakeLinkStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	if s.everyoneExists {
		return true, nil
	}
	_, err := s.BySlug(ctx, slug)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (s *fakeLinkStore) Update(ctx context.Context, link *model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.byID {
		if existing.Slug == link.Slug && id != link.ID {
			return gorm.ErrDuplicatedKey
		}
	}
	copied := *link
	s.byID[link.ID] = &copied
	return nil
}

func (s *fakeLinkStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

type fakeClickStore struct {
	mu        sync.Mutex
	clicks    []*model.Click
	createErr error
}

func (s *fakeClickStore) Create(ctx context.Context, click *model.Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	click.ID = uint(len(s.clicks) + 1)
	s.clicks = append(s.clicks, click)
	return nil
}

func (s *fakeClickStore) recorded() []*model.Click {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.Click(nil), s.clicks...)
}

func (s *fakeClickStore) LatestInWindow(ctx context.Context, clientID uint, from, to time.Time) (*model.Click, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *model.Click
	for _, c := range s.clicks {
		if c.ClientID != clientID || c.TS.Before(from) || c.TS.After(to) {
			continue
		}
		if best == nil || c.TS.After(best.TS) || (c.TS.Equal(best.TS) && c.ID < best.ID) {
			best = c
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}
	return best, nil
}

func (s *fakeClickStore) LatestForClient(ctx context.Context, clientID uint) (*model.Click, error) {
	return s.LatestInWindow(ctx, clientID, time.Time{}, time.Now().Add(time.Hour))
}

type fakeConversionStore struct {
	mu     sync.Mutex
	byID   map[uint]*model.Conversion
	nextID uint
}

func newFakeConversionStore() *fakeConversionStore {
	return &fakeConversionStore{byID: make(map[uint]*model.Conversion)}
}

func (s *fakeConversionStore) seed(conv *model.Conversion) *model.Conversion {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	conv.ID = s.nextID
	s.byID[conv.ID] = conv
	return conv
}

func (s *fakeConversionStore) Create(ctx context.Context, conv *model.Conversion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.StripeInvoiceID == conv.StripeInvoiceID {
			return gorm.ErrDuplicatedKey
		}
	}
	s.nextID++
	conv.ID = s.nextID
	conv.CreatedAt = time.Now()
	s.byID[conv.ID] = conv
	return nil
}

func (s *fakeConversionStore) ByID(ctx context.Context, id uint) (*model.Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (s *fakeConversionStore) Orphans(ctx context.Context, since time.Time) ([]model.Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Conversion
	for _, conv := range s.byID {
		if conv.LinkID == nil && !conv.PaidAt.Before(since) {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (s *fakeConversionStore) AssignLink(ctx context.Context, conversionID, linkID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.byID[conversionID]
	if !ok || conv.LinkID != nil {
		return false, nil
	}
	conv.LinkID = &linkID
	return true, nil
}

type fakeClipperStore struct {
	mu     sync.Mutex
	byCode map[string]*model.Clipper
	nextID uint
}

func newFakeClipperStore() *fakeClipperStore {
	return &fakeClipperStore{byCode: make(map[string]*model.Clipper)}
}

func (s *fakeClipperStore) seed(code string) *model.Clipper {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	clipper := &model.Clipper{ID: s.nextID, DashboardCode: code}
	s.byCode[code] = clipper
	return clipper
}

func (s *fakeClipperStore) Create(ctx context.Context, clipper *model.Clipper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCode[clipper.DashboardCode]; taken {
		return gorm.ErrDuplicatedKey
	}
	s.nextID++
	clipper.ID = s.nextID
	s.byCode[clipper.DashboardCode] = clipper
	return nil
}

func (s *fakeClipperStore) ByCode(ctx context.Context, code string) (*model.Clipper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clipper, ok := s.byCode[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *clipper
	return &copied, nil
}

func (s *fakeClipperStore) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.ByCode(ctx, code)
	return err == nil, nil
}

type fakeClientStore struct {
	mu        sync.Mutex
	clients   map[uint]*model.Client
	campaigns map[uint]*model.Campaign
	nextID    uint
}

func newFakeClientStore() *fakeClientStore {
	return &fakeClientStore{
		clients:   make(map[uint]*model.Client),
		campaigns: make(map[uint]*model.Campaign),
	}
}

func (s *fakeClientStore) seedClient(name string) *model.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	client := &model.Client{ID: s.nextID, Name: name}
	s.clients[client.ID] = client
	return client
}

func (s *fakeClientStore) CreateClient(ctx context.Context, client *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	client.ID = s.nextID
	s.clients[client.ID] = client
	return nil
}

func (s *fakeClientStore) ClientByID(ctx context.Context, id uint) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *client
	return &copied, nil
}

func (s *fakeClientStore) Clients(ctx context.Context) ([]model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Client
	for _, client := range s.clients {
		out = append(out, *client)
	}
	return out, nil
}

func (s *fakeClientStore) DeleteClient(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *fakeClientStore) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	campaign.ID = s.nextID
	s.campaigns[campaign.ID] = campaign
	return nil
}

func (s *fakeClientStore) CampaignByID(ctx context.Context, id uint) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaign, ok := s.campaigns[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *campaign
	return &copied, nil
}
