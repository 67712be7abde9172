package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/cache"
	"github.com/ClipsonBusiness/tracking-system-sub001/model"
	"github.com/ClipsonBusiness/tracking-system-sub001/shortid"
	"github.com/ClipsonBusiness/tracking-system-sub001/storage"
	"github.com/ClipsonBusiness/tracking-system-sub001/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	slugLength          = 5
	dashboardCodeLength = 4

	// How many times the whole allocate-and-create cycle retries when the
	// store's unique constraint catches a race the existence check missed.
	createCycleAttempts = 3
)

var slugFormat = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// LinkHandler serves link management: admin CRUD and clipper self-service
// generation.
type LinkHandler struct {
	links        storage.LinkStore
	clippers     storage.ClipperStore
	clients      storage.ClientStore
	cache        *cache.Cache
	baseURL      string
	queryTimeout time.Duration
}

func NewLinkHandler(links storage.LinkStore, clippers storage.ClipperStore, clients storage.ClientStore, linkCache *cache.Cache, baseURL string, queryTimeout time.Duration) *LinkHandler {
	return &LinkHandler{
		links:        links,
		clippers:     clippers,
		clients:      clients,
		cache:        linkCache,
		baseURL:      baseURL,
		queryTimeout: queryTimeout,
	}
}

type CreateLinkRequest struct {
	ClientID       uint   `json:"clientId"`
	CampaignID     *uint  `json:"campaignId,omitempty"`
	Handle         string `json:"handle"`
	DestinationURL string `json:"destinationUrl"`
	Slug           string `json:"slug,omitempty"` // admin-chosen; auto-allocated when empty
}

type LinkResponse struct {
	ID             uint   `json:"id"`
	Slug           string `json:"slug"`
	Handle         string `json:"handle"`
	DestinationURL string `json:"destinationUrl,omitempty"`
	TrackingURL    string `json:"trackingUrl"`
	ClientID       uint   `json:"clientId"`
	CampaignID     *uint  `json:"campaignId,omitempty"`
	DashboardCode  string `json:"dashboardCode,omitempty"`
}

func (h *LinkHandler) linkResponse(link *model.Link, dashboardCode string) LinkResponse {
	return LinkResponse{
		ID:             link.ID,
		Slug:           link.Slug,
		Handle:         link.Handle,
		DestinationURL: link.DestinationURL,
		TrackingURL:    fmt.Sprintf("%s/%s", h.baseURL, link.Slug),
		ClientID:       link.ClientID,
		CampaignID:     link.CampaignID,
		DashboardCode:  dashboardCode,
	}
}

// allocateAndCreate runs the full allocate-and-create cycle. The existence
// check inside Allocate is advisory; the unique constraint on the slug
// column is the authoritative collision detector, and a duplicate-key error
// from the insert restarts the cycle.
func (h *LinkHandler) allocateAndCreate(ctx context.Context, link *model.Link) error {
	for attempt := 0; attempt < createCycleAttempts; attempt++ {
		slug, err := shortid.Allocate(ctx, slugLength, h.links.SlugExists)
		if err != nil {
			return err
		}
		link.Slug = slug

		err = h.links.Create(ctx, link)
		if err == nil {
			return nil
		}
		if storage.IsDuplicateKey(err) {
			log.Warn().Str("slug", slug).Int("cycle", attempt+1).Msg("Slug raced at insert, reallocating")
			continue
		}
		return err
	}
	return shortid.ErrAllocationExhausted
}

// allocateClipper creates a clipper with a fresh dashboard code, retrying
// the cycle on insert races the same way links do.
func (h *LinkHandler) allocateClipper(ctx context.Context) (*model.Clipper, error) {
	for attempt := 0; attempt < createCycleAttempts; attempt++ {
		code, err := shortid.Allocate(ctx, dashboardCodeLength, h.clippers.CodeExists)
		if err != nil {
			return nil, err
		}

		clipper := &model.Clipper{DashboardCode: code}
		err = h.clippers.Create(ctx, clipper)
		if err == nil {
			return clipper, nil
		}
		if storage.IsDuplicateKey(err) {
			log.Warn().Str("code", code).Int("cycle", attempt+1).Msg("Dashboard code raced at insert, reallocating")
			continue
		}
		return nil, err
	}
	return nil, shortid.ErrAllocationExhausted
}

// CreateLink handles POST /admin/links
// @Summary Create a tracking link
// @Tags Links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link definition"
// @Success 201 {object} LinkResponse
// @Failure 400 {object} ErrorResponse "Missing or invalid field"
// @Failure 409 {object} ErrorResponse "Slug already taken"
// @Failure 500 {object} ErrorResponse "Allocation exhausted"
// @Router /admin/links [post]
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if req.ClientID == 0 {
		SendJSONError(w, http.StatusBadRequest, errors.New("clientId is required"), "")
		return
	}
	if _, err := h.clients.ClientByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			SendJSONError(w, http.StatusBadRequest, errors.New("unknown client"), "")
			return
		}
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}

	// A link may rely on its campaign's destination, but one of the two
	// must exist.
	if req.DestinationURL != "" {
		if err := utils.ValidateDestinationURL(req.DestinationURL); err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
	} else if req.CampaignID == nil {
		SendJSONError(w, http.StatusBadRequest, errors.New("destinationUrl or campaignId is required"), "")
		return
	}

	link := &model.Link{
		ClientID:       req.ClientID,
		CampaignID:     req.CampaignID,
		Handle:         req.Handle,
		DestinationURL: req.DestinationURL,
	}

	if req.Slug != "" {
		if !slugFormat.MatchString(req.Slug) {
			SendJSONError(w, http.StatusBadRequest, errors.New("slug must be alphanumeric"), "")
			return
		}
		link.Slug = req.Slug
		if err := h.links.Create(ctx, link); err != nil {
			if storage.IsDuplicateKey(err) {
				SendJSONError(w, http.StatusConflict, errors.New("slug already taken"), "")
				return
			}
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to create link")
			return
		}
	} else {
		if err := h.allocateAndCreate(ctx, link); err != nil {
			if errors.Is(err, shortid.ErrAllocationExhausted) {
				SendJSONError(w, http.StatusInternalServerError, err, "Short code space exhausted, try again")
				return
			}
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to create link")
			return
		}
	}

	log.Info().Str("slug", link.Slug).Uint("client_id", link.ClientID).Msg("Link created")
	SendJSONSuccess(w, http.StatusCreated, h.linkResponse(link, ""))
}

type GenerateLinkRequest struct {
	DashboardCode  string `json:"dashboardCode,omitempty"` // existing clipper; created lazily when empty
	ClientID       uint   `json:"clientId"`
	CampaignID     *uint  `json:"campaignId,omitempty"`
	Handle         string `json:"handle"`
	DestinationURL string `json:"destinationUrl,omitempty"`
}

// GenerateLink handles POST /api/links/generate — clipper self-service. The
// dashboard code is the caller's only credential; a missing code creates a
// new clipper lazily.
// @Summary Generate a tracking link for a clipper
// @Tags Links
// @Accept json
// @Produce json
// @Param request body GenerateLinkRequest true "Generation request"
// @Success 201 {object} LinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown dashboard code"
// @Router /api/links/generate [post]
func (h *LinkHandler) GenerateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	var req GenerateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if req.ClientID == 0 {
		SendJSONError(w, http.StatusBadRequest, errors.New("clientId is required"), "")
		return
	}
	if req.DestinationURL == "" && req.CampaignID == nil {
		SendJSONError(w, http.StatusBadRequest, errors.New("destinationUrl or campaignId is required"), "")
		return
	}
	if req.DestinationURL != "" {
		if err := utils.ValidateDestinationURL(req.DestinationURL); err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
	}

	var clipper *model.Clipper
	var err error
	if req.DashboardCode != "" {
		clipper, err = h.clippers.ByCode(ctx, req.DashboardCode)
		if errors.Is(err, storage.ErrNotFound) {
			SendJSONError(w, http.StatusNotFound, errors.New("unknown dashboard code"), "")
			return
		}
	} else {
		clipper, err = h.allocateClipper(ctx)
	}
	if err != nil {
		if errors.Is(err, shortid.ErrAllocationExhausted) {
			SendJSONError(w, http.StatusInternalServerError, err, "Dashboard code space exhausted, try again")
			return
		}
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}

	link := &model.Link{
		ClientID:       req.ClientID,
		CampaignID:     req.CampaignID,
		ClipperID:      &clipper.ID,
		Handle:         req.Handle,
		DestinationURL: req.DestinationURL,
	}
	if err := h.allocateAndCreate(ctx, link); err != nil {
		if errors.Is(err, shortid.ErrAllocationExhausted) {
			SendJSONError(w, http.StatusInternalServerError, err, "Short code space exhausted, try again")
			return
		}
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to create link")
		return
	}

	log.Info().
		Str("slug", link.Slug).
		Str("dashboard_code", clipper.DashboardCode).
		Msg("Clipper link generated")
	SendJSONSuccess(w, http.StatusCreated, h.linkResponse(link, clipper.DashboardCode))
}

type UpdateLinkRequest struct {
	Handle         *string `json:"handle,omitempty"`
	DestinationURL *string `json:"destinationUrl,omitempty"`
	Slug           *string `json:"slug,omitempty"`
}

// UpdateLink handles PUT /admin/links/{id} — destination, handle, and slug
// edits only; everything else on a link is immutable.
func (h *LinkHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, errors.New("invalid link id"), "")
		return
	}

	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	link, err := h.links.ByID(ctx, uint(id))
	if errors.Is(err, storage.ErrNotFound) {
		SendJSONError(w, http.StatusNotFound, errors.New("link not found"), "")
		return
	}
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}

	oldSlug := link.Slug
	if req.Handle != nil {
		link.Handle = *req.Handle
	}
	if req.DestinationURL != nil {
		if *req.DestinationURL != "" {
			if err := utils.ValidateDestinationURL(*req.DestinationURL); err != nil {
				SendJSONError(w, http.StatusBadRequest, err, "")
				return
			}
		}
		link.DestinationURL = *req.DestinationURL
	}
	if req.Slug != nil {
		if !slugFormat.MatchString(*req.Slug) {
			SendJSONError(w, http.StatusBadRequest, errors.New("slug must be alphanumeric"), "")
			return
		}
		link.Slug = *req.Slug
	}

	if err := h.links.Update(ctx, link); err != nil {
		if storage.IsDuplicateKey(err) {
			SendJSONError(w, http.StatusConflict, errors.New("slug already taken"), "")
			return
		}
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to update link")
		return
	}

	// Drop stale cache entries under both the old and new slug.
	h.cache.InvalidateLink(oldSlug)
	h.cache.InvalidateLink(link.Slug)

	SendJSONSuccess(w, http.StatusOK, h.linkResponse(link, ""))
}

// ListLinks handles GET /admin/links?clientId=
func (h *LinkHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	clientID, err := strconv.ParseUint(r.URL.Query().Get("clientId"), 10, 32)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, errors.New("clientId query parameter is required"), "")
		return
	}

	links, err := h.links.ByClient(ctx, uint(clientID))
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}

	out := make([]LinkResponse, 0, len(links))
	for i := range links {
		out = append(out, h.linkResponse(&links[i], ""))
	}
	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{"links": out, "total": len(out)})
}

// DeleteLink handles DELETE /admin/links/{id}
func (h *LinkHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, errors.New("invalid link id"), "")
		return
	}

	link, err := h.links.ByID(ctx, uint(id))
	if errors.Is(err, storage.ErrNotFound) {
		SendJSONError(w, http.StatusNotFound, errors.New("link not found"), "")
		return
	}
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}

	if err := h.links.Delete(ctx, link.ID); err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete link")
		return
	}
	h.cache.InvalidateLink(link.Slug)

	SendJSONSuccess(w, http.StatusOK, map[string]string{"message": "Link deleted"})
}
