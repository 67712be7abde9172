package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/model"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

type linkRig struct {
	links    *fakeLinkStore
	clippers *fakeClipperStore
	clients  *fakeClientStore
	router   *mux.Router
}

func newLinkRig(t *testing.T) *linkRig {
	t.Helper()
	rig := &linkRig{
		links:    newFakeLinkStore(),
		clippers: newFakeClipperStore(),
		clients:  newFakeClientStore(),
	}
	h := NewLinkHandler(rig.links, rig.clippers, rig.clients, nil, "https://go.example.com", time.Second)

	rig.router = mux.NewRouter()
	rig.router.HandleFunc("/api/links/generate", h.GenerateLink).Methods("POST")
	rig.router.HandleFunc("/admin/links", h.CreateLink).Methods("POST")
	rig.router.HandleFunc("/admin/links", h.ListLinks).Methods("GET")
	rig.router.HandleFunc("/admin/links/{id}", h.UpdateLink).Methods("PUT")
	rig.router.HandleFunc("/admin/links/{id}", h.DeleteLink).Methods("DELETE")
	return rig
}

func (rig *linkRig) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	rig.router.ServeHTTP(w, req)
	return w
}

func TestCreateLinkAutoSlug(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")

	w := rig.do("POST", "/admin/links", CreateLinkRequest{
		ClientID:       client.ID,
		Handle:         "acme-main",
		DestinationURL: "https://example.com/product",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp LinkResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Slug, 5)
	assert.Equal(t, "https://go.example.com/"+resp.Slug, resp.TrackingURL)
	assert.Equal(t, client.ID, resp.ClientID)
}

func TestCreateLinkCustomSlug(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")

	w := rig.do("POST", "/admin/links", CreateLinkRequest{
		ClientID:       client.ID,
		DestinationURL: "https://example.com",
		Slug:           "summer2026",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp LinkResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "summer2026", resp.Slug)
}

func TestCreateLinkCustomSlugConflict(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")
	rig.links.seed(&model.Link{Slug: "taken", ClientID: client.ID, DestinationURL: "https://example.com"})

	w := rig.do("POST", "/admin/links", CreateLinkRequest{
		ClientID:       client.ID,
		DestinationURL: "https://example.com/other",
		Slug:           "taken",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateLinkValidation(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")

	tests := []struct {
		name string
		req  CreateLinkRequest
		want int
	}{
		{
			name: "missing client id",
			req:  CreateLinkRequest{DestinationURL: "https://example.com"},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown client",
			req:  CreateLinkRequest{ClientID: 999, DestinationURL: "https://example.com"},
			want: http.StatusBadRequest,
		},
		{
			name: "neither destination nor campaign",
			req:  CreateLinkRequest{ClientID: client.ID},
			want: http.StatusBadRequest,
		},
		{
			name: "invalid destination scheme",
			req:  CreateLinkRequest{ClientID: client.ID, DestinationURL: "ftp://example.com"},
			want: http.StatusBadRequest,
		},
		{
			name: "non-alphanumeric slug",
			req:  CreateLinkRequest{ClientID: client.ID, DestinationURL: "https://example.com", Slug: "bad slug!"},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := rig.do("POST", "/admin/links", tt.req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCreateLinkInsertRaceRetries(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")

	// Two raced inserts still leave one cycle to succeed.
	rig.links.forceDupes = 2

	w := rig.do("POST", "/admin/links", CreateLinkRequest{
		ClientID:       client.ID,
		DestinationURL: "https://example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateLinkInsertRaceExhausted(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")

	// Every cycle loses the insert race.
	rig.links.forceDupes = createCycleAttempts

	w := rig.do("POST", "/admin/links", CreateLinkRequest{
		ClientID:       client.ID,
		DestinationURL: "https://example.com",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateLinkAllocationExhausted(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")
	rig.links.everyoneExists = true

	w := rig.do("POST", "/admin/links", CreateLinkRequest{
		ClientID:       client.ID,
		DestinationURL: "https://example.com",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGenerateLinkNewClipper(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")

	w := rig.do("POST", "/api/links/generate", GenerateLinkRequest{
		ClientID:       client.ID,
		Handle:         "tiktok-jan",
		DestinationURL: "https://example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp LinkResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.DashboardCode, 4)
	assert.Len(t, resp.Slug, 5)
}

func TestGenerateLinkExistingClipper(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")
	clipper := rig.clippers.seed("wxyz")

	w := rig.do("POST", "/api/links/generate", GenerateLinkRequest{
		DashboardCode:  "wxyz",
		ClientID:       client.ID,
		DestinationURL: "https://example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp LinkResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "wxyz", resp.DashboardCode)

	stored, err := rig.links.ByID(nil, resp.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, stored.ClipperID) {
		assert.Equal(t, clipper.ID, *stored.ClipperID)
	}
}

func TestGenerateLinkUnknownDashboardCode(t *testing.T) {
	rig := newLinkRig(t)
	client := rig.clients.seedClient("Acme")

	w := rig.do("POST", "/api/links/generate", GenerateLinkRequest{
		DashboardCode:  "none",
		ClientID:       client.ID,
		DestinationURL: "https://example.com",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateLink(t *testing.T) {
	rig := newLinkRig(t)
	link := rig.links.seed(&model.Link{Slug: "old00", ClientID: 1, DestinationURL: "https://example.com"})

	newSlug := "new00"
	newDest := "https://example.com/v2"
	w := rig.do("PUT", fmt.Sprintf("/admin/links/%d", link.ID), UpdateLinkRequest{
		Slug:           &newSlug,
		DestinationURL: &newDest,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := rig.links.ByID(nil, link.ID)
	assert.NoError(t, err)
	assert.Equal(t, "new00", stored.Slug)
	assert.Equal(t, "https://example.com/v2", stored.DestinationURL)
}

func TestUpdateLinkSlugConflict(t *testing.T) {
	rig := newLinkRig(t)
	rig.links.seed(&model.Link{Slug: "first", ClientID: 1, DestinationURL: "https://example.com"})
	second := rig.links.seed(&model.Link{Slug: "second", ClientID: 1, DestinationURL: "https://example.com"})

	taken := "first"
	w := rig.do("PUT", fmt.Sprintf("/admin/links/%d", second.ID), UpdateLinkRequest{Slug: &taken})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateLinkNotFound(t *testing.T) {
	rig := newLinkRig(t)
	handle := "x"
	w := rig.do("PUT", "/admin/links/42", UpdateLinkRequest{Handle: &handle})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLinks(t *testing.T) {
	rig := newLinkRig(t)
	rig.links.seed(&model.Link{Slug: "aaa11", ClientID: 1, DestinationURL: "https://example.com"})
	rig.links.seed(&model.Link{Slug: "bbb22", ClientID: 1, DestinationURL: "https://example.com"})
	rig.links.seed(&model.Link{Slug: "ccc33", ClientID: 2, DestinationURL: "https://example.com"})

	w := rig.do("GET", "/admin/links?clientId=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Links []LinkResponse `json:"links"`
		Total int            `json:"total"`
	}
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)

	w = rig.do("GET", "/admin/links", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteLink(t *testing.T) {
	rig := newLinkRig(t)
	link := rig.links.seed(&model.Link{Slug: "gone1", ClientID: 1, DestinationURL: "https://example.com"})

	w := rig.do("DELETE", fmt.Sprintf("/admin/links/%d", link.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := rig.links.ByID(nil, link.ID)
	assert.Error(t, err)

	w = rig.do("DELETE", fmt.Sprintf("/admin/links/%d", link.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
