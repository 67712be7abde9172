package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/attribution"
	"github.com/ClipsonBusiness/tracking-system-sub001/geo"
	"github.com/ClipsonBusiness/tracking-system-sub001/model"
	"github.com/ClipsonBusiness/tracking-system-sub001/tracker"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func newRedirectRig(t *testing.T, links *fakeLinkStore, clicks *fakeClickStore) *mux.Router {
	t.Helper()
	recorder := tracker.NewRecorder(clicks, geo.Chain{}, "test-salt", time.Second)
	cookies := attribution.CookiePolicy{TTL: 60 * 24 * time.Hour}
	// Strict click writes keep the tests synchronous.
	h := NewRedirectHandler(links, nil, recorder, cookies, true, time.Second, time.Second)

	r := mux.NewRouter()
	r.HandleFunc("/r", h.RedirectByRef).Methods("GET")
	r.HandleFunc("/beacon", h.Beacon).Methods("GET")
	r.HandleFunc("/{slug}", h.Redirect).Methods("GET")
	return r
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRedirect(t *testing.T) {
	links := newFakeLinkStore()
	links.seed(&model.Link{Slug: "kfjqa", ClientID: 1, DestinationURL: "https://example.com/landing"})
	clicks := &fakeClickStore{}
	router := newRedirectRig(t, links, clicks)

	req := httptest.NewRequest("GET", "/kfjqa", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/landing", resp.Header.Get("Location"))

	slugCookie := findCookie(resp, attribution.LinkSlugCookie)
	if assert.NotNil(t, slugCookie, "link_slug cookie should be set") {
		assert.Equal(t, "kfjqa", slugCookie.Value)
	}

	recorded := clicks.recorded()
	if assert.Len(t, recorded, 1) {
		assert.Equal(t, uint(1), recorded[0].ClientID)
	}
}

func TestRedirectCampaignFallbackDestination(t *testing.T) {
	links := newFakeLinkStore()
	campaignID := uint(7)
	links.seed(&model.Link{
		Slug:       "camp1",
		ClientID:   1,
		CampaignID: &campaignID,
		Campaign:   &model.Campaign{ID: campaignID, ClientID: 1, DestinationURL: "https://example.com/campaign"},
	})
	router := newRedirectRig(t, links, &fakeClickStore{})

	req := httptest.NewRequest("GET", "/camp1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/campaign", w.Header().Get("Location"))
}

func TestRedirectAffiliatePrecedence(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		cookieCode   string
		wantRecorded string
		wantRewrite  string // expected aff_code Set-Cookie value, "" means none
	}{
		{
			name:         "query parameter wins over cookie",
			target:       "/kfjqa?aff=fresh",
			cookieCode:   "stale",
			wantRecorded: "fresh",
			wantRewrite:  "fresh",
		},
		{
			name:         "cookie used when no query parameter",
			target:       "/kfjqa",
			cookieCode:   "stored",
			wantRecorded: "stored",
			wantRewrite:  "",
		},
		{
			name:         "no identity records empty code",
			target:       "/kfjqa",
			wantRecorded: "",
			wantRewrite:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := newFakeLinkStore()
			links.seed(&model.Link{Slug: "kfjqa", ClientID: 1, DestinationURL: "https://example.com"})
			clicks := &fakeClickStore{}
			router := newRedirectRig(t, links, clicks)

			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.cookieCode != "" {
				req.AddCookie(&http.Cookie{Name: attribution.AffiliateCookie, Value: tt.cookieCode})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusFound, w.Code)

			recorded := clicks.recorded()
			if assert.Len(t, recorded, 1) {
				assert.Equal(t, tt.wantRecorded, recorded[0].AffiliateCode)
			}

			affCookie := findCookie(w.Result(), attribution.AffiliateCookie)
			if tt.wantRewrite == "" {
				assert.Nil(t, affCookie, "aff_code cookie should not be rewritten")
			} else if assert.NotNil(t, affCookie) {
				assert.Equal(t, tt.wantRewrite, affCookie.Value)
				assert.False(t, affCookie.HttpOnly, "attribution cookies stay script-readable")
				assert.Equal(t, http.SameSiteLaxMode, affCookie.SameSite)
				assert.Greater(t, affCookie.MaxAge, 0)
			}
		})
	}
}

func TestRedirectUnknownSlug(t *testing.T) {
	router := newRedirectRig(t, newFakeLinkStore(), &fakeClickStore{})

	req := httptest.NewRequest("GET", "/nosuch", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Link not found", strings.TrimSpace(w.Body.String()))
}

func TestRedirectNoDestination(t *testing.T) {
	links := newFakeLinkStore()
	links.seed(&model.Link{Slug: "empty", ClientID: 1})
	router := newRedirectRig(t, links, &fakeClickStore{})

	req := httptest.NewRequest("GET", "/empty", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Link has no destination URL", strings.TrimSpace(w.Body.String()))
}

func TestRedirectSurvivesClickWriteFailure(t *testing.T) {
	links := newFakeLinkStore()
	links.seed(&model.Link{Slug: "kfjqa", ClientID: 1, DestinationURL: "https://example.com"})
	clicks := &fakeClickStore{createErr: errors.New("database down")}
	router := newRedirectRig(t, links, clicks)

	req := httptest.NewRequest("GET", "/kfjqa", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Click capture failing must never break the visitor-facing redirect.
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))
}

func TestRedirectByRef(t *testing.T) {
	links := newFakeLinkStore()
	links.seed(&model.Link{Slug: "kfjqa", ClientID: 1, DestinationURL: "https://example.com"})
	router := newRedirectRig(t, links, &fakeClickStore{})

	req := httptest.NewRequest("GET", "/r?ref=kfjqa", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))
}

func TestBeacon(t *testing.T) {
	links := newFakeLinkStore()
	links.seed(&model.Link{Slug: "kfjqa", ClientID: 3, DestinationURL: "https://example.com"})
	clicks := &fakeClickStore{}
	router := newRedirectRig(t, links, clicks)

	req := httptest.NewRequest("GET", "/beacon?ref=kfjqa&aff=beaconaff", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Empty(t, w.Header().Get("Location"))

	recorded := clicks.recorded()
	if assert.Len(t, recorded, 1) {
		assert.Equal(t, "beaconaff", recorded[0].AffiliateCode)
		assert.Equal(t, uint(3), recorded[0].ClientID)
	}
}

func TestBeaconWorksWithoutDestination(t *testing.T) {
	links := newFakeLinkStore()
	links.seed(&model.Link{Slug: "bare", ClientID: 1})
	clicks := &fakeClickStore{}
	router := newRedirectRig(t, links, clicks)

	req := httptest.NewRequest("GET", "/beacon?ref=bare", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, clicks.recorded(), 1)
}
