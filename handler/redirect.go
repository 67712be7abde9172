package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/attribution"
	"github.com/ClipsonBusiness/tracking-system-sub001/cache"
	"github.com/ClipsonBusiness/tracking-system-sub001/model"
	"github.com/ClipsonBusiness/tracking-system-sub001/storage"
	"github.com/ClipsonBusiness/tracking-system-sub001/tracker"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// RedirectHandler serves the visitor-facing redirect and beacon endpoints.
type RedirectHandler struct {
	links        storage.LinkStore
	cache        *cache.Cache
	recorder     *tracker.Recorder
	cookies      attribution.CookiePolicy
	strictWrites bool
	clickTimeout time.Duration
	queryTimeout time.Duration
}

func NewRedirectHandler(links storage.LinkStore, linkCache *cache.Cache, recorder *tracker.Recorder, cookies attribution.CookiePolicy, strictWrites bool, clickTimeout, queryTimeout time.Duration) *RedirectHandler {
	return &RedirectHandler{
		links:        links,
		cache:        linkCache,
		recorder:     recorder,
		cookies:      cookies,
		strictWrites: strictWrites,
		clickTimeout: clickTimeout,
		queryTimeout: queryTimeout,
	}
}

// Redirect handles GET /{slug}
// @Summary Redirect through a tracking link
// @Description Resolves the slug, writes attribution cookies, records the click, and issues a temporary redirect to the destination. Add beacon=true to record without redirecting.
// @Tags Tracking
// @Param slug path string true "Link slug" example("kfjqa")
// @Param aff query string false "Affiliate code (overrides any stored cookie)"
// @Param beacon query string false "Record-only mode (no redirect)"
// @Success 302 "Redirect to destination"
// @Success 200 "Click recorded (beacon mode)"
// @Failure 404 "Link not found / Link has no destination URL"
// @Router /{slug} [get]
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	h.serve(w, r, slug, r.URL.Query().Get("beacon") == "true")
}

// RedirectByRef handles GET /r?ref={slug} — the query-parameter form of the
// redirect endpoint.
func (h *RedirectHandler) RedirectByRef(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("ref")
	h.serve(w, r, slug, r.URL.Query().Get("beacon") == "true")
}

// Beacon handles GET /beacon?ref={slug} — record-only, fired from a script
// on the destination page when the redirect already happened elsewhere.
func (h *RedirectHandler) Beacon(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("ref")
	h.serve(w, r, slug, true)
}

func (h *RedirectHandler) serve(w http.ResponseWriter, r *http.Request, slug string, beacon bool) {
	if slug == "" {
		http.Error(w, "Link not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	link, err := h.resolveLink(ctx, slug)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Link not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to resolve link")
		http.Error(w, "Internal error, try again", http.StatusInternalServerError)
		return
	}

	destination := link.Destination()
	if destination == "" && !beacon {
		http.Error(w, "Link has no destination URL", http.StatusNotFound)
		return
	}

	// Cookies go out before the redirect so this response and every
	// subsequent request observe the updated identity.
	identity := attribution.ResolveAffiliate(r)
	h.cookies.Apply(w, identity, link.Slug)

	// Click capture never turns a resolvable redirect into an error.
	if h.strictWrites {
		clickCtx, clickCancel := context.WithTimeout(r.Context(), h.clickTimeout)
		if _, err := h.recorder.Record(clickCtx, link, r, identity.Code); err != nil {
			log.Error().Err(err).Str("slug", slug).Msg("Failed to record click")
		}
		clickCancel()
	} else {
		h.recorder.RecordDetached(link, r, identity.Code)
	}

	if beacon {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}

	log.Info().
		Str("slug", slug).
		Str("destination", destination).
		Str("aff_code", identity.Code).
		Msg("Redirecting")

	http.Redirect(w, r, destination, http.StatusFound)
}

func (h *RedirectHandler) resolveLink(ctx context.Context, slug string) (*model.Link, error) {
	if link, found := h.cache.GetLink(slug); found {
		return link, nil
	}

	link, err := h.links.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	h.cache.SetLink(link)
	return link, nil
}
