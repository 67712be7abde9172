// Package attribution decides which affiliate identity to trust per request
// and reattaches orphan conversions to the clicks that caused them.
package attribution

import (
	"net/http"
	"time"
)

const (
	// AffiliateCookie carries the affiliate code across visits.
	AffiliateCookie = "aff_code"
	// LinkSlugCookie remembers which short link mediated the visit.
	LinkSlugCookie = "link_slug"
	// AffiliateParam is the query parameter that always wins over cookies.
	AffiliateParam = "aff"
)

// Identity is the affiliate identity resolved for one request. An empty
// Code means no identity; that is recorded as such, not an error.
type Identity struct {
	Code      string
	FromQuery bool
}

// ResolveAffiliate applies the precedence rule: explicit query parameter
// over stored cookie, else null identity.
func ResolveAffiliate(r *http.Request) Identity {
	if code := r.URL.Query().Get(AffiliateParam); code != "" {
		return Identity{Code: code, FromQuery: true}
	}
	if c, err := r.Cookie(AffiliateCookie); err == nil && c.Value != "" {
		return Identity{Code: c.Value}
	}
	return Identity{}
}

// CookiePolicy issues the bounded-lifetime attribution cookie set. Cookies
// must stay legible to client-side script, so HttpOnly is never set.
type CookiePolicy struct {
	TTL    time.Duration
	Secure bool
}

// Apply writes the cookie side effects for a resolved request: the
// aff_code cookie is (re)written only when the code arrived via query
// parameter; link_slug is always rewritten to the slug just resolved.
// Callers must invoke this before writing the response body or redirect.
func (p CookiePolicy) Apply(w http.ResponseWriter, id Identity, slug string) {
	if id.FromQuery && id.Code != "" {
		p.write(w, AffiliateCookie, id.Code)
	}
	if slug != "" {
		p.write(w, LinkSlugCookie, slug)
	}
}

func (p CookiePolicy) write(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(p.TTL),
		MaxAge:   int(p.TTL.Seconds()),
		HttpOnly: false,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
