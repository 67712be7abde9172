// Package geo resolves visitor country and city. Resolvers are tried in
// order, short-circuiting per field on the first non-empty result; a slow or
// failing resolver degrades the field to unknown, never the request.
package geo

import (
	"net/http"
)

// Location is a resolved (possibly partial) visitor location. Empty fields
// mean unknown.
type Location struct {
	Country string
	City    string
}

func (l Location) complete() bool {
	return l.Country != "" && l.City != ""
}

// Resolver produces a partial location for a request. Implementations own
// their error handling; a resolver that cannot answer returns empty fields.
type Resolver interface {
	Resolve(r *http.Request, ip string) Location
}

// Chain tries resolvers in order and merges results field-wise.
type Chain []Resolver

func (c Chain) Resolve(r *http.Request, ip string) Location {
	var loc Location
	for _, resolver := range c {
		got := resolver.Resolve(r, ip)
		if loc.Country == "" {
			loc.Country = got.Country
		}
		if loc.City == "" {
			loc.City = got.City
		}
		if loc.complete() {
			break
		}
	}
	return loc
}

// HeaderResolver trusts edge/platform geolocation headers.
type HeaderResolver struct {
	CountryHeader string
	CityHeader    string
}

func (h HeaderResolver) Resolve(r *http.Request, ip string) Location {
	if r == nil {
		return Location{}
	}
	return Location{
		Country: r.Header.Get(h.CountryHeader),
		City:    r.Header.Get(h.CityHeader),
	}
}
