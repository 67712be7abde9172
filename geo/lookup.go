package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const maxLookupBody = 256

// LookupResolver queries an external IP-geolocation HTTP service that
// returns plain-text country/city payloads (e.g. GET {base}/{ip}/country/).
// Results are cached in Redis keyed by a hash of the IP so the raw address
// never leaves the process.
type LookupResolver struct {
	baseURL  string
	client   *http.Client
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewLookupResolver builds a resolver with its own request timeout. rdb may
// be nil; lookups then go uncached.
func NewLookupResolver(baseURL string, timeout time.Duration, rdb *redis.Client, cacheTTL time.Duration) *LookupResolver {
	return &LookupResolver{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		rdb:      rdb,
		cacheTTL: cacheTTL,
	}
}

func (lr *LookupResolver) Resolve(r *http.Request, ip string) Location {
	if ip == "" || lr.baseURL == "" {
		return Location{}
	}

	if loc, ok := lr.cached(ip); ok {
		return loc
	}

	loc := Location{
		Country: lr.fetch(ip, "country"),
		City:    lr.fetch(ip, "city"),
	}

	if loc.Country != "" || loc.City != "" {
		lr.store(ip, loc)
	}
	return loc
}

// fetch performs one lookup call. Any failure degrades to unknown.
func (lr *LookupResolver) fetch(ip, field string) string {
	url := fmt.Sprintf("%s/%s/%s/", lr.baseURL, ip, field)

	resp, err := lr.client.Get(url)
	if err != nil {
		log.Warn().Err(err).Str("field", field).Msg("Geolocation lookup failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("field", field).Msg("Geolocation lookup returned non-OK status")
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBody))
	if err != nil {
		log.Warn().Err(err).Str("field", field).Msg("Failed to read geolocation response")
		return ""
	}

	value := strings.TrimSpace(string(body))
	if value == "Undefined" || value == "None" {
		return ""
	}
	return value
}

func cacheKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return "geo:" + hex.EncodeToString(sum[:16])
}

func (lr *LookupResolver) cached(ip string) (Location, bool) {
	if lr.rdb == nil {
		return Location{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), lr.client.Timeout)
	defer cancel()

	data, err := lr.rdb.Get(ctx, cacheKey(ip)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Msg("Geo cache read failed")
		}
		return Location{}, false
	}

	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return Location{}, false
	}
	return loc, true
}

func (lr *LookupResolver) store(ip string, loc Location) {
	if lr.rdb == nil {
		return
	}

	data, err := json.Marshal(loc)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), lr.client.Timeout)
	defer cancel()

	if err := lr.rdb.Set(ctx, cacheKey(ip), data, lr.cacheTTL).Err(); err != nil {
		log.Debug().Err(err).Msg("Geo cache write failed")
	}
}
