// Package security screens redirect traffic for automated clients. Tracking
// links get shared in chats and social feeds, so preview crawlers are a fact
// of life: they must pass through (or the link never unfurls), but their
// visits must not pollute click data either. The detector flags them; the
// middleware decides what to do.
package security

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/utils"

	"github.com/rs/zerolog/log"
)

// previewCrawlers are the services that fetch shared links to render a
// preview card. Blocking them breaks link unfurling everywhere.
var previewCrawlers = []string{
	"googlebot",
	"bingbot",
	"slackbot",
	"twitterbot",
	"facebookexternalhit",
	"linkedinbot",
	"whatsapp",
	"telegrambot",
	"discordbot",
}

// scriptedClients are user-agent fragments of tooling that has no business
// following tracking links.
var scriptedClients = []string{
	"crawler",
	"spider",
	"scraper",
	"curl",
	"wget",
	"python-requests",
	"go-http-client",
	"java/",
	"node-fetch",
	"axios",
	"headless",
}

// BotDetector classifies requests by user agent and per-IP request rate.
type BotDetector struct {
	requestTracker map[string]*requestHistory
	mu             sync.Mutex

	maxRequestsPerMinute int
	cleanupInterval      time.Duration
}

type requestHistory struct {
	requests []time.Time
	lastSeen time.Time
}

func NewBotDetector(maxRequestsPerMinute int) *BotDetector {
	bd := &BotDetector{
		requestTracker:       make(map[string]*requestHistory),
		maxRequestsPerMinute: maxRequestsPerMinute,
		cleanupInterval:      5 * time.Minute,
	}

	go bd.cleanupOldEntries()

	return bd
}

// IsBot reports whether the request looks automated and the reason. Preview
// crawlers are never flagged.
func (bd *BotDetector) IsBot(r *http.Request) (bool, string) {
	userAgent := strings.ToLower(r.UserAgent())

	for _, crawler := range previewCrawlers {
		if strings.Contains(userAgent, crawler) {
			return false, ""
		}
	}

	for _, pattern := range scriptedClients {
		if strings.Contains(userAgent, pattern) {
			return true, "scripted_client_user_agent"
		}
	}

	if userAgent == "" {
		return true, "empty_user_agent"
	}

	if bd.checkRequestRate(utils.ClientIP(r)) {
		return true, "excessive_request_rate"
	}

	return false, ""
}

// checkRequestRate reports whether the IP exceeded the per-minute budget.
func (bd *BotDetector) checkRequestRate(ip string) bool {
	bd.mu.Lock()
	defer bd.mu.Unlock()

	now := time.Now()
	oneMinuteAgo := now.Add(-1 * time.Minute)

	history, exists := bd.requestTracker[ip]
	if !exists {
		bd.requestTracker[ip] = &requestHistory{
			requests: []time.Time{now},
			lastSeen: now,
		}
		return false
	}

	recent := history.requests[:0]
	for _, reqTime := range history.requests {
		if reqTime.After(oneMinuteAgo) {
			recent = append(recent, reqTime)
		}
	}
	recent = append(recent, now)
	history.requests = recent
	history.lastSeen = now

	if len(recent) > bd.maxRequestsPerMinute {
		log.Warn().
			Str("ip", ip).
			Int("requests", len(recent)).
			Msg("Request rate limit exceeded - potential bot")
		return true
	}

	return false
}

func (bd *BotDetector) cleanupOldEntries() {
	ticker := time.NewTicker(bd.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		bd.mu.Lock()

		cutoff := time.Now().Add(-10 * time.Minute)
		for ip, history := range bd.requestTracker {
			if history.lastSeen.Before(cutoff) {
				delete(bd.requestTracker, ip)
			}
		}

		bd.mu.Unlock()
	}
}

// GetStats returns bot detection statistics
func (bd *BotDetector) GetStats() map[string]interface{} {
	bd.mu.Lock()
	defer bd.mu.Unlock()

	return map[string]interface{}{
		"tracked_ips":             len(bd.requestTracker),
		"max_requests_per_minute": bd.maxRequestsPerMinute,
	}
}
