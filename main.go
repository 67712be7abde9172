package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/attribution"
	"github.com/ClipsonBusiness/tracking-system-sub001/cache"
	"github.com/ClipsonBusiness/tracking-system-sub001/config"
	"github.com/ClipsonBusiness/tracking-system-sub001/database"
	_ "github.com/ClipsonBusiness/tracking-system-sub001/docs" // Swagger docs
	"github.com/ClipsonBusiness/tracking-system-sub001/geo"
	"github.com/ClipsonBusiness/tracking-system-sub001/handler"
	appLogger "github.com/ClipsonBusiness/tracking-system-sub001/logger"
	"github.com/ClipsonBusiness/tracking-system-sub001/middleware"
	redisClient "github.com/ClipsonBusiness/tracking-system-sub001/redis"
	"github.com/ClipsonBusiness/tracking-system-sub001/storage"
	"github.com/ClipsonBusiness/tracking-system-sub001/tracker"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Link Tracking API
// @version 1.0
// @description Affiliate link tracking service: short link resolution, click capture, and conversion attribution.

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Tracking
// @tag.description Visitor-facing redirect, beacon, and QR endpoints

// @tag.name Links
// @tag.description Creating and managing tracking links

// @tag.name Attribution
// @tag.description Conversion ingestion and orphan reconciliation

// @tag.name System
// @tag.description Health checks

const queryTimeout = 5 * time.Second

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	// Connect to Postgres and run migrations
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Initialize Redis client
	rdb := redisClient.NewClient(cfg.Redis)

	// Initialize link cache (if enabled)
	var linkCache *cache.Cache
	if cfg.Cache.Enabled {
		linkCache, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Link cache disabled in configuration")
	}

	// Stores
	links := storage.NewLinkStore(db)
	clicks := storage.NewClickStore(db)
	conversions := storage.NewConversionStore(db)
	clippers := storage.NewClipperStore(db)
	clients := storage.NewClientStore(db)

	// Geolocation: trust edge headers first, fall back to the lookup
	// service with a Redis-backed cache.
	resolvers := geo.Chain{
		geo.HeaderResolver{
			CountryHeader: cfg.Geo.CountryHeader,
			CityHeader:    cfg.Geo.CityHeader,
		},
	}
	if cfg.Geo.LookupBaseURL != "" {
		resolvers = append(resolvers, geo.NewLookupResolver(
			cfg.Geo.LookupBaseURL,
			time.Duration(cfg.Geo.LookupTimeoutMS)*time.Millisecond,
			rdb,
			time.Duration(cfg.Geo.CacheTTLSeconds)*time.Second,
		))
	}

	recorder := tracker.NewRecorder(clicks, resolvers, cfg.Tracking.IPSalt,
		time.Duration(cfg.Tracking.ClickTimeoutMS)*time.Millisecond)
	matcher := attribution.NewMatcher(clicks, conversions)
	cookies := attribution.CookiePolicy{
		TTL:    time.Duration(cfg.Tracking.CookieTTLDays) * 24 * time.Hour,
		Secure: cfg.Tracking.SecureCookies,
	}

	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}

	// Handlers
	redirectHandler := handler.NewRedirectHandler(links, linkCache, recorder, cookies,
		cfg.Tracking.StrictClickWrite,
		time.Duration(cfg.Tracking.ClickTimeoutMS)*time.Millisecond, queryTimeout)
	linkHandler := handler.NewLinkHandler(links, clippers, clients, linkCache, baseURL, queryTimeout)
	clientHandler := handler.NewClientHandler(clients, queryTimeout)
	conversionHandler := handler.NewConversionHandler(matcher, conversions, links,
		time.Duration(cfg.Attribution.BatchWindowDays)*24*time.Hour,
		time.Duration(cfg.Attribution.ManualWindowDays)*24*time.Hour,
		time.Duration(cfg.Attribution.BatchLookbackDays)*24*time.Hour,
		queryTimeout)
	healthHandler := handler.NewHealthHandler(db, rdb)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	botProtection := middleware.NewBotProtection(cfg.Security.BotMaxRequestsPerMinute, cfg.Security.BotDetectionEnabled, rdb)

	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)
	r.Use(botProtection.Protect)

	// Register routes
	r.HandleFunc("/health", healthHandler.Check).Methods("GET")
	r.HandleFunc("/qr/{slug}", linkHandler.GenerateQR).Methods("GET")
	r.HandleFunc("/r", redirectHandler.RedirectByRef).Methods("GET")
	r.HandleFunc("/beacon", redirectHandler.Beacon).Methods("GET")
	r.HandleFunc("/api/links/generate", linkHandler.GenerateLink).Methods("POST")
	r.HandleFunc("/webhooks/stripe", conversionHandler.StripeWebhook).Methods("POST")

	// Admin API behind key authentication
	adminAuth := middleware.NewAdminAuth(cfg.Security.AdminAPIKey, cfg.Security.AdminAuthEnabled)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(adminAuth.Protect)
	admin.HandleFunc("/links", linkHandler.CreateLink).Methods("POST")
	admin.HandleFunc("/links", linkHandler.ListLinks).Methods("GET")
	admin.HandleFunc("/links/{id}", linkHandler.UpdateLink).Methods("PUT")
	admin.HandleFunc("/links/{id}", linkHandler.DeleteLink).Methods("DELETE")
	admin.HandleFunc("/clients", clientHandler.CreateClient).Methods("POST")
	admin.HandleFunc("/clients", clientHandler.ListClients).Methods("GET")
	admin.HandleFunc("/clients/{id}", clientHandler.DeleteClient).Methods("DELETE")
	admin.HandleFunc("/campaigns", clientHandler.CreateCampaign).Methods("POST")
	admin.HandleFunc("/attribution/reconcile", conversionHandler.ReconcileOrphans).Methods("POST")
	admin.HandleFunc("/attribution/fix", conversionHandler.FixConversion).Methods("POST")

	// Swagger UI
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Redirect route (must be last to avoid conflicts)
	r.HandleFunc("/{slug}", redirectHandler.Redirect).Methods("GET")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("base_url", baseURL).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	linkCache.Close()

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}
