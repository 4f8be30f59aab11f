package main

import (
	"encoding/json"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/vendasbanco/src/config"
	"github.com/username/vendasbanco/src/database"
	"github.com/username/vendasbanco/src/handlers"
	"github.com/username/vendasbanco/src/hotmart"
	"github.com/username/vendasbanco/src/logger"
	"github.com/username/vendasbanco/src/processors"
	"github.com/username/vendasbanco/src/security"
	"github.com/username/vendasbanco/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash for the given admin password and exit")
	flag.Parse()
	if *hashPassword != "" {
		hash, err := security.NewAuthService("").HashPassword(*hashPassword)
		if err != nil {
			stdlog.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("VendasBanco backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing data loaders...")
	if err := processors.LoadProductMap(config.Cfg.ProductMapPath); err != nil {
		logger.L.Error("Failed to load product canonicalization map", "error", err)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(15*time.Minute, 30*time.Minute)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()

	tokenManager := hotmart.NewTokenManager(
		config.Cfg.HotmartClientID,
		config.Cfg.HotmartClientSecret,
		config.Cfg.HotmartTokenURL,
		&http.Client{Timeout: config.Cfg.HotmartHTTPTimeout},
	)
	hotmartClient := hotmart.NewClient(
		tokenManager,
		config.Cfg.HotmartSalesURL,
		config.Cfg.DefaultStartDate,
		config.Cfg.HotmartHTTPTimeout,
	)

	adjustmentService := services.NewAdjustmentService()
	syncService := services.NewSyncService(hotmartClient, adjustmentService, emailService, reportCache)
	reportService := services.NewReportService(reportCache)

	authHandler := handlers.NewAuthHandler(authService)
	syncHandler := handlers.NewSyncHandler(syncService, adjustmentService)
	reportHandler := handlers.NewReportHandler(reportService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)

	applyAuth := func(handler http.HandlerFunc) http.Handler {
		return authHandler.AuthMiddleware(handler)
	}

	apiRouter.Handle("POST /api/sales/sync", applyAuth(syncHandler.HandleSync))
	apiRouter.Handle("POST /api/sales/normalize", applyAuth(syncHandler.HandleNormalize))
	apiRouter.Handle("DELETE /api/sales", applyAuth(syncHandler.HandleResetSales))
	apiRouter.Handle("GET /api/sales/runs", applyAuth(syncHandler.HandleGetRuns))
	apiRouter.Handle("GET /api/report", applyAuth(reportHandler.HandleGetReport))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "VendasBanco Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
