package main

import (
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/calendar"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/config"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/database"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/handlers"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/processors"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/services"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
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
			"http://localhost:5173": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
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
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Procesador de opciones server starting...")

	logger.L.Info("Loading fee configuration...", "path", config.Cfg.FeeConfigPath)
	feeConfig := processors.LoadFeeConfig(config.Cfg.FeeConfigPath)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(config.Cfg.ReportCacheTTL, config.Cfg.CacheCleanupEvery)

	logger.L.Info("Initializing services and handlers...")
	symbolService := services.NewSymbolConfigService()
	pipelineService := services.NewPipelineService(
		symbolService, feeConfig, calendar.NewArgentina(),
		reportCache, config.Cfg.ActiveSymbol,
	)

	uploadHandler := handlers.NewUploadHandler(pipelineService)
	reportHandler := handlers.NewReportHandler(pipelineService)
	symbolHandler := handlers.NewSymbolHandler(symbolService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/upload", uploadHandler.HandleUpload)
	apiRouter.HandleFunc("GET /api/report", reportHandler.HandleGetReport)
	apiRouter.HandleFunc("GET /api/arbitrage", reportHandler.HandleGetArbitrage)
	apiRouter.HandleFunc("DELETE /api/operations", reportHandler.HandleDeleteOperations)
	apiRouter.HandleFunc("GET /api/symbols", symbolHandler.HandleListSymbols)
	apiRouter.HandleFunc("GET /api/symbols/{symbol}", symbolHandler.HandleGetSymbol)
	apiRouter.HandleFunc("PUT /api/symbols/{symbol}", symbolHandler.HandlePutSymbol)
	apiRouter.HandleFunc("DELETE /api/symbols/{symbol}", symbolHandler.HandleDeleteSymbol)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			utils.SendJSON(w, map[string]string{"message": "Procesador de opciones backend is running"}, http.StatusOK)
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
