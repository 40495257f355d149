package server

import (
	"context"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"audioarchive/config"
	"audioarchive/core/media"
	"audioarchive/db"
	"audioarchive/logger"
	"audioarchive/model"
	"audioarchive/repository"
	"audioarchive/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  5 * time.Minute, // uploads can be slow
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// GORM owns the users table; the raw connection owns audio_files.
	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database with GORM: %v", err)
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.User{}); err != nil {
		log.Fatalf("Failed to migrate models: %v", err)
	}

	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer db.CloseRedis()
	log.Println("Successfully connected to Redis")

	audioRepo := repository.NewMySQLAudioFileRepository()
	userRepo := repository.NewGormUserRepository(db.GormDB)
	store := storage.NewAudioStore(cfg)
	extractor := media.NewDurationExtractor(cfg.FFprobePath)
	pipeline := media.NewPipeline(store, audioRepo, extractor)

	apiHandler := NewAPIHandler(audioRepo, userRepo, pipeline, store, cfg)

	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Catalog
	router.HandleFunc("/api/audio", apiHandler.ListAudioHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio", apiHandler.AuthMiddleware(apiHandler.UploadAudioHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/{id}", apiHandler.GetAudioHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateAudioHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/audio/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteAudioHandler)).Methods(http.MethodDelete)

	// Auth
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/verify", apiHandler.VerifyHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/logout", apiHandler.AuthMiddleware(apiHandler.LogoutHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", apiHandler.AuthMiddleware(apiHandler.MeHandler)).Methods(http.MethodGet)

	// Preferences
	router.HandleFunc("/api/prefs/pagesize", apiHandler.AuthMiddleware(apiHandler.GetPageSizeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/prefs/pagesize", apiHandler.AuthMiddleware(apiHandler.SetPageSizeHandler)).Methods(http.MethodPut)

	// Asset proxy: serves bucket objects when no public bucket endpoint
	// is configured. PublicURL points here in that case.
	router.PathPrefix("/static/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/static/")
		if key == "" {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		object, err := store.Get(ctx, key)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		contentType := mime.TypeByExtension(filepath.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if _, err := io.Copy(w, object); err != nil {
			logger.Error("error serving file from MinIO", logger.String("key", key), logger.ErrorField(err))
		}
	}).Methods(http.MethodGet, http.MethodHead)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s...", cfg.ListenAddr)
		log.Println("Browse the archive via GET /api/audio")
		log.Println("Upload files via POST /api/audio")
		log.Println("Request sign-in links via POST /api/auth/login")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
