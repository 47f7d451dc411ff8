package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/reframe/reframe/backend-go/internal/auth"
	"github.com/reframe/reframe/backend-go/internal/collab"
	"github.com/reframe/reframe/backend-go/internal/config"
	"github.com/reframe/reframe/backend-go/internal/db"
	"github.com/reframe/reframe/backend-go/internal/document"
	"github.com/reframe/reframe/backend-go/internal/export"
	"github.com/reframe/reframe/backend-go/internal/media"
	mw "github.com/reframe/reframe/backend-go/internal/middleware"
	"github.com/reframe/reframe/backend-go/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	authService := auth.NewService(pool, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	storeService := store.NewService(pool)
	storeHandler := store.NewHandler(storeService)

	resolver := media.NewResolver(cfg.AssetDir, []string{"primary", "secondary"})
	mediaHandler := media.NewHandler(cfg.AssetDir, resolver)

	exportManager := export.NewManager(cfg.FfmpegPath, cfg.ExportDir, cfg.ExportWorkers, cfg.ExportMinFreeMem, nil)
	exportHandler := export.NewHandler(exportManager, func(ctx context.Context, layoutID string) (*document.LayoutDefinition, error) {
		return storeService.Get(ctx, layoutID)
	})

	hub := collab.NewHub(
		func(ctx context.Context, layoutID string) (*document.LayoutDefinition, error) {
			return storeService.Get(ctx, layoutID)
		},
		func(ctx context.Context, doc *document.LayoutDefinition) error {
			_, err := storeService.Save(ctx, doc)
			return err
		},
	)
	go hub.Run()

	origins := strings.Split(cfg.AllowedOrigins, ",")

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Asset endpoints (public)
	r.HandleFunc("/assets/upload", mediaHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(mediaHandler.Serve()).Methods("GET")
	r.HandleFunc("/media/resolve", mediaHandler.Resolve).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/layouts", storeHandler.List).Methods("GET")
	api.HandleFunc("/layouts", storeHandler.Create).Methods("POST")
	api.HandleFunc("/layouts/import", storeHandler.Import).Methods("POST")
	api.HandleFunc("/layouts/{layoutId}", storeHandler.Get).Methods("GET")
	api.HandleFunc("/layouts/{layoutId}", storeHandler.Update).Methods("PUT")
	api.HandleFunc("/layouts/{layoutId}", storeHandler.Delete).Methods("DELETE")
	api.HandleFunc("/layouts/{layoutId}/export", storeHandler.Export).Methods("GET")
	api.HandleFunc("/presets", storeHandler.ListPresets).Methods("GET")
	api.HandleFunc("/presets/{presetName}", storeHandler.InstantiatePreset).Methods("POST")

	api.HandleFunc("/export/jobs", exportHandler.Start).Methods("POST")
	api.HandleFunc("/export/jobs/{jobId}", exportHandler.Status).Methods("GET")
	api.HandleFunc("/export/jobs/{jobId}/download", exportHandler.Download).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/layout/{layoutId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, origins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first so open rooms persist their layouts
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, origins []string) {
	layoutID := mux.Vars(r)["layoutId"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	user, err := authSvc.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusInternalServerError)
		return
	}

	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		patterns = append(patterns, strings.TrimPrefix(strings.TrimPrefix(o, "http://"), "https://"))
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: patterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, user.DisplayName, layoutID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
