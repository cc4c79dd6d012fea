package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inkboard/inkboard/backend-go/internal/auth"
	"github.com/inkboard/inkboard/backend-go/internal/board"
	"github.com/inkboard/inkboard/backend-go/internal/collab"
	"github.com/inkboard/inkboard/backend-go/internal/config"
	"github.com/inkboard/inkboard/backend-go/internal/db"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/export"
	mw "github.com/inkboard/inkboard/backend-go/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	tokens := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(tokens)

	repo := board.NewRepository(store, cfg.DarkMode)
	hub := collab.NewHub(repo.Load, repo.Save, engine.Options{
		Width:         cfg.CanvasWidth,
		Height:        cfg.CanvasHeight,
		EraserWidth:   cfg.EraserWidth,
		ExportMargin:  cfg.ExportMargin,
		MaxExportSide: cfg.MaxExport,
		DarkMode:      cfg.DarkMode,
	}, cfg.SaveInterval)
	go hub.Run()

	boardService := board.NewService(repo, hub, tokens)
	boardHandler := board.NewHandler(boardService)
	exportHandler := export.NewHandler(boardService, cfg.LineWidth)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mux.CORSMethodMiddleware(r))
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","rooms":%d}`, hub.RoomCount())
	}).Methods("GET")

	// Public board routes
	r.HandleFunc("/boards", boardHandler.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/boards/{boardId}/export.json", exportHandler.ExportJSON).Methods("GET", "OPTIONS")
	r.HandleFunc("/boards/{boardId}/export.png", exportHandler.ExportPNG).Methods("GET", "OPTIONS")

	// Routes that need the board's edit token
	api := r.PathPrefix("/boards/{boardId}").Subrouter()
	api.Use(tokens.BoardMiddleware)

	api.HandleFunc("/import", boardHandler.Import).Methods("POST", "OPTIONS")
	api.HandleFunc("/undo", boardHandler.Undo).Methods("POST", "OPTIONS")
	api.HandleFunc("/redo", boardHandler.Redo).Methods("POST", "OPTIONS")
	api.HandleFunc("/erase-all", boardHandler.EraseAll).Methods("POST", "OPTIONS")
	api.HandleFunc("/token", authHandler.Refresh).Methods("POST", "OPTIONS")

	// WebSocket endpoint
	r.HandleFunc("/ws/board/{boardId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, boardService, tokens, cfg.OriginHosts())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so every open board is saved
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "persistent", cfg.DatabaseURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore connects to Postgres, or keeps boards in memory when no
// database URL is set.
func openStore(ctx context.Context, databaseURL string) (db.Store, func(), error) {
	if databaseURL == "" {
		slog.Warn("DATABASE_URL not set, boards are kept in memory")
		return db.NewMemoryStore(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := db.NewPGStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return store, pool.Close, nil
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, boards *board.Service, tokens *auth.Service, origins []string) {
	boardID := mux.Vars(r)["boardId"]

	// Without a token the client joins as a read-only viewer
	canEdit := false
	if token := r.URL.Query().Get("token"); token != "" {
		if err := tokens.CanEdit(token, boardID); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		canEdit = true
	}

	if err := boards.Exists(r.Context(), boardID); err != nil {
		board.HandleError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	displayName := "guest-" + clientID[:4]
	client := collab.NewClient(hub, conn, boardID, clientID, displayName, canEdit)

	if !hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
