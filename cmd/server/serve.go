package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/lukev/we_server/internal/adminapi"
	"github.com/lukev/we_server/internal/config"
	"github.com/lukev/we_server/internal/game"
	"github.com/lukev/we_server/internal/room"
	"github.com/lukev/we_server/internal/snapshot"
	"github.com/lukev/we_server/internal/wsapi"
	"github.com/rs/zerolog"
)

func serve(cfg config.Config) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	now := func() int64 { return time.Now().UnixMilli() }

	var reg *room.Registry
	var store *snapshot.Store
	if cfg.PersistPath != "" {
		store = snapshot.New(cfg.PersistPath, cfg.SnapshotDebounce, func() map[string]*game.Game {
			out := make(map[string]*game.Game)
			for _, r := range reg.All() {
				out[r.ID()] = r.Record()
			}
			return out
		}, logger)
		reg = room.NewRegistry(store, json.Marshal, now)
		for _, g := range snapshot.Load(cfg.PersistPath, logger) {
			reg.Restore(g)
		}
		store.Start()
		defer store.Stop()
	} else {
		reg = room.NewRegistry(nil, json.Marshal, now)
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	adminapi.NewHandler(reg, cfg.AdminPassword, logger).RegisterRoutes(router)
	wsapi.NewHandler(reg, logger).RegisterRoutes(router)

	logger.Info().Str("addr", cfg.Addr).Bool("persist", cfg.PersistPath != "").Msg("white elephant server starting")
	return http.ListenAndServe(cfg.Addr, router)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Password, X-Host-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
