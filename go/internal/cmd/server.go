package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/huddlehq/huddle/go/internal/standup/storage"
)

func setupServer(services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Register routes
	registerRoutes(mux, services)

	// Add health check endpoint
	setupHealthCheck(mux)

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", getEnv("PORT", "8080")),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerRoutes(mux *http.ServeMux, services *Services) {
	coordinator := services.Coordinator

	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, coordinator.Snapshot())
	})

	mux.HandleFunc("GET /api/log", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, coordinator.Snapshot().Log)
	})

	mux.HandleFunc("DELETE /api/log", func(w http.ResponseWriter, r *http.Request) {
		coordinator.ClearLog()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		if err := coordinator.Refresh(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, coordinator.Snapshot().Domain)
	})

	mux.HandleFunc("POST /api/standup/start", func(w http.ResponseWriter, r *http.Request) {
		if err := coordinator.ForceStart(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("POST /api/standup/stop", func(w http.ResponseWriter, r *http.Request) {
		if err := coordinator.ForceStop(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("DELETE /api/toasts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid toast id", http.StatusBadRequest)
			return
		}
		coordinator.DismissToast(id)
		w.WriteHeader(http.StatusNoContent)
	})

	registerPanelRoutes(mux, services.Store)
}

// panelPrefs mirrors the floating panel layout the console persists.
type panelPrefs struct {
	Position  string `json:"position"`
	Collapsed bool   `json:"collapsed"`
}

func registerPanelRoutes(mux *http.ServeMux, store storage.Store) {
	mux.HandleFunc("GET /api/panel", func(w http.ResponseWriter, r *http.Request) {
		var prefs panelPrefs
		if v, ok, err := store.Get(storage.KeyPanelPosition); err == nil && ok {
			prefs.Position = v
		}
		if v, ok, err := store.Get(storage.KeyPanelCollapsed); err == nil && ok {
			prefs.Collapsed = v == "true"
		}
		writeJSON(w, prefs)
	})

	mux.HandleFunc("PUT /api/panel", func(w http.ResponseWriter, r *http.Request) {
		var prefs panelPrefs
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			http.Error(w, "invalid panel prefs", http.StatusBadRequest)
			return
		}
		if err := store.Set(storage.KeyPanelPosition, prefs.Position); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := store.Set(storage.KeyPanelCollapsed, strconv.FormatBool(prefs.Collapsed)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Warn().Err(err).Msg("failed to write health check response")
		}
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
