// Package api exposes the REST surface consumed by the shop website: the
// publish endpoint and the mod read endpoints backed by channel scans.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/shop-replace/modbot/internal/model"
	"github.com/shop-replace/modbot/internal/mods"
	"github.com/shop-replace/modbot/internal/store"
)

// Publisher is the write path the server publishes through.
type Publisher interface {
	Publish(req model.PublishRequest) (*discordgo.Message, error)
}

// Scanner is the read path the server reconstructs records through.
type Scanner interface {
	ScanCategory(category string) ([]model.ModRecord, error)
	FindByID(id string) (*model.ModDetail, error)
}

// Server serves the REST API.
type Server struct {
	publisher Publisher
	scanner   Scanner
	store     *store.Store
	logger    *slog.Logger
	botReady  func() bool
	started   time.Time
}

// New creates a Server. botReady gates the /api routes while the Discord
// session is still connecting.
func New(publisher Publisher, scanner Scanner, st *store.Store, logger *slog.Logger, botReady func() bool) *Server {
	return &Server{
		publisher: publisher,
		scanner:   scanner,
		store:     st,
		logger:    logger,
		botReady:  botReady,
		started:   time.Now(),
	}
}

// Handler builds the route table wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /test", s.handleTest)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /api/publish", s.ready(s.handlePublish))
	mux.HandleFunc("GET /api/mods/id/{id}", s.ready(s.handleModByID))
	mux.HandleFunc("GET /api/mods/{category}", s.ready(s.handleModsByCategory))

	return s.cors(mux)
}

// ListenAndServe runs the server on the given port.
func (s *Server) ListenAndServe(port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	s.logger.Info("HTTP server listening", "port", port)
	return srv.ListenAndServe()
}

// cors applies the permissive CORS policy the website relies on and
// short-circuits preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Max-Age", "86400")

		s.logger.Debug("Request", "method", r.Method, "url", r.URL.String())

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ready returns 503 while the Discord session is still connecting.
func (s *Server) ready(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.botReady() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"error":   "Service indisponible",
				"message": "Le bot est en cours de démarrage, veuillez réessayer dans quelques secondes",
			})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	serverState := "ready"
	botState := "connecting"
	if s.botReady() {
		botState = "connected"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"server": serverState,
		"bot":    botState,
		"uptime": time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if !s.botReady() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "initializing",
			"message": "Le bot est en cours de démarrage, veuillez réessayer dans quelques secondes",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "online",
		"message":   "Bot en ligne !",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"routes": []string{
			"/api/mods/" + model.CategoryWeapon,
			"/api/mods/" + model.CategoryVehicle,
			"/api/mods/" + model.CategoryCharacter,
		},
	})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req model.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": fmt.Sprintf("corps de requête invalide: %s", err),
		})
		return
	}

	if _, err := s.publisher.Publish(req); err != nil {
		s.logger.Error("Publish failed", "name", req.Name, "error", err)
		// The caller is the internal admin tool; the raw error message is
		// surfaced as diagnostic detail.
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Mod publié avec succès",
	})
}

func (s *Server) handleModsByCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.ToUpper(r.PathValue("category"))

	records, err := s.scanner.ScanCategory(category)
	if err != nil {
		if errors.Is(err, mods.ErrInvalidCategory) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   fmt.Sprintf("Catégorie invalide: %s", category),
			})
			return
		}
		s.logger.Error("Category scan failed", "category", category, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Erreur serveur",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mods":    records,
		"metadata": map[string]any{
			"category":  category,
			"total":     len(records),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleModByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	detail, err := s.scanner.FindByID(id)
	if err != nil {
		if errors.Is(err, mods.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": "Mod non trouvé",
			})
			return
		}
		s.logger.Error("Mod lookup failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "Erreur serveur",
		})
		return
	}

	if s.store != nil {
		if err := s.store.AppendDownload(detail.ID, detail.Category, detail.Name); err != nil {
			s.logger.Warn("Failed to log download lookup", "id", detail.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
