// Package api exposes bot evaluations over HTTP and pushes outcomes to websocket clients.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
)

const defaultListLimit = 10

type Handler struct {
	evaluator interfaces.BotEvaluator
	hub       *Hub
}

func NewHandler(evaluator interfaces.BotEvaluator, hub *Hub) *Handler {
	return &Handler{evaluator: evaluator, hub: hub}
}

// NewRouter registers every route. Everything except /healthz sits behind AuthMiddleware.
func NewRouter(h *Handler, jwtSecret []byte) *mux.Router {
	router := mux.NewRouter()
	auth := AuthMiddleware(jwtSecret)

	router.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)
	router.Handle("/ws", auth(http.HandlerFunc(h.hub.HandleWebSocket)))

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth)
	h.RegisterRoutes(apiRouter)

	return router
}

// WithCORS wraps router in the CORS policy for origins. No origins means any origin.
func WithCORS(router http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/bots/{id}/evaluate", h.Evaluate).Methods(http.MethodPost)
	router.HandleFunc("/bots/{id}/evaluations", h.ListEvaluations).Methods(http.MethodGet)
}

// Evaluate runs one evaluation. The outcome is returned with 200 whether or not it succeeded.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	botID := mux.Vars(r)["id"]
	logger.Info(r.Context(), "Evaluation requested over HTTP", "bot_id", botID, "subject", Subject(r.Context()))

	outcome := h.evaluator.Evaluate(r.Context(), botID)
	h.hub.Broadcast(Message{Type: "evaluation", Content: outcome})

	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	botID := mux.Vars(r)["id"]

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, h.evaluator.ListEvaluations(r.Context(), botID, limit))
}

// HealthHandler responds to health check requests
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
