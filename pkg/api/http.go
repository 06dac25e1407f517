// Package api exposes the read-only diagnostics surface: health, metrics
// and JSON views over the in-memory conversation state. Mutations stay
// behind the Go API; the HTTP layer never writes.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatcore/pkg/logger"
	"chatcore/pkg/models"
	"chatcore/pkg/store"
)

// Handler returns the diagnostics router:
//   - GET /healthz
//   - GET /metrics
//   - GET /v1/conversations
//   - GET /v1/conversations/{id}/messages
func Handler(st *store.Store) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/v1/conversations", listConversations(st)).Methods(http.MethodGet)
	r.HandleFunc("/v1/conversations/{id}/messages", listMessages(st)).Methods(http.MethodGet)
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func listConversations(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		sums := st.Summaries()
		logger.Debug("conversations_list", "count", len(sums))
		_ = json.NewEncoder(w).Encode(struct {
			Conversations []models.Summary `json:"conversations"`
		}{Conversations: sums})
	}
}

func listMessages(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id := mux.Vars(r)["id"]
		if _, ok := st.Summary(id); !ok {
			http.Error(w, `{"error":"unknown conversation"}`, http.StatusNotFound)
			return
		}
		msgs := st.Messages(id)
		logger.Debug("messages_list", "conversation", id, "count", len(msgs))
		_ = json.NewEncoder(w).Encode(struct {
			Conversation string           `json:"conversation"`
			Messages     []models.Message `json:"messages"`
		}{Conversation: id, Messages: msgs})
	}
}
