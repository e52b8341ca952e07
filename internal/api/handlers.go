package api

import (
	"encoding/json"
	"net/http"
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetTournaments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.tournaments.ListTournaments())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	listing := h.tournaments.ListTournaments()
	started := 0
	for _, t := range listing {
		if t.Started {
			started++
		}
	}

	writeJSON(w, map[string]interface{}{
		"connections":        h.registry.ConnCount(),
		"tournaments":        len(listing),
		"tournamentsStarted": started,
	})
}

// handleMintToken issues a signed token for the given identity. There
// is no account database; any name gets a token, which is all a local
// or self-hosted deployment needs. Put a real identity provider in
// front of this for anything public.
func (h *routerHandlers) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.UserID == 0 {
		writeError(w, "user_id and username are required", http.StatusBadRequest)
		return
	}

	token, err := h.auth.Mint(req.UserID, req.Username)
	if err != nil {
		writeError(w, "Failed to mint token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"token": token})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
