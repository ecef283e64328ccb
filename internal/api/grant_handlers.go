package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"drzewo-plikow/internal/database"
	"drzewo-plikow/internal/models"

	"github.com/go-chi/chi/v5"
)

type ReplaceGrantsRequest struct {
	Grants []database.GrantParams `json:"grants"`
}

// ReplaceGrantsHandler wymienia hurtowo komplet uprawnień wskazanego
// użytkownika. Tylko dla administratora.
func (s *Server) ReplaceGrantsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	if !claims.IsAdmin {
		http.Error(w, "Administrator privileges required", http.StatusForbidden)
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := s.store.GetUserByID(r.Context(), targetID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var req ReplaceGrantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		return q.ReplaceGrants(r.Context(), targetID, req.Grants)
	})
	if txErr != nil {
		if errors.Is(txErr, database.ErrGrantNodeNotFound) {
			http.Error(w, txErr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to update grants", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListGrantsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	if !claims.IsAdmin {
		http.Error(w, "Administrator privileges required", http.StatusForbidden)
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	grantsMap, err := s.store.GrantsFor(r.Context(), targetID)
	if err != nil {
		http.Error(w, "Failed to list grants", http.StatusInternalServerError)
		return
	}

	grants := make([]models.Grant, 0, len(grantsMap))
	for _, g := range grantsMap {
		grants = append(grants, g)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(grants)
}
