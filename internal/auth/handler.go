package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type tokenResponse struct {
	BoardID string `json:"boardId"`
	Token   string `json:"token"`
}

// Refresh trades a valid board token for a fresh one with a new expiry.
// It must run behind BoardMiddleware.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	boardID := BoardIDFromContext(r.Context())
	if boardID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	token, err := h.service.IssueBoardToken(boardID)
	if err != nil {
		slog.Error("refresh token failed", "board", boardID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{BoardID: boardID, Token: token})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
