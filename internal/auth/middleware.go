package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey string

const BoardIDKey contextKey = "boardID"

// BoardMiddleware requires a bearer token for the board named by the
// {boardId} route variable.
func (s *Service) BoardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			return
		}

		boardID := mux.Vars(r)["boardId"]
		if err := s.CanEdit(parts[1], boardID); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), BoardIDKey, boardID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BoardIDFromContext returns the board an authenticated request may edit.
func BoardIDFromContext(ctx context.Context) string {
	boardID, _ := ctx.Value(BoardIDKey).(string)
	return boardID
}
