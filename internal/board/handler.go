package board

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gorilla/mux"
)

const maxImportSize = 10 << 20 // 10MB

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Create(r.Context())
	if err != nil {
		slog.Error("create board failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	slog.Info("board created", "board", board.ID)
	writeJSON(w, http.StatusCreated, board)
}

// Import replaces a board with an uploaded snapshot. The snapshot is
// either the raw request body or the "file" field of a multipart form.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	data, err := readImport(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.service.Import(r.Context(), boardID, data); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("board imported", "board", boardID, "bytes", len(data))
	w.WriteHeader(http.StatusNoContent)
}

func readImport(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, errors.New("request too large (max 10MB)")
		}
		return data, nil
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		return nil, errors.New("file too large (max 10MB)")
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("missing file field")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("failed to read file")
	}
	return data, nil
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Undo(r.Context(), mux.Vars(r)["boardId"])
	h.writeHistory(w, state, err)
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Redo(r.Context(), mux.Vars(r)["boardId"])
	h.writeHistory(w, state, err)
}

func (h *Handler) EraseAll(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.EraseAll(r.Context(), mux.Vars(r)["boardId"])
	h.writeHistory(w, state, err)
}

func (h *Handler) writeHistory(w http.ResponseWriter, state *HistoryState, err error) {
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleError writes err as a JSON error response with the matching
// status code.
func HandleError(w http.ResponseWriter, err error) {
	handleServiceError(w, err)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrMalformed):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrEmptyBoard):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "board is empty"})
	case errors.Is(err, ErrFrameTooLarge):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
