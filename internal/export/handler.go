package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

type Handler struct {
	boards    *board.Service
	lineWidth float64
}

func NewHandler(boards *board.Service, lineWidth float64) *Handler {
	return &Handler{boards: boards, lineWidth: lineWidth}
}

// ExportJSON serves the board as a snapshot file.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	snap, err := h.boards.Snapshot(r.Context(), boardID)
	if err != nil {
		board.HandleError(w, err)
		return
	}
	data, err := snap.Marshal()
	if err != nil {
		slog.Error("marshal snapshot", "board", boardID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeAttachment(w, "application/json", boardID+".json", data)
}

// ExportPNG serves the board cropped to its strokes as a PNG image.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	frame, err := h.boards.Frame(r.Context(), boardID)
	if err != nil {
		board.HandleError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := RenderPNG(&buf, frame, h.lineWidth); err != nil {
		slog.Error("render png", "board", boardID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeAttachment(w, "image/png", boardID+".png", buf.Bytes())
	slog.Info("export complete", "board", boardID, "format", "png", "size", buf.Len(),
		"width", frame.Width, "height", frame.Height)
}

func writeAttachment(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
