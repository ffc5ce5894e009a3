package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	s3blob "github.com/alanyoungcy/perpfeed/internal/blob/s3"
	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// ArchiveHandler serves the JSONL trade snapshots kept in object storage.
type ArchiveHandler struct {
	blobs  domain.BlobReader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(blobs domain.BlobReader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{blobs: blobs, logger: logHandler(logger, "archive")}
}

type archiveEntry struct {
	Date         string    `json:"date"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// List returns every snapshot stored for the wallet.
// GET /api/trader/{address}/archives
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !checkAddress(w, address) {
		return
	}

	prefix := s3blob.ArchivePrefix(address)
	infos, err := h.blobs.List(r.Context(), prefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to list archives")
		return
	}

	out := make([]archiveEntry, 0, len(infos))
	for _, info := range infos {
		out = append(out, archiveEntry{
			Date:         strings.TrimSuffix(strings.TrimPrefix(info.Path, prefix), ".jsonl"),
			Path:         info.Path,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": out})
}

// Get streams one day's snapshot as newline-delimited JSON.
// GET /api/trader/{address}/archives/{date}
func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	if !checkAddress(w, address) {
		return
	}
	day, err := time.Parse(time.DateOnly, pathParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	body, err := h.blobs.Get(r.Context(), s3blob.ArchivePath(address, day))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "archive not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get archive failed",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to read archive")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "handler: stream archive interrupted",
			slog.String("error", err.Error()),
		)
	}
}
