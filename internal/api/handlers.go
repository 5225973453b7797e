package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/assetservice"
	"github.com/starford/fehu/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	svc *assetservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *assetservice.Service) *Handler {
	return &Handler{svc: svc}
}

// assetFilename extracts the asset filename from the URL wildcard.
// Supports encoded slashes from API clients (e.g. images%2Flogo.png).
func assetFilename(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func toDetail(row index.AssetRow) AssetDetail {
	return AssetDetail{
		Filename:  row.Filename,
		Location:  row.Location,
		Mimetype:  row.Mimetype,
		Checksum:  row.Checksum,
		UpdatedAt: row.UpdatedAt,
	}
}

func toDetails(rows []index.AssetRow) []AssetDetail {
	out := make([]AssetDetail, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDetail(r))
	}
	return out
}

// ListAssets handles GET /api/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.svc.ListAssets(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list assets failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, AssetListResponse{
		Assets: toDetails(rows),
		Total:  total,
	})
}

// GetAsset handles GET /api/assets/*.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	filename := assetFilename(r)
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("filename is required"))
		return
	}
	row, err := h.svc.GetAsset(r.Context(), filename)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get asset failed", slog.String("filename", filename), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, toDetail(*row))
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: toDetails(rows)})
}

// Resolve handles POST /api/resolve. It re-runs the full resolution
// pipeline and reports the number of resolved assets.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Resolve(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrSourceTree):
			writeJSON(w, http.StatusConflict, errorBody("source tree unavailable"))
		case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrNotAFile):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrFetch), errors.Is(err, apperr.ErrCacheWrite):
			writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
		default:
			slog.Error("resolve failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{Assets: len(found)})
}

// ServeAssetFile handles GET /api/files/*: it streams the asset bytes from
// disk with the indexed mimetype.
func (h *Handler) ServeAssetFile(w http.ResponseWriter, r *http.Request) {
	filename := assetFilename(r)
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("filename is required"))
		return
	}
	row, err := h.svc.GetAsset(r.Context(), filename)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("serve asset failed", slog.String("filename", filename), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	path, err := h.svc.AssetFilePath(r.Context(), filename)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if row.Mimetype != "" {
		w.Header().Set("Content-Type", row.Mimetype)
	}
	http.ServeFile(w, r, path)
}
