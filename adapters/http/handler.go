// Package http exposes the block catalog, the render pipeline and page
// editing over a JSON HTTP API.
package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/artpar/pageblocks/app"
	"github.com/artpar/pageblocks/domain/content"
)

// Handler serves the content API.
type Handler struct {
	service *app.ContentService
	logger  zerolog.Logger
}

// NewHandler creates a new content API handler.
func NewHandler(service *app.ContentService, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the API endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/blocks", func(r chi.Router) {
		r.Get("/", h.ListBlocks)
		r.Get("/{key}", h.DescribeBlock)
		r.Post("/{key}/validate", h.ValidateBlock)
	})

	r.Post("/render", h.Render)
	r.Get("/render/pages/{slug}", h.RenderPage)

	r.Route("/pages", func(r chi.Router) {
		r.Get("/", h.ListPages)
		r.Post("/", h.CreatePage)
		r.Get("/{id}", h.GetPage)
		r.Delete("/{id}", h.DeletePage)
		r.Post("/{id}/sections", h.AppendSection)
		r.Patch("/{id}/sections/{index}", h.UpdateSection)
		r.Delete("/{id}/sections/{index}", h.RemoveSection)
		r.Post("/{id}/sections/{index}/move", h.MoveSection)
	})

	r.Post("/cache/clear", h.ClearCache)
}

// ListBlocks returns a descriptor for every enabled block type.
func (h *Handler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": h.service.ListBlocks(r.Context())})
}

// DescribeBlock returns the descriptor of one block type.
func (h *Handler) DescribeBlock(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.DescribeBlock(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

// ValidateBlock checks a candidate payload. An invalid payload is answered
// with 422 and the validation result as the body.
func (h *Handler) ValidateBlock(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := decodeJSON(w, r, &data); err != nil {
		writeError(w, errBadRequest(err.Error()))
		return
	}
	if data == nil {
		data = map[string]any{}
	}

	res, err := h.service.ValidateSection(r.Context(), chi.URLParam(r, "key"), data)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if !res.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

type renderResponse struct {
	Sections []content.Section `json:"sections"`
}

// Render transforms the posted section list. The body is either a bare
// array of sections or an object with a sections member.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, errBadRequest(err.Error()))
		return
	}
	if obj, ok := body.(map[string]any); ok {
		body = obj[content.KeySections]
	}

	out := renderResponse{Sections: h.service.Render(r.Context(), body)}
	if err := writeCached(w, r, out); err != nil {
		h.logger.Error().Err(err).Msg("failed to write render response")
	}
}

// RenderPage transforms a stored page for delivery.
func (h *Handler) RenderPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.RenderPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := writeCached(w, r, p); err != nil {
		h.logger.Error().Err(err).Str("slug", p.Slug).Msg("failed to write page")
	}
}

// ListPages returns every stored page.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListPages(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": pages})
}

// CreatePage stores a new page after validating its sections.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, errBadRequest(err.Error()))
		return
	}

	p, err := h.service.CreatePage(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/pages/"+p.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"data": p})
}

// GetPage returns a stored page by id.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

// DeletePage removes a page.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePage(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AppendSection adds a validated section at the end of a page.
func (h *Handler) AppendSection(w http.ResponseWriter, r *http.Request) {
	var sec content.Section
	if err := decodeJSON(w, r, &sec); err != nil {
		writeError(w, errBadRequest(err.Error()))
		return
	}

	p, err := h.service.AppendSection(r.Context(), chi.URLParam(r, "id"), sec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

// UpdateSection merges a partial payload into one section and revalidates
// the result.
func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}

	var patch map[string]any
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, errBadRequest(err.Error()))
		return
	}

	p, err := h.service.UpdateSection(r.Context(), chi.URLParam(r, "id"), index, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

// RemoveSection deletes one section.
func (h *Handler) RemoveSection(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}

	p, err := h.service.RemoveSection(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

type moveRequest struct {
	To int `json:"to"`
}

// MoveSection moves one section to a new position.
func (h *Handler) MoveSection(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}

	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, errBadRequest(err.Error()))
		return
	}

	p, err := h.service.MoveSection(r.Context(), chi.URLParam(r, "id"), index, req.To)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

// ClearCache drops the discovery cache so the next lookup rescans.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCache(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	e, known := serviceError(err)
	if !known {
		h.logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
	}
	writeError(w, e)
}

func indexParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		e := errBadRequest("section index must be an integer")
		e.Source = &ErrorSource{Parameter: name}
		writeError(w, e)
		return 0, false
	}
	return n, true
}
