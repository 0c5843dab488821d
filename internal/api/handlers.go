package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"channels-go/internal/cache"
	"channels-go/internal/catalog"
)

// pathParam returns a decoded URL parameter. chi matches against the raw
// path when the request carries escaped separators.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// ListChannels handles GET /api/v1/channels.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.catalog.ListChannels(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	l := newLinker(r)
	out := make([]ChannelSummary, 0, len(channels))
	for _, c := range channels {
		out = append(out, l.channelSummary(c))
	}
	respondJSON(w, http.StatusOK, out)
}

// GetChannel handles GET /api/v1/channels/{name}.
func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	data, err := h.channelData(r.Context(), pathParam(r, "name"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newLinker(r).channelDocument(data))
}

// channelData loads a channel document through the cache. The key uses the
// normalized name, matching the key mutating commands invalidate.
func (h *Handler) channelData(ctx context.Context, name string) (*channelData, error) {
	name = catalog.NormalizeName(name)
	key := cache.ChannelKey(name)
	if raw, ok := h.cache.Get(ctx, key); ok {
		var data channelData
		if err := json.Unmarshal(raw, &data); err == nil {
			return &data, nil
		}
		h.logger.Warn("discarding unreadable cache entry", "key", key)
		h.cache.Delete(ctx, key)
	}

	channel, err := h.catalog.FindChannel(ctx, name)
	if err != nil {
		return nil, err
	}
	paths, err := h.catalog.ListCategoryPaths(ctx, channel)
	if err != nil {
		return nil, err
	}
	if paths == nil {
		paths = []string{}
	}

	data := &channelData{Name: channel.Name(), Categories: paths, Count: int64(len(paths))}
	if raw, err := json.Marshal(data); err == nil {
		h.cache.Set(ctx, key, raw)
	}
	return data, nil
}

// GetChannelCategory handles GET /api/v1/channels/{name}/categories/{category}.
func (h *Handler) GetChannelCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channel, err := h.catalog.FindChannel(ctx, pathParam(r, "name"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	detail, err := h.catalog.FindCategoryDetail(ctx, channel, pathParam(r, "category"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newLinker(r).categoryDocument(detail))
}

// ListCategories handles GET /api/v1/categories. Channels come in name
// order and their categories in pre-order.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channels, err := h.catalog.ListChannels(ctx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	l := newLinker(r)
	out := make([]CategorySummary, 0)
	for _, ch := range channels {
		categories, err := h.catalog.ListCategories(ctx, ch)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		for _, c := range categories {
			out = append(out, l.categorySummary(c, ch))
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// GetCategory handles GET /api/v1/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondJSON(w, http.StatusNotFound, errorBody{Detail: notFoundDetail})
		return
	}

	detail, err := h.catalog.GetCategoryDetail(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newLinker(r).categoryDocument(detail))
}

// SearchChannels handles GET /api/v1/search/channels/{keyword}.
func (h *Handler) SearchChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.catalog.SearchChannels(r.Context(), pathParam(r, "keyword"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(channels) == 0 {
		respondJSON(w, http.StatusNotFound, errorBody{Detail: notFoundDetail})
		return
	}

	l := newLinker(r)
	out := make([]ChannelSummary, 0, len(channels))
	for _, c := range channels {
		out = append(out, l.channelSummary(c))
	}
	respondJSON(w, http.StatusOK, out)
}

// SearchCategories handles GET /api/v1/search/categories/{keyword}.
func (h *Handler) SearchCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.catalog.SearchCategories(ctx, pathParam(r, "keyword"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(categories) == 0 {
		respondJSON(w, http.StatusNotFound, errorBody{Detail: notFoundDetail})
		return
	}

	l := newLinker(r)
	owners := make(map[string]*catalog.Channel)
	out := make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		owner, ok := owners[c.TreeID()]
		if !ok {
			owner, err = h.catalog.ChannelOf(ctx, c)
			if err != nil {
				h.respondError(w, r, err)
				return
			}
			owners[c.TreeID()] = owner
		}
		out = append(out, l.categorySummary(c, owner))
	}
	respondJSON(w, http.StatusOK, out)
}
