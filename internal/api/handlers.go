package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"estate_bot/internal/api/dto"
	"estate_bot/internal/filter"
	"estate_bot/internal/storage"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type handler struct {
	store    storage.Listings
	pageSize int
	baseURL  string
}

// listApartments handles GET /api/apartments/.
func (h *handler) listApartments(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context())
	q := filter.ParseQuery(r.URL.Query())

	listings, total, err := h.store.SearchListings(r.Context(), q, h.pageSize, pageOffset(q.Page, h.pageSize))
	if err != nil {
		log.Error("search listings", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error."})
		return
	}

	base := h.base(r)
	resp := dto.Page{
		Count:   total,
		Results: make([]dto.Listing, 0, len(listings)),
	}
	for _, l := range listings {
		resp.Results = append(resp.Results, dto.FromModel(l, base))
	}

	if q.Page < (total+h.pageSize-1)/h.pageSize {
		resp.Next = pageLink(base, r.URL, q.Page+1)
	}
	if q.Page > 1 {
		resp.Previous = pageLink(base, r.URL, q.Page-1)
	}

	writeJSON(w, http.StatusOK, resp)
}

// getApartment handles GET /api/apartments/{id}/.
func (h *handler) getApartment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeNotFound(w)
		return
	}

	l, err := h.store.GetListing(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		loggerFrom(r.Context()).Error("get listing", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error."})
		return
	}

	writeJSON(w, http.StatusOK, dto.FromModel(*l, h.base(r)))
}

// pageOffset returns the row offset of a 1-indexed page. Pages whose offset
// does not fit in an int land past any real result set.
func pageOffset(page, size int) int {
	if page-1 >= math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// base returns the scheme and host used for absolute links.
func (h *handler) base(r *http.Request) string {
	if h.baseURL != "" {
		return strings.TrimSuffix(h.baseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// pageLink rebuilds the request URL for another page. Page 1 drops the
// parameter entirely.
func pageLink(base string, u *url.URL, page int) *string {
	q := u.Query()
	if page <= 1 {
		q.Del(filter.ParamPage)
	} else {
		q.Set(filter.ParamPage, strconv.Itoa(page))
	}
	link := base + u.Path
	if enc := q.Encode(); enc != "" {
		link += "?" + enc
	}
	return &link
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not found."})
}
