package dav

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jw6ventures/filedav/internal/auth"
	"github.com/jw6ventures/filedav/internal/config"
	httperrors "github.com/jw6ventures/filedav/internal/http/errors"
	"github.com/jw6ventures/filedav/internal/store"
)

// Handler serves DAV file requests, including byte-range partial updates.
type Handler struct {
	cfg       *config.Config
	store     *store.Store
	lookup    ResourceLookup
	observers []PatchObserver
}

// Option customizes a Handler.
type Option func(*Handler)

// WithLookup replaces the default store-backed resource lookup.
func WithLookup(lookup ResourceLookup) Option {
	return func(h *Handler) { h.lookup = lookup }
}

// WithObserver appends a patch observer. Observers run in the order they
// were registered.
func WithObserver(o PatchObserver) Option {
	return func(h *Handler) { h.observers = append(h.observers, o) }
}

func NewHandler(cfg *config.Config, st *store.Store, opts ...Option) *Handler {
	h := &Handler{cfg: cfg, store: st}
	if st != nil {
		h.lookup = &storeLookup{files: st.Files}
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Head(w http.ResponseWriter, r *http.Request) {
	h.Get(w, r)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	name, ok := parseFilePath(r.URL.Path)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	file, err := h.store.Files.Get(r.Context(), user.ID, name)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		httperrors.InternalError(w, r, err, "failed to load file")
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", fmt.Sprintf("\"%s\"", file.ETag))
	w.Header().Set("Accept-Ranges", "none")
	if !file.LastModified.IsZero() {
		w.Header().Set("Last-Modified", file.LastModified.UTC().Format(http.TimeFormat))
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write(file.Content)
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	name, ok := parseFilePath(r.URL.Path)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if r.ContentLength > h.cfg.MaxBodyBytes {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}
	limitedBody := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	body, err := io.ReadAll(limitedBody)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "failed to read body", http.StatusBadRequest)
		}
		return
	}
	etag := fmt.Sprintf("%x", sha256.Sum256(body))

	existing, err := h.store.Files.Get(r.Context(), user.ID, name)
	if err != nil && err != store.ErrNotFound {
		httperrors.InternalError(w, r, err, "failed to load file")
		return
	}

	var existingETag string
	if existing != nil {
		existingETag = existing.ETag
	}
	if !checkConditionalHeaders(r, existingETag, existing != nil) {
		http.Error(w, "precondition failed", http.StatusPreconditionFailed)
		return
	}

	file := store.File{
		UserID:      user.ID,
		Name:        name,
		Content:     body,
		ContentType: r.Header.Get("Content-Type"),
		ETag:        etag,
		Size:        int64(len(body)),
	}
	if _, err := h.store.Files.Upsert(r.Context(), file); err != nil {
		httperrors.InternalError(w, r, err, "failed to save file")
		return
	}

	w.Header().Set("ETag", fmt.Sprintf("\"%s\"", etag))
	if existing == nil {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	name, ok := parseFilePath(r.URL.Path)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	existing, err := h.store.Files.Get(r.Context(), user.ID, name)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		httperrors.InternalError(w, r, err, "failed to load file")
		return
	}

	if !checkConditionalHeaders(r, existing.ETag, true) {
		http.Error(w, "precondition failed", http.StatusPreconditionFailed)
		return
	}

	if err := h.store.Files.Delete(r.Context(), user.ID, name); err != nil {
		httperrors.InternalError(w, r, err, "failed to delete file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
