package dav

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jw6ventures/filedav/internal/auth"
	httperrors "github.com/jw6ventures/filedav/internal/http/errors"
	"github.com/jw6ventures/filedav/internal/store"
)

// PartialUpdateMediaType is the request body encoding for partial updates.
// The Content-Type of a PATCH request must equal it (case-insensitively).
const PartialUpdateMediaType = "application/x-sabredav-partialupdate"

// updateRangeHeader carries the byte range of a partial update.
const updateRangeHeader = "X-Update-Range"

// Patch applies a byte-range partial update to a file resource.
//
// The pipeline is strictly ordered: capability resolution, range grammar,
// media type, declared length, range/length cross-check, preconditions,
// pre-write observers, body read, write dispatch, post-write observers.
// Every validation failure aborts before any body read or write attempt.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.lookup.Resolve(r.Context(), user, name)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		httperrors.InternalError(w, r, err, "failed to resolve resource")
		return
	}
	if !supportsPartialUpdate(res) {
		http.Error(w, "resource does not support partial updates", http.StatusMethodNotAllowed)
		return
	}

	parsed, ok := ParseUpdateRange(r.Header.Get(updateRangeHeader))
	if !ok {
		http.Error(w, "missing or malformed X-Update-Range header", http.StatusBadRequest)
		return
	}

	if !strings.EqualFold(strings.TrimSpace(r.Header.Get("Content-Type")), PartialUpdateMediaType) {
		http.Error(w, "expected content type "+PartialUpdateMediaType, http.StatusUnsupportedMediaType)
		return
	}

	length, ok := declaredContentLength(r)
	if !ok {
		http.Error(w, "Content-Length header is required", http.StatusLengthRequired)
		return
	}
	if length > h.cfg.MaxBodyBytes {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}

	spec := PatchSpec{Kind: parsed.Kind, Start: parsed.Start, SuffixLength: parsed.SuffixLength}
	if parsed.Kind == RangeStartBounded {
		if parsed.HasEnd {
			if parsed.End < parsed.Start {
				http.Error(w, "range end precedes range start", http.StatusRequestedRangeNotSatisfiable)
				return
			}
			if parsed.End-parsed.Start+1 != length {
				http.Error(w, "range length does not match content length", http.StatusRequestedRangeNotSatisfiable)
				return
			}
			spec.End = parsed.End
		} else {
			spec.End = parsed.Start + length - 1
		}
	}

	// A failed precondition has already produced the 412; abort silently.
	if !checkPatchPreconditions(w, r, res) {
		return
	}

	for _, o := range h.observers {
		if !o.BeforePatch(w, r, res, spec) {
			return
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r.Body, body); err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var etag string
	switch res := res.(type) {
	case Patcher:
		etag, err = res.ApplyPatch(r.Context(), body, spec)
	case RangeWriter:
		if spec.Kind != RangeStartBounded {
			http.Error(w, "resource does not support append or suffix ranges", http.StatusNotImplemented)
			return
		}
		etag, err = res.WriteRangeAt(r.Context(), body, spec.Start)
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "failed to apply partial update")
		return
	}

	for _, o := range h.observers {
		o.AfterPatch(r, res, spec, etag)
	}

	w.Header().Set("Content-Length", "0")
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.WriteHeader(http.StatusNoContent)
}

func supportsPartialUpdate(res Resource) bool {
	switch res.(type) {
	case Patcher, RangeWriter:
		return true
	}
	return false
}

// declaredContentLength returns the declared request body length. The header
// value wins when present; otherwise the length recorded by the transport is
// used. Chunked or unknown lengths report false.
func declaredContentLength(r *http.Request) (int64, bool) {
	v := strings.TrimSpace(r.Header.Get("Content-Length"))
	if v == "" {
		// Some transports strip the header while recording the length.
		if r.ContentLength > 0 && !hasChunkedEncoding(r) {
			return r.ContentLength, true
		}
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func hasChunkedEncoding(r *http.Request) bool {
	for _, enc := range r.TransferEncoding {
		if strings.EqualFold(enc, "chunked") {
			return true
		}
	}
	return false
}
