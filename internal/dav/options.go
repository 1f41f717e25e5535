package dav

import (
	"context"
	"net/http"
	"strings"

	"github.com/jw6ventures/filedav/internal/auth"
	"github.com/jw6ventures/filedav/internal/store"
)

const baseAllowedMethods = "OPTIONS, HEAD, GET, PUT, DELETE"

// SupportedMethods reports the extra method tokens available for a path.
// It returns [PATCH] only when a resource exists at the path and exposes a
// write capability; otherwise nil. Purely a predicate, no side effects.
func (h *Handler) SupportedMethods(ctx context.Context, user *store.User, name string) []string {
	if user == nil {
		return nil
	}
	res, err := h.lookup.Resolve(ctx, user, name)
	if err != nil {
		return nil
	}
	if supportsPartialUpdate(res) {
		return []string{"PATCH"}
	}
	return nil
}

// Options advertises the method and feature surface for a path. The
// partialupdate feature token and the PATCH method only appear when the
// target resource exists and can be patched.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	allow := baseAllowedMethods
	davTokens := []string{"1"}
	patchable := false

	if user, ok := auth.UserFromContext(r.Context()); ok {
		if name, ok := parseFilePath(r.URL.Path); ok {
			if extra := h.SupportedMethods(r.Context(), user, name); len(extra) > 0 {
				allow = allow + ", " + strings.Join(extra, ", ")
				patchable = true
			}
		}
	}

	if patchable {
		davTokens = append(davTokens, "sabredav-partialupdate")
		w.Header().Set("Accept-Patch", PartialUpdateMediaType)
	}
	w.Header().Set("Allow", allow)
	w.Header().Set("DAV", strings.Join(davTokens, ", "))
	w.WriteHeader(http.StatusNoContent)
}
