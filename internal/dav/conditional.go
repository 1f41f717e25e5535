package dav

import (
	"net/http"
	"strings"
)

// checkConditionalHeaders validates If-Match and If-None-Match against the
// current ETag of a resource. exists reports whether the resource exists at
// all; currentETag is ignored when it does not.
func checkConditionalHeaders(r *http.Request, currentETag string, exists bool) bool {
	ifMatch := r.Header.Get("If-Match")
	ifNoneMatch := r.Header.Get("If-None-Match")

	// If-None-Match: * means "only proceed if the resource does not exist"
	if ifNoneMatch == "*" {
		return !exists
	}

	// If-Match requires the resource to exist and match the given ETag
	if ifMatch != "" {
		if !exists {
			return false
		}
		if ifMatch == "*" {
			return true
		}
		return strings.Trim(ifMatch, "\"") == currentETag
	}

	if ifNoneMatch != "" {
		if !exists {
			return true
		}
		return strings.Trim(ifNoneMatch, "\"") != currentETag
	}

	return true
}

// checkPatchPreconditions evaluates conditional-request headers for a
// partial update. On failure it writes the 412 response itself so callers
// can abort without producing further output.
func checkPatchPreconditions(w http.ResponseWriter, r *http.Request, res Resource) bool {
	if checkConditionalHeaders(r, res.ETag(), true) {
		return true
	}
	http.Error(w, "precondition failed", http.StatusPreconditionFailed)
	return false
}
