package dav

import "net/http"

// PatchObserver is notified around partial-update writes. Observers are
// invoked synchronously in registration order.
//
// BeforePatch runs after all validation and precondition checks but before
// the request body is read. Returning false vetoes the write; a vetoing
// observer owns the response (the handler writes nothing further).
//
// AfterPatch runs once the write has been applied. It is informational and
// cannot veto.
type PatchObserver interface {
	BeforePatch(w http.ResponseWriter, r *http.Request, res Resource, spec PatchSpec) bool
	AfterPatch(r *http.Request, res Resource, spec PatchSpec, etag string)
}
