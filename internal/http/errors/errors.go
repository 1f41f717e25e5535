package errors

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// InternalError logs the underlying error with the request ID and returns a
// generic 500 to the client.
func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	log.Error().
		Str("request_id", middleware.GetReqID(r.Context())).
		Err(err).
		Msg(message)

	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// BadRequestError logs the underlying error and returns the given client
// message with a 400 status.
func BadRequestError(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	log.Warn().
		Str("request_id", middleware.GetReqID(r.Context())).
		Err(err).
		Msg("bad request")

	http.Error(w, clientMessage, http.StatusBadRequest)
}

// LogError records a request-scoped error without writing a response.
func LogError(r *http.Request, message string, err error) {
	log.Error().
		Str("request_id", middleware.GetReqID(r.Context())).
		Err(err).
		Msg(message)
}
