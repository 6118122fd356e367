package http

import (
	"errors"
	"net/http"
	"strings"

	"oba/internal/core"
	"oba/internal/log"
	"oba/internal/storage"
)

const msgInternal = "Internal server error."

// notFoundMessage returns the static 404 text for an entity, e.g.
// "Account not found.".
func notFoundMessage(entity string) string {
	if entity == "" {
		return "Not found."
	}
	return strings.ToUpper(entity[:1]) + entity[1:] + " not found."
}

// writeError maps an error onto a status code and a short plain-text reason.
// This is the only place sentinel errors become HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	var (
		reqErr        *requestError
		constraintErr *storage.ConstraintError
	)

	switch {
	case errors.As(err, &reqErr):
		BadRequestError(reqErr.msg).Write(w)
	case errors.Is(err, core.ErrInvalidMonth):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, core.ErrValidation):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(notFoundMessage(entity)).Write(w)
	case errors.As(err, &constraintErr):
		ConflictError(constraintErr.Error()).Write(w)
	case errors.Is(err, core.ErrConflict):
		ConflictError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Unhandled request error",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		InternalServerError().Write(w)
	}
}
