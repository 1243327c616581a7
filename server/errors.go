package server

import (
	"errors"
	"net/http"

	"keyledger/keys"
	"keyledger/ops"
)

var errBodyTooLarge = errors.New("request body too large")

// statusFor maps an operation error to the HTTP status the client sees.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, keys.ErrDecode), errors.Is(err, keys.ErrKeyFormat), errors.Is(err, ops.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, keys.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, ops.ErrUnauthorizedKey):
		return http.StatusForbidden
	case errors.Is(err, ops.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ops.ErrIdInUse):
		return http.StatusConflict
	case errors.Is(err, ops.ErrLedgerRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ops.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
