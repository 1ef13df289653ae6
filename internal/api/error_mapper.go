package api

import (
	"errors"
	"net/http"

	"order-matching/internal/archive"
	"order-matching/internal/book"
	"order-matching/internal/engine"
)

// Error codes exposed to clients.
const (
	ErrorCodeInvalidInput     = "INVALID_INPUT"
	ErrorCodeInvalidDirection = "INVALID_DIRECTION"
	ErrorCodeAssetMismatch    = "ASSET_MISMATCH"
	ErrorCodeBookNotFound     = "BOOK_NOT_FOUND"
	ErrorCodeNotFound         = "NOT_FOUND"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)

// MapErrorToHTTP translates core errors into an HTTP status and error body.
func MapErrorToHTTP(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, book.ErrInvalidOrder), errors.Is(err, engine.ErrInvalidAsset):
		return http.StatusBadRequest, ErrorResponse{Code: ErrorCodeInvalidInput, Message: err.Error()}
	case errors.Is(err, engine.ErrInvalidDirection):
		return http.StatusBadRequest, ErrorResponse{Code: ErrorCodeInvalidDirection, Message: err.Error()}
	case errors.Is(err, book.ErrAssetMismatch):
		return http.StatusConflict, ErrorResponse{Code: ErrorCodeAssetMismatch, Message: err.Error()}
	case errors.Is(err, engine.ErrBookNotFound):
		return http.StatusNotFound, ErrorResponse{Code: ErrorCodeBookNotFound, Message: err.Error()}
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Code: ErrorCodeNotFound, Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: ErrorCodeInternal, Message: "internal error"}
	}
}
