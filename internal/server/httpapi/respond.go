package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophagenda/internal/common"
)

const maxBodySize = 1 << 20

// decode reads a strict JSON body. Failures are malformed input.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: body: %v", common.ErrMalformedInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", common.ErrMalformedInput)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps service errors to status codes without echoing details.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrMalformedInput):
		s.forgery(r)
		code = http.StatusBadRequest
	case errors.Is(err, common.ErrSelfInvitation):
		code = http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrSignatureInvalid),
		errors.Is(err, common.ErrExpired):
		code = http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		code = http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		code = http.StatusConflict
	case errors.Is(err, common.ErrRateLimited):
		code = http.StatusTooManyRequests
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	http.Error(w, http.StatusText(code), code)
}
