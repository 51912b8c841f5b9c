// Package httputil maps domain errors to HTTP responses.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "boxoffice/pkg/domain-errors"
)

// ErrorResponse is the JSON body for every failed request.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:        http.StatusBadRequest,
	dErrors.CodeInvalidParameters: http.StatusBadRequest,
	dErrors.CodeNotFound:          http.StatusNotFound,
	dErrors.CodeUnauthenticated:   http.StatusUnauthorized,
	dErrors.CodeUnauthorized:      http.StatusForbidden,
	dErrors.CodeSoldOut:           http.StatusConflict,
	dErrors.CodeShowTerminated:    http.StatusConflict,
	dErrors.CodePastShowtime:      http.StatusConflict,
	dErrors.CodeTransferBlocked:   http.StatusConflict,
	dErrors.CodeRefundNotEligible: http.StatusConflict,
	dErrors.CodeNotProtected:      http.StatusConflict,
	dErrors.CodeAlreadyClaimed:    http.StatusConflict,
	dErrors.CodeAlreadyFinalized:  http.StatusConflict,
	dErrors.CodeIndexFull:         http.StatusConflict,
	dErrors.CodeConflict:          http.StatusConflict,
	dErrors.CodeTransferFailed:    http.StatusPaymentRequired,
	dErrors.CodeTimeout:           http.StatusGatewayTimeout,
}

// StatusFor returns the HTTP status for a domain error.
func StatusFor(err error) int {
	if status, ok := statusByCode[dErrors.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError writes err as JSON. Internal errors never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	code := dErrors.CodeOf(err)
	body := ErrorResponse{Error: string(code)}
	if status == http.StatusInternalServerError {
		body.Error = string(dErrors.CodeInternal)
	} else {
		body.Description = dErrors.MessageOf(err)
	}
	WriteJSON(w, status, body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes a bounded request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
