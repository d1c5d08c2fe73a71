package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/auth"
)

const (
	msgInvalidJSON  = "Request body must be valid JSON"
	msgBodyTooLarge = "Request body is too large"
	msgBodyRequired = "Request body is required"
	msgTrailingData = "Request body must contain a single JSON object"
)

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apierr.Validation(msgBodyTooLarge)
		case errors.Is(err, io.EOF):
			return apierr.Validation(msgBodyRequired)
		default:
			return &apierr.Error{Kind: apierr.KindValidation, Messages: []string{msgInvalidJSON}, Err: err}
		}
	}
	if dec.More() {
		return apierr.Validation(msgTrailingData)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

// pathUUID parses the named path value as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apierr.Validation(fmt.Sprintf("%s must be a valid UUID", name))
	}
	return id, nil
}

// caller returns the authenticated claims, which the gate guarantees on non-public routes.
func caller(r *http.Request) (*auth.Claims, error) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		return nil, apierr.Unauthorized(auth.MsgMissingToken)
	}
	return claims, nil
}
