package handlers

import (
	"encoding/json"
	"net/http"

	"ecoflow/internal/engine/signing"
	"ecoflow/internal/pkg/errors"
)

// SignHandler exposes the canonical string the client would sign. It never
// returns the signature itself.
type SignHandler struct {
	signer *signing.Signer
	nonces signing.NonceSource
	clock  signing.Clock
}

func NewSignHandler(signer *signing.Signer, nonces signing.NonceSource, clock signing.Clock) *SignHandler {
	return &SignHandler{signer: signer, nonces: nonces, clock: clock}
}

type SignRequest struct {
	Params    json.RawMessage `json:"params"`
	Nonce     string          `json:"nonce"`
	Timestamp string          `json:"timestamp"`
}

type SignResponse struct {
	Flattened    map[string]string `json:"flattened"`
	Query        string            `json:"query"`
	StringToSign string            `json:"string_to_sign"`
	Nonce        string            `json:"nonce"`
	Timestamp    string            `json:"timestamp"`
}

func (h *SignHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	params, err := decodeParams(req.Params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	flat, err := signing.Flatten(params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if req.Nonce == "" {
		if req.Nonce, err = h.nonces.Nonce(); err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate nonce", nil)
			return
		}
	}
	if req.Timestamp == "" {
		req.Timestamp = signing.Timestamp(h.clock.Now())
	}

	errors.WriteJSON(w, http.StatusOK, SignResponse{
		Flattened:    flat.Map(),
		Query:        signing.EncodeQuery(flat),
		StringToSign: signing.Canonicalize(flat, h.signer.AccessKey(), req.Nonce, req.Timestamp),
		Nonce:        req.Nonce,
		Timestamp:    req.Timestamp,
	})
}
