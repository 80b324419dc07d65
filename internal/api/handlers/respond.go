package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"

	apiContext "ecoflow/internal/api/context"
	"ecoflow/internal/engine/devices"
	"ecoflow/internal/engine/ecoflow"
	"ecoflow/internal/engine/signing"
	"ecoflow/internal/pkg/errors"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

func pathParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

// decodeParams reads a JSON object of command parameters, keeping the key
// order of the request.
func decodeParams(raw json.RawMessage) (*signing.Mapping, error) {
	return signing.MappingFromJSON(raw)
}

// writeServiceError maps engine and vendor failures onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *ecoflow.APIError
	var httpErr *ecoflow.HTTPError

	switch {
	case stderrors.Is(err, signing.ErrInvalidInputType),
		stderrors.Is(err, signing.ErrCyclicInput),
		stderrors.Is(err, ecoflow.ErrMissingSerial),
		stderrors.Is(err, devices.ErrMissingCommand):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
	case stderrors.Is(err, devices.ErrUnknownDevice):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Device not found", nil)
	case stderrors.As(err, &apiErr):
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeUpstream, apiErr.Message, map[string]string{
			"vendor_code": apiErr.Code,
			"trace_id":    apiErr.TraceID,
		})
	case stderrors.As(err, &httpErr), stderrors.Is(err, ecoflow.ErrDecode):
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeUpstream, err.Error(), nil)
	case stderrors.Is(err, context.Canceled):
		log.Debug().Str("path", r.URL.Path).Msg("request cancelled by client")
		w.WriteHeader(statusClientClosedRequest)
	case isTransportError(err):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("vendor unavailable")
		errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeUnavailable, "EcoFlow API unavailable", nil)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal error", nil)
	}
}

// statusClientClosedRequest is nginx's code for a client that hung up.
const statusClientClosedRequest = 499

func isTransportError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return stderrors.As(err, &urlErr) ||
		stderrors.As(err, &netErr) ||
		stderrors.Is(err, context.DeadlineExceeded)
}
