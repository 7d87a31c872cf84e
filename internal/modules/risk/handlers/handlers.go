// Package handlers provides HTTP handlers for Monte Carlo risk operations.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/tailrisk/internal/modules/montecarlo"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	// maxBodyBytes bounds request bodies; loss samples are the largest inputs.
	maxBodyBytes = 64 << 20
)

// Handler handles risk simulation HTTP requests
type Handler struct {
	service *montecarlo.Service
	log     zerolog.Logger
}

// NewHandler creates a new risk simulation handler
func NewHandler(service *montecarlo.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

// HandleSimulateSingle handles POST /api/risk/simulate/single
func (h *Handler) HandleSimulateSingle(w http.ResponseWriter, r *http.Request) {
	var req montecarlo.SingleAssetRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.SingleAsset(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, r, result)
}

// HandleSimulatePortfolio handles POST /api/risk/simulate/portfolio
func (h *Handler) HandleSimulatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req montecarlo.PortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Portfolio(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, r, result)
}

// HandleEstimate handles POST /api/risk/estimate
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	var req montecarlo.EstimateRequest
	if !h.decode(w, r, &req) {
		return
	}

	tail, err := h.service.Estimate(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, r, tail)
}

// HandleBootstrap handles POST /api/risk/bootstrap
func (h *Handler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	var req montecarlo.BootstrapRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Bootstrap(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResult(w, r, result)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeMsgpack) {
		dec := msgpack.NewDecoder(body)
		dec.SetCustomStructTag("json")
		err = dec.Decode(v)
	} else {
		err = json.NewDecoder(body).Decode(v)
	}
	if err != nil {
		h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request")
		h.writeResponse(w, r, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// statusFor maps simulation error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, montecarlo.ErrNonPositiveDefiniteCovariance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, montecarlo.ErrInvalidParameter),
		errors.Is(err, montecarlo.ErrDimensionMismatch),
		errors.Is(err, montecarlo.ErrInsufficientData):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Risk computation failed")
	}
	h.writeResponse(w, r, status, map[string]interface{}{
		"error": err.Error(),
	})
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, data interface{}) {
	h.writeResponse(w, r, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"run_id":    uuid.New().String(),
		},
	})
}

// writeResponse encodes msgpack when the client asks for it, JSON otherwise.
// The body is encoded before any header is sent, so an encoding failure
// becomes a 500 instead of a truncated response.
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	contentType := contentTypeJSON
	var buf bytes.Buffer
	var err error
	if strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack) {
		contentType = contentTypeMsgpack
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		err = enc.Encode(data)
	} else {
		err = json.NewEncoder(&buf).Encode(data)
	}
	if err != nil {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to encode response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to write response")
	}
}
