package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sp3dr4/finch/internal/application"
	"github.com/sp3dr4/finch/internal/domain"
)

type Handlers struct {
	service *application.URLService
}

func NewHandlers(service *application.URLService) *Handlers {
	return &Handlers{
		service: service,
	}
}

// HandleHealth handles the health check endpoint.
//
//	@Summary		Health check endpoint
//	@Description	Check if the service is running
//	@Tags			health
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Router			/health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// HandleReady handles the readiness check endpoint.
//
//	@Summary		Readiness check endpoint
//	@Description	Check if the cache is ready to serve URLs
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	object{status=string,entries=int,version=int,timestamp=string}	"Service is ready"
//	@Router			/ready [get]
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"entries":   h.service.EntryCount(),
		"version":   h.service.Version(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleGetURL handles the accessor endpoint.
//
//	@Summary		Get a currently valid URL
//	@Description	Return the cached URL for a slot, seeding from the fallback query parameter on first access. Never blocks; a stale URL is returned while a refresh runs in the background.
//	@Tags			urls
//	@Produce		json
//	@Param			resourceID	path		string						true	"Resource identifier"
//	@Param			index		path		int							true	"Slot index within the resource"
//	@Param			fallback	query		string						false	"URL to seed the entry from on first access"
//	@Success		200			{object}	application.URLResponse	"Current URL for the slot"
//	@Failure		400			{object}	ErrorResponse				"Invalid request or no entry and no fallback"
//	@Router			/urls/{resourceID}/{index} [get]
func (h *Handlers) HandleGetURL(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Index must be an integer")
		return
	}

	req := application.LookupRequest{
		ResourceID: chi.URLParam(r, "resourceID"),
		Index:      index,
		Fallback:   r.URL.Query().Get("fallback"),
	}

	response, err := h.service.Lookup(req)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownKey) {
			respondWithError(w, http.StatusBadRequest, "No cached URL for this slot and no fallback given")
			return
		}

		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			handleValidationError(w, validationErrors)
			return
		}

		slog.Error("Failed to look up URL", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to look up URL")
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HandleRefresh handles the explicit refresh endpoint.
//
//	@Summary		Force a URL refresh
//	@Description	Reissue the URL for a slot and wait for the outcome. This is the recovery path when a consumer saw the current URL fail to load.
//	@Tags			urls
//	@Accept			json
//	@Produce		json
//	@Param			request	body		application.RefreshRequest	true	"Slot to refresh"
//	@Success		200		{object}	application.URLResponse		"Freshly issued URL"
//	@Failure		400		{object}	ValidationErrorResponse		"Invalid request"
//	@Failure		502		{object}	ErrorResponse				"Issuer kept failing for this slot"
//	@Failure		503		{object}	ErrorResponse				"Cache is shutting down"
//	@Router			/refresh [post]
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req application.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.service.Refresh(r.Context(), req)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			handleValidationError(w, validationErrors)
			return
		}
		if errors.Is(err, domain.ErrCacheClosed) {
			respondWithError(w, http.StatusServiceUnavailable, "Cache is shutting down")
			return
		}
		if errors.Is(err, domain.ErrRefreshFailed) {
			respondWithError(w, http.StatusBadGateway, "Issuer could not reissue this URL")
			return
		}

		slog.Error("Failed to refresh URL", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to refresh URL")
		return
	}

	slog.Info("Refreshed URL", "resource_id", req.ResourceID, "index", req.Index)
	respondWithJSON(w, http.StatusOK, response)
}

// HandleVersion handles the change-notification poll endpoint.
//
//	@Summary		Cache version counter
//	@Description	Return the monotonically increasing counter consumers poll to know when to re-read URLs
//	@Tags			urls
//	@Produce		json
//	@Success		200	{object}	object{version=int}	"Current version"
//	@Router			/version [get]
func (h *Handlers) HandleVersion(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]uint64{
		"version": h.service.Version(),
	})
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     map[string]string `json:"error"`
	Timestamp string            `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

// ValidationErrorResponse represents a validation error response.
type ValidationErrorResponse struct {
	Details map[string]string `json:"details"`
	Error   string            `json:"error" example:"Validation failed"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]interface{}{
		"error": map[string]string{
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func handleValidationError(w http.ResponseWriter, validationErrors validator.ValidationErrors) {
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		field := getJSONFieldName(e)
		switch e.Tag() {
		case "required":
			errorMessages[field] = fmt.Sprintf("%s is required", field)
		case "url":
			errorMessages[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "min":
			errorMessages[field] = fmt.Sprintf("%s must be at least %s", field, e.Param())
		default:
			errorMessages[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   "Validation failed",
		"details": errorMessages,
	})
}

// getJSONFieldName extracts the JSON tag name from a validation error
func getJSONFieldName(e validator.FieldError) string {
	structType := getStructTypeFromError(e)
	if structType == nil {
		return e.Field()
	}

	field, found := structType.FieldByName(e.StructField())
	if !found {
		return e.Field()
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return e.Field()
	}

	if commaIndex := strings.Index(jsonTag, ","); commaIndex != -1 {
		jsonTag = jsonTag[:commaIndex]
	}

	return jsonTag
}

// getStructTypeFromError extracts the struct type from a validation error
func getStructTypeFromError(e validator.FieldError) reflect.Type {
	// The StructNamespace gives us something like "RefreshRequest.ResourceID"
	namespace := e.StructNamespace()

	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return nil
	}

	return getTypeFromStructName(parts[0])
}

// getTypeFromStructName returns the reflect.Type for a given struct name
// This acts as a registry for known request types
func getTypeFromStructName(structName string) reflect.Type {
	switch structName {
	case "LookupRequest":
		return reflect.TypeOf(application.LookupRequest{})
	case "RefreshRequest":
		return reflect.TypeOf(application.RefreshRequest{})
	default:
		return nil
	}
}
