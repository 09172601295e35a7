package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/healthfirst-provider/internal/application"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/search"
	"github.com/oksasatya/healthfirst-provider/pkg/response"
	"github.com/oksasatya/healthfirst-provider/pkg/validation"
)

type ProviderHandler struct {
	Svc    *application.ProviderService
	Logger logrus.FieldLogger
}

func NewProviderHandler(svc *application.ProviderService, logger logrus.FieldLogger) *ProviderHandler {
	return &ProviderHandler{Svc: svc, Logger: logger}
}

// Register handles POST /api/v1/provider/register.
func (h *ProviderHandler) Register(c *gin.Context) {
	var req application.RegisterProviderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		// a mistyped value leaves the rest of the body decoded; validate it too
		var ute *json.UnmarshalTypeError
		if !errors.As(err, &ute) || ute.Field == "" {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", "request body must be a JSON object")
			return
		}
		req.DecodeErrors = validation.ToFieldErrors(err)
	}

	view, err := h.Svc.Register(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view, "provider registered successfully, verification pending", nil)
}

// Validate handles GET /api/v1/provider/validate. The phone number should be
// sent as %2B...; a bare "+" is accepted and restored.
func (h *ProviderHandler) Validate(c *gin.Context) {
	var q application.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", nil)
		return
	}
	res, err := h.Svc.CheckAvailability(c.Request.Context(), q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	msg := "available"
	if !res.IsValid {
		msg = "not available"
	}
	response.Success(c, http.StatusOK, res, msg, nil)
}

// GetByID handles GET /api/v1/provider/:id.
func (h *ProviderHandler) GetByID(c *gin.Context) {
	view, err := h.Svc.GetProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view, "provider", nil)
}

// Search handles GET /api/v1/provider/search?q=&size=.
func (h *ProviderHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	docs, err := h.Svc.SearchProviders(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, searchResult{Providers: docs, Count: len(docs)}, "search results", nil)
}

type searchResult struct {
	Providers []search.ProviderDocument `json:"providers"`
	Count     int                       `json:"count"`
}

// writeServiceError maps application errors to status codes. Storage and
// unexpected errors get a generic message; details stay in the logs.
func writeServiceError(c *gin.Context, err error) {
	var verr *application.ValidationError
	var cerr *application.ConflictError
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", verr.Fields)
	case errors.As(err, &cerr):
		response.Error[any](c, http.StatusConflict, "provider already registered", gin.H{"fields": cerr.Fields})
	case errors.Is(err, application.ErrProviderNotFound):
		response.Error[any](c, http.StatusNotFound, "provider not found", nil)
	case errors.Is(err, application.ErrNoAvailabilityKeys):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrStorageUnavailable):
		response.Error[any](c, http.StatusInternalServerError, "registration service temporarily unavailable", nil)
	default:
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
