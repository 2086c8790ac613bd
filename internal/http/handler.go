package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/autoservice-offers/internal/http/middleware"
	"github.com/nurpe/autoservice-offers/internal/model"
	"github.com/nurpe/autoservice-offers/internal/pdf"
	"github.com/nurpe/autoservice-offers/internal/repository"
	"github.com/nurpe/autoservice-offers/internal/service"
)

type Handler struct {
	offers *service.OfferService
	log    zerolog.Logger
}

func NewHandler(offers *service.OfferService, log zerolog.Logger) *Handler {
	return &Handler{offers: offers, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", h.health)

	protected := router.Group("/offers")
	protected.Use(authMiddleware)
	protected.POST("/calculate", h.calculate)
	protected.POST("/preview/pdf", h.previewPDF)
	protected.GET("", h.listOffers)
	protected.POST("", h.createOffer)
	protected.GET("/export/xlsx", h.exportWorkbook)
	protected.GET("/:id", h.getOffer)
	protected.PUT("/:id", h.updateOffer)
	protected.PATCH("/:id/status", h.setStatus)
	protected.DELETE("/:id", h.deleteOffer)
	protected.GET("/:id/pdf", h.exportPDF)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.handleError(c, err)
		return
	}
	result, err := h.offers.Calculate(input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCalculationResponse(result))
}

func (h *Handler) listOffers(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.offers.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	items := make([]offerResponse, 0, len(result.Items))
	for _, offer := range result.Items {
		items = append(items, newOfferResponse(offer))
	}
	c.JSON(http.StatusOK, listResponse{Items: items, Total: result.Total, Limit: result.Limit, Offset: result.Offset})
}

func (h *Handler) createOffer(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	input, ok := h.bindOffer(c)
	if !ok {
		return
	}

	offer, err := h.offers.Create(c.Request.Context(), input, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOfferResponse(*offer))
}

func (h *Handler) getOffer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	offer, err := h.offers.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferResponse(*offer))
}

func (h *Handler) updateOffer(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	input, ok := h.bindOffer(c)
	if !ok {
		return
	}

	offer, err := h.offers.Update(c.Request.Context(), id, input, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferResponse(*offer))
}

func (h *Handler) setStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := model.OfferStatus(strings.ToLower(strings.TrimSpace(req.Status)))

	offer, err := h.offers.SetStatus(c.Request.Context(), id, status, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferResponse(*offer))
}

func (h *Handler) deleteOffer(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.offers.Delete(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	opts, ok := exportOptions(c)
	if !ok {
		return
	}

	result, err := h.offers.ExportPDF(c.Request.Context(), id, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, result)
}

func (h *Handler) previewPDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	opts, ok := exportOptions(c)
	if !ok {
		return
	}
	input, ok := h.bindOffer(c)
	if !ok {
		return
	}

	result, err := h.offers.PreviewPDF(c.Request.Context(), input, opts, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, result)
}

func (h *Handler) exportWorkbook(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	result, err := h.offers.ExportWorkbook(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, result)
}

func (h *Handler) bindOffer(c *gin.Context) (service.OfferInput, bool) {
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.OfferInput{}, false
	}
	input, err := req.toInput()
	if err != nil {
		h.handleError(c, err)
		return service.OfferInput{}, false
	}
	return input, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDocumentGeneration):
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("document generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document generation failed"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func sendFile(c *gin.Context, file *service.FileResult) {
	c.Header("Content-Disposition", "attachment; filename=\""+file.FileName+"\"")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func exportOptions(c *gin.Context) (service.ExportOptions, bool) {
	variant, ok := pdf.ParseVariant(c.Query("variant"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variant"})
		return service.ExportOptions{}, false
	}
	return service.ExportOptions{
		Variant:    variant,
		Locale:     requestLocale(c),
		FontFamily: strings.TrimSpace(c.Query("font")),
	}, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseListFilter(c *gin.Context) (repository.ListFilter, error) {
	filter := repository.ListFilter{Search: strings.TrimSpace(c.Query("q"))}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.OfferStatus(strings.ToLower(raw))
		filter.Status = &status
	}
	var err error
	if filter.Limit, err = parseInt(c.Query("limit")); err != nil {
		return filter, fmt.Errorf("%w: invalid limit", service.ErrInvalidInput)
	}
	if filter.Offset, err = parseInt(c.Query("offset")); err != nil {
		return filter, fmt.Errorf("%w: invalid offset", service.ErrInvalidInput)
	}
	return filter, nil
}

func parseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
