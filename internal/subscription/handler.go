package subscription

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alttch/roboger/internal/logger"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
)

type Handler struct {
	service Service
	logger  logger.Logger
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/subscription", h.Create)
	rg.GET("/subscription/:id", h.Get)
	rg.PATCH("/subscription/:id", h.Update)
	rg.DELETE("/subscription/:id", h.Delete)
	rg.GET("/endpoint/:id/subscriptions", h.ListByEndpoint)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, pkgerrors.ErrValidation.WithCause(err))
		return
	}

	sub, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) Get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *Handler) ListByEndpoint(c *gin.Context) {
	subs, err := h.service.ListByEndpoint(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if subs == nil {
		subs = []Subscription{}
	}
	c.JSON(http.StatusOK, subs)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, pkgerrors.ErrValidation.WithCause(err))
		return
	}

	sub, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := pkgerrors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorwCtx(c.Request.Context(), "subscription request failed", "error", err)
	}
	c.JSON(status, pkgerrors.ToErrorResponse(err))
}
