package addr

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
	rg.POST("/addr", h.Create)
	rg.GET("/addr", h.List)
	rg.GET("/addr/:id", h.Get)
	rg.DELETE("/addr/:id", h.Delete)
	rg.PATCH("/addr/:id/active", h.SetActive)
	rg.PATCH("/addr/:id/limits", h.SetLimits)
	rg.POST("/addr/:id/change", h.ChangeToken)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, pkgerrors.ErrValidation.WithCause(err))
		return
	}

	a, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c *gin.Context) {
	addrs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	if addrs == nil {
		addrs = []Addr{}
	}
	c.JSON(http.StatusOK, addrs)
}

func (h *Handler) Get(c *gin.Context) {
	a, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, pkgerrors.ErrValidation.WithCause(err))
		return
	}

	if err := h.service.SetActive(c.Request.Context(), c.Param("id"), req.Active); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) SetLimits(c *gin.Context) {
	var req UpdateLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, pkgerrors.ErrValidation.WithCause(err))
		return
	}

	a, err := h.service.SetLimits(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *Handler) ChangeToken(c *gin.Context) {
	a, err := h.service.ChangeToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := pkgerrors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorwCtx(c.Request.Context(), "addr request failed", "error", err)
	}
	c.JSON(status, pkgerrors.ToErrorResponse(err))
}
