package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/service"
)

type TicketHandler struct {
	svc *service.TicketService
}

func NewTicketHandler(svc *service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

func (h *TicketHandler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrInvalidTicketID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID format"})
			return
		}
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticket_id":   t.ID.Hex(),
		"status":      t.Status,
		"response":    t.Response,
		"created_at":  t.CreatedAt,
		"resolved_at": t.ResolvedAt,
		"priority":    t.Priority,
		"user_name":   t.UserName,
		"contact":     t.Contact,
		"query":       t.Query,
	})
}

func (h *TicketHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	c.JSON(http.StatusOK, items)
}

type resolveRequest struct {
	Response string `json:"response" binding:"required"`
}

// Resolve и остальные переходы статуса отвечают 200 и при неудаче — ошибка
// лежит в поле error, вызывающий обязан его проверять (контракт исходного API).
func (h *TicketHandler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.svc.Resolve(c.Request.Context(), c.Param("id"), req.Response); err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ticket resolved"})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		if errors.Is(err, errs.ErrInvalidStatus) {
			c.JSON(http.StatusOK, gin.H{"error": "Invalid status. Must be one of 'Open', 'In Progress', 'Resolved', 'Closed'"})
			return
		}
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Ticket not found or status unchanged"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Ticket status updated to '%s'", req.Status)})
}

func (h *TicketHandler) StartWork(c *gin.Context) {
	if err := h.svc.StartWork(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Ticket not found or already in progress or resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ticket status updated to 'In Progress'"})
}
