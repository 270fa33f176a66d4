package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/service"
)

type ChatHandler struct {
	svc *service.EscalationService
}

func NewChatHandler(svc *service.EscalationService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type chatRequest struct {
	Question string  `json:"question" binding:"required"`
	UserName string  `json:"user_name"`
	Contact  *string `json:"contact"`
	Priority string  `json:"priority"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.UserName == "" {
		req.UserName = "anonymous"
	}
	if req.Priority == "" {
		req.Priority = "normal"
	}

	res, err := h.svc.Handle(c.Request.Context(), service.Question{
		Text:     req.Question,
		UserName: req.UserName,
		Contact:  req.Contact,
		Priority: req.Priority,
	})
	if err != nil {
		if errors.Is(err, errs.ErrInvalidTicketID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID format"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process question"})
		return
	}

	switch res.Kind {
	case service.KindDirectAnswer:
		c.JSON(http.StatusOK, gin.H{"answer": res.Answer, "score": res.Score})
	case service.KindEscalated:
		c.JSON(http.StatusOK, gin.H{"answer": res.Answer, "ticket_id": res.TicketID})
	default: // статус тикета или not found — только текст ответа
		c.JSON(http.StatusOK, gin.H{"answer": res.Answer})
	}
}
