package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/escalation-service/internal/errs"
	"github.com/psds-microservice/escalation-service/internal/service"
)

// LowScoreHandler — легаси-поток: двухшаговая эскалация через лог вместо тикета.
type LowScoreHandler struct {
	svc *service.LowScoreService
}

func NewLowScoreHandler(svc *service.LowScoreService) *LowScoreHandler {
	return &LowScoreHandler{svc: svc}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (h *LowScoreHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.svc.Ask(c.Request.Context(), req.Question)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process question"})
		return
	}
	if res.Escalate {
		c.JSON(http.StatusOK, gin.H{"answer": res.Answer, "score": res.Score, "escalate": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": res.Answer, "score": res.Score})
}

type logQueryRequest struct {
	Question string  `json:"question" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Score    float64 `json:"score"`
}

func (h *LowScoreHandler) LogQuery(c *gin.Context) {
	var req logQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.svc.Log(c.Request.Context(), req.Question, req.Email, req.Score); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log query"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Query logged successfully"})
}

func (h *LowScoreHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list logs"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *LowScoreHandler) Delete(c *gin.Context) {
	email := c.Query("email")
	question := c.Query("question")
	if email == "" || question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and question query params are required"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), email, question); err != nil {
		if errors.Is(err, errs.ErrLogNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Log entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete log entry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Log entry deleted"})
}
