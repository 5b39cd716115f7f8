package api

import (
	"errors"
	"net/http"
	"strconv"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/service"
	"starfall_questboard/pkg/auth"
	"starfall_questboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type rolloverRoutes struct {
	rs service.RolloverServiceI
	a  *auth.TelegramAuth
}

func NewRolloverRoutes(handler *gin.RouterGroup, rs service.RolloverServiceI, a *auth.TelegramAuth) {
	r := &rolloverRoutes{rs: rs, a: a}
	h := handler.Group("/rollover")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/:telegram_id", r.RunRollover)
		h.POST("/:telegram_id/decision", r.ResolveDecision)
	}
}

type StepOutcomeResponse struct {
	Step    string `json:"step"`
	Created int    `json:"created,omitempty"`
	Updated int    `json:"updated,omitempty"`
	Deleted int    `json:"deleted,omitempty"`
	Skipped int    `json:"skipped,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
}

type RolloverResponse struct {
	AlreadyRan bool                   `json:"already_ran,omitempty"`
	Suspended  *model.PendingDecision `json:"suspended,omitempty"`
	Steps      []StepOutcomeResponse  `json:"steps,omitempty"`
}

func rolloverResponse(report *model.RolloverReport) RolloverResponse {
	resp := RolloverResponse{
		AlreadyRan: report.AlreadyRan,
		Suspended:  report.Suspended,
	}
	for _, s := range report.Steps {
		resp.Steps = append(resp.Steps, StepOutcomeResponse{
			Step:    string(s.Step),
			Created: s.Created,
			Updated: s.Updated,
			Deleted: s.Deleted,
			Skipped: s.Skipped,
			Failed:  s.Failed(),
		})
	}
	return resp
}

func (r *rolloverRoutes) RunRollover(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	report, err := r.rs.Run(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to run rollover", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to run rollover"})
		return
	}

	c.JSON(http.StatusOK, rolloverResponse(report))
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

func (r *rolloverRoutes) ResolveDecision(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := r.rs.ResolveBreak(c.Request.Context(), id, model.StreakDecision(req.Decision))
	if err != nil {
		log.Error("failed to resolve streak decision", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrInvalidDecision):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown decision"})
		case errors.Is(err, service.ErrNoPendingBreak):
			c.JSON(http.StatusConflict, gin.H{"error": "no streak break is pending"})
		case errors.Is(err, service.ErrNoFreezeTokens):
			c.JSON(http.StatusForbidden, gin.H{"error": "no freeze tokens available"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve decision"})
		}
		return
	}

	c.JSON(http.StatusOK, rolloverResponse(report))
}
