package api

import (
	"errors"
	"net/http"
	"strconv"

	"starfall_questboard/internal/middleware"
	"starfall_questboard/internal/model"
	"starfall_questboard/internal/service"
	"starfall_questboard/pkg/auth"
	"starfall_questboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type profileRoutes struct {
	ps service.ProfileServiceI
	pl service.PlanServiceI
	a  *auth.TelegramAuth
}

func NewProfileRoutes(handler *gin.RouterGroup, ps service.ProfileServiceI, pl service.PlanServiceI, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &profileRoutes{ps: ps, pl: pl, a: a}

	h := handler.Group("/profile")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.GetProfile)
	}

	rest := handler.Group("/restdays")
	rest.Use(a.TelegramAuthMiddleware())
	{
		rest.POST("/:telegram_id/toggle", r.ToggleRestDay)
	}

	plan := handler.Group("/plan")
	plan.Use(a.TelegramAuthMiddleware())
	{
		plan.PUT("/:telegram_id", r.SavePlan)
	}

	admin := handler.Group("/admin")
	admin.Use(a.TelegramAuthMiddleware(), authz.AdminOnly())
	{
		admin.POST("/:telegram_id/restore-streak", r.RestoreStreak)
	}
}

type ProfileResponse struct {
	TelegramID         int64                `json:"telegram_id"`
	StreakCount        int                  `json:"streak_count"`
	LongestStreak      int                  `json:"longest_streak"`
	FreezeTokenCount   int                  `json:"freeze_token_count"`
	RestDays           []string             `json:"rest_days"`
	LastClearDate      *string              `json:"last_clear_date,omitempty"`
	PlannedQuests      []model.PlannedQuest `json:"planned_quests"`
	UnlockedMilestones []int                `json:"unlocked_milestones"`
	Title              *string              `json:"title,omitempty"`
}

func (r *profileRoutes) GetProfile(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	profile, err := r.ps.Get(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		TelegramID:         profile.TelegramID,
		StreakCount:        profile.StreakCount,
		LongestStreak:      profile.LongestStreak,
		FreezeTokenCount:   profile.FreezeTokenCount,
		RestDays:           profile.RestDays,
		LastClearDate:      profile.LastClearDate,
		PlannedQuests:      profile.NextDayPlannedQuests,
		UnlockedMilestones: profile.UnlockedMilestones,
		Title:              profile.Title,
	})
}

type ToggleRestDayRequest struct {
	Day string `json:"day" binding:"required"`
}

func (r *profileRoutes) ToggleRestDay(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req ToggleRestDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	days, err := r.ps.ToggleRestDay(c.Request.Context(), id, req.Day)
	if err != nil {
		log.Error("failed to toggle rest day", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrRestDayHasQuests):
			c.JSON(http.StatusConflict, gin.H{"error": "cannot set a rest day while that day has quests"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle rest day"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"rest_days": days})
}

type SavePlanRequest struct {
	Quests []model.PlannedQuest `json:"quests"`
}

func (r *profileRoutes) SavePlan(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := r.pl.SavePlan(c.Request.Context(), id, req.Quests); err != nil {
		log.Error("failed to save plan", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

type RestoreStreakRequest struct {
	Streak int `json:"streak" binding:"min=0"`
	Tokens int `json:"tokens" binding:"min=0"`
}

func (r *profileRoutes) RestoreStreak(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req RestoreStreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := r.ps.RestoreStreak(c.Request.Context(), id, req.Streak, req.Tokens); err != nil {
		log.Error("failed to restore streak", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to restore streak"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "streak restored",
		"telegram_id": id,
	})
}
