package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/service"
	"starfall_questboard/pkg/auth"
	"starfall_questboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type chestRoutes struct {
	cs service.ChestServiceI
	a  *auth.TelegramAuth
}

func NewChestRoutes(handler *gin.RouterGroup, cs service.ChestServiceI, a *auth.TelegramAuth) {
	r := &chestRoutes{cs: cs, a: a}
	h := handler.Group("/chests")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/:telegram_id/open", r.OpenChest)
	}
}

type LootResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FlavorText string    `json:"flavor_text"`
	Icon       string    `json:"icon"`
	Rarity     string    `json:"rarity"`
	ObtainedAt time.Time `json:"obtained_at"`
}

func lootResponse(l *model.Loot) LootResponse {
	return LootResponse{
		ID:         l.ID.String(),
		Name:       l.Name,
		FlavorText: l.FlavorText,
		Icon:       l.Icon,
		Rarity:     string(l.Rarity),
		ObtainedAt: l.ObtainedAt,
	}
}

type MilestoneResponse struct {
	Days   int           `json:"days"`
	Title  string        `json:"title"`
	Tokens int           `json:"tokens"`
	Icon   string        `json:"icon"`
	Loot   *LootResponse `json:"loot,omitempty"`
}

type ChestOpenResponse struct {
	Loot           LootResponse       `json:"loot"`
	FreezeTokenWon bool               `json:"freeze_token_won"`
	Pity           bool               `json:"pity"`
	NewStreak      int                `json:"new_streak"`
	Milestone      *MilestoneResponse `json:"milestone,omitempty"`
}

func (r *chestRoutes) OpenChest(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	result, err := r.cs.Open(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to open chest", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrChestNotAvailable):
			c.JSON(http.StatusForbidden, gin.H{"error": "chest unlocks after all of today's quests are done"})
		case errors.Is(err, service.ErrChestAlreadyOpened):
			c.JSON(http.StatusConflict, gin.H{"error": "today's chest is already opened"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open chest"})
		}
		return
	}

	resp := ChestOpenResponse{
		Loot:           lootResponse(result.Loot),
		FreezeTokenWon: result.FreezeTokenWon,
		Pity:           result.Pity,
		NewStreak:      result.NewStreak,
	}
	if result.Milestone != nil {
		m := &MilestoneResponse{
			Days:   result.Milestone.Days,
			Title:  result.Milestone.Title,
			Tokens: result.Milestone.Tokens,
			Icon:   result.Milestone.Icon,
		}
		if result.Milestone.Loot != nil {
			loot := lootResponse(result.Milestone.Loot)
			m.Loot = &loot
		}
		resp.Milestone = m
	}

	c.JSON(http.StatusOK, resp)
}
