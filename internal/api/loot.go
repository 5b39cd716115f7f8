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
	"github.com/google/uuid"
)

type lootRoutes struct {
	ls service.LootServiceI
	a  *auth.TelegramAuth
}

func NewLootRoutes(handler *gin.RouterGroup, ls service.LootServiceI, a *auth.TelegramAuth) {
	r := &lootRoutes{ls: ls, a: a}
	h := handler.Group("/loot")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.ListLoot)
		h.POST("/:telegram_id/craft", r.CraftLoot)
	}
}

func (r *lootRoutes) ListLoot(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	items, err := r.ls.List(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to list loot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list loot"})
		return
	}

	resp := make([]LootResponse, len(items))
	for i, item := range items {
		resp[i] = lootResponse(item)
	}

	c.JSON(http.StatusOK, gin.H{"loot": resp})
}

type CraftRequest struct {
	TargetRarity  string   `json:"target_rarity" binding:"required"`
	IngredientIDs []string `json:"ingredient_ids" binding:"required"`
}

func (r *lootRoutes) CraftLoot(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req CraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ids := make([]uuid.UUID, len(req.IngredientIDs))
	for i, raw := range req.IngredientIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient id"})
			return
		}
		ids[i] = parsed
	}

	crafted, err := r.ls.Craft(c.Request.Context(), id, model.Rarity(req.TargetRarity), ids)
	if err != nil {
		log.Error("failed to craft loot", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrInvalidRecipe):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no crafting recipe for target rarity"})
		case errors.Is(err, service.ErrWrongIngredients):
			c.JSON(http.StatusBadRequest, gin.H{"error": "ingredients do not match the recipe"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to craft loot"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"loot": lootResponse(crafted)})
}
