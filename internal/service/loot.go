package service

import (
	"context"
	"fmt"

	"starfall_questboard/internal/model"
	"starfall_questboard/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type craftRecipe struct {
	from  model.Rarity
	count int
}

// Smelting recipes: N items of the lower tier forge one of the next.
var craftRecipes = map[model.Rarity]craftRecipe{
	model.RarityRare:      {from: model.RarityCommon, count: 5},
	model.RarityEpic:      {from: model.RarityRare, count: 7},
	model.RarityLegendary: {from: model.RarityEpic, count: 3},
}

// LootService exposes the treasure inventory and the crafting forge.
type LootService struct {
	loot      LootRepository
	narrative NarrativeGenerator
	clock     Clock
}

func NewLootService(loot LootRepository, narrative NarrativeGenerator, clock Clock) *LootService {
	return &LootService{
		loot:      loot,
		narrative: narrative,
		clock:     clock,
	}
}

func (s *LootService) List(ctx context.Context, userID int64) ([]*model.Loot, error) {
	return s.loot.ListLoot(ctx, userID)
}

// Craft consumes the given ingredient items and forges one item of the
// target rarity. The ingredient set must match the recipe exactly: right
// count, right rarity, all owned by the caller. The swap is atomic, so a
// failed forge never eats the ingredients.
func (s *LootService) Craft(ctx context.Context, userID int64, target model.Rarity, ingredientIDs []uuid.UUID) (*model.Loot, error) {
	recipe, ok := craftRecipes[target]
	if !ok {
		return nil, ErrInvalidRecipe
	}
	if len(ingredientIDs) != recipe.count {
		return nil, ErrWrongIngredients
	}

	ingredients, err := s.loot.LootByIDs(ctx, userID, ingredientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ingredients: %w", err)
	}
	if len(ingredients) != recipe.count {
		return nil, ErrWrongIngredients
	}
	for _, item := range ingredients {
		if item.Rarity != recipe.from {
			return nil, ErrWrongIngredients
		}
	}

	theme, err := s.narrative.TreasureLoot(ctx, target, true)
	if err != nil {
		return nil, fmt.Errorf("failed to theme crafted loot: %w", err)
	}

	crafted := &model.Loot{
		ID:         uuid.New(),
		Owner:      userID,
		Name:       theme.Name,
		FlavorText: theme.FlavorText,
		Icon:       theme.Icon,
		Rarity:     target,
		ObtainedAt: s.clock.Now(),
	}

	if err := s.loot.CraftExchange(ctx, crafted, ingredientIDs); err != nil {
		return nil, fmt.Errorf("failed to exchange ingredients: %w", err)
	}

	logger.Logger().Info("loot crafted",
		zap.Int64("user_id", userID),
		zap.String("rarity", string(target)),
		zap.String("loot_id", crafted.ID.String()))

	return crafted, nil
}
