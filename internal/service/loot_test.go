package service

import (
	"context"
	"testing"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func lootOf(rarity model.Rarity) *model.Loot {
	return &model.Loot{ID: uuid.New(), Owner: testUserID, Rarity: rarity}
}

func idsOf(items []*model.Loot) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func newLootService(repo *mocks.Repository, narrative *mocks.Narrative) *LootService {
	return NewLootService(repo, narrative, clockAt("2026-08-28"))
}

func TestLootService_Craft(t *testing.T) {
	ctx := context.Background()

	t.Run("five commons forge a rare", func(t *testing.T) {
		ingredients := []*model.Loot{
			lootOf(model.RarityCommon), lootOf(model.RarityCommon), lootOf(model.RarityCommon),
			lootOf(model.RarityCommon), lootOf(model.RarityCommon),
		}
		ids := idsOf(ingredients)

		repo := new(mocks.Repository)
		repo.On("LootByIDs", mock.Anything, testUserID, ids).Return(ingredients, nil)

		narrative := new(mocks.Narrative)
		narrative.On("TreasureLoot", mock.Anything, model.RarityRare, true).
			Return(&model.LootTheme{Name: "Smelted Band", FlavorText: "Forged from five lesser rings.", Icon: "⚒️"}, nil)

		repo.On("CraftExchange", mock.Anything, mock.MatchedBy(func(l *model.Loot) bool {
			return l.Rarity == model.RarityRare && l.Name == "Smelted Band"
		}), ids).Return(nil)

		svc := newLootService(repo, narrative)
		crafted, err := svc.Craft(ctx, testUserID, model.RarityRare, ids)

		require.NoError(t, err)
		assert.Equal(t, model.RarityRare, crafted.Rarity)
		repo.AssertExpectations(t)
	})

	t.Run("common is not craftable", func(t *testing.T) {
		svc := newLootService(new(mocks.Repository), new(mocks.Narrative))
		_, err := svc.Craft(ctx, testUserID, model.RarityCommon, nil)
		assert.ErrorIs(t, err, ErrInvalidRecipe)
	})

	t.Run("wrong ingredient count", func(t *testing.T) {
		svc := newLootService(new(mocks.Repository), new(mocks.Narrative))
		_, err := svc.Craft(ctx, testUserID, model.RarityRare,
			idsOf([]*model.Loot{lootOf(model.RarityCommon), lootOf(model.RarityCommon)}))
		assert.ErrorIs(t, err, ErrWrongIngredients)
	})

	t.Run("wrong ingredient rarity", func(t *testing.T) {
		ingredients := []*model.Loot{
			lootOf(model.RarityRare), lootOf(model.RarityRare), lootOf(model.RarityRare),
		}
		ids := idsOf(ingredients)

		repo := new(mocks.Repository)
		repo.On("LootByIDs", mock.Anything, testUserID, ids).Return(ingredients, nil)

		svc := newLootService(repo, new(mocks.Narrative))
		// Legendary needs three Epics, not three Rares.
		_, err := svc.Craft(ctx, testUserID, model.RarityLegendary, ids)
		assert.ErrorIs(t, err, ErrWrongIngredients)
	})

	t.Run("ingredient not owned by the caller", func(t *testing.T) {
		ingredients := []*model.Loot{
			lootOf(model.RarityEpic), lootOf(model.RarityEpic), lootOf(model.RarityEpic),
		}
		ids := idsOf(ingredients)

		repo := new(mocks.Repository)
		// One of the ids resolved to nothing.
		repo.On("LootByIDs", mock.Anything, testUserID, ids).Return(ingredients[:2], nil)

		svc := newLootService(repo, new(mocks.Narrative))
		_, err := svc.Craft(ctx, testUserID, model.RarityLegendary, ids)
		assert.ErrorIs(t, err, ErrWrongIngredients)
	})
}
