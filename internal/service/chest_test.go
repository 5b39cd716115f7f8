package service

import (
	"context"
	"errors"
	"testing"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"
	"starfall_questboard/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const chestToday = "2026-08-28"

func newChestService(repo *mocks.Repository, narrative *mocks.Narrative, roll RollSource) *ChestService {
	clock := clockAt(chestToday)
	streaks := NewStreakService(repo, repo)
	milestones := NewMilestoneService(repo, repo, narrative, clock)
	return NewChestService(repo, repo, repo, streaks, milestones, narrative, roll, clock)
}

func allDoneDay(repo *mocks.Repository) {
	repo.On("QuestsByDate", mock.Anything, testUserID, chestToday).
		Return([]*model.Quest{{Status: model.QuestDone}, {Status: model.QuestDone}}, nil)
}

func commonTheme() *model.LootTheme {
	return &model.LootTheme{Name: "Worn Copper Ring", FlavorText: "It hums faintly.", Icon: "💍"}
}

func TestChestService_Open_GatedOnUnfinishedDay(t *testing.T) {
	ctx := context.Background()

	t.Run("no quests today", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("QuestsByDate", mock.Anything, testUserID, chestToday).
			Return([]*model.Quest{}, nil)

		svc := newChestService(repo, new(mocks.Narrative), rolls(50))
		_, err := svc.Open(ctx, testUserID)
		assert.ErrorIs(t, err, ErrChestNotAvailable)
	})

	t.Run("a quest still open", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("QuestsByDate", mock.Anything, testUserID, chestToday).
			Return([]*model.Quest{{Status: model.QuestDone}, {Status: model.QuestTodo}}, nil)

		svc := newChestService(repo, new(mocks.Narrative), rolls(50))
		_, err := svc.Open(ctx, testUserID)
		assert.ErrorIs(t, err, ErrChestNotAvailable)
	})
}

func TestChestService_Open_AlreadyOpened(t *testing.T) {
	repo := new(mocks.Repository)
	allDoneDay(repo)
	repo.On("ChestByDate", mock.Anything, testUserID, chestToday).
		Return(&model.DailyChest{ID: uuid.New(), Owner: testUserID, Date: chestToday, Opened: true}, nil)

	svc := newChestService(repo, new(mocks.Narrative), rolls(50))
	_, err := svc.Open(context.Background(), testUserID)
	assert.ErrorIs(t, err, ErrChestAlreadyOpened)
}

func TestChestService_Open_OrdinaryDrop(t *testing.T) {
	repo := new(mocks.Repository)
	allDoneDay(repo)
	repo.On("ChestByDate", mock.Anything, testUserID, chestToday).
		Return(nil, repository.ErrNotFound)
	repo.On("CreateChest", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetProfile", mock.Anything, testUserID).Return(&model.ProgressProfile{
		TelegramID:       testUserID,
		StreakCount:      2,
		LongestStreak:    5,
		ChestOpenCounter: 10,
		LastClearDate:    strPtr("2026-08-27"),
	}, nil)

	narrative := new(mocks.Narrative)
	narrative.On("TreasureLoot", mock.Anything, model.RarityCommon, false).
		Return(commonTheme(), nil)

	// Counter advances to 11, no token.
	repo.On("RecordChestOpen", mock.Anything, mock.Anything, mock.MatchedBy(func(l *model.Loot) bool {
		return l.Rarity == model.RarityCommon && l.Name == "Worn Copper Ring"
	}), 11, 0).Return(nil)
	repo.On("UpdateStreak", mock.Anything, testUserID, 3, 5, chestToday).Return(nil)

	// First roll decides the bonus token (misses), second the rarity.
	svc := newChestService(repo, narrative, rolls(50, 30))
	result, err := svc.Open(context.Background(), testUserID)

	require.NoError(t, err)
	assert.False(t, result.FreezeTokenWon)
	assert.False(t, result.Pity)
	assert.Equal(t, 3, result.NewStreak)
	assert.Nil(t, result.Milestone)
	require.NotNil(t, result.Loot)
	assert.Equal(t, model.RarityCommon, result.Loot.Rarity)
	repo.AssertExpectations(t)
}

func TestChestService_Open_PityTokenAtThreshold(t *testing.T) {
	repo := new(mocks.Repository)
	allDoneDay(repo)
	repo.On("ChestByDate", mock.Anything, testUserID, chestToday).
		Return(&model.DailyChest{ID: uuid.New(), Owner: testUserID, Date: chestToday}, nil)
	repo.On("GetProfile", mock.Anything, testUserID).Return(&model.ProgressProfile{
		TelegramID:       testUserID,
		ChestOpenCounter: 59,
		FreezeTokenCount: 1,
		LastClearDate:    strPtr("2026-08-27"),
	}, nil)

	narrative := new(mocks.Narrative)
	narrative.On("TreasureLoot", mock.Anything, model.RarityLegendary, false).
		Return(&model.LootTheme{Name: "Starfall Shard", Icon: "💠"}, nil)

	// Counter resets to zero, token count goes up.
	repo.On("RecordChestOpen", mock.Anything, mock.Anything, mock.Anything, 0, 2).Return(nil)
	repo.On("UpdateStreak", mock.Anything, testUserID, 1, 1, chestToday).Return(nil)

	// Pity bypasses the bonus roll entirely; the single roll is the rarity.
	svc := newChestService(repo, narrative, rolls(99))
	result, err := svc.Open(context.Background(), testUserID)

	require.NoError(t, err)
	assert.True(t, result.FreezeTokenWon)
	assert.True(t, result.Pity)
	assert.Equal(t, model.RarityLegendary, result.Loot.Rarity)
	repo.AssertExpectations(t)
}

func TestChestService_Open_LuckyTokenResetsCounter(t *testing.T) {
	repo := new(mocks.Repository)
	allDoneDay(repo)
	repo.On("ChestByDate", mock.Anything, testUserID, chestToday).
		Return(&model.DailyChest{ID: uuid.New(), Owner: testUserID, Date: chestToday}, nil)
	repo.On("GetProfile", mock.Anything, testUserID).Return(&model.ProgressProfile{
		TelegramID:       testUserID,
		ChestOpenCounter: 30,
		LastClearDate:    strPtr("2026-08-27"),
	}, nil)

	narrative := new(mocks.Narrative)
	narrative.On("TreasureLoot", mock.Anything, model.RarityRare, false).
		Return(&model.LootTheme{Name: "Gilded Compass", Icon: "🧭"}, nil)

	repo.On("RecordChestOpen", mock.Anything, mock.Anything, mock.Anything, 0, 1).Return(nil)
	repo.On("UpdateStreak", mock.Anything, testUserID, 1, 1, chestToday).Return(nil)

	// Bonus roll under one percent wins; rarity roll lands in the Rare band.
	svc := newChestService(repo, narrative, rolls(0.5, 75))
	result, err := svc.Open(context.Background(), testUserID)

	require.NoError(t, err)
	assert.True(t, result.FreezeTokenWon)
	assert.False(t, result.Pity)
	assert.Equal(t, model.RarityRare, result.Loot.Rarity)
	repo.AssertExpectations(t)
}

func TestChestService_Open_KeepsLootWhenClearFails(t *testing.T) {
	repo := new(mocks.Repository)
	allDoneDay(repo)
	repo.On("ChestByDate", mock.Anything, testUserID, chestToday).
		Return(&model.DailyChest{ID: uuid.New(), Owner: testUserID, Date: chestToday}, nil)
	repo.On("GetProfile", mock.Anything, testUserID).Return(&model.ProgressProfile{
		TelegramID:       testUserID,
		StreakCount:      2,
		LongestStreak:    5,
		ChestOpenCounter: 10,
		LastClearDate:    strPtr("2026-08-27"),
	}, nil)

	narrative := new(mocks.Narrative)
	narrative.On("TreasureLoot", mock.Anything, model.RarityCommon, false).
		Return(commonTheme(), nil)

	repo.On("RecordChestOpen", mock.Anything, mock.Anything, mock.Anything, 11, 0).Return(nil)
	// The streak write fails after the chest row is already committed. The
	// open must still hand over the loot with the streak left as it was.
	repo.On("UpdateStreak", mock.Anything, testUserID, 3, 5, chestToday).
		Return(errors.New("connection reset"))

	svc := newChestService(repo, narrative, rolls(50, 30))
	result, err := svc.Open(context.Background(), testUserID)

	require.NoError(t, err)
	require.NotNil(t, result.Loot)
	assert.Equal(t, 2, result.NewStreak)
	assert.Nil(t, result.Milestone)
	repo.AssertExpectations(t)
}

func TestChestService_RarityBands(t *testing.T) {
	testCases := []struct {
		roll   float64
		rarity model.Rarity
	}{
		{0, model.RarityCommon},
		{69.9, model.RarityCommon},
		{70, model.RarityRare},
		{89.9, model.RarityRare},
		{90, model.RarityEpic},
		{97.9, model.RarityEpic},
		{98, model.RarityLegendary},
		{99.9, model.RarityLegendary},
	}

	for _, tc := range testCases {
		svc := &ChestService{roll: rolls(tc.roll)}
		assert.Equal(t, tc.rarity, svc.rollRarity(), "roll %v", tc.roll)
	}
}
