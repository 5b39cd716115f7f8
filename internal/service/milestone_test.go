package service

import (
	"context"
	"errors"
	"testing"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMilestoneService(repo *mocks.Repository, narrative *mocks.Narrative) *MilestoneService {
	return NewMilestoneService(repo, repo, narrative, clockAt("2026-08-28"))
}

func TestMilestoneService_Award(t *testing.T) {
	ctx := context.Background()

	t.Run("streak off the thresholds awards nothing", func(t *testing.T) {
		repo := new(mocks.Repository)
		svc := newMilestoneService(repo, new(mocks.Narrative))

		for _, streak := range []int{1, 6, 8, 22, 99, 101} {
			reward, err := svc.Award(ctx, testUserID, streak)
			require.NoError(t, err)
			assert.Nil(t, reward, "streak %d", streak)
		}
		repo.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
	})

	t.Run("seven days mints the first title", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("GetProfile", mock.Anything, testUserID).
			Return(&model.ProgressProfile{TelegramID: testUserID, StreakCount: 7}, nil)

		narrative := new(mocks.Narrative)
		narrative.On("MilestoneLoot", mock.Anything, 7, "Rising Adventurer", "🌟").
			Return(&model.LootTheme{Name: "Week-One Signet", FlavorText: "Seven dawns unbroken.", Icon: "🌟"}, nil)

		repo.On("AwardMilestone", mock.Anything, testUserID, mock.MatchedBy(func(l *model.Loot) bool {
			return l.Rarity == model.RarityLegendary && l.Name == "Week-One Signet"
		}), 1, "Rising Adventurer", 7).Return(nil)

		svc := newMilestoneService(repo, narrative)
		reward, err := svc.Award(ctx, testUserID, 7)

		require.NoError(t, err)
		require.NotNil(t, reward)
		assert.Equal(t, 7, reward.Days)
		assert.Equal(t, "Rising Adventurer", reward.Title)
		assert.Equal(t, 1, reward.Tokens)
		require.NotNil(t, reward.Loot)
		repo.AssertExpectations(t)
	})

	t.Run("already unlocked milestone is not re-awarded", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("GetProfile", mock.Anything, testUserID).
			Return(&model.ProgressProfile{TelegramID: testUserID, UnlockedMilestones: []int{7}}, nil)

		svc := newMilestoneService(repo, new(mocks.Narrative))
		reward, err := svc.Award(ctx, testUserID, 7)

		require.NoError(t, err)
		assert.Nil(t, reward)
		repo.AssertNotCalled(t, "AwardMilestone",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("narrative outage falls back to a canned keepsake", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("GetProfile", mock.Anything, testUserID).
			Return(&model.ProgressProfile{TelegramID: testUserID}, nil)

		narrative := new(mocks.Narrative)
		narrative.On("MilestoneLoot", mock.Anything, 100, "Undying Legend", "👑").
			Return(nil, errors.New("llm down"))

		repo.On("AwardMilestone", mock.Anything, testUserID, mock.MatchedBy(func(l *model.Loot) bool {
			return l.Name != "" && l.Rarity == model.RarityLegendary
		}), 5, "Undying Legend", 100).Return(nil)

		svc := newMilestoneService(repo, narrative)
		reward, err := svc.Award(ctx, testUserID, 100)

		require.NoError(t, err)
		require.NotNil(t, reward)
		assert.Equal(t, 5, reward.Tokens)
		repo.AssertExpectations(t)
	})
}
