package service

import (
	"context"
	"testing"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"
	"starfall_questboard/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newProfileService(repo *mocks.Repository) *ProfileService {
	return NewProfileService(repo, repo, clockAt("2026-08-28"))
}

func TestProfileService_Get_CreatesOnFirstContact(t *testing.T) {
	fresh := &model.ProgressProfile{TelegramID: testUserID}

	repo := new(mocks.Repository)
	repo.On("GetProfile", mock.Anything, testUserID).Return(nil, repository.ErrNotFound).Once()
	repo.On("CreateProfile", mock.Anything, testUserID).Return(nil)
	repo.On("GetProfile", mock.Anything, testUserID).Return(fresh, nil)

	svc := newProfileService(repo)
	profile, err := svc.Get(context.Background(), testUserID)

	require.NoError(t, err)
	assert.Equal(t, fresh, profile)
	repo.AssertExpectations(t)
}

func TestProfileService_ToggleRestDay(t *testing.T) {
	const day = "2026-08-30"
	ctx := context.Background()

	t.Run("declares a free day", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("GetProfile", mock.Anything, testUserID).
			Return(&model.ProgressProfile{TelegramID: testUserID}, nil)
		repo.On("QuestsByDate", mock.Anything, testUserID, day).Return([]*model.Quest{}, nil)
		repo.On("UpdateRestDays", mock.Anything, testUserID, []string{day}).Return(nil)

		svc := newProfileService(repo)
		days, err := svc.ToggleRestDay(ctx, testUserID, day)

		require.NoError(t, err)
		assert.Equal(t, []string{day}, days)
		repo.AssertExpectations(t)
	})

	t.Run("refuses a rest day that already has quests", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("GetProfile", mock.Anything, testUserID).
			Return(&model.ProgressProfile{TelegramID: testUserID}, nil)
		repo.On("QuestsByDate", mock.Anything, testUserID, day).
			Return([]*model.Quest{{Status: model.QuestTodo}}, nil)

		svc := newProfileService(repo)
		_, err := svc.ToggleRestDay(ctx, testUserID, day)

		assert.ErrorIs(t, err, ErrRestDayHasQuests)
		repo.AssertNotCalled(t, "UpdateRestDays", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("clears an existing rest day without checks", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("GetProfile", mock.Anything, testUserID).
			Return(&model.ProgressProfile{TelegramID: testUserID, RestDays: []string{day}}, nil)
		repo.On("UpdateRestDays", mock.Anything, testUserID, []string{}).Return(nil)

		svc := newProfileService(repo)
		days, err := svc.ToggleRestDay(ctx, testUserID, day)

		require.NoError(t, err)
		assert.Empty(t, days)
		repo.AssertNotCalled(t, "QuestsByDate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed days", func(t *testing.T) {
		svc := newProfileService(new(mocks.Repository))
		_, err := svc.ToggleRestDay(ctx, testUserID, "30-08-2026")
		assert.Error(t, err)
	})
}

func TestProfileService_RestoreStreak(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetProfile", mock.Anything, testUserID).
		Return(&model.ProgressProfile{TelegramID: testUserID, LongestStreak: 10}, nil)
	// Longest follows the restored value when it exceeds the old record;
	// last clear lands on yesterday so today's clear continues the run.
	repo.On("RestoreStreak", mock.Anything, testUserID, 25, 25, 3, "2026-08-27").Return(nil)

	svc := newProfileService(repo)
	require.NoError(t, svc.RestoreStreak(context.Background(), testUserID, 25, 3))
	repo.AssertExpectations(t)
}
