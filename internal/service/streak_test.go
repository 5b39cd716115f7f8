package service

import (
	"context"
	"testing"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUserID int64 = 42

func strPtr(s string) *string { return &s }

func TestStreakService_CheckBreak(t *testing.T) {
	const (
		today     = "2026-08-28"
		yesterday = "2026-08-27"
	)

	doneQuest := &model.Quest{Status: model.QuestDone}
	todoQuest := &model.Quest{Status: model.QuestTodo}

	testCases := []struct {
		name       string
		profile    *model.ProgressProfile
		yesterdays []*model.Quest
		expectCall bool
		expected   *model.PendingDecision
	}{
		{
			name:    "rest day passes silently",
			profile: &model.ProgressProfile{RestDays: []string{yesterday}, StreakCount: 5},
		},
		{
			name:    "yesterday already cleared",
			profile: &model.ProgressProfile{LastClearDate: strPtr(yesterday), StreakCount: 5},
		},
		{
			name:       "no quests scheduled yesterday",
			profile:    &model.ProgressProfile{StreakCount: 5},
			yesterdays: []*model.Quest{},
			expectCall: true,
		},
		{
			name:       "all quests done but chest never opened",
			profile:    &model.ProgressProfile{StreakCount: 5},
			yesterdays: []*model.Quest{doneQuest, doneQuest},
			expectCall: true,
		},
		{
			name:       "nothing at stake without a streak",
			profile:    &model.ProgressProfile{StreakCount: 0},
			yesterdays: []*model.Quest{todoQuest},
			expectCall: true,
		},
		{
			name:       "unfinished day with streak suspends",
			profile:    &model.ProgressProfile{StreakCount: 12, FreezeTokenCount: 2},
			yesterdays: []*model.Quest{doneQuest, todoQuest},
			expectCall: true,
			expected: &model.PendingDecision{
				IncompleteDays:   1,
				CurrentStreak:    12,
				FreezeTokenCount: 2,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mocks.Repository)
			tc.profile.TelegramID = testUserID
			repo.On("GetProfile", mock.Anything, testUserID).Return(tc.profile, nil)
			if tc.expectCall {
				repo.On("QuestsByDate", mock.Anything, testUserID, yesterday).
					Return(tc.yesterdays, nil)
			}

			svc := NewStreakService(repo, repo)
			pending, err := svc.CheckBreak(context.Background(), testUserID, today, yesterday)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, pending)
			repo.AssertExpectations(t)
		})
	}
}

func TestStreakService_Resolve(t *testing.T) {
	const yesterday = "2026-08-27"
	ctx := context.Background()

	t.Run("use token spends one and keeps the streak", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("GetProfile", mock.Anything, testUserID).
			Return(&model.ProgressProfile{TelegramID: testUserID, StreakCount: 9, FreezeTokenCount: 1}, nil)
		repo.On("SpendFreezeToken", mock.Anything, testUserID, yesterday).Return(nil)

		svc := NewStreakService(repo, repo)
		require.NoError(t, svc.Resolve(ctx, testUserID, yesterday, model.DecisionUseToken))
		repo.AssertExpectations(t)
	})

	t.Run("use token without tokens is refused", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("GetProfile", mock.Anything, testUserID).
			Return(&model.ProgressProfile{TelegramID: testUserID, StreakCount: 9}, nil)

		svc := NewStreakService(repo, repo)
		err := svc.Resolve(ctx, testUserID, yesterday, model.DecisionUseToken)
		assert.ErrorIs(t, err, ErrNoFreezeTokens)
		repo.AssertNotCalled(t, "SpendFreezeToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("break resets the streak", func(t *testing.T) {
		repo := new(mocks.Repository)
		repo.On("BreakStreak", mock.Anything, testUserID, yesterday).Return(nil)

		svc := NewStreakService(repo, repo)
		require.NoError(t, svc.Resolve(ctx, testUserID, yesterday, model.DecisionBreakStreak))
		repo.AssertExpectations(t)
	})

	t.Run("unknown decision", func(t *testing.T) {
		repo := new(mocks.Repository)
		svc := NewStreakService(repo, repo)
		err := svc.Resolve(ctx, testUserID, yesterday, model.StreakDecision("flip_coin"))
		assert.ErrorIs(t, err, ErrInvalidDecision)
	})
}

func TestStreakService_RecordClear(t *testing.T) {
	const today = "2026-08-28"
	ctx := context.Background()

	testCases := []struct {
		name          string
		profile       *model.ProgressProfile
		wantStreak    int
		wantLongest   int
		wantChanged   bool
		expectNoWrite bool
	}{
		{
			name:        "first clear starts at one",
			profile:     &model.ProgressProfile{},
			wantStreak:  1,
			wantLongest: 1,
			wantChanged: true,
		},
		{
			name:        "consecutive day increments",
			profile:     &model.ProgressProfile{StreakCount: 4, LongestStreak: 10, LastClearDate: strPtr("2026-08-27")},
			wantStreak:  5,
			wantLongest: 10,
			wantChanged: true,
		},
		{
			name:        "gap resets to one",
			profile:     &model.ProgressProfile{StreakCount: 4, LongestStreak: 4, LastClearDate: strPtr("2026-08-20")},
			wantStreak:  1,
			wantLongest: 4,
			wantChanged: true,
		},
		{
			name: "rest days between clears do not break the run",
			profile: &model.ProgressProfile{
				StreakCount:   6,
				LongestStreak: 6,
				LastClearDate: strPtr("2026-08-25"),
				RestDays:      []string{"2026-08-26", "2026-08-27"},
			},
			wantStreak:  7,
			wantLongest: 7,
			wantChanged: true,
		},
		{
			name:          "already cleared today is a no-op",
			profile:       &model.ProgressProfile{StreakCount: 3, LastClearDate: strPtr(today)},
			wantStreak:    3,
			wantChanged:   false,
			expectNoWrite: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mocks.Repository)
			tc.profile.TelegramID = testUserID
			repo.On("GetProfile", mock.Anything, testUserID).Return(tc.profile, nil)
			if !tc.expectNoWrite {
				repo.On("UpdateStreak", mock.Anything, testUserID, tc.wantStreak, tc.wantLongest, today).
					Return(nil)
			}

			svc := NewStreakService(repo, repo)
			streak, changed, err := svc.RecordClear(ctx, testUserID, today)

			require.NoError(t, err)
			assert.Equal(t, tc.wantStreak, streak)
			assert.Equal(t, tc.wantChanged, changed)
			repo.AssertExpectations(t)
		})
	}
}
