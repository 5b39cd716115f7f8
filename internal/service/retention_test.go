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

func doneQuestOn(day string, routineKey string) *model.Quest {
	q := &model.Quest{
		ID:     uuid.New(),
		Owner:  testUserID,
		Date:   day,
		Status: model.QuestDone,
	}
	if routineKey != "" {
		q.IsRoutine = true
		q.OriginalActionHint = &routineKey
	}
	return q
}

func TestRetentionService_PruneQuests_ProtectsNewestRoutineTemplate(t *testing.T) {
	const today = "2026-08-28" // cutoff 2026-08-21

	newestPushups := doneQuestOn("2026-08-15", "pushups")
	olderPushups := doneQuestOn("2026-08-10", "pushups")
	recentPlain := doneQuestOn("2026-08-27", "")
	stalePlain := doneQuestOn("2026-08-01", "")

	repo := new(mocks.Repository)
	// Newest first, as the storage layer returns them.
	repo.On("DoneQuests", mock.Anything, testUserID).
		Return([]*model.Quest{recentPlain, newestPushups, olderPushups, stalePlain}, nil)
	repo.On("DeleteQuest", mock.Anything, testUserID, olderPushups.ID).Return(nil)
	repo.On("DeleteQuest", mock.Anything, testUserID, stalePlain.ID).Return(nil)

	svc := NewRetentionService(repo, repo, repo)
	outcome := svc.PruneQuests(context.Background(), testUserID, today)

	require.NoError(t, outcome.Err)
	assert.Equal(t, 2, outcome.Deleted)
	assert.Equal(t, 1, outcome.Skipped)
	repo.AssertNotCalled(t, "DeleteQuest", mock.Anything, testUserID, newestPushups.ID)
	repo.AssertNotCalled(t, "DeleteQuest", mock.Anything, testUserID, recentPlain.ID)
	repo.AssertExpectations(t)
}

func TestRetentionService_PruneQuests_LeavesProjectQuestsToCascade(t *testing.T) {
	const today = "2026-08-28" // cutoff 2026-08-21

	projectQuest := doneQuestOn("2026-08-10", "")
	projectQuest.IsLongTermProject = true
	projectID := uuid.New()
	projectQuest.LongTermProjectID = &projectID
	stalePlain := doneQuestOn("2026-08-05", "")

	repo := new(mocks.Repository)
	repo.On("DoneQuests", mock.Anything, testUserID).
		Return([]*model.Quest{projectQuest, stalePlain}, nil)
	repo.On("DeleteQuest", mock.Anything, testUserID, stalePlain.ID).Return(nil)

	svc := NewRetentionService(repo, repo, repo)
	outcome := svc.PruneQuests(context.Background(), testUserID, today)

	require.NoError(t, outcome.Err)
	assert.Equal(t, 1, outcome.Deleted)
	repo.AssertNotCalled(t, "DeleteQuest", mock.Anything, testUserID, projectQuest.ID)
	repo.AssertExpectations(t)
}

func TestRetentionService_PruneChests(t *testing.T) {
	const today = "2026-08-28"

	stale := []*model.DailyChest{
		{ID: uuid.New(), Owner: testUserID, Date: "2026-08-10", Opened: true},
		{ID: uuid.New(), Owner: testUserID, Date: "2026-08-12", Opened: true},
	}

	repo := new(mocks.Repository)
	repo.On("OpenedChestsBefore", mock.Anything, testUserID, "2026-08-21").Return(stale, nil)
	repo.On("DeleteChest", mock.Anything, testUserID, stale[0].ID).Return(nil)
	repo.On("DeleteChest", mock.Anything, testUserID, stale[1].ID).Return(nil)

	svc := NewRetentionService(repo, repo, repo)
	outcome := svc.PruneChests(context.Background(), testUserID, today)

	require.NoError(t, outcome.Err)
	assert.Equal(t, 2, outcome.Deleted)
	repo.AssertExpectations(t)
}

func TestRetentionService_PruneProjects_CascadesLinkedQuests(t *testing.T) {
	const today = "2026-08-28" // cutoff 2024-08-28

	project := &model.LongTermProject{ID: uuid.New(), Owner: testUserID}

	repo := new(mocks.Repository)
	repo.On("CompletedProjectsBefore", mock.Anything, testUserID, "2024-08-28").
		Return([]*model.LongTermProject{project}, nil)
	repo.On("DeleteProjectCascade", mock.Anything, testUserID, project.ID).
		Return(int64(3), nil)

	svc := NewRetentionService(repo, repo, repo)
	outcome := svc.PruneProjects(context.Background(), testUserID, today)

	require.NoError(t, outcome.Err)
	assert.Equal(t, 4, outcome.Deleted)
	repo.AssertExpectations(t)
}
