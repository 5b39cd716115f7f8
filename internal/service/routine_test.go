package service

import (
	"context"
	"errors"
	"testing"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"
	"starfall_questboard/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func routineTemplate(key string, difficulty model.Difficulty) *model.Quest {
	hint := key
	return &model.Quest{
		Owner:              testUserID,
		OriginalActionHint: &hint,
		Difficulty:         difficulty,
		Rarity:             model.RarityCommon,
		IsRoutine:          true,
	}
}

func newRoutineService(repo *mocks.Repository, narrative *mocks.Narrative) *RoutineService {
	return NewRoutineService(repo, narrative, fakeCipher{}, clockAt("2026-08-28"))
}

func TestRoutineService_Materialize_NewestTemplateWins(t *testing.T) {
	const today = "2026-08-28"

	repo := new(mocks.Repository)
	// Newest first: the A-difficulty copy is canonical for "pushups".
	repo.On("RoutineQuests", mock.Anything, testUserID).Return([]*model.Quest{
		routineTemplate("pushups", model.DifficultyA),
		routineTemplate("pushups", model.DifficultyC),
		routineTemplate("read a chapter", model.DifficultyB),
	}, nil)
	repo.On("QuestsByDate", mock.Anything, testUserID, today).Return([]*model.Quest{}, nil)

	narrative := new(mocks.Narrative)
	narrative.On("QuestTitle", mock.Anything, "pushups").Return("Trial of the Iron Arms", nil)
	narrative.On("QuestTitle", mock.Anything, "read a chapter").Return("The Scholar's Vigil", nil)

	repo.On("CreateQuest", mock.Anything, mock.MatchedBy(func(q *model.Quest) bool {
		return q.RoutineKey() == "pushups" &&
			q.Difficulty == model.DifficultyA &&
			q.Date == today &&
			q.IsRoutine &&
			q.Source == model.SourceRoutine &&
			q.Title == "enc:Trial of the Iron Arms" &&
			q.ActionHint == "enc:pushups"
	})).Return(nil).Once()
	repo.On("CreateQuest", mock.Anything, mock.MatchedBy(func(q *model.Quest) bool {
		return q.RoutineKey() == "read a chapter" && q.Difficulty == model.DifficultyB
	})).Return(nil).Once()

	svc := newRoutineService(repo, narrative)
	outcome := svc.Materialize(context.Background(), testUserID, today)

	require.NoError(t, outcome.Err)
	assert.Equal(t, 2, outcome.Created)
	assert.Zero(t, outcome.Skipped)
	repo.AssertExpectations(t)
	narrative.AssertExpectations(t)
}

func TestRoutineService_Materialize_ExistingInstanceSkipped(t *testing.T) {
	const today = "2026-08-28"

	existing := routineTemplate("pushups", model.DifficultyA)
	existing.Date = today

	repo := new(mocks.Repository)
	repo.On("RoutineQuests", mock.Anything, testUserID).
		Return([]*model.Quest{routineTemplate("pushups", model.DifficultyA)}, nil)
	repo.On("QuestsByDate", mock.Anything, testUserID, today).
		Return([]*model.Quest{existing}, nil)

	narrative := new(mocks.Narrative)
	svc := newRoutineService(repo, narrative)
	outcome := svc.Materialize(context.Background(), testUserID, today)

	require.NoError(t, outcome.Err)
	assert.Zero(t, outcome.Created)
	repo.AssertNotCalled(t, "CreateQuest", mock.Anything, mock.Anything)
	narrative.AssertNotCalled(t, "QuestTitle", mock.Anything, mock.Anything)
}

func TestRoutineService_Materialize_NarrativeFailureSkipsTemplate(t *testing.T) {
	const today = "2026-08-28"

	repo := new(mocks.Repository)
	repo.On("RoutineQuests", mock.Anything, testUserID).
		Return([]*model.Quest{routineTemplate("meditate", model.DifficultyC)}, nil)
	repo.On("QuestsByDate", mock.Anything, testUserID, today).Return([]*model.Quest{}, nil)

	narrative := new(mocks.Narrative)
	narrative.On("QuestTitle", mock.Anything, "meditate").
		Return("", errors.New("llm timeout"))

	svc := newRoutineService(repo, narrative)
	outcome := svc.Materialize(context.Background(), testUserID, today)

	require.NoError(t, outcome.Err)
	assert.Zero(t, outcome.Created)
	assert.Equal(t, 1, outcome.Skipped)
	repo.AssertNotCalled(t, "CreateQuest", mock.Anything, mock.Anything)
}

func TestRoutineService_Materialize_ConcurrentDuplicateIsBenign(t *testing.T) {
	const today = "2026-08-28"

	repo := new(mocks.Repository)
	repo.On("RoutineQuests", mock.Anything, testUserID).
		Return([]*model.Quest{routineTemplate("stretch", model.DifficultyC)}, nil)
	repo.On("QuestsByDate", mock.Anything, testUserID, today).Return([]*model.Quest{}, nil)
	repo.On("CreateQuest", mock.Anything, mock.Anything).
		Return(repository.ErrDuplicateRoutine)

	narrative := new(mocks.Narrative)
	narrative.On("QuestTitle", mock.Anything, "stretch").Return("Dawn Limbering", nil)

	svc := newRoutineService(repo, narrative)
	outcome := svc.Materialize(context.Background(), testUserID, today)

	require.NoError(t, outcome.Err)
	assert.Zero(t, outcome.Created)
	assert.Equal(t, 1, outcome.Skipped)
}
