package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"
	"starfall_questboard/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoutineService re-instantiates routine quest templates each day with a
// freshly themed title.
type RoutineService struct {
	quests    QuestRepository
	narrative NarrativeGenerator
	cipher    TextCipher
	clock     Clock
}

func NewRoutineService(quests QuestRepository, narrative NarrativeGenerator, cipher TextCipher, clock Clock) *RoutineService {
	return &RoutineService{
		quests:    quests,
		narrative: narrative,
		cipher:    cipher,
		clock:     clock,
	}
}

// Materialize creates today's instance of every routine template that does
// not already have one. Templates are grouped by their routine key; the
// newest instance of each key wins and donates difficulty, rarity and tags.
// Title generation fans out concurrently; a failed generation skips that
// template for the day.
func (s *RoutineService) Materialize(ctx context.Context, userID int64, today string) model.StepOutcome {
	outcome := model.StepOutcome{Step: model.StepRoutine}
	log := logger.Logger()

	routine, err := s.quests.RoutineQuests(ctx, userID)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if len(routine) == 0 {
		return outcome
	}

	// Newest-first input, so the first quest seen per key is the freshest
	// template.
	templates := make([]*model.Quest, 0, len(routine))
	seen := make(map[string]struct{}, len(routine))
	for _, q := range routine {
		key := q.RoutineKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		templates = append(templates, q)
	}

	todayQuests, err := s.quests.QuestsByDate(ctx, userID, today)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	existing := make(map[string]struct{}, len(todayQuests))
	for _, q := range todayQuests {
		if q.IsRoutine {
			existing[q.RoutineKey()] = struct{}{}
		}
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, tmpl := range templates {
		if _, ok := existing[tmpl.RoutineKey()]; ok {
			continue
		}

		wg.Add(1)
		go func(tmpl *model.Quest) {
			defer wg.Done()

			created, err := s.materializeOne(ctx, userID, today, tmpl)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				log.Warn("routine template skipped",
					zap.Int64("user_id", userID),
					zap.String("day", today),
					zap.Error(err))
				outcome.Skipped++
			case created:
				outcome.Created++
			default:
				outcome.Skipped++
			}
		}(tmpl)
	}
	wg.Wait()

	return outcome
}

// materializeOne builds and stores one daily instance. Returns (false, nil)
// when another run already created the same instance.
func (s *RoutineService) materializeOne(ctx context.Context, userID int64, today string, tmpl *model.Quest) (bool, error) {
	hint := tmpl.RoutineKey()

	title, err := s.narrative.QuestTitle(ctx, hint)
	if err != nil {
		return false, err
	}

	obscuredTitle, err := s.cipher.Obscure(userID, title)
	if err != nil {
		return false, err
	}
	obscuredHint, err := s.cipher.Obscure(userID, hint)
	if err != nil {
		return false, err
	}

	originalHint := hint
	quest := &model.Quest{
		ID:                 uuid.New(),
		Owner:              userID,
		Title:              obscuredTitle,
		ActionHint:         obscuredHint,
		OriginalActionHint: &originalHint,
		Difficulty:         tmpl.Difficulty,
		Rarity:             tmpl.Rarity,
		Date:               today,
		Status:             model.QuestTodo,
		Source:             model.SourceRoutine,
		IsRoutine:          true,
		Tags:               tmpl.Tags,
		CreatedAt:          s.now(),
	}

	if err := s.quests.CreateQuest(ctx, quest); err != nil {
		if errors.Is(err, repository.ErrDuplicateRoutine) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *RoutineService) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
