package service

import (
	"context"
	"fmt"
	"sync"

	"starfall_questboard/internal/model"
	"starfall_questboard/pkg/logger"

	"go.uber.org/zap"
)

// RolloverService orchestrates the day boundary: it gates on a pending streak
// break, runs the maintenance steps in a fixed order and records the run in
// the durable ledger so each (user, day) pair rolls over exactly once.
type RolloverService struct {
	ledger    LedgerRepository
	streaks   *StreakService
	plans     *PlanService
	retention *RetentionService
	carryover *CarryoverService
	routines  *RoutineService
	clock     Clock

	mu        sync.RWMutex
	observers []RolloverObserver
}

func NewRolloverService(
	ledger LedgerRepository,
	streaks *StreakService,
	plans *PlanService,
	retention *RetentionService,
	carryover *CarryoverService,
	routines *RoutineService,
	clock Clock,
) *RolloverService {
	return &RolloverService{
		ledger:    ledger,
		streaks:   streaks,
		plans:     plans,
		retention: retention,
		carryover: carryover,
		routines:  routines,
		clock:     clock,
	}
}

// Subscribe registers an observer for rollover progress events.
func (s *RolloverService) Subscribe(obs RolloverObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

func (s *RolloverService) snapshot() []RolloverObserver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RolloverObserver(nil), s.observers...)
}

// Run performs today's rollover for the user. It is idempotent per day: a
// repeat call returns an AlreadyRan report without touching anything. A
// pending streak break suspends the run before any step executes; Resolve
// resumes it. Individual step failures are recorded in the report and do not
// stop later steps.
func (s *RolloverService) Run(ctx context.Context, userID int64) (*model.RolloverReport, error) {
	// Guest sessions have no server-side state to roll over.
	if userID == 0 {
		return &model.RolloverReport{}, nil
	}

	log := logger.Logger()
	today := model.FormatDay(s.clock.Now())
	yesterday, err := model.ShiftDay(today, -1)
	if err != nil {
		return nil, err
	}

	ran, err := s.ledger.HasRolloverRun(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check rollover ledger: %w", err)
	}
	if ran {
		return &model.RolloverReport{AlreadyRan: true}, nil
	}

	pending, err := s.streaks.CheckBreak(ctx, userID, today, yesterday)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		log.Info("rollover suspended on streak break",
			zap.Int64("user_id", userID),
			zap.Int("streak", pending.CurrentStreak))
		for _, obs := range s.snapshot() {
			obs.RolloverSuspended(userID, *pending)
		}
		return &model.RolloverReport{Suspended: pending}, nil
	}

	report := &model.RolloverReport{}
	steps := []func() model.StepOutcome{
		func() model.StepOutcome { return s.plans.Materialize(ctx, userID, today) },
		func() model.StepOutcome { return s.retention.PruneQuests(ctx, userID, today) },
		func() model.StepOutcome { return s.retention.PruneChests(ctx, userID, today) },
		func() model.StepOutcome { return s.carryover.Carry(ctx, userID, today, yesterday) },
		func() model.StepOutcome { return s.routines.Materialize(ctx, userID, today) },
		func() model.StepOutcome { return s.retention.PruneProjects(ctx, userID, today) },
	}

	for _, step := range steps {
		outcome := step()
		if outcome.Failed() {
			log.Error("rollover step failed",
				zap.Int64("user_id", userID),
				zap.String("step", string(outcome.Step)),
				zap.Error(outcome.Err))
		}
		report.Steps = append(report.Steps, outcome)
		for _, obs := range s.snapshot() {
			obs.RolloverStep(userID, outcome)
		}
	}

	if err := s.ledger.MarkRolloverRun(ctx, userID, today); err != nil {
		return nil, fmt.Errorf("failed to mark rollover run: %w", err)
	}

	for _, obs := range s.snapshot() {
		obs.RolloverFinished(userID, report)
	}

	log.Info("rollover finished",
		zap.Int64("user_id", userID),
		zap.String("day", today),
		zap.Int("steps", len(report.Steps)))

	return report, nil
}

// ResolveBreak applies the user's decision on a suspended rollover and
// immediately re-runs it.
func (s *RolloverService) ResolveBreak(ctx context.Context, userID int64, decision model.StreakDecision) (*model.RolloverReport, error) {
	if decision != model.DecisionUseToken && decision != model.DecisionBreakStreak {
		return nil, ErrInvalidDecision
	}

	today := model.FormatDay(s.clock.Now())
	yesterday, err := model.ShiftDay(today, -1)
	if err != nil {
		return nil, err
	}

	pending, err := s.streaks.CheckBreak(ctx, userID, today, yesterday)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, ErrNoPendingBreak
	}

	if err := s.streaks.Resolve(ctx, userID, yesterday, decision); err != nil {
		return nil, err
	}

	return s.Run(ctx, userID)
}
