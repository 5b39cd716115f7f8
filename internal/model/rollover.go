package model

// PendingDecision is surfaced when yesterday would break a protected streak.
// The rollover halts until the user resolves it.
type PendingDecision struct {
	IncompleteDays   int `json:"incomplete_days"`
	CurrentStreak    int `json:"current_streak"`
	FreezeTokenCount int `json:"freeze_token_count"`
}

type StreakDecision string

const (
	DecisionUseToken    StreakDecision = "use_token"
	DecisionBreakStreak StreakDecision = "break_streak"
)

type RolloverStep string

const (
	StepPlanMaterialize RolloverStep = "plan_materialize"
	StepPruneQuests     RolloverStep = "prune_quests"
	StepPruneChests     RolloverStep = "prune_chests"
	StepCarryover       RolloverStep = "carryover"
	StepRoutine         RolloverStep = "routine_materialize"
	StepPruneProjects   RolloverStep = "prune_projects"
)

// StepOutcome is the per-step result of a rollover run. Failed steps carry
// their error here instead of aborting the sequence.
type StepOutcome struct {
	Step    RolloverStep `json:"step"`
	Created int          `json:"created,omitempty"`
	Updated int          `json:"updated,omitempty"`
	Deleted int          `json:"deleted,omitempty"`
	Skipped int          `json:"skipped,omitempty"`
	Err     error        `json:"-"`
}

func (o StepOutcome) Failed() bool { return o.Err != nil }

// RolloverReport is the typed batch result of one orchestrator invocation.
type RolloverReport struct {
	Suspended  *PendingDecision `json:"suspended,omitempty"`
	AlreadyRan bool             `json:"already_ran,omitempty"`
	Steps      []StepOutcome    `json:"steps,omitempty"`
}

// MilestoneReward describes a crossed streak threshold.
type MilestoneReward struct {
	Days   int    `json:"days"`
	Title  string `json:"title"`
	Tokens int    `json:"tokens"`
	Icon   string `json:"icon"`
	Loot   *Loot  `json:"-"`
}
