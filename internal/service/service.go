package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"starfall_questboard/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrNoFreezeTokens     = errors.New("no freeze tokens available")
	ErrNoPendingBreak     = errors.New("no streak break is pending")
	ErrChestNotAvailable  = errors.New("chest unlocks after all of today's quests are done")
	ErrChestAlreadyOpened = errors.New("today's chest is already opened")
	ErrInvalidDecision    = errors.New("unknown streak decision")
	ErrInvalidRecipe      = errors.New("no crafting recipe for target rarity")
	ErrWrongIngredients   = errors.New("ingredients do not match the recipe")
	ErrRestDayHasQuests   = errors.New("cannot set a rest day while today has quests")
	ErrProjectNotActive   = errors.New("project does not exist or is not active")
)

// Service bundles every engine service behind one handle, mirroring how the
// API layer consumes them.
type Service struct {
	*RolloverService
	*StreakService
	*ChestService
	*LootService
	*PlanService
	*QuestService
	*ProfileService
}

// Repositories is the storage surface the engine runs on. The sqlx-backed
// repository satisfies all of it.
type Repositories interface {
	ProfileRepository
	QuestRepository
	ChestRepository
	LootRepository
	ProjectRepository
	LedgerRepository
}

func NewService(repo Repositories, narrative NarrativeGenerator, cipher TextCipher, roll RollSource, clock Clock) *Service {
	streaks := NewStreakService(repo, repo)
	milestones := NewMilestoneService(repo, repo, narrative, clock)
	plans := NewPlanService(repo, repo, cipher, clock)
	retention := NewRetentionService(repo, repo, repo)
	carryover := NewCarryoverService(repo)
	routines := NewRoutineService(repo, narrative, cipher, clock)

	return &Service{
		RolloverService: NewRolloverService(repo, streaks, plans, retention, carryover, routines, clock),
		StreakService:   streaks,
		ChestService:    NewChestService(repo, repo, repo, streaks, milestones, narrative, roll, clock),
		LootService:     NewLootService(repo, narrative, clock),
		PlanService:     plans,
		QuestService:    NewQuestService(repo, repo, repo, cipher, clock),
		ProfileService:  NewProfileService(repo, repo, clock),
	}
}

// The ServiceI interfaces are the surface the API layer consumes.

type RolloverServiceI interface {
	Run(ctx context.Context, userID int64) (*model.RolloverReport, error)
	ResolveBreak(ctx context.Context, userID int64, decision model.StreakDecision) (*model.RolloverReport, error)
}

type ChestServiceI interface {
	Open(ctx context.Context, userID int64) (*model.ChestOpenResult, error)
}

type LootServiceI interface {
	List(ctx context.Context, userID int64) ([]*model.Loot, error)
	Craft(ctx context.Context, userID int64, target model.Rarity, ingredientIDs []uuid.UUID) (*model.Loot, error)
}

type PlanServiceI interface {
	SavePlan(ctx context.Context, userID int64, drafts []model.PlannedQuest) error
}

type QuestServiceI interface {
	Create(ctx context.Context, userID int64, input CreateQuestInput) (*model.Quest, error)
	Complete(ctx context.Context, userID int64, questID uuid.UUID) error
	Reopen(ctx context.Context, userID int64, questID uuid.UUID) error
	Delete(ctx context.Context, userID int64, questID uuid.UUID) error
	ListByDate(ctx context.Context, userID int64, day string) ([]*model.Quest, error)
	CreateProject(ctx context.Context, userID int64, name, description string) (*model.LongTermProject, error)
	ListProjects(ctx context.Context, userID int64) ([]*model.LongTermProject, error)
}

type ProfileServiceI interface {
	Get(ctx context.Context, userID int64) (*model.ProgressProfile, error)
	ToggleRestDay(ctx context.Context, userID int64, day string) ([]string, error)
	RestoreStreak(ctx context.Context, userID int64, streak, tokens int) error
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, telegramID int64) error
	GetProfile(ctx context.Context, telegramID int64) (*model.ProgressProfile, error)
	UpdateStreak(ctx context.Context, telegramID int64, streak, longest int, lastClear string) error
	SpendFreezeToken(ctx context.Context, telegramID int64, lastClear string) error
	BreakStreak(ctx context.Context, telegramID int64, lastClear string) error
	UpdatePlanQueue(ctx context.Context, telegramID int64, planned []model.PlannedQuest, lastPlanned string) error
	UpdateRestDays(ctx context.Context, telegramID int64, days []string) error
	RestoreStreak(ctx context.Context, telegramID int64, streak, longest, tokens int, lastClear string) error
}

type QuestRepository interface {
	CreateQuest(ctx context.Context, quest *model.Quest) error
	QuestByID(ctx context.Context, owner int64, id uuid.UUID) (*model.Quest, error)
	QuestsByDate(ctx context.Context, owner int64, day string) ([]*model.Quest, error)
	TodoQuestsByDate(ctx context.Context, owner int64, day string) ([]*model.Quest, error)
	RoutineQuests(ctx context.Context, owner int64) ([]*model.Quest, error)
	DoneQuests(ctx context.Context, owner int64) ([]*model.Quest, error)
	QuestsByProject(ctx context.Context, owner int64, projectID uuid.UUID) ([]*model.Quest, error)
	UpdateQuestDate(ctx context.Context, owner int64, id uuid.UUID, day string) error
	UpdateQuestStatus(ctx context.Context, owner int64, id uuid.UUID, status model.QuestStatus) error
	DeleteQuest(ctx context.Context, owner int64, id uuid.UUID) error
}

type ChestRepository interface {
	ChestByDate(ctx context.Context, owner int64, day string) (*model.DailyChest, error)
	CreateChest(ctx context.Context, chest *model.DailyChest) error
	OpenedChestsBefore(ctx context.Context, owner int64, cutoff string) ([]*model.DailyChest, error)
	DeleteChest(ctx context.Context, owner int64, id uuid.UUID) error
	RecordChestOpen(ctx context.Context, chest *model.DailyChest, loot *model.Loot, counter, freezeTokens int) error
}

type LootRepository interface {
	CreateLoot(ctx context.Context, loot *model.Loot) error
	ListLoot(ctx context.Context, owner int64) ([]*model.Loot, error)
	LootByIDs(ctx context.Context, owner int64, ids []uuid.UUID) ([]*model.Loot, error)
	CraftExchange(ctx context.Context, crafted *model.Loot, consumed []uuid.UUID) error
	AwardMilestone(ctx context.Context, owner int64, loot *model.Loot, tokens int, title string, milestone int) error
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *model.LongTermProject) error
	ProjectsByOwner(ctx context.Context, owner int64) ([]*model.LongTermProject, error)
	ProjectByID(ctx context.Context, owner int64, id uuid.UUID) (*model.LongTermProject, error)
	CompletedProjectsBefore(ctx context.Context, owner int64, cutoff string) ([]*model.LongTermProject, error)
	CompleteProject(ctx context.Context, owner int64, id uuid.UUID, completionDate string) error
	DeleteProjectCascade(ctx context.Context, owner int64, id uuid.UUID) (int64, error)
}

type LedgerRepository interface {
	HasRolloverRun(ctx context.Context, owner int64, day string) (bool, error)
	MarkRolloverRun(ctx context.Context, owner int64, day string) error
}

// NarrativeGenerator is the themed-text service. It may fail or time out;
// callers skip the affected item instead of blocking on it.
type NarrativeGenerator interface {
	QuestTitle(ctx context.Context, actionHint string) (string, error)
	TreasureLoot(ctx context.Context, rarity model.Rarity, crafted bool) (*model.LootTheme, error)
	MilestoneLoot(ctx context.Context, days int, title, icon string) (*model.LootTheme, error)
}

// TextCipher round-trips quest titles and action hints through the per-user
// obfuscation layer. It is transparent to the engine's logic.
type TextCipher interface {
	Obscure(owner int64, plaintext string) (string, error)
	Reveal(owner int64, opaque string) (string, error)
}

// RollSource yields uniform values in [0, 100). Injectable so tests can pin
// pity and rarity boundaries exactly.
type RollSource interface {
	Roll() float64
}

type Clock interface {
	Now() time.Time
}

// RolloverObserver is notified as a rollover run progresses. The websocket
// sync stream and the reminder bot both hang off this.
type RolloverObserver interface {
	RolloverStep(userID int64, outcome model.StepOutcome)
	RolloverSuspended(userID int64, decision model.PendingDecision)
	RolloverFinished(userID int64, report *model.RolloverReport)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func NewClock() Clock { return realClock{} }

type randRoll struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRollSource() RollSource {
	return &randRoll{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *randRoll) Roll() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() * 100
}
