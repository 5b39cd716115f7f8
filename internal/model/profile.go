package model

// PlannedQuest is a draft queued for the next day. It becomes a real Quest
// during rollover.
type PlannedQuest struct {
	Title      string     `json:"title"`
	ActionHint string     `json:"action_hint"`
	Difficulty Difficulty `json:"difficulty"`
	Rarity     Rarity     `json:"rarity"`
	Tags       []string   `json:"tags,omitempty"`
}

// ProgressProfile holds the per-user streak and reward state mutated by the
// progression engine.
type ProgressProfile struct {
	TelegramID           int64
	StreakCount          int
	LongestStreak        int
	FreezeTokenCount     int
	RestDays             []string
	LastClearDate        *string
	NextDayPlannedQuests []PlannedQuest
	LastPlannedDate      *string
	UnlockedMilestones   []int
	Title                *string
	ChestOpenCounter     int
	StreakManuallyReset  bool
}

func (p *ProgressProfile) IsRestDay(day string) bool {
	for _, d := range p.RestDays {
		if d == day {
			return true
		}
	}
	return false
}

func (p *ProgressProfile) HasMilestone(days int) bool {
	for _, m := range p.UnlockedMilestones {
		if m == days {
			return true
		}
	}
	return false
}
