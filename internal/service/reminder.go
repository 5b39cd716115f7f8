package service

import (
	"fmt"

	"starfall_questboard/internal/model"
	"starfall_questboard/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// botSender is the slice of the Telegram bot API the reminder needs.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// StreakReminder messages users whose rollover suspended on a streak break,
// so the decision does not sit unnoticed until the next app launch.
type StreakReminder struct {
	bot botSender
}

func NewStreakReminder(botToken string) (*StreakReminder, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init reminder bot: %w", err)
	}
	return &StreakReminder{bot: bot}, nil
}

func (r *StreakReminder) RolloverStep(userID int64, outcome model.StepOutcome) {}

func (r *StreakReminder) RolloverFinished(userID int64, report *model.RolloverReport) {}

func (r *StreakReminder) RolloverSuspended(userID int64, decision model.PendingDecision) {
	text := fmt.Sprintf(
		"⚠️ Your %d-day streak is at risk! Yesterday's quests were left unfinished.\n"+
			"Open the quest board to decide: spend a freeze token (you have %d) or let the streak break.",
		decision.CurrentStreak, decision.FreezeTokenCount)

	msg := tgbotapi.NewMessage(userID, text)
	if _, err := r.bot.Send(msg); err != nil {
		logger.Logger().Warn("failed to send streak reminder",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}
