package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"starfall_questboard/internal/api"
	"starfall_questboard/internal/middleware"
	"starfall_questboard/internal/narrative"
	"starfall_questboard/internal/repository"
	"starfall_questboard/internal/service"
	"starfall_questboard/pkg/auth"
	"starfall_questboard/pkg/cipher"
	"starfall_questboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	textCipher, err := cipher.New(cfg.CipherKey)
	if err != nil {
		zapLogger.Fatal("Failed to initialize cipher", zap.Error(err))
	}

	narrativeClient := narrative.NewClient(cfg.Narrative)
	svc := service.NewService(repo, narrativeClient, textCipher, service.NewRollSource(), service.NewClock())

	syncHub := api.NewSyncHub()
	svc.RolloverService.Subscribe(syncHub)

	if cfg.Reminder.Enabled {
		reminder, err := service.NewStreakReminder(cfg.Reminder.BotToken)
		if err != nil {
			zapLogger.Fatal("Failed to initialize streak reminder", zap.Error(err))
		}
		svc.RolloverService.Subscribe(reminder)
	}

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	authz := middleware.NewAuthorization(cfg.AdminIDs)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewRolloverRoutes(a, svc.RolloverService, telegramAuth)
	api.NewChestRoutes(a, svc.ChestService, telegramAuth)
	api.NewLootRoutes(a, svc.LootService, telegramAuth)
	api.NewQuestRoutes(a, svc.QuestService, telegramAuth)
	api.NewProfileRoutes(a, svc.ProfileService, svc.PlanService, telegramAuth, authz)
	api.NewSyncRoutes(a, syncHub, telegramAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
