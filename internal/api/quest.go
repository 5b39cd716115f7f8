package api

import (
	"errors"
	"net/http"
	"strconv"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"
	"starfall_questboard/internal/service"
	"starfall_questboard/pkg/auth"
	"starfall_questboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type questRoutes struct {
	qs service.QuestServiceI
	a  *auth.TelegramAuth
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, a *auth.TelegramAuth) {
	r := &questRoutes{qs: qs, a: a}
	h := handler.Group("/quests")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.ListQuests)
		h.POST("/:telegram_id", r.CreateQuest)
		h.POST("/:telegram_id/:quest_id/complete", r.CompleteQuest)
		h.POST("/:telegram_id/:quest_id/reopen", r.ReopenQuest)
		h.DELETE("/:telegram_id/:quest_id", r.DeleteQuest)
	}

	p := handler.Group("/projects")
	p.Use(a.TelegramAuthMiddleware())
	{
		p.GET("/:telegram_id", r.ListProjects)
		p.POST("/:telegram_id", r.CreateProject)
	}
}

type QuestResponse struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	ActionHint        string   `json:"action_hint"`
	Difficulty        string   `json:"difficulty"`
	Rarity            string   `json:"rarity"`
	Date              string   `json:"date"`
	Status            string   `json:"status"`
	Source            string   `json:"source"`
	IsRoutine         bool     `json:"is_routine"`
	LongTermProjectID *string  `json:"long_term_project_id,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

func questResponse(q *model.Quest) QuestResponse {
	resp := QuestResponse{
		ID:         q.ID.String(),
		Title:      q.Title,
		ActionHint: q.ActionHint,
		Difficulty: string(q.Difficulty),
		Rarity:     string(q.Rarity),
		Date:       q.Date,
		Status:     string(q.Status),
		Source:     string(q.Source),
		IsRoutine:  q.IsRoutine,
		Tags:       q.Tags,
	}
	if q.LongTermProjectID != nil {
		s := q.LongTermProjectID.String()
		resp.LongTermProjectID = &s
	}
	return resp
}

func parseQuestParams(c *gin.Context) (int64, uuid.UUID, bool) {
	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return 0, uuid.Nil, false
	}

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return 0, uuid.Nil, false
	}

	return id, questID, true
}

func (r *questRoutes) ListQuests(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	day := c.Query("date")
	if day == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	quests, err := r.qs.ListByDate(c.Request.Context(), id, day)
	if err != nil {
		log.Error("failed to list quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quests"})
		return
	}

	resp := make([]QuestResponse, len(quests))
	for i, q := range quests {
		resp[i] = questResponse(q)
	}

	c.JSON(http.StatusOK, gin.H{"quests": resp})
}

type CreateQuestRequest struct {
	Title             string   `json:"title" binding:"required"`
	ActionHint        string   `json:"action_hint" binding:"required"`
	Difficulty        string   `json:"difficulty" binding:"required"`
	Rarity            string   `json:"rarity" binding:"required"`
	Date              string   `json:"date"`
	Source            string   `json:"source"`
	IsRoutine         bool     `json:"is_routine"`
	LongTermProjectID *string  `json:"long_term_project_id"`
	Tags              []string `json:"tags"`
}

func (r *questRoutes) CreateQuest(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input := service.CreateQuestInput{
		Title:      req.Title,
		ActionHint: req.ActionHint,
		Difficulty: model.Difficulty(req.Difficulty),
		Rarity:     model.Rarity(req.Rarity),
		Date:       req.Date,
		Source:     model.QuestSource(req.Source),
		IsRoutine:  req.IsRoutine,
		Tags:       req.Tags,
	}
	if req.LongTermProjectID != nil {
		projectID, err := uuid.Parse(*req.LongTermProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid long_term_project_id"})
			return
		}
		input.LongTermProjectID = &projectID
	}

	quest, err := r.qs.Create(c.Request.Context(), id, input)
	if err != nil {
		log.Error("failed to create quest", zap.Error(err))
		if errors.Is(err, service.ErrProjectNotActive) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project does not exist or is not active"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quest"})
		return
	}

	c.JSON(http.StatusCreated, questResponse(quest))
}

type ProjectResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	CompletionDate *string `json:"completion_date,omitempty"`
}

func projectResponse(p *model.LongTermProject) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID.String(),
		Name:           p.ProjectName,
		Description:    p.Description,
		Status:         string(p.Status),
		CompletionDate: p.CompletionDate,
	}
}

func (r *questRoutes) ListProjects(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	projects, err := r.qs.ListProjects(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to list projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}

	resp := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		resp[i] = projectResponse(p)
	}

	c.JSON(http.StatusOK, gin.H{"projects": resp})
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (r *questRoutes) CreateProject(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	project, err := r.qs.CreateProject(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		log.Error("failed to create project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, projectResponse(project))
}

func (r *questRoutes) CompleteQuest(c *gin.Context) {
	log := logger.Logger()

	id, questID, ok := parseQuestParams(c)
	if !ok {
		return
	}

	if err := r.qs.Complete(c.Request.Context(), id, questID); err != nil {
		log.Error("failed to complete quest", zap.Error(err))
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete quest"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (r *questRoutes) ReopenQuest(c *gin.Context) {
	log := logger.Logger()

	id, questID, ok := parseQuestParams(c)
	if !ok {
		return
	}

	if err := r.qs.Reopen(c.Request.Context(), id, questID); err != nil {
		log.Error("failed to reopen quest", zap.Error(err))
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reopen quest"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (r *questRoutes) DeleteQuest(c *gin.Context) {
	log := logger.Logger()

	id, questID, ok := parseQuestParams(c)
	if !ok {
		return
	}

	if err := r.qs.Delete(c.Request.Context(), id, questID); err != nil {
		log.Error("failed to delete quest", zap.Error(err))
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete quest"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}
