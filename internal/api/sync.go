package api

import (
	"net/http"
	"strconv"
	"sync"

	"starfall_questboard/internal/model"
	"starfall_questboard/pkg/auth"
	"starfall_questboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SyncEvent is one progress update pushed over the rollover sync stream.
type SyncEvent struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type syncClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *syncClient) send(event SyncEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SyncHub streams rollover progress to connected clients. It observes the
// rollover orchestrator, so a long rollover renders step by step in the app
// instead of blocking on the final response.
type SyncHub struct {
	mu      sync.RWMutex
	clients map[int64]map[*syncClient]struct{}
}

func NewSyncHub() *SyncHub {
	return &SyncHub{clients: make(map[int64]map[*syncClient]struct{})}
}

func (h *SyncHub) add(userID int64, client *syncClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*syncClient]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *SyncHub) remove(userID int64, client *syncClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *SyncHub) broadcast(userID int64, event SyncEvent) {
	h.mu.RLock()
	targets := make([]*syncClient, 0, len(h.clients[userID]))
	for client := range h.clients[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.send(event); err != nil {
			logger.Logger().Info("failed to push sync event",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
	}
}

func (h *SyncHub) RolloverStep(userID int64, outcome model.StepOutcome) {
	h.broadcast(userID, SyncEvent{
		Type: "rollover_step",
		Payload: map[string]any{
			"step":    string(outcome.Step),
			"created": outcome.Created,
			"updated": outcome.Updated,
			"deleted": outcome.Deleted,
			"skipped": outcome.Skipped,
			"failed":  outcome.Failed(),
		},
	})
}

func (h *SyncHub) RolloverSuspended(userID int64, decision model.PendingDecision) {
	h.broadcast(userID, SyncEvent{
		Type: "rollover_suspended",
		Payload: map[string]any{
			"incomplete_days":    decision.IncompleteDays,
			"current_streak":     decision.CurrentStreak,
			"freeze_token_count": decision.FreezeTokenCount,
		},
	})
}

func (h *SyncHub) RolloverFinished(userID int64, report *model.RolloverReport) {
	h.broadcast(userID, SyncEvent{
		Type: "rollover_finished",
		Payload: map[string]any{
			"steps": len(report.Steps),
		},
	})
}

type syncRoutes struct {
	hub *SyncHub
	a   *auth.TelegramAuth
}

func NewSyncRoutes(handler *gin.RouterGroup, hub *SyncHub, a *auth.TelegramAuth) {
	r := &syncRoutes{hub: hub, a: a}
	h := handler.Group("/ws")

	h.GET("/:telegram_id", r.handleWebSocket)
}

func (r *syncRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	userID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &syncClient{conn: conn}
	r.hub.add(userID, client)

	go r.readLoop(userID, client)
}

// readLoop drains inbound frames until the peer disconnects. The stream is
// push-only; inbound payloads are ignored.
func (r *syncRoutes) readLoop(userID int64, client *syncClient) {
	defer func() {
		client.conn.Close()
		r.hub.remove(userID, client)
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Logger().Info("websocket closed unexpectedly",
					zap.Int64("user_id", userID),
					zap.Error(err))
			}
			return
		}
	}
}
