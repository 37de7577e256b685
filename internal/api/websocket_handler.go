package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/moonbag/internal/config"
	"github.com/wfunc/moonbag/internal/mode"
	"github.com/wfunc/moonbag/internal/offline"
	ws "github.com/wfunc/moonbag/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				// 本地离线客户端，不校验 Origin
				return true
			},
		},
		logger: logger,
	}
}

// Connect 建立WebSocket连接，连接后推送当前状态和模式
func (h *WebSocketHandler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败", zap.String("ip", c.ClientIP()), zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	// 启动读写协程
	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.String("ip", c.ClientIP()))
}

// BindHub 把离线状态和模式开关接到 Hub：变化时广播，客户端可主动拉取。
// 返回取消订阅函数。
func BindHub(hub *ws.Hub, store *offline.Store, selector *mode.Selector) func() {
	modeMessage := func(offline bool) *ws.Message {
		return ws.NewMessage(ws.MessageTypeMode, ModeResponse{Offline: offline, Forced: selector.Forced()})
	}

	hub.SetRequestHandler(func(client *ws.Client, msg *ws.Message) []*ws.Message {
		switch msg.Type {
		case ws.MessageTypeConnected:
			return []*ws.Message{
				ws.NewMessage(ws.MessageTypeState, store.Snapshot()),
				modeMessage(selector.IsOffline()),
			}
		case ws.MessageTypeState:
			return []*ws.Message{ws.NewMessage(ws.MessageTypeState, store.Snapshot())}
		case ws.MessageTypeMode:
			return []*ws.Message{modeMessage(selector.IsOffline())}
		}
		return nil
	})

	unsubscribeState := store.Subscribe(func(st *offline.State) {
		hub.Broadcast(ws.NewMessage(ws.MessageTypeState, st))
	})
	unsubscribeMode := selector.Subscribe(func(offline bool) {
		hub.Broadcast(modeMessage(offline))
	})

	return func() {
		unsubscribeState()
		unsubscribeMode()
	}
}
