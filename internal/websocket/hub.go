package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/moonbag/internal/config"
	"go.uber.org/zap"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`           // 消息类型
	Data      json.RawMessage `json:"data,omitempty"` // 消息数据
	Timestamp int64           `json:"timestamp"`      // 时间戳（毫秒）
}

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// 离线游戏消息
	MessageTypeState = "state" // 完整离线状态快照
	MessageTypeMode  = "mode"  // 离线模式开关
)

// RequestHandler 处理客户端请求的消息，返回需要回给该客户端的消息
type RequestHandler func(client *Client, msg *Message) []*Message

// Hub WebSocket连接管理中心
type Hub struct {
	clients   map[string]*Client
	clientsMu sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	cfg     config.WebSocketConfig
	handler RequestHandler
	logger  *zap.Logger
}

// NewHub 创建Hub
func NewHub(cfg config.WebSocketConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		cfg:        cfg,
		logger:     logger.Named("websocket"),
	}
}

// SetRequestHandler 设置客户端请求处理器（连接时也会以 connected 消息调用一次）
func (h *Hub) SetRequestHandler(handler RequestHandler) {
	h.handler = handler
}

// Run 运行Hub，ctx 结束时断开所有客户端
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case data := <-h.broadcast:
			h.broadcastData(data)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接", zap.String("client_id", client.ID))

	connected := NewMessage(MessageTypeConnected, map[string]string{"client_id": client.ID})
	h.SendToClient(client.ID, connected)

	for _, reply := range h.handle(client, connected) {
		h.SendToClient(client.ID, reply)
	}
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
	}
	h.clientsMu.Unlock()
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
	}
	h.logger.Info("WebSocket Hub 已停止")
}

func (h *Hub) handle(client *Client, msg *Message) []*Message {
	if h.handler == nil {
		return nil
	}
	return h.handler(client, msg)
}

// broadcastData 发给所有客户端
func (h *Hub) broadcastData(data []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满", zap.String("client_id", client.ID))
		}
	}
}

// Broadcast 广播消息，队列满时丢弃
func (h *Hub) Broadcast(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("广播队列已满，丢弃消息", zap.String("type", msg.Type))
	}
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// 持有读锁直到发送完成，注销与停止在写锁下关闭 Send
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// GetOnlineCount 在线连接数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Register 注册客户端，Hub 已停止时返回 false
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// NewMessage 构造消息，data 序列化失败时返回 error 消息
func NewMessage(msgType string, data interface{}) *Message {
	raw, err := json.Marshal(data)
	if err != nil {
		msgType = MessageTypeError
		raw, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return &Message{
		Type:      msgType,
		Data:      raw,
		Timestamp: time.Now().UnixMilli(),
	}
}
