package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/moonbag/internal/config"
	"go.uber.org/zap"
)

func testConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		Path:            "/ws",
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxMessageSize:  8192,
		PingInterval:    time.Second,
		PongTimeout:     5 * time.Second,
		WriteTimeout:    time.Second,
	}
}

// startHub 启动 Hub 和一个接入它的测试服务器，返回客户端连接
func startHub(t *testing.T, handler RequestHandler) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub(testConfig(), zap.NewNop())
	hub.SetRequestHandler(handler)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		if hub.Register(client) {
			go client.WritePump()
			go client.ReadPump()
		}
	}))

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		server.Close()
		cancel()
	})
	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func TestHub_ConnectedAndInitialReplies(t *testing.T) {
	_, conn := startHub(t, func(c *Client, msg *Message) []*Message {
		if msg.Type == MessageTypeConnected {
			return []*Message{NewMessage(MessageTypeState, map[string]int{"version": 1})}
		}
		return nil
	})

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeConnected, msg.Type)

	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeState, msg.Type)
	assert.JSONEq(t, `{"version":1}`, string(msg.Data))
}

func TestHub_Broadcast(t *testing.T) {
	hub, conn := startHub(t, nil)
	readMessage(t, conn)

	require.Eventually(t, func() bool { return hub.GetOnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(NewMessage(MessageTypeMode, map[string]bool{"offline": true}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeMode, msg.Type)
	assert.JSONEq(t, `{"offline":true}`, string(msg.Data))
}

func TestClient_PingAndErrors(t *testing.T) {
	_, conn := startHub(t, func(c *Client, msg *Message) []*Message {
		if msg.Type == MessageTypeState {
			return []*Message{NewMessage(MessageTypeState, nil)}
		}
		return nil
	})
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"state"}`)))
	assert.Equal(t, MessageTypeState, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"spin"}`)))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)
}

func TestHub_BroadcastDoesNotBlock(t *testing.T) {
	hub := NewHub(testConfig(), nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Broadcast(NewMessage(MessageTypeState, i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked")
	}
}

func TestHub_StopsWithContext(t *testing.T) {
	hub := NewHub(testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped
	assert.False(t, hub.Register(&Client{ID: "late", Hub: hub, Send: make(chan []byte, 1)}))
}

func TestHub_SendToClientWhileStopping(t *testing.T) {
	for i := 0; i < 20; i++ {
		hub := NewHub(testConfig(), nil)
		client := &Client{ID: "c1", Hub: hub, Send: make(chan []byte, 4)}
		hub.clients[client.ID] = client

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		go func() {
			hub.Run(ctx)
			close(stopped)
		}()

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					if err := hub.SendToClient("c1", NewMessage(MessageTypePong, nil)); errors.Is(err, ErrClientNotFound) {
						return
					}
				}
			}()
		}
		go func() {
			for range client.Send {
			}
		}()

		cancel()
		<-stopped
		wg.Wait()
		assert.Equal(t, 0, hub.GetOnlineCount())
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(MessageTypeState, map[string]int{"a": 1})
	assert.Equal(t, MessageTypeState, msg.Type)
	assert.NotZero(t, msg.Timestamp)

	bad := NewMessage(MessageTypeState, make(chan int))
	assert.Equal(t, MessageTypeError, bad.Type)
}
