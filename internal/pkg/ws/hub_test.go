package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/wpr_server/internal/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// startHubServer 每个连接按查询参数 topic 注册到 hub
func startHubServer(t *testing.T, hub *Hub) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{Topic: r.URL.Query().Get("topic"), Conn: conn}
		hub.Register(client)
		defer hub.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url, topic string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?topic="+topic, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Empty(t *testing.T) {
	hub := NewHub(logger.Nop())

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.HasViewers("2024-W10"))

	// 没有连接时不报错
	err := hub.Broadcast("2024-W10", &Message{Type: "test"})
	assert.NoError(t, err)
}

func TestHub_BroadcastByTopic(t *testing.T) {
	hub := NewHub(logger.Nop())
	url := startHubServer(t, hub)

	week10 := dial(t, url, "2024-W10")
	week11 := dial(t, url, "2024-W11")
	all := dial(t, url, TopicAll)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 3 }, time.Second, 10*time.Millisecond)
	assert.True(t, hub.HasViewers("2024-W10"))

	err := hub.Broadcast("2024-W10", &Message{Type: "report_submitted", Data: map[string]string{"submitter": "alice"}})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{week10, all} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, received, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(received), "report_submitted")
		assert.Contains(t, string(received), "alice")
	}

	// 其他周的连接收不到
	week11.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = week11.ReadMessage()
	assert.Error(t, err)
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(logger.Nop())
	url := startHubServer(t, hub)

	conn := dial(t, url, "2024-W10")
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.False(t, hub.HasViewers("2024-W10"))
}

func TestWeekTopic(t *testing.T) {
	assert.Equal(t, "2024-W10", WeekTopic(10, 2024))
	assert.Equal(t, "2025-W03", WeekTopic(3, 2025))
}
