package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/qs3c/wpr_server/internal/pkg/logger"
)

// TopicAll 订阅所有周的事件
const TopicAll = "all"

// Hub 看板实时推送，连接按主题（某一周或全部）分组
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	log     *logger.Logger
}

// WeekTopic 某一周的主题名，如 2024-W10
func WeekTopic(week, year int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

type Client struct {
	Topic string
	Conn  *websocket.Conn
	mu    sync.Mutex // 写锁，防止并发写入
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Topic] == nil {
		h.clients[client.Topic] = make(map[*Client]struct{})
	}
	h.clients[client.Topic][client] = struct{}{}

	h.log.Debug("dashboard viewer connected", "topic", client.Topic, "topic_conns", len(h.clients[client.Topic]))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.Topic]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.Topic)
		}
	}
	h.log.Debug("dashboard viewer disconnected", "topic", client.Topic)
}

// Broadcast 发送给订阅 topic 的连接以及订阅全部的连接
func (h *Hub) Broadcast(topic string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	// 复制一份引用，避免长时间持锁
	var clients []*Client
	for c := range h.clients[topic] {
		clients = append(clients, c)
	}
	if topic != TopicAll {
		for c := range h.clients[TopicAll] {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			h.log.Warn("broadcast write failed", "topic", c.Topic, "error", err)
		}
	}
	return nil
}

// ConnectionCount 获取在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

// HasViewers 是否有人在看该主题
func (h *Hub) HasViewers(topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic]) > 0 || len(h.clients[TopicAll]) > 0
}
