package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelReportEvents = "wpr_report_events"
)

// 事件类型
const (
	EventReportSubmitted = "report_submitted"
	EventAnalysisReady   = "analysis_ready"
	EventAnalysisFailed  = "analysis_failed"
)

// ReportEvent 周报生命周期事件，提交进程发布，看板进程订阅后推送到浏览器
type ReportEvent struct {
	Type       string    `json:"type"`
	ReportID   int64     `json:"report_id"`
	Submitter  string    `json:"submitter"`
	Team       string    `json:"team,omitempty"`
	WeekNumber int       `json:"week_number"`
	Year       int       `json:"year"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish 发布事件，At 为空时补当前时间
func (p *Publisher) Publish(ctx context.Context, evt *ReportEvent) error {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal report event: %w", err)
	}

	return p.client.Publish(ctx, ChannelReportEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 阻塞直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ReportEvent)) error {
	pubsub := s.client.Subscribe(ctx, ChannelReportEvents)
	defer pubsub.Close()

	// 等待订阅确认，避免订阅前发布的消息丢失
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var evt ReportEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue // 忽略解析错误
			}

			handler(&evt)
		}
	}
}
