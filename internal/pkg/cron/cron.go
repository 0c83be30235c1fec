// Package cron 按 cron 表达式周期执行任务（提醒等）
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"

	"github.com/qs3c/wpr_server/internal/pkg/logger"
)

// parser 标准 5 段表达式（分 时 日 月 周）
var parser = robfig.NewParser(robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow)

// Job 定时任务，返回的错误只记录日志
type Job func(ctx context.Context) error

type Service struct {
	name     string
	expr     string
	schedule robfig.Schedule
	job      Job
	log      *logger.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

func NewService(name, expr string, job Job, log *logger.Logger) (*Service, error) {
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return &Service{
		name:     name,
		expr:     expr,
		schedule: schedule,
		job:      job,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Next 下一次执行时间
func (s *Service) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}

// Start 启动定时任务，ctx 结束或 Stop 后退出
func (s *Service) Start(ctx context.Context) {
	go s.run(ctx)
	s.log.Info("cron job started", "job", s.name, "schedule", s.expr, "next", s.Next(time.Now()))
}

// Stop 停止定时任务并等待正在执行的任务结束
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
	s.log.Info("cron job stopped", "job", s.name)
}

// Done 循环退出后关闭
func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	for {
		timer := time.NewTimer(time.Until(s.Next(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			if err := s.RunNow(ctx); err != nil {
				s.log.Error("cron job failed", "job", s.name, "error", err)
			}
		}
	}
}

// RunNow 立即执行一次（手动触发或测试）
func (s *Service) RunNow(ctx context.Context) error {
	start := time.Now()
	err := s.job(ctx)
	s.log.Info("cron job finished", "job", s.name, "duration", time.Since(start), "ok", err == nil)
	return err
}
