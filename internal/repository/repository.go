package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Option 仓储构造选项
type Option func(*conn)

// WithQueryTimeout 限制单次存储调用的耗时，d <= 0 时只受调用方 ctx 约束
func WithQueryTimeout(d time.Duration) Option {
	return func(c *conn) {
		c.timeout = d
	}
}

type conn struct {
	db      *gorm.DB
	timeout time.Duration
}

func newConn(db *gorm.DB, opts []Option) conn {
	c := conn{db: db}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// session 绑定 ctx 和查询超时，调用方必须 defer cancel
func (c *conn) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if c.timeout <= 0 {
		return c.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return c.db.WithContext(ctx), cancel
}
