package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/database"
	"github.com/qs3c/wpr_server/internal/pkg/cache"
	"github.com/qs3c/wpr_server/internal/pkg/chat"
	"github.com/qs3c/wpr_server/internal/pkg/email"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/repository"
	"github.com/qs3c/wpr_server/internal/service"
)

// app 每个子命令共享的依赖
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
	rdb *redis.Client

	reportRepo   *repository.ReportRepository
	analysisRepo *repository.AnalysisRepository
}

// openDatabase 测试中可替换
var openDatabase = database.Open

// loadConfig 读取配置并检查命令所需的必填项
func loadConfig(cmd *cobra.Command, needs config.Need) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(needs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, needs config.Need) (*app, error) {
	cfg, err := loadConfig(cmd, needs|config.NeedStore)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := openDatabase(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	log.Info("database connected", "driver", cfg.Database.Driver)

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	if rdb != nil {
		log.Info("redis connected", "host", cfg.Redis.Host)
	}

	timeout := repository.WithQueryTimeout(time.Duration(cfg.Database.QueryTimeoutSec) * time.Second)
	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		rdb:          rdb,
		reportRepo:   repository.NewReportRepository(db, timeout),
		analysisRepo: repository.NewAnalysisRepository(db, timeout),
	}, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *app) Close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	closeDB(a.db)
	a.log.Sync()
}

// cache 未启用 Redis 时返回 nil
func (a *app) cache() *cache.Cache {
	if a.rdb == nil {
		return nil
	}
	return cache.New(a.rdb, "wpr", time.Duration(a.cfg.Dashboard.CacheTTLSec)*time.Second)
}

func (a *app) dashboardService() *service.DashboardService {
	var c service.DashboardCache
	if dc := a.cache(); dc != nil {
		c = dc
	}
	return service.NewDashboardService(a.reportRepo, a.analysisRepo, a.cfg, c, a.log)
}

// notifier 邮件 + 已配置的聊天频道镜像
func (a *app) notifier() *service.NotificationService {
	var mailer service.Mailer
	if a.cfg.Email.Username != "" {
		mailer = email.NewService(&a.cfg.Email)
	}

	var posters []chat.Poster
	if a.cfg.Slack.BotToken != "" {
		if p, err := chat.NewSlackPoster(a.cfg.Slack.BotToken, a.cfg.Slack.ChannelID); err == nil {
			posters = append(posters, p)
		} else {
			a.log.Warn("slack mirror disabled", "error", err)
		}
	}
	if a.cfg.Discord.BotToken != "" {
		if p, err := chat.NewDiscordPoster(a.cfg.Discord.BotToken, a.cfg.Discord.ChannelID); err == nil {
			posters = append(posters, p)
		} else {
			a.log.Warn("discord mirror disabled", "error", err)
		}
	}

	return service.NewNotificationService(mailer, a.log, posters...)
}

// signalContext SIGINT/SIGTERM 时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// serve 阻塞直到 ctx 结束，然后优雅关闭
func serve(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", "error", err)
		}
	}()

	log.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Info("server stopped", "addr", addr)
	return nil
}
