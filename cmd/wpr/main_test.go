package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/pkg/pubsub"
	"github.com/qs3c/wpr_server/internal/pkg/ws"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// sqliteEnv 指向临时 SQLite 库，清空其余外部依赖
func sqliteEnv(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "wpr.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", dsn)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVER_MODE", "release")
	t.Setenv("REDIS_ENABLED", "false")
	return dsn
}

func TestRootCmd_Help(t *testing.T) {
	out, err := runCmd(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"submit", "dashboard", "migrate", "remind", "export"} {
		assert.Contains(t, out, sub)
	}
	assert.Contains(t, out, "--config")
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "wpr dev"))
}

func TestSubmitCmd_MissingConfig(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("MAILJET_API_KEY", "")
	t.Setenv("EMAIL_USERNAME", "")

	_, err := runCmd(t, "submit", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)

	var ce *config.ConfigError
	require.True(t, errors.As(err, &ce))
	joined := strings.Join(ce.Missing, " ")
	assert.Contains(t, joined, "database.dsn")
	assert.Contains(t, joined, "ai.api_key")
	assert.Contains(t, joined, "email.username")
}

func TestDashboardCmd_DefaultPort(t *testing.T) {
	cmd := newDashboardCmd()
	flag := cmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMigrateAndExport(t *testing.T) {
	dsn := sqliteEnv(t)
	configPath := filepath.Join(t.TempDir(), "none.yaml")

	out, err := runCmd(t, "migrate", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated sqlite database")
	_, err = os.Stat(dsn)
	require.NoError(t, err)

	out, err = runCmd(t, "export", "--config", configPath, "--week", "10", "--year", "2024")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "submitter,team,week_number,year"))

	file := filepath.Join(t.TempDir(), "week10.csv")
	_, err = runCmd(t, "export", "--config", configPath, "--week", "10", "--year", "2024", "-o", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "productivity_rating")
}

func TestExportCmd_UploadNeedsOSS(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("OSS_ENDPOINT", "")

	_, err := runCmd(t, "export", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--upload")
	var ce *config.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, strings.Join(ce.Missing, " "), "oss.endpoint")
}

func TestRemindCmd_InvalidSchedule(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("EMAIL_USERNAME", "key")
	t.Setenv("EMAIL_PASSWORD", "secret")

	_, err := runCmd(t, "remind", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--schedule", "every friday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestForwardEvent(t *testing.T) {
	hub := ws.NewHub(logger.Nop())
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(&ws.Client{Topic: ws.WeekTopic(10, 2024), Conn: conn})
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	forward := forwardEvent(hub, logger.Nop())
	// 其他周的事件不推送
	forward(&pubsub.ReportEvent{Type: pubsub.EventReportSubmitted, Submitter: "bob", WeekNumber: 11, Year: 2024})
	forward(&pubsub.ReportEvent{Type: pubsub.EventAnalysisReady, Submitter: "alice", WeekNumber: 10, Year: 2024})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"analysis_ready"`)
	assert.Contains(t, string(data), "alice")
}

func TestNewApp_ClosesDatabaseOnRedisFailure(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", "127.0.0.1")
	t.Setenv("REDIS_PORT", "1")

	var opened *gorm.DB
	orig := openDatabase
	openDatabase = func(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
		db, err := orig(cfg, mode)
		opened = db
		return db, err
	}
	t.Cleanup(func() { openDatabase = orig })

	_, err := newApp(newRootCmd(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")

	require.NotNil(t, opened)
	sqlDB, err := opened.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}
