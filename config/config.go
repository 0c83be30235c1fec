package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	AI           AIConfig           `mapstructure:"ai"`
	Email        EmailConfig        `mapstructure:"email"`
	Slack        SlackConfig        `mapstructure:"slack"`
	Discord      DiscordConfig      `mapstructure:"discord"`
	OSS          OSSConfig          `mapstructure:"oss"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Organization OrganizationConfig `mapstructure:"organization"`
	Dashboard    DashboardConfig    `mapstructure:"dashboard"`
	Remind       RemindConfig       `mapstructure:"remind"`
}

type ServerConfig struct {
	Host          string `mapstructure:"host"`
	SubmitPort    int    `mapstructure:"submit_port"`
	DashboardPort int    `mapstructure:"dashboard_port"`
	Mode          string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN             string `mapstructure:"dsn"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	QueryTimeoutSec int    `mapstructure:"query_timeout_sec"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type AIConfig struct {
	Provider     string `mapstructure:"provider"` // anthropic, gemini
	APIKey       string `mapstructure:"api_key"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	TimeoutSec   int    `mapstructure:"timeout_sec"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

type SlackConfig struct {
	BotToken  string `mapstructure:"bot_token"`
	ChannelID string `mapstructure:"channel_id"`
}

type DiscordConfig struct {
	BotToken  string `mapstructure:"bot_token"`
	ChannelID string `mapstructure:"channel_id"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	ExportPrefix    string `mapstructure:"export_prefix"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// AuthConfig 托管平台签发的令牌校验（本服务不管理账号）
type AuthConfig struct {
	PlatformJWTSecret string `mapstructure:"platform_jwt_secret"`
	RequireDashboard  bool   `mapstructure:"require_dashboard"`
}

type TeamConfig struct {
	Name    string   `mapstructure:"name"`
	Members []string `mapstructure:"members"`
}

type OrganizationConfig struct {
	Teams        []TeamConfig `mapstructure:"teams"`
	Ratings      []string     `mapstructure:"ratings"`
	Suggestions  []string     `mapstructure:"suggestions"`
	TimeSlots    []string     `mapstructure:"time_slots"`
	Locations    []string     `mapstructure:"locations"`
	HRRecipients []string     `mapstructure:"hr_recipients"`
}

type DashboardConfig struct {
	CacheTTLSec  int `mapstructure:"cache_ttl_sec"`
	HistoryLimit int `mapstructure:"history_limit"`
	TrendWeeks   int `mapstructure:"trend_weeks"`
}

type RemindConfig struct {
	Schedule string `mapstructure:"schedule"` // 标准 5 段 cron 表达式
}

// Need 标记某个命令启动时必须具备的外部依赖
type Need int

const (
	NeedStore Need = 1 << iota
	NeedAI
	NeedEmail
	NeedOSS
)

// ConfigError 缺失的必填配置
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// envBindings 兼容托管环境里已有的变量名
var envBindings = map[string][]string{
	"database.dsn":             {"DATABASE_DSN", "DATABASE_URL"},
	"ai.api_key":               {"AI_API_KEY", "ANTHROPIC_API_KEY"},
	"ai.gemini_api_key":        {"GEMINI_API_KEY"},
	"email.username":           {"EMAIL_USERNAME", "MAILJET_API_KEY"},
	"email.password":           {"EMAIL_PASSWORD", "MAILJET_API_SECRET"},
	"slack.bot_token":          {"SLACK_BOT_TOKEN"},
	"discord.bot_token":        {"DISCORD_BOT_TOKEN"},
	"auth.platform_jwt_secret": {"PLATFORM_JWT_SECRET"},
	"oss.access_key_id":        {"OSS_ACCESS_KEY_ID"},
	"oss.access_key_secret":    {"OSS_ACCESS_KEY_SECRET"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.submit_port", 8501)
	v.SetDefault("server.dashboard_port", 8502)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.query_timeout_sec", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("ai.provider", "anthropic")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.base_url", "https://api.anthropic.com")
	v.SetDefault("ai.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("ai.max_tokens", 4000)
	v.SetDefault("ai.timeout_sec", 120)

	v.SetDefault("email.smtp_host", "in-v3.mailjet.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "go@iol.ph")
	v.SetDefault("email.from_name", "IOL Inc.")

	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.channel_id", "")
	v.SetDefault("discord.bot_token", "")
	v.SetDefault("discord.channel_id", "")

	v.SetDefault("oss.endpoint", "")
	v.SetDefault("oss.access_key_id", "")
	v.SetDefault("oss.access_key_secret", "")
	v.SetDefault("oss.bucket_name", "")
	v.SetDefault("oss.export_prefix", "wpr/exports")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:8501", "http://localhost:8502"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})

	v.SetDefault("auth.platform_jwt_secret", "")
	v.SetDefault("auth.require_dashboard", false)

	v.SetDefault("dashboard.cache_ttl_sec", 3600)
	v.SetDefault("dashboard.history_limit", 5)
	v.SetDefault("dashboard.trend_weeks", 12)

	v.SetDefault("remind.schedule", "0 9 * * 5")
}

// Load 加载配置：默认值 < 配置文件 < 环境变量
// configPath 为空或文件不存在时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		// 优先读取同目录的 config.local.yaml（包含真实密钥，不提交到git）
		localConfigPath := filepath.Join(filepath.Dir(configPath), "config.local.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			configPath = localConfigPath
		}

		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", configPath, err)
		}
	}

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Organization.applyDefaults()

	return &cfg, nil
}

// Validate 按命令需要检查必填项，缺失时返回 *ConfigError
func (c *Config) Validate(needs Need) error {
	var missing []string

	if needs&NeedStore != 0 {
		if c.Database.DSN == "" {
			missing = append(missing, "database.dsn (DATABASE_URL)")
		}
		switch c.Database.Driver {
		case "postgres", "mysql", "sqlite":
		default:
			missing = append(missing, "database.driver (postgres|mysql|sqlite)")
		}
	}

	if needs&NeedAI != 0 {
		switch c.AI.Provider {
		case "anthropic":
			if c.AI.APIKey == "" {
				missing = append(missing, "ai.api_key (ANTHROPIC_API_KEY)")
			}
		case "gemini":
			if c.AI.GeminiAPIKey == "" {
				missing = append(missing, "ai.gemini_api_key (GEMINI_API_KEY)")
			}
		default:
			missing = append(missing, "ai.provider (anthropic|gemini)")
		}
	}

	if needs&NeedEmail != 0 {
		if c.Email.Username == "" {
			missing = append(missing, "email.username (MAILJET_API_KEY)")
		}
		if c.Email.Password == "" {
			missing = append(missing, "email.password (MAILJET_API_SECRET)")
		}
		if c.Email.From == "" {
			missing = append(missing, "email.from")
		}
	}

	if needs&NeedOSS != 0 {
		if c.OSS.Endpoint == "" {
			missing = append(missing, "oss.endpoint")
		}
		if c.OSS.BucketName == "" {
			missing = append(missing, "oss.bucket_name")
		}
		if c.OSS.AccessKeyID == "" || c.OSS.AccessKeySecret == "" {
			missing = append(missing, "oss.access_key_id/oss.access_key_secret")
		}
	}

	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// TeamOf 返回成员所在团队，未登记返回空串
func (o *OrganizationConfig) TeamOf(member string) string {
	for _, team := range o.Teams {
		for _, m := range team.Members {
			if strings.EqualFold(m, member) {
				return team.Name
			}
		}
	}
	return ""
}

// Members 所有登记成员，按团队顺序
func (o *OrganizationConfig) Members() []string {
	var out []string
	for _, team := range o.Teams {
		out = append(out, team.Members...)
	}
	return out
}

func (o *OrganizationConfig) applyDefaults() {
	if len(o.Teams) == 0 {
		o.Teams = DefaultTeams()
	}
	if len(o.Ratings) == 0 {
		o.Ratings = DefaultRatings()
	}
	if len(o.Suggestions) == 0 {
		o.Suggestions = DefaultSuggestions()
	}
	if len(o.TimeSlots) == 0 {
		o.TimeSlots = []string{"8am - 12nn", "12nn - 4pm", "4pm - 8pm", "8pm - 12mn"}
	}
	if len(o.Locations) == 0 {
		o.Locations = []string{"Office", "Home"}
	}
}

func DefaultRatings() []string {
	return []string{
		"1 - Not Productive",
		"2 - Somewhat Productive",
		"3 - Productive",
		"4 - Very Productive",
	}
}

func DefaultSuggestions() []string {
	return []string{
		"More Tools or Resources",
		"More Supervision/Instruction/Guidance",
		"Scheduled Time for Self/Recreation/Rest",
		"Monetary Incentives",
		"Better Time Management",
		"More Teammates",
		"Better Working Environment",
		"More Training",
		"Non-monetary",
		"Workload Balancing",
		"Better Health",
	}
}

func DefaultTeams() []TeamConfig {
	return []TeamConfig{
		{Name: "Business Services Team", Members: []string{"Abigail Visperas", "Cristian Jay Duque", "Justine Louise Ferrer", "Nathalie Joy Fronda", "Kevin Philip Gayao", "Kurt Lee Gayao", "Maria Luisa Reynante", "Jester Pedrosa"}},
		{Name: "Frontend Team", Members: []string{"Amiel Bryan Gaudia", "George Libatique", "Joshua Aficial"}},
		{Name: "Backend Team", Members: []string{"Jeon Angelo Evangelista", "Katrina Gayao", "Renzo Ducusin"}},
	}
}
