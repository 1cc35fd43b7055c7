package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"taskbot/pkg/config"

	"gopkg.in/yaml.v3"
)

type TelegramConfig struct {
	Token       string `yaml:"token"`
	PollTimeout int    `yaml:"poll_timeout"`
	Debug       bool   `yaml:"debug"`
}

type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type NotionConfig struct {
	Token      string        `yaml:"token"`
	DatabaseID string        `yaml:"database_id"`
	BaseURL    string        `yaml:"base_url"`
	Version    string        `yaml:"version"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ScheduleConfig controls the daily digest. ChatID 0 disables it.
type ScheduleConfig struct {
	DailyTime string `yaml:"daily_time"`
	ChatID    int64  `yaml:"chat_id"`
	Timezone  string `yaml:"timezone"`
}

type Config struct {
	LogLevel string               `yaml:"log_level"`
	LogFile  config.LogFileConfig `yaml:"log_file"`
	Telegram TelegramConfig       `yaml:"telegram"`
	OpenAI   OpenAIConfig         `yaml:"openai"`
	Notion   NotionConfig         `yaml:"notion"`
	Schedule ScheduleConfig       `yaml:"schedule"`
	Server   config.ServerConfig  `yaml:"server"`
	JWT      config.JWTConfig     `yaml:"jwt"`
	DB       config.DBConfig      `yaml:"db"`
	Redis    config.RedisConfig   `yaml:"redis"`
	MQ       config.MQConfig      `yaml:"mq"`
	OTel     config.OTelConfig    `yaml:"otel"`
}

// Defaults mirrors the reference deployment: 07:00 Europe/Berlin.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Telegram: TelegramConfig{PollTimeout: 60},
		OpenAI: OpenAIConfig{
			Model:   "gpt-3.5-turbo",
			Timeout: 30 * time.Second,
		},
		Notion: NotionConfig{
			BaseURL: "https://api.notion.com",
			Version: "2022-06-28",
			Timeout: 30 * time.Second,
		},
		Schedule: ScheduleConfig{
			DailyTime: "07:00",
			Timezone:  "Europe/Berlin",
		},
		Server: config.ServerConfig{Port: ":8080"},
	}
}

func Load() *Config {
	// 使用统一配置中心
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg, err := FromMap(cfgMap)
	if err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}
	overrideFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return cfg
}

// FromMap decodes a merged config map on top of Defaults.
func FromMap(cfgMap map[string]interface{}) (*Config, error) {
	cfg := Defaults()
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the secrets every deployment needs and the schedule values.
func (c *Config) Validate() error {
	missing := func(name, v string) error {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	for _, err := range []error{
		missing("telegram.token", c.Telegram.Token),
		missing("openai.api_key", c.OpenAI.APIKey),
		missing("notion.token", c.Notion.Token),
		missing("notion.database_id", c.Notion.DatabaseID),
	} {
		if err != nil {
			return err
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if _, _, err := ParseClock(c.Schedule.DailyTime); err != nil {
		return fmt.Errorf("schedule.daily_time: %w", err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

func overrideFromEnv(cfg *Config) {
	// 原部署使用的密钥变量名
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		cfg.Notion.Token = v
	}
	if v := os.Getenv("DATABASE_ID"); v != "" {
		cfg.Notion.DatabaseID = v
	}

	if v := os.Getenv("DAILY_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Schedule.ChatID = id
		}
	}
	if v := os.Getenv("DAILY_TIME"); v != "" {
		cfg.Schedule.DailyTime = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideOTelFromEnv(&cfg.OTel)
	config.OverrideLogFileFromEnv(&cfg.LogFile)
}
