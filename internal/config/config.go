// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var loadDotenv = godotenv.Load

// Config 服務與 labctl 共用的設定，鍵名即環境變數名稱 (小寫)
type Config struct {
	ServerAddr    string        `mapstructure:"server_addr"`
	DatabasePath  string        `mapstructure:"database_path"`
	UploadsDir    string        `mapstructure:"uploads_dir"`
	BackupDir     string        `mapstructure:"backup_dir"`
	WebDir        string        `mapstructure:"web_dir"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	SetupTokenTTL time.Duration `mapstructure:"setup_token_ttl"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	WorkerCount int    `mapstructure:"worker_count"`
	BaseURL     string `mapstructure:"base_url"`

	SMTPHost         string `mapstructure:"smtp_host"`
	SMTPPort         string `mapstructure:"smtp_port"`
	SMTPUser         string `mapstructure:"smtp_user"`
	SMTPPass         string `mapstructure:"smtp_pass"`
	FromEmail        string `mapstructure:"from_email"`
	EmailSystemName  string `mapstructure:"email_system_name"`
	EmailCompanyName string `mapstructure:"email_company_name"`

	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"server_addr":        ":3000",
	"database_path":      "./equipment.db",
	"uploads_dir":        "./uploads",
	"backup_dir":         "./backups",
	"web_dir":            "",
	"jwt_secret":         "",
	"token_ttl":          "24h",
	"setup_token_ttl":    "24h",
	"redis_addr":         "",
	"redis_password":     "",
	"redis_db":           0,
	"worker_count":       1,
	"base_url":           "",
	"smtp_host":          "",
	"smtp_port":          "587",
	"smtp_user":          "",
	"smtp_pass":          "",
	"from_email":         "",
	"email_system_name":  "CEE Lab Equipment Manager",
	"email_company_name": "Florida International University",
	"admin_email":        "admin@fiu.edu",
	"admin_password":     "admin123",
	"log_level":          "info",
	"log_format":         "json",
}

// Load 先讀 .env，再由環境變數與選用的 CONFIG_FILE 覆寫預設值
func Load() (*Config, error) {
	if err := loadDotenv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("DATABASE_PATH must not be empty")
	}
	if c.TokenTTL <= 0 || c.SetupTokenTTL <= 0 {
		return errors.New("TOKEN_TTL and SETUP_TOKEN_TTL must be positive")
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// ValidateServer HTTP 服務額外要求 JWT_SECRET
func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	return nil
}

// PublicBaseURL 設定的 BASE_URL，未設定時以請求的 scheme 與 host 組成
func (c *Config) PublicBaseURL(scheme, host string) string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return scheme + "://" + host
}
