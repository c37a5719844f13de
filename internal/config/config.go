// Package config 负责加载服务配置：默认值、YAML 文件、.env 与环境变量，后者覆盖前者。
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/himomohi/MaziSpace/internal/scheduler"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 环境变量名。
const (
	EnvConfigPath  = "MAZISPACE_CONFIG_PATH"
	EnvAddr        = "MAZISPACE_ADDR"
	EnvPort        = "PORT"
	EnvMode        = "MAZISPACE_MODE"
	EnvMaxEntries  = "MAZISPACE_MAX_ENTRIES"
	EnvResetCron   = "MAZISPACE_RESET_CRON"
	EnvCORSOrigins = "MAZISPACE_CORS_ORIGINS"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config 是应用的根配置结构。
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	CORS        CORSConfig        `yaml:"cors"`
}

// ServerConfig 定义了HTTP服务器的相关配置。
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LeaderboardConfig 定义了排行榜的业务配置。
// ResetCron 为空时不启用定时清榜。
type LeaderboardConfig struct {
	MaxEntries int    `yaml:"max_entries"`
	ResetCron  string `yaml:"reset_cron"`
}

// CORSConfig 定义了跨域策略。AllowedOrigins 含 "*" 时允许任意来源。
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// Default 返回内置默认配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			Mode:            gin.ReleaseMode,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Leaderboard: LeaderboardConfig{
			MaxEntries: 10,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowCredentials: true,
		},
	}
}

// Load 依次应用默认值、.env、YAML 文件和环境变量，并校验结果。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile 将 YAML 文件合并进 cfg，文件中未出现的字段保持原值。
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if port := os.Getenv(EnvPort); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if addr := os.Getenv(EnvAddr); addr != "" {
		cfg.Server.Addr = addr
	}
	if mode := os.Getenv(EnvMode); mode != "" {
		cfg.Server.Mode = mode
	}
	if v := os.Getenv(EnvMaxEntries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvMaxEntries, v)
		}
		cfg.Leaderboard.MaxEntries = n
	}
	if v, ok := os.LookupEnv(EnvResetCron); ok {
		cfg.Leaderboard.ResetCron = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
	return nil
}

// Validate 检查配置是否可用。
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must not be empty", ErrInvalidConfig)
	}
	switch c.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("%w: unknown server.mode %q", ErrInvalidConfig, c.Server.Mode)
	}
	if c.Leaderboard.MaxEntries <= 0 {
		return fmt.Errorf("%w: leaderboard.max_entries must be positive, got %d", ErrInvalidConfig, c.Leaderboard.MaxEntries)
	}
	if c.Leaderboard.ResetCron != "" {
		if _, err := scheduler.ParseCron(c.Leaderboard.ResetCron); err != nil {
			return fmt.Errorf("%w: leaderboard.reset_cron: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
