package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config 服务配置，启动时加载一次，之后只读
type Config struct {
	Port        int     `json:"port"`
	MaxPlayers  int     `json:"maxPlayers"`
	TickRate    int     `json:"tickRate"` // 每秒 Tick 数
	PlayerSpeed float64 `json:"playerSpeed"`
	JumpForce   float64 `json:"jumpForce"`
	Gravity     float64 `json:"gravity"`

	// 以下为可选项
	ChatRate       float64  `json:"chatRate,omitempty"`  // 每会话每秒聊天条数
	ChatBurst      int      `json:"chatBurst,omitempty"` // 聊天突发上限
	LogFile        string   `json:"logFile,omitempty"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"` // 管理接口 CORS
}

const (
	defaultChatRate  = 5
	defaultChatBurst = 10
	defaultLogFile   = "server.log"
)

// Physics 取出物理常量
func (c Config) Physics() Physics {
	return Physics{Gravity: c.Gravity, Speed: c.PlayerSpeed, JumpForce: c.JumpForce}
}

// ParseConfig 解析配置文档并补全可选项
func ParseConfig(data []byte) (Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	for _, key := range []string{"port", "maxPlayers", "tickRate", "playerSpeed", "jumpForce", "gravity"} {
		if _, ok := raw[key]; !ok {
			return Config{}, fmt.Errorf("parse config: missing required field %q", key)
		}
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig 从文件加载配置，并应用环境变量覆盖
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv 环境变量优先于文件：PORT、MAX_PLAYERS、TICK_RATE
func (c *Config) ApplyEnv() {
	if p := getEnvInt("PORT", 0); p > 0 {
		c.Port = p
	}
	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		c.MaxPlayers = mp
	}
	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		c.TickRate = tr
	}
}

// Validate 检查必填数值
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxPlayers <= 0 {
		errs = append(errs, fmt.Errorf("maxPlayers must be positive, got %d", c.MaxPlayers))
	}
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tickRate must be positive, got %d", c.TickRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ChatRate <= 0 {
		c.ChatRate = defaultChatRate
	}
	if c.ChatBurst <= 0 {
		c.ChatBurst = defaultChatBurst
	}
	if c.LogFile == "" {
		c.LogFile = defaultLogFile
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
