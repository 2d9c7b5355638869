package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"CyberDash/internal/store"
	"CyberDash/internal/transport"
)

// Config 仪表盘配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Demo     DemoConfig     `yaml:"demo"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// BackendConfig 出站调用目标。TimeoutSeconds 为 0 时不设超时
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	IPInfoURL      string `yaml:"ipinfo_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DemoConfig 后端未连接时是否显示演示数据
type DemoConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Listen: "127.0.0.1:8080"},
		Backend:  BackendConfig{BaseURL: transport.DefaultBackendURL, IPInfoURL: transport.DefaultIPInfoURL},
		Database: DatabaseConfig{Path: store.DefaultPath},
		Demo:     DemoConfig{Enabled: true},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load 在默认值之上读取 YAML 文件
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must not be negative, got %d", c.Backend.TimeoutSeconds)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// Timeout 出站调用超时，0 表示不设超时
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{listen=%s, backend=%s, ipinfo=%s, timeout=%v, db=%s, demo=%v}",
		c.Server.Listen, c.Backend.BaseURL, c.Backend.IPInfoURL, c.Timeout(), c.Database.Path, c.Demo.Enabled)
}
