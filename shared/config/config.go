package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cloud-platform/cors-static/shared/logger"
)

// DefaultPort 未指定端口时的监听端口
const DefaultPort = 12000

// Config 应用程序配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Static   StaticConfig   `mapstructure:"static"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// Address 返回服务器监听地址
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LocalURL 返回本机访问地址
func (s *ServerConfig) LocalURL() string {
	return "http://localhost:" + strconv.Itoa(s.Port)
}

// ExternalURL 返回外部访问地址
func (s *ServerConfig) ExternalURL() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.Port)
}

// StaticConfig 静态文件配置
type StaticConfig struct {
	IndexFiles      []string `mapstructure:"index_files" validate:"dive,required,excludesall=/"`
	ListDirectories bool     `mapstructure:"list_directories"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format   string `mapstructure:"format" validate:"oneof=console json"`
	Output   string `mapstructure:"output" validate:"oneof=stdout stderr file"`
	FilePath string `mapstructure:"file_path" validate:"required_if=Output file"`
}

// ToLoggerConfig 转换为logger.Config
func (l *LogConfig) ToLoggerConfig() logger.Config {
	return logger.Config{
		Level:    l.Level,
		Format:   l.Format,
		Output:   l.Output,
		FilePath: l.FilePath,
	}
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域响应头配置，每个响应都会带上这些头
type CORSConfig struct {
	AllowOrigin   string `mapstructure:"allow_origin"`
	AllowMethods  string `mapstructure:"allow_methods"`
	AllowHeaders  string `mapstructure:"allow_headers"`
	XFrameOptions string `mapstructure:"x_frame_options"`
}

// RateLimitConfig 按客户端IP限流配置，RPS为0表示关闭
type RateLimitConfig struct {
	RPS             float64       `mapstructure:"rps" validate:"min=0"`
	Burst           int           `mapstructure:"burst" validate:"min=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"min=0"`
}

// Enabled 是否启用限流
func (r *RateLimitConfig) Enabled() bool {
	return r.RPS > 0
}

var validate = validator.New()

// Validate 验证配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	if c.Security.RateLimit.Enabled() && c.Security.RateLimit.Burst < 1 {
		return fmt.Errorf("启用限流时burst必须大于0，当前值: %d", c.Security.RateLimit.Burst)
	}

	return nil
}
