package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Level    string `json:"level" yaml:"level"`
	Format   string `json:"format" yaml:"format"` // json, console
	Output   string `json:"output" yaml:"output"` // stdout, stderr, file
	FilePath string `json:"file_path" yaml:"file_path"`
}

// New 根据配置创建Zap日志实例
func New(config Config) (*zap.Logger, error) {
	writeSyncer, err := openOutput(config)
	if err != nil {
		return nil, err
	}
	return NewWithWriter(config, writeSyncer), nil
}

// NewWithWriter 使用指定输出创建日志实例，主要用于测试
func NewWithWriter(config Config, w io.Writer) *zap.Logger {
	core := zapcore.NewCore(newEncoder(config.Format), zapcore.AddSync(w), ParseLevel(config.Level))
	return zap.New(core, zap.AddCaller())
}

func newEncoder(format string) zapcore.Encoder {
	var encoderConfig zapcore.EncoderConfig
	if format == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.CallerKey = "caller"
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func openOutput(config Config) (zapcore.WriteSyncer, error) {
	switch config.Output {
	case "file":
		if config.FilePath == "" {
			return nil, fmt.Errorf("日志输出为file时必须指定file_path")
		}
		file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		return zapcore.AddSync(file), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	default:
		return zapcore.Lock(os.Stdout), nil
	}
}

// ParseLevel 解析日志级别，无法识别时回退到info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
