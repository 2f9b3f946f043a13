package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/cloud-platform/cors-static/internal/server"
	"github.com/cloud-platform/cors-static/shared/config"
	"github.com/cloud-platform/cors-static/shared/logger"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// ErrInvalidPort 端口参数不是1-65535之间的整数
var ErrInvalidPort = errors.New("无效的端口参数")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("static-server", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "用法: static-server [flags] [port]")
		flags.PrintDefaults()
	}
	configFile := flags.StringP("config", "c", "", "YAML配置文件路径")
	logLevel := flags.String("log-level", "", "日志级别 (debug, info, warn, error)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	overrides := map[string]interface{}{}
	port, hasPort, err := parsePort(flags.Args())
	if err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		flags.Usage()
		return exitUsage
	}
	if hasPort {
		overrides["server.port"] = port
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}

	cfg, err := config.Load(config.LoadOptions{ConfigFile: *configFile, Overrides: overrides})
	if err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return exitUsage
	}

	log, err := logger.New(cfg.Log.ToLoggerConfig())
	if err != nil {
		fmt.Fprintf(stderr, "初始化日志失败: %v\n", err)
		return exitError
	}
	defer log.Sync()

	root, err := baseDir()
	if err != nil {
		log.Error("无法确定服务目录", zap.Error(err))
		return exitError
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(server.Options{Config: cfg, Root: root, Logger: log, Stdout: stdout})
	if err != nil {
		log.Error("创建服务器失败", zap.Error(err))
		return exitError
	}

	if err := srv.Listen(); err != nil {
		var bindErr *server.BindError
		if errors.As(err, &bindErr) {
			fmt.Fprintf(stderr, "错误: 端口 %d 无法绑定: %v\n", cfg.Server.Port, bindErr.Err)
		}
		log.Error("启动服务器失败", zap.Error(err))
		return exitError
	}

	if err := srv.Run(ctx); err != nil {
		log.Error("服务器异常退出", zap.Error(err))
		return exitError
	}
	return exitOK
}

// parsePort 解析可选的端口位置参数
func parsePort(args []string) (port int, ok bool, err error) {
	switch len(args) {
	case 0:
		return 0, false, nil
	case 1:
	default:
		return 0, false, fmt.Errorf("%w: 最多只能指定一个端口，收到 %d 个参数", ErrInvalidPort, len(args))
	}

	port, err = strconv.Atoi(args[0])
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q 不是整数", ErrInvalidPort, args[0])
	}
	if port < 1 || port > 65535 {
		return 0, false, fmt.Errorf("%w: %d 超出范围 1-65535", ErrInvalidPort, port)
	}
	return port, true, nil
}

// baseDir 返回程序所在目录
func baseDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	_, sourceFile, _, _ := runtime.Caller(0)
	return server.ResolveBaseDir(exe, sourceFile)
}
