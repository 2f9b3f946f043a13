package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cloud-platform/cors-static/shared/config"
	"github.com/cloud-platform/cors-static/shared/middleware"
)

// Options 创建服务器所需的参数
type Options struct {
	Config *config.Config
	// Root 服务目录，启动时确定，之后不再改变
	Root   string
	Logger *zap.Logger
	// Stdout 启动与停止提示的输出位置，默认os.Stdout
	Stdout io.Writer
}

// Server 带跨域头的静态文件服务器
type Server struct {
	cfg        *config.Config
	root       string
	log        *zap.Logger
	stdout     io.Writer
	engine     *gin.Engine
	limiter    *middleware.TokenBucketLimiter
	httpServer *http.Server
	listener   net.Listener
}

// New 创建静态文件服务器
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("缺少服务器配置")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	root, err := normalizeRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	s := &Server{
		cfg:    opts.Config,
		root:   root,
		log:    log,
		stdout: stdout,
	}
	s.engine = s.buildEngine()
	s.httpServer = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Named("http")),
	}

	return s, nil
}

func (s *Server) buildEngine() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.SetHTMLTemplate(newListingTemplate())

	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(s.log))
	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.CORS(s.cfg.Security.CORS))

	if rl := s.cfg.Security.RateLimit; rl.Enabled() {
		s.limiter = middleware.NewTokenBucketLimiter(rate.Limit(rl.RPS), rl.Burst, rl.CleanupInterval)
		r.Use(middleware.RateLimit(s.limiter, s.log))
	}

	files := newFileHandler(s.root, s.cfg.Static.IndexFiles, s.cfg.Static.ListDirectories, s.log)
	r.GET("/*filepath", files.Serve)
	r.HEAD("/*filepath", files.Serve)
	r.NoRoute(notFound)

	return r
}

// Handler 返回完整的HTTP处理链
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Root 返回服务目录
func (s *Server) Root() string {
	return s.root
}

// Listen 绑定监听地址，失败时返回*BindError
func (s *Server) Listen() error {
	addr := s.cfg.Server.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &BindError{Addr: addr, Err: err}
	}
	s.listener = ln
	return nil
}

// Addr 返回实际监听地址，未监听时为nil
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run 开始服务直到ctx被取消
// ctx取消视为正常停止，返回nil；尚未调用Listen时先绑定地址
func (s *Server) Run(ctx context.Context) error {
	defer s.closeLimiter()

	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	serverCfg := s.cfg.Server
	serverCfg.Port = s.Port()
	printBanner(s.stdout, &serverCfg, s.root)
	s.log.Info("静态文件服务器已启动",
		zap.String("addr", s.listener.Addr().String()),
		zap.String("root", s.root),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP服务异常退出: %w", err)
	case <-ctx.Done():
	}

	printShutdown(s.stdout)
	s.log.Info("收到停止信号，正在关闭服务器")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("关闭超时，强制断开剩余连接", zap.Error(err))
		_ = s.httpServer.Close()
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP服务异常退出: %w", err)
	}

	s.log.Info("服务器已停止")
	return nil
}

// Close 释放未经Run使用的资源：监听socket与限流清理协程
func (s *Server) Close() error {
	s.closeLimiter()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) closeLimiter() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}

// Port 返回实际监听端口，未监听时返回配置端口
func (s *Server) Port() int {
	if tcpAddr, ok := s.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return s.cfg.Server.Port
}

// URL 返回本机访问地址
func (s *Server) URL() string {
	return "http://localhost:" + strconv.Itoa(s.Port())
}
