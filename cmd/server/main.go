package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/moonbag/internal/api"
	"github.com/wfunc/moonbag/internal/config"
	"github.com/wfunc/moonbag/internal/database"
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/game/random"
	"github.com/wfunc/moonbag/internal/logger"
	"github.com/wfunc/moonbag/internal/metrics"
	"github.com/wfunc/moonbag/internal/mode"
	"github.com/wfunc/moonbag/internal/offline"
	"github.com/wfunc/moonbag/internal/storage"
	ws "github.com/wfunc/moonbag/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db       *gorm.DB
	store    *offline.Store
	selector *mode.Selector
	hub      *ws.Hub
	http     *http.Server
	unbind   func()

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动离线游戏服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "初始化组件失败")
	}

	s.startServices()

	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.cfg.Server.Addr()),
		zap.String("websocket", s.cfg.WebSocket.Path),
		zap.String("storage", s.cfg.Storage.Driver),
	)
	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	if s.cfg.Storage.Driver == "database" {
		if err := s.initDatabase(); err != nil {
			return err
		}
	}

	backing, err := storage.New(&s.cfg.Storage, s.db)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageRead, "初始化存储失败")
	}

	s.store = offline.NewStore(s.ctx, backing, newRandom(&s.cfg.Game), s.logger, offline.Options{
		StateKey:          s.cfg.Offline.StateKey,
		Version:           s.cfg.Offline.SchemaVersion,
		StartingMoonrocks: s.cfg.Game.StartingMoonrocks,
		MaxGamesPerPack:   uint64(s.cfg.Game.MaxGamesPerPack),
		Now:               time.Now,
	})

	s.selector = mode.NewSelector(s.ctx, backing, s.logger, mode.Options{
		Key:     s.cfg.Offline.ModeKey,
		Default: s.cfg.Offline.Enabled,
		Forced:  s.cfg.Offline.Forced,
	})

	s.hub = ws.NewHub(s.cfg.WebSocket, s.logger)
	s.unbind = api.BindHub(s.hub, s.store, s.selector)

	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var m *metrics.Metrics
	if s.cfg.Metrics.Enabled {
		m = metrics.New(s.cfg.Metrics.Namespace, s.store, s.hub)
	}
	router := api.NewRouter(api.Dependencies{
		Store:       s.store,
		Mode:        s.selector,
		Hub:         s.hub,
		DB:          s.db,
		Metrics:     m,
		WebSocket:   s.cfg.WebSocket,
		MetricsPath: s.cfg.Metrics.Path,
	}, s.logger)

	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}
	s.db = database.GetDB()

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(s.db); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected(s.db) {
		return apperrors.New(apperrors.ErrDatabaseConnect, "数据库连接检查失败")
	}
	return nil
}

// newRandom 按配置选择随机源
func newRandom(cfg *config.GameConfig) *random.Random {
	if cfg.RNG == "deterministic" {
		return random.New(cfg.Seed)
	}
	return random.NewSecure()
}

// startServices 启动服务
func (s *Server) startServices() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
		}
	}()
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))

	close(s.shutdownCh)
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	s.unbind()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	if s.db != nil {
		if err := database.Close(); err != nil {
			s.logger.Error("关闭数据库失败", zap.Error(err))
		}
	}

	logger.Cleanup()
	return nil
}

// reloadConfig 重新加载配置，运行中的组件不热更新
func (s *Server) reloadConfig(newCfg *config.Config) {
	if newCfg.Offline.Forced != s.cfg.Offline.Forced || newCfg.Storage != s.cfg.Storage {
		s.logger.Warn("离线模式和存储设置需要重启后生效")
	}
	s.cfg = newCfg
	s.logger.Info("配置重新加载完成")
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Moonbag 离线游戏服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
