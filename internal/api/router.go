package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/moonbag/internal/config"
	"github.com/wfunc/moonbag/internal/database"
	"github.com/wfunc/moonbag/internal/metrics"
	"github.com/wfunc/moonbag/internal/middleware"
	"github.com/wfunc/moonbag/internal/mode"
	"github.com/wfunc/moonbag/internal/offline"
	ws "github.com/wfunc/moonbag/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies 路由依赖
type Dependencies struct {
	Store       *offline.Store
	Mode        *mode.Selector
	Hub         *ws.Hub
	DB          *gorm.DB         // 可为空，仅用于健康检查
	Metrics     *metrics.Metrics // 可为空，不导出指标
	WebSocket   config.WebSocketConfig
	MetricsPath string
}

// Router API路由器
type Router struct {
	engine      *gin.Engine
	db          *gorm.DB
	offline     *OfflineHandler
	modes       *ModeHandler
	websocket   *WebSocketHandler
	metrics     *metrics.Metrics
	wsPath      string
	metricsPath string
	log         *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(deps Dependencies, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	if deps.Metrics != nil {
		engine.Use(deps.Metrics.Middleware())
	}

	router := &Router{
		engine:      engine,
		db:          deps.DB,
		offline:     NewOfflineHandler(deps.Store, deps.Metrics, log),
		modes:       NewModeHandler(deps.Mode),
		websocket:   NewWebSocketHandler(deps.Hub, deps.WebSocket, log),
		metrics:     deps.Metrics,
		wsPath:      deps.WebSocket.Path,
		metricsPath: deps.MetricsPath,
		log:         log,
	}
	if router.wsPath == "" {
		router.wsPath = "/ws"
	}
	if router.metricsPath == "" {
		router.metricsPath = "/metrics"
	}

	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/details/:cost", r.offline.GetDetails)

		v1.GET("/mode", r.modes.GetMode)
		v1.PUT("/mode", r.modes.SetMode)

		off := v1.Group("/offline")
		{
			off.GET("/state", r.offline.GetState)
			off.POST("/reset", r.offline.Reset)
			off.GET("/moonrocks", r.offline.GetMoonrocks)

			off.GET("/packs", r.offline.ListPacks)
			off.POST("/packs", r.offline.CreatePack)
			off.GET("/packs/:pack/value", r.offline.GetPackValue)
			off.POST("/packs/:pack/games", r.offline.StartGame)

			game := off.Group("/packs/:pack/games/:game")
			{
				game.GET("", r.offline.GetGame)
				game.GET("/pulls", r.offline.GetPulls)
				game.GET("/pl", r.offline.GetPLDataPoints)
				game.POST("/pull", r.offline.Pull)
				game.POST("/cash-out", r.offline.CashOut)

				shop := game.Group("/shop")
				{
					shop.POST("/enter", r.offline.EnterShop)
					shop.POST("/buy", r.offline.Buy)
					shop.POST("/exit", r.offline.ExitShop)
					shop.POST("/buy-exit", r.offline.BuyAndExit)
					shop.POST("/refresh", r.offline.RefreshShop)
					shop.POST("/burn", r.offline.BurnOrb)
				}
			}
		}
	}

	// WebSocket路由
	r.engine.GET(r.wsPath, r.websocket.Connect)

	if r.metrics != nil {
		r.engine.GET(r.metricsPath, gin.WrapH(r.metrics.Handler()))
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	if r.db != nil && !database.IsConnected(r.db) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
		"online":  r.websocket.hub.GetOnlineCount(),
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
