package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/game/payout"
	"github.com/wfunc/moonbag/internal/logger"
	"github.com/wfunc/moonbag/internal/metrics"
	"github.com/wfunc/moonbag/internal/middleware"
	"github.com/wfunc/moonbag/internal/offline"
	"go.uber.org/zap"
)

// OfflineHandler 离线游戏处理器
type OfflineHandler struct {
	store   *offline.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewOfflineHandler 创建离线游戏处理器，m 可为空
func NewOfflineHandler(store *offline.Store, m *metrics.Metrics, log *zap.Logger) *OfflineHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OfflineHandler{store: store, metrics: m, logger: log}
}

// finish 记录指标并返回操作结果，规则拒绝之外的失败记错误日志
func (h *OfflineHandler) finish(c *gin.Context, action string, data interface{}, err error) {
	if h.metrics != nil {
		h.metrics.ObserveAction(action, err)
	}
	if err != nil && toAppError(err).HTTPStatus() >= http.StatusInternalServerError {
		logger.LogError(h.logger, err, "offline action failed",
			zap.String("action", action),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
	respondAction(c, data, err)
}

// BuyRequest 购买请求
type BuyRequest struct {
	Indices []int `json:"indices" binding:"required"`
}

// BurnRequest 销毁请求
type BurnRequest struct {
	Index *int `json:"index" binding:"required"`
}

// MaxDetailsCost 奖励详情接受的最大入场费，避免奖励曲线整数溢出
const MaxDetailsCost = 1_000_000

// DetailsResponse 入场费对应的奖励详情
type DetailsResponse struct {
	EntryCost      int                  `json:"entry_cost"`
	MaxReward      int                  `json:"max_reward"`
	BreakEvenLevel int                  `json:"break_even_level"`
	Curve          []payout.LevelReward `json:"curve"`
}

// parseUint 解析路径中的ID
func parseUint(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrInvalidParam, "invalid %s: %s", name, c.Param(name))
	}
	return id, nil
}

// gameParams 解析卡包和游戏ID
func gameParams(c *gin.Context) (uint64, uint64, error) {
	packID, err := parseUint(c, "pack")
	if err != nil {
		return 0, 0, err
	}
	gameID, err := parseUint(c, "game")
	if err != nil {
		return 0, 0, err
	}
	return packID, gameID, nil
}

// GetState 完整离线状态
func (h *OfflineHandler) GetState(c *gin.Context) {
	respondData(c, h.store.Snapshot())
}

// Reset 重置离线状态
func (h *OfflineHandler) Reset(c *gin.Context) {
	h.finish(c, "reset", nil, h.store.Reset(c.Request.Context()))
}

// GetMoonrocks 所有卡包的月岩总数
func (h *OfflineHandler) GetMoonrocks(c *gin.Context) {
	respondData(c, gin.H{"total": offline.SelectTotalMoonrocks(h.store.Snapshot())})
}

// ListPacks 卡包列表
func (h *OfflineHandler) ListPacks(c *gin.Context) {
	respondData(c, offline.SelectPacks(h.store.Snapshot(), h.store.Options().MaxGamesPerPack))
}

// CreatePack 新建卡包
func (h *OfflineHandler) CreatePack(c *gin.Context) {
	packID, err := h.store.CreatePack(c.Request.Context())
	h.finish(c, "create_pack", gin.H{"pack_id": packID}, err)
}

// GetPackValue 卡包价值
func (h *OfflineHandler) GetPackValue(c *gin.Context) {
	packID, err := parseUint(c, "pack")
	if err != nil {
		respondError(c, err)
		return
	}

	value, err := offline.SelectPackValue(h.store.Snapshot(), packID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, value)
}

// StartGame 开始新的一局
func (h *OfflineHandler) StartGame(c *gin.Context) {
	packID, err := parseUint(c, "pack")
	if err != nil {
		respondAction(c, nil, err)
		return
	}

	gameID, err := h.store.Start(c.Request.Context(), packID)
	h.finish(c, "start", gin.H{"pack_id": packID, "game_id": gameID}, err)
}

// GetGame 游戏视图
func (h *OfflineHandler) GetGame(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := offline.SelectGame(h.store.Snapshot(), packID, gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, view)
}

// GetPulls 抽珠记录
func (h *OfflineHandler) GetPulls(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, offline.SelectPulls(h.store.Snapshot(), packID, gameID))
}

// GetPLDataPoints 盈亏曲线
func (h *OfflineHandler) GetPLDataPoints(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, offline.SelectPLDataPoints(h.store.Snapshot(), packID, gameID))
}

// Pull 抽一次
func (h *OfflineHandler) Pull(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondAction(c, nil, err)
		return
	}

	result, err := h.store.Pull(c.Request.Context(), packID, gameID)
	if err != nil {
		h.finish(c, "pull", nil, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObservePull(result)
	}
	h.finish(c, "pull", result, nil)
}

// CashOut 兑现
func (h *OfflineHandler) CashOut(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondAction(c, nil, err)
		return
	}

	earnings, err := h.store.CashOut(c.Request.Context(), packID, gameID)
	h.finish(c, "cash_out", gin.H{"moonrocks": earnings}, err)
}

// EnterShop 进入商店
func (h *OfflineHandler) EnterShop(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondAction(c, nil, err)
		return
	}
	h.finish(c, "enter_shop", nil, h.store.Enter(c.Request.Context(), packID, gameID))
}

// Buy 购买宝珠
func (h *OfflineHandler) Buy(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondAction(c, nil, err)
		return
	}

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAction(c, nil, apperrors.Wrap(err, apperrors.ErrInvalidParam))
		return
	}
	h.finish(c, "buy", nil, h.store.Buy(c.Request.Context(), packID, gameID, req.Indices))
}

// ExitShop 离开商店，进入下一层
func (h *OfflineHandler) ExitShop(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondAction(c, nil, err)
		return
	}
	h.finish(c, "exit_shop", nil, h.store.Exit(c.Request.Context(), packID, gameID))
}

// BuyAndExit 购买后立即离开商店
func (h *OfflineHandler) BuyAndExit(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondAction(c, nil, err)
		return
	}

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAction(c, nil, apperrors.Wrap(err, apperrors.ErrInvalidParam))
		return
	}
	h.finish(c, "buy_and_exit", nil, h.store.BuyAndExit(c.Request.Context(), packID, gameID, req.Indices))
}

// RefreshShop 刷新商店
func (h *OfflineHandler) RefreshShop(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondAction(c, nil, err)
		return
	}
	h.finish(c, "refresh", nil, h.store.Refresh(c.Request.Context(), packID, gameID))
}

// BurnOrb 销毁袋中的宝珠
func (h *OfflineHandler) BurnOrb(c *gin.Context) {
	packID, gameID, err := gameParams(c)
	if err != nil {
		respondAction(c, nil, err)
		return
	}

	var req BurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAction(c, nil, apperrors.Wrap(err, apperrors.ErrInvalidParam))
		return
	}
	h.finish(c, "burn", nil, h.store.Burn(c.Request.Context(), packID, gameID, *req.Index))
}

// GetDetails 入场费对应的奖励曲线
func (h *OfflineHandler) GetDetails(c *gin.Context) {
	cost, err := strconv.Atoi(c.Param("cost"))
	if err != nil || cost <= 0 {
		respondError(c, apperrors.Newf(apperrors.ErrInvalidParam, "invalid cost: %s", c.Param("cost")))
		return
	}
	if cost > MaxDetailsCost {
		respondError(c, apperrors.New(apperrors.ErrInvalidParam).
			WithDetails(fmt.Sprintf("cost %d exceeds %d", cost, MaxDetailsCost)))
		return
	}

	respondData(c, DetailsResponse{
		EntryCost:      cost,
		MaxReward:      payout.MaxReward(cost),
		BreakEvenLevel: payout.BreakEvenLevel,
		Curve:          payout.RewardCurve(cost),
	})
}
