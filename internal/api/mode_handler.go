package api

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/mode"
)

// ModeHandler 离线模式开关处理器
type ModeHandler struct {
	selector *mode.Selector
}

// NewModeHandler 创建处理器
func NewModeHandler(selector *mode.Selector) *ModeHandler {
	return &ModeHandler{selector: selector}
}

// ModeResponse 模式状态
type ModeResponse struct {
	Offline bool `json:"offline"`
	Forced  bool `json:"forced"`
}

// SetModeRequest 切换请求
type SetModeRequest struct {
	Offline *bool `json:"offline" binding:"required"`
}

func (h *ModeHandler) current() ModeResponse {
	return ModeResponse{Offline: h.selector.IsOffline(), Forced: h.selector.Forced()}
}

// GetMode 当前模式
func (h *ModeHandler) GetMode(c *gin.Context) {
	respondData(c, h.current())
}

// SetMode 切换模式
func (h *ModeHandler) SetMode(c *gin.Context) {
	var req SetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAction(c, nil, apperrors.Wrap(err, apperrors.ErrInvalidParam))
		return
	}

	if err := h.selector.SetOffline(c.Request.Context(), *req.Offline); err != nil {
		respondAction(c, nil, err)
		return
	}
	respondAction(c, h.current(), nil)
}
