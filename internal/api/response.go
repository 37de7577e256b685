package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/middleware"
)

// ActionResponse 操作结果
type ActionResponse struct {
	Success bool                `json:"success"`
	Data    interface{}         `json:"data,omitempty"`
	Error   *apperrors.AppError `json:"error,omitempty"`
}

// toAppError 转换为应用错误
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(err, apperrors.ErrUnknown)
}

// respondData 返回查询结果
func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// respondError 返回查询错误
func respondError(c *gin.Context, err error) {
	appErr := toAppError(err)
	c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, middleware.GetRequestID(c)))
}

// respondAction 返回操作结果，规则错误同样带上 success=false
func respondAction(c *gin.Context, data interface{}, err error) {
	if err != nil {
		appErr := toAppError(err)
		c.JSON(appErr.HTTPStatus(), ActionResponse{Success: false, Error: appErr})
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Success: true, Data: data})
}
