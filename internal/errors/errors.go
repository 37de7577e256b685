package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown        ErrorCode = 1000
	ErrInvalidParam   ErrorCode = 1001
	ErrNotFound       ErrorCode = 1002
	ErrTimeout        ErrorCode = 1005
	ErrNotImplemented ErrorCode = 1007

	// 游戏错误 (2000-2999)：状态前置条件
	ErrGameIsOver            ErrorCode = 2000
	ErrGameInShop            ErrorCode = 2001
	ErrGameNotInShop         ErrorCode = 2002
	ErrGameStageNotCompleted ErrorCode = 2003
	ErrGameStageCompleted    ErrorCode = 2004
	ErrGameNotOver           ErrorCode = 2005
	ErrGameFinalLevel        ErrorCode = 2006

	// 游戏错误：资源约束
	ErrGameCannotAfford    ErrorCode = 2100
	ErrGameBagFull         ErrorCode = 2101
	ErrGameIndexOutOfRange ErrorCode = 2102
	ErrGameBagEmpty        ErrorCode = 2103
	ErrShopRefreshed       ErrorCode = 2104
	ErrShopBurned          ErrorCode = 2105
	ErrStickyOrb           ErrorCode = 2106
	ErrGameNotFound        ErrorCode = 2200

	// 卡包错误 (3000-3999)
	ErrPackNotEnoughMoonrocks ErrorCode = 3000
	ErrPackIsOver             ErrorCode = 3001
	ErrPackNotFound           ErrorCode = 3002

	// 模式错误 (4000-4999)
	ErrModeForced ErrorCode = 4000

	// 存储错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrStorageRead     ErrorCode = 5002
	ErrStorageWrite    ErrorCode = 5003
	ErrStorageNotFound ErrorCode = 5004
	ErrDataIntegrity   ErrorCode = 5006

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigParse    ErrorCode = 6001
	ErrConfigValidate ErrorCode = 6002
)

// 错误码消息映射
// 游戏与卡包的消息与链上合约的 revert 文案保持一致，前端依赖这些文案
var errorMessages = map[ErrorCode]string{
	ErrUnknown:        "未知错误",
	ErrInvalidParam:   "无效的参数",
	ErrNotFound:       "资源未找到",
	ErrTimeout:        "操作超时",
	ErrNotImplemented: "功能未实现",

	ErrGameIsOver:            "Game: is over",
	ErrGameInShop:            "Game: in shop",
	ErrGameNotInShop:         "Game: not in shop",
	ErrGameStageNotCompleted: "Game: stage is not completed",
	ErrGameStageCompleted:    "Game: stage is completed",
	ErrGameNotOver:           "Game: not over",
	ErrGameFinalLevel:        "Game: final level",

	ErrGameCannotAfford:    "Game: cannot afford",
	ErrGameBagFull:         "Game: bag full",
	ErrGameIndexOutOfRange: "Game: index out of range",
	ErrGameBagEmpty:        "Game: bag empty",
	ErrShopRefreshed:       "Game: shop already refreshed",
	ErrShopBurned:          "Game: orb already burned",
	ErrStickyOrb:           "Game: cannot burn sticky orb",
	ErrGameNotFound:        "Game: not found",

	ErrPackNotEnoughMoonrocks: "Pack: not enough moonrocks",
	ErrPackIsOver:             "Pack: is over",
	ErrPackNotFound:           "Pack: not found",

	ErrModeForced: "Mode: forced offline",

	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrStorageRead:     "存储读取失败",
	ErrStorageWrite:    "存储写入失败",
	ErrStorageNotFound: "存储键不存在",
	ErrDataIntegrity:   "数据完整性错误",

	ErrConfigLoad:     "配置加载失败",
	ErrConfigParse:    "配置解析失败",
	ErrConfigValidate: "配置验证失败",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`            // 错误码
	Message string       `json:"message"`         // 错误消息
	Details string       `json:"details"`         // 详细信息
	Cause   error        `json:"-"`               // 原始错误
	Stack   []StackFrame `json:"stack,omitempty"` // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	wrapped := New(code, details...)
	wrapped.Cause = err
	if wrapped.Details == "" {
		wrapped.Details = err.Error()
	}

	return wrapped
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}

	return ErrUnknown
}

// Message 返回错误码对应的消息
func Message(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return errorMessages[ErrUnknown]
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()

		// 跳过runtime和本包的调用
		if !strings.Contains(frame.Function, "runtime.") &&
			!strings.Contains(frame.Function, "github.com/wfunc/moonbag/internal/errors") {
			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})
		}

		// 只保留前10个栈帧
		if !more || len(e.Stack) >= 10 {
			break
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}

	return builder.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam:
		return 400
	case e.Code == ErrNotFound, e.Code == ErrGameNotFound, e.Code == ErrPackNotFound:
		return 404
	case e.Code == ErrTimeout:
		return 408
	case e.Code >= 2000 && e.Code <= 4999:
		// 游戏规则冲突：客户端本应禁止该操作
		return 409
	case e.Code >= 5000 && e.Code <= 5999:
		return 503
	default:
		return 500
	}
}

// IsRule 判断是否为游戏规则错误（前置条件或资源约束）
func IsRule(err error) bool {
	code := GetCode(err)
	return code >= 2000 && code <= 3999
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
