// Package mode 管理离线模式开关：可由配置强制开启，否则允许切换，并持久化和广播变化。
package mode

import (
	"context"
	"encoding/json"
	"sync"

	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/storage"
	"go.uber.org/zap"
)

// Options 开关参数
type Options struct {
	Key     string // 持久化键
	Default bool   // 没有保存值时的默认状态
	Forced  bool   // 强制离线
}

// Listener 模式变化回调
type Listener func(offline bool)

type persisted struct {
	Offline bool `json:"offline"`
}

type subscription struct {
	id int
	fn Listener
}

// Selector 离线模式开关
type Selector struct {
	mu        sync.Mutex
	offline   bool
	opts      Options
	storage   storage.Storage
	logger    *zap.Logger
	listeners []subscription
	nextID    int
}

// NewSelector 创建开关并读取保存的状态
func NewSelector(ctx context.Context, store storage.Storage, log *zap.Logger, opts Options) *Selector {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Selector{
		offline: opts.Default,
		opts:    opts,
		storage: store,
		logger:  log.Named("mode"),
	}

	if opts.Forced {
		s.offline = true
		return s
	}

	data, err := store.Get(ctx, opts.Key)
	switch {
	case err == nil:
		var p persisted
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("离线模式数据解析失败", zap.Error(err))
			break
		}
		s.offline = p.Offline
	case !apperrors.Is(err, apperrors.ErrStorageNotFound):
		s.logger.Warn("读取离线模式失败", zap.Error(err))
	}

	return s
}

// IsOffline 当前是否离线
func (s *Selector) IsOffline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// Forced 是否被配置强制离线
func (s *Selector) Forced() bool {
	return s.opts.Forced
}

// SetOffline 切换模式，强制离线时不能关闭
func (s *Selector) SetOffline(ctx context.Context, offline bool) error {
	s.mu.Lock()

	if s.opts.Forced {
		s.mu.Unlock()
		if !offline {
			return apperrors.New(apperrors.ErrModeForced)
		}
		return nil
	}

	if s.offline == offline {
		s.mu.Unlock()
		return nil
	}

	s.offline = offline
	if data, err := json.Marshal(persisted{Offline: offline}); err == nil {
		if err := s.storage.Set(ctx, s.opts.Key, data); err != nil {
			s.logger.Warn("保存离线模式失败", zap.Error(err))
		}
	}

	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	s.logger.Info("离线模式切换", zap.Bool("offline", offline))
	for _, l := range listeners {
		l.fn(offline)
	}
	return nil
}

// Subscribe 注册回调，返回取消函数
func (s *Selector) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}
