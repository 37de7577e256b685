// Package offline 管理离线模式的状态：卡包、游戏、抽珠与盈亏记录。
//
// Store 通过 engine 包的纯函数推进游戏，每次操作整体替换状态，
// 随后持久化并同步通知订阅者。
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/game/random"
	"github.com/wfunc/moonbag/internal/logger"
	"github.com/wfunc/moonbag/internal/storage"
	"go.uber.org/zap"
)

// Options Store 参数
type Options struct {
	StateKey          string
	Version           int
	StartingMoonrocks int
	MaxGamesPerPack   uint64
	Now               func() time.Time
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		StateKey:          "moonbag-offline-state",
		Version:           1,
		StartingMoonrocks: 100,
		MaxGamesPerPack:   10,
		Now:               time.Now,
	}
}

// Listener 状态变更回调，收到的快照只读
type Listener func(st *State)

type subscription struct {
	id int
	fn Listener
}

// Store 离线状态容器
type Store struct {
	mu        sync.Mutex
	state     *State
	storage   storage.Storage
	rng       *random.Random
	logger    *zap.Logger
	opts      Options
	listeners []subscription
	nextSubID int
	lastErr   error
}

// NewStore 创建 Store 并从存储加载状态
func NewStore(ctx context.Context, store storage.Storage, rng *random.Random, log *zap.Logger, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Store{
		storage: store,
		rng:     rng,
		logger:  log.Named("offline"),
		opts:    opts,
	}
	s.state = s.load(ctx)
	return s
}

// load 读取持久化状态，缺失、损坏或版本不符时使用默认状态
func (s *Store) load(ctx context.Context) *State {
	data, err := s.storage.Get(ctx, s.opts.StateKey)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrStorageNotFound) {
			s.logger.Warn("读取离线状态失败，使用默认状态", zap.Error(err))
		}
		return s.defaultState()
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("离线状态解析失败，使用默认状态", zap.Error(err))
		return s.defaultState()
	}
	if st.Version != s.opts.Version {
		s.logger.Info("离线状态版本不符，重置",
			zap.Int("stored", st.Version),
			zap.Int("expected", s.opts.Version),
		)
		return s.defaultState()
	}

	st.normalize()
	s.logger.Info("离线状态已加载",
		zap.Int("packs", len(st.Packs)),
		zap.Int("games", len(st.Games)),
		zap.Int("pulls", len(st.Pulls)),
	)
	return &st
}

func (s *Store) defaultState() *State {
	return DefaultState(s.opts.Version, s.opts.StartingMoonrocks, s.opts.Now())
}

// persist 保存状态，失败只记录日志
func (s *Store) persist(ctx context.Context, st *State) {
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Error("离线状态序列化失败", zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, s.opts.StateKey, data); err != nil {
		s.logger.Warn("离线状态保存失败", zap.Error(err))
	}
}

// apply 在状态副本上执行 fn，成功后提交、持久化并通知订阅者
func (s *Store) apply(ctx context.Context, action string, fn func(next *State) error) error {
	s.mu.Lock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Warn("离线操作失败", zap.String("action", action), zap.Error(err))
		return err
	}

	s.state = next
	s.lastErr = nil
	s.persist(ctx, next)

	snapshot := next.Clone()
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(snapshot)
	}
	return nil
}

// Snapshot 返回当前状态的深拷贝
func (s *Store) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Options 返回 Store 参数
func (s *Store) Options() Options {
	return s.opts
}

// LastError 最近一次操作的错误，成功时为 nil
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Subscribe 注册订阅者，返回取消函数
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
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

// CreatePack 新建卡包，返回卡包ID
func (s *Store) CreatePack(ctx context.Context) (uint64, error) {
	var id uint64
	err := s.apply(ctx, "create_pack", func(next *State) error {
		id = next.NextPackID
		next.NextPackID++
		next.Packs[id] = &Pack{
			ID:        id,
			Moonrocks: s.opts.StartingMoonrocks,
			CreatedAt: s.opts.Now().UnixMilli(),
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("创建卡包", zap.Uint64("pack_id", id))
	return id, nil
}

// Reset 恢复默认状态
func (s *Store) Reset(ctx context.Context) error {
	err := s.apply(ctx, "reset", func(next *State) error {
		*next = *s.defaultState()
		return nil
	})
	if err == nil {
		s.logger.Info("离线状态已重置")
	}
	return err
}

func (s *Store) event(event string, packID, gameID uint64, fields ...zap.Field) {
	logger.LogGameEvent(s.logger, event, packID, gameID, fields...)
}

func errPackNotFound(packID uint64) error {
	return apperrors.Newf(apperrors.ErrPackNotFound, "pack=%d", packID)
}

func errGameNotFound(packID, gameID uint64) error {
	return apperrors.Newf(apperrors.ErrGameNotFound, "pack=%d game=%d", packID, gameID)
}

func notEnoughMoonrocks(cost, moonrocks int) error {
	return apperrors.New(apperrors.ErrPackNotEnoughMoonrocks).
		WithDetails(fmt.Sprintf("cost=%d moonrocks=%d", cost, moonrocks))
}
