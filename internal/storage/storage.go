// Package storage 提供离线状态的持久化：按键保存一段 JSON 数据。
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/wfunc/moonbag/internal/config"
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"gorm.io/gorm"
)

// Storage 键值持久化接口
type Storage interface {
	// Get 读取数据，键不存在时返回 ErrStorageNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// New 根据配置创建存储
func New(cfg *config.StorageConfig, db *gorm.DB) (Storage, error) {
	var (
		backing Storage
		err     error
	)

	switch cfg.Driver {
	case "memory":
		return NewMemoryStorage(), nil
	case "file":
		backing, err = NewFileStorage(cfg.Path)
		if err != nil {
			return nil, err
		}
	case "database":
		if db == nil {
			return nil, apperrors.New(apperrors.ErrDatabaseConnect, "database storage requires a connection")
		}
		backing = NewDatabaseStorage(db)
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Driver)
	}

	if cfg.Cache {
		return NewCacheStorage(NewMemoryStorage(), backing), nil
	}
	return backing, nil
}

// MemoryStorage 内存存储（用于测试和缓存）
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage 创建内存存储
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[string][]byte),
	}
}

// Get 读取数据（返回副本）
func (s *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, apperrors.New(apperrors.ErrStorageNotFound, key)
	}
	return append([]byte(nil), value...), nil
}

// Set 写入数据
func (s *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete 删除数据
func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// CacheStorage 带缓存的存储（装饰器模式）
type CacheStorage struct {
	cache   Storage
	backing Storage
}

// NewCacheStorage 创建带缓存的存储
func NewCacheStorage(cache, backing Storage) *CacheStorage {
	return &CacheStorage{
		cache:   cache,
		backing: backing,
	}
}

// Get 优先从缓存读取
func (s *CacheStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if value, err := s.cache.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := s.backing.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	// 缓存失败不影响主流程
	_ = s.cache.Set(ctx, key, value)

	return value, nil
}

// Set 先写存储层，再写缓存
func (s *CacheStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.backing.Set(ctx, key, value); err != nil {
		_ = s.cache.Delete(ctx, key)
		return err
	}

	_ = s.cache.Set(ctx, key, value)
	return nil
}

// Delete 同时删除缓存和存储
func (s *CacheStorage) Delete(ctx context.Context, key string) error {
	_ = s.cache.Delete(ctx, key)
	return s.backing.Delete(ctx, key)
}
