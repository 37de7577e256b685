package storage

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/models"
	"gorm.io/gorm"
)

// DatabaseStorage 数据库存储（storage_entries 表）
type DatabaseStorage struct {
	db *gorm.DB
}

// NewDatabaseStorage 创建数据库存储，表结构由 database.AutoMigrate 负责
func NewDatabaseStorage(db *gorm.DB) *DatabaseStorage {
	return &DatabaseStorage{db: db}
}

// Get 读取数据
func (s *DatabaseStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.StorageEntry

	result := s.db.WithContext(ctx).
		Where("storage_key = ?", key).
		First(&entry)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrStorageNotFound, key)
		}
		return nil, apperrors.Wrap(result.Error, apperrors.ErrDatabaseQuery, key)
	}

	return []byte(entry.Value), nil
}

// Set 存在则更新，不存在则插入
func (s *DatabaseStorage) Set(ctx context.Context, key string, value []byte) error {
	entry := &models.StorageEntry{Key: key}

	result := s.db.WithContext(ctx).
		Where("storage_key = ?", key).
		Assign(map[string]interface{}{
			"value":      string(value),
			"size":       len(value),
			"updated_at": time.Now(),
		}).
		FirstOrCreate(entry)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrStorageWrite, key)
	}
	return nil
}

// Delete 删除数据
func (s *DatabaseStorage) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).
		Where("storage_key = ?", key).
		Delete(&models.StorageEntry{})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrStorageWrite, key)
	}
	return nil
}
