package database

import (
	"fmt"

	"github.com/wfunc/moonbag/internal/logger"
	"github.com/wfunc/moonbag/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migrationModels 需要迁移的模型
var migrationModels = []interface{}{
	&models.StorageEntry{},
}

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 多个进程共用一个 sqlite 文件时需要互斥
	if path := sqlitePath(db); path != "" {
		CleanupStaleLocks(path)

		lockFile, err := acquireMigrationLock(path)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")

	for _, model := range migrationModels {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	logger.Info("数据库迁移完成")
	return nil
}
