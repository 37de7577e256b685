package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/moonbag/internal/config"
	"github.com/wfunc/moonbag/internal/models"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, IsConnected(db))

	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable(&models.StorageEntry{}))
	assert.Empty(t, sqlitePath(db))
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moonbag.db")
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: path, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, path, sqlitePath(db))
	require.NoError(t, AutoMigrate(db))

	// 迁移结束后锁文件被删除
	_, err = os.Stat(path + lockSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
	assert.False(t, IsConnected(nil))
}

func TestAutoMigrate_Nil(t *testing.T) {
	assert.Error(t, AutoMigrate(nil))
}

func TestMigrationLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moonbag.db")

	lock, err := acquireMigrationLock(path)
	require.NoError(t, err)
	_, err = os.Stat(path + lockSuffix)
	require.NoError(t, err)

	releaseMigrationLock(lock)
	_, err = os.Stat(path + lockSuffix)
	assert.True(t, os.IsNotExist(err))

	releaseMigrationLock(nil)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, parseLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, parseLogLevel("error"))
	assert.Equal(t, gormlogger.Info, parseLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, parseLogLevel(""))
}
