package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/moonbag/internal/config"
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB 内存 sqlite，单连接保证同一个库
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.StorageEntry{}))
	return db
}

// StorageContractSuite 所有实现共用的行为测试
type StorageContractSuite struct {
	suite.Suite
	newStorage func(t *testing.T) Storage
	store      Storage
	ctx        context.Context
}

func (s *StorageContractSuite) SetupTest() {
	s.store = s.newStorage(s.T())
	s.ctx = context.Background()
}

func (s *StorageContractSuite) TestMissingKey() {
	_, err := s.store.Get(s.ctx, "missing")
	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.ErrStorageNotFound))
}

func (s *StorageContractSuite) TestSetGet() {
	s.Require().NoError(s.store.Set(s.ctx, "state", []byte(`{"version":1}`)))

	value, err := s.store.Get(s.ctx, "state")
	s.Require().NoError(err)
	s.Equal(`{"version":1}`, string(value))
}

func (s *StorageContractSuite) TestOverwrite() {
	s.Require().NoError(s.store.Set(s.ctx, "state", []byte("a")))
	s.Require().NoError(s.store.Set(s.ctx, "state", []byte("bb")))

	value, err := s.store.Get(s.ctx, "state")
	s.Require().NoError(err)
	s.Equal("bb", string(value))
}

func (s *StorageContractSuite) TestDelete() {
	s.Require().NoError(s.store.Set(s.ctx, "mode", []byte("true")))
	s.Require().NoError(s.store.Delete(s.ctx, "mode"))

	_, err := s.store.Get(s.ctx, "mode")
	s.True(apperrors.Is(err, apperrors.ErrStorageNotFound))

	// 删除不存在的键不报错
	s.NoError(s.store.Delete(s.ctx, "mode"))
}

func (s *StorageContractSuite) TestKeysIsolated() {
	s.Require().NoError(s.store.Set(s.ctx, "a", []byte("1")))
	s.Require().NoError(s.store.Set(s.ctx, "b", []byte("2")))

	a, err := s.store.Get(s.ctx, "a")
	s.Require().NoError(err)
	b, err := s.store.Get(s.ctx, "b")
	s.Require().NoError(err)
	s.Equal("1", string(a))
	s.Equal("2", string(b))
}

func TestMemoryStorage(t *testing.T) {
	suite.Run(t, &StorageContractSuite{newStorage: func(t *testing.T) Storage {
		return NewMemoryStorage()
	}})
}

func TestFileStorage(t *testing.T) {
	suite.Run(t, &StorageContractSuite{newStorage: func(t *testing.T) Storage {
		s, err := NewFileStorage(filepath.Join(t.TempDir(), "offline"))
		require.NoError(t, err)
		return s
	}})
}

func TestDatabaseStorage(t *testing.T) {
	suite.Run(t, &StorageContractSuite{newStorage: func(t *testing.T) Storage {
		return NewDatabaseStorage(testDB(t))
	}})
}

func TestCacheStorage(t *testing.T) {
	suite.Run(t, &StorageContractSuite{newStorage: func(t *testing.T) Storage {
		return NewCacheStorage(NewMemoryStorage(), NewMemoryStorage())
	}})
}

func TestMemoryStorage_ReturnsCopy(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'y'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestFileStorage_SanitizesKey(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "../moonbag offline", []byte("{}")))

	_, err = os.Stat(filepath.Join(dir, ".._moonbag_offline.json"))
	assert.NoError(t, err)
}

// failingStorage 写入总是失败
type failingStorage struct {
	*MemoryStorage
}

func (f failingStorage) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("quota exceeded")
}

func TestCacheStorage_BackingFailure(t *testing.T) {
	cache := NewMemoryStorage()
	s := NewCacheStorage(cache, failingStorage{NewMemoryStorage()})
	ctx := context.Background()

	require.Error(t, s.Set(ctx, "k", []byte("v")))

	_, err := cache.Get(ctx, "k")
	assert.True(t, apperrors.Is(err, apperrors.ErrStorageNotFound))
}

func TestCacheStorage_FillsCacheOnRead(t *testing.T) {
	cache := NewMemoryStorage()
	backing := NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, backing.Set(ctx, "k", []byte("v")))

	s := NewCacheStorage(cache, backing)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	cached, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(cached))
}

func TestNew(t *testing.T) {
	s, err := New(&config.StorageConfig{Driver: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, s)

	s, err = New(&config.StorageConfig{Driver: "file", Path: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStorage{}, s)

	s, err = New(&config.StorageConfig{Driver: "database", Cache: true}, testDB(t))
	require.NoError(t, err)
	assert.IsType(t, &CacheStorage{}, s)

	_, err = New(&config.StorageConfig{Driver: "database"}, nil)
	assert.Error(t, err)

	_, err = New(&config.StorageConfig{Driver: "redis"}, nil)
	assert.Error(t, err)
}
