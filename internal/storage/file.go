package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	apperrors "github.com/wfunc/moonbag/internal/errors"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileStorage 每个键一个 JSON 文件
type FileStorage struct {
	mu      sync.RWMutex
	dataDir string
}

// NewFileStorage 创建文件存储，dataDir 不存在时自动创建
func NewFileStorage(dataDir string) (*FileStorage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageWrite, dataDir)
	}
	return &FileStorage{dataDir: dataDir}, nil
}

func (s *FileStorage) filePath(key string) string {
	return filepath.Join(s.dataDir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Get 读取文件
func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.New(apperrors.ErrStorageNotFound, key)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStorageRead, key)
	}
	return data, nil
}

// Set 先写临时文件再改名，避免写到一半的文件被读到
func (s *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.filePath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageWrite, key)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.Wrap(err, apperrors.ErrStorageWrite, key)
	}
	return nil
}

// Delete 删除文件，文件不存在不报错
func (s *FileStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath(key)); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, apperrors.ErrStorageWrite, key)
	}
	return nil
}
