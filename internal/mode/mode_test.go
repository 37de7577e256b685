package mode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/storage"
	"go.uber.org/zap"
)

const testKey = "moonbag-offline-mode"

func TestSelector_Default(t *testing.T) {
	ctx := context.Background()

	s := NewSelector(ctx, storage.NewMemoryStorage(), zap.NewNop(), Options{Key: testKey, Default: true})
	assert.True(t, s.IsOffline())
	assert.False(t, s.Forced())

	s = NewSelector(ctx, storage.NewMemoryStorage(), zap.NewNop(), Options{Key: testKey})
	assert.False(t, s.IsOffline())
}

func TestSelector_PersistsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	s := NewSelector(ctx, store, zap.NewNop(), Options{Key: testKey, Default: true})

	var got []bool
	unsubscribe := s.Subscribe(func(offline bool) { got = append(got, offline) })

	require.NoError(t, s.SetOffline(ctx, false))
	assert.False(t, s.IsOffline())
	assert.Equal(t, []bool{false}, got)

	// 没有变化不通知
	require.NoError(t, s.SetOffline(ctx, false))
	assert.Len(t, got, 1)

	reloaded := NewSelector(ctx, store, zap.NewNop(), Options{Key: testKey, Default: true})
	assert.False(t, reloaded.IsOffline())

	unsubscribe()
	require.NoError(t, s.SetOffline(ctx, true))
	assert.Len(t, got, 1)
}

func TestSelector_Forced(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Set(ctx, testKey, []byte(`{"offline":false}`)))

	s := NewSelector(ctx, store, zap.NewNop(), Options{Key: testKey, Forced: true})
	assert.True(t, s.IsOffline())
	assert.True(t, s.Forced())

	err := s.SetOffline(ctx, false)
	assert.True(t, apperrors.Is(err, apperrors.ErrModeForced))
	assert.True(t, s.IsOffline())

	assert.NoError(t, s.SetOffline(ctx, true))
}

func TestSelector_CorruptValue(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Set(ctx, testKey, []byte("nope")))

	s := NewSelector(ctx, store, zap.NewNop(), Options{Key: testKey, Default: true})
	assert.True(t, s.IsOffline())
}
