package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"nutrition-estimator/internal/infrastructure/config"
	"nutrition-estimator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Enabled:         true,
			Backend:         "memory",
			MaxSize:         4,
			TTL:             time.Minute,
			CleanupInterval: time.Hour,
		},
	}
}

func TestManagerSetGet(t *testing.T) {
	m := NewManager(testConfig())
	require.NotNil(t, m)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "prompt-a", "onion"))

	got, err := m.Get(ctx, "prompt-a")
	require.NoError(t, err)
	assert.Equal(t, "onion", got)

	_, err = m.Get(ctx, "prompt-b")
	assert.Error(t, err)
}

func TestManagerDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = false

	m := NewManager(cfg)
	assert.Nil(t, m)
	assert.Nil(t, m.GetStats())
	assert.NoError(t, m.Close())
}

func TestManagerCloseStopsCleanup(t *testing.T) {
	m := NewManager(testConfig())
	require.NotNil(t, m)

	require.NoError(t, m.Close())

	// done 通道已關閉，清理協程得以結束
	select {
	case <-m.done:
	default:
		t.Fatal("done channel not closed after Close")
	}

	// 重複關閉不得 panic
	assert.NoError(t, m.Close())
}
