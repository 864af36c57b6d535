package database

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/agentcanvas/config"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestNewPoolManager(t *testing.T) {
	db := openMemoryDB(t)

	pm, err := NewPoolManager(db, PoolConfig{
		MaxIdleConns:    2,
		MaxOpenConns:    4,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	defer pm.Close()

	assert.NotNil(t, pm.DB())
	assert.Equal(t, 4, pm.Stats().MaxOpenConnections)
}

func TestNewPoolManagerNilDB(t *testing.T) {
	_, err := NewPoolManager(nil, DefaultPoolConfig(), zap.NewNop())
	require.Error(t, err)
}

func TestPoolManagerPing(t *testing.T) {
	pm, err := NewPoolManager(openMemoryDB(t), DefaultPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, pm.Ping(context.Background()))

	require.NoError(t, pm.Close())
	assert.Error(t, pm.Ping(context.Background()))
}

func TestPoolManagerCloseIdempotent(t *testing.T) {
	pm, err := NewPoolManager(openMemoryDB(t), DefaultPoolConfig(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, pm.Close())
	require.NoError(t, pm.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mongodb"}, zap.NewNop())
	require.Error(t, err)

	_, err = Open(config.DatabaseConfig{}, zap.NewNop())
	require.Error(t, err)
}
