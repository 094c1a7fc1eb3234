package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/backoffice/pkg/config"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

type note struct {
	ID   uint `gorm:"primaryKey"`
	Text string
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := &config.DBConfig{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "data", "test.db"),
		LogLevel: logger.Silent,
	}

	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, MigrateModels(db, &note{}))
	require.NoError(t, db.Create(&note{Text: "hello"}).Error)

	var count int64
	require.NoError(t, db.Model(&note{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DBConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestMigrateWithoutDatabase(t *testing.T) {
	assert.Error(t, MigrateModels(nil, &note{}))
}
