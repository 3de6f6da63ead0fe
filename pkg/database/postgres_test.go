package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/pkg/config"
)

func TestConfigureAppliesPoolLimits(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "postgres")
	Configure(db, config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 3})

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}
