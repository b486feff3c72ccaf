package database_test

import (
	"path/filepath"
	"testing"

	"notice-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notices.db")

	db, err := database.NewDatabase(path)
	require.NoError(t, err)

	// Schema is in place.
	require.NoError(t, db.Create(&database.NoticeType{NoticeType: database.NoticeTypeMod}).Error)
	require.NoError(t, database.Close(db))

	// Reconnecting to an already-migrated database is non-destructive.
	db, err = database.NewDatabase(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, database.Close(db)) }()

	var count int64
	require.NoError(t, db.Model(&database.NoticeType{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewDatabaseEmptyURL(t *testing.T) {
	_, err := database.NewDatabase("")
	assert.Error(t, err)
}
