package users

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookcatalog/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_users_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.User{}))

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return NewRepository(db), cleanup
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.Create("alice77", "a@x.com", "hashed")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	byID, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice77", byID.Username)

	byName, err := repo.GetByUsername("alice77")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestRepository_GetMissing(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByID(42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByUsername("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Exists(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create("alice77", "a@x.com", "hashed")
	require.NoError(t, err)

	exists, err := repo.Exists("alice77", "other@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists("other", "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists("other", "other@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
