package auth

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookcatalog/internal/config"
	"github.com/mrlokans/bookcatalog/internal/database/users"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

func setupService(t *testing.T) (*Service, *gorm.DB, func()) {
	dbPath := "./test_auth_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	// Minimum cost keeps the bcrypt calls fast in tests
	svc := NewService(users.NewRepository(db), config.Auth{BcryptCost: 4})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return svc, db, cleanup
}

func TestService_RegisterStoresNoPlaintext(t *testing.T) {
	svc, db, cleanup := setupService(t)
	defer cleanup()

	user, err := svc.Register("alice77", "a@x.com", "correct horse battery")
	require.NoError(t, err)

	var stored entities.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.NotEqual(t, "correct horse battery", stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "correct horse")
	assert.NoError(t, CheckPassword("correct horse battery", stored.PasswordHash))
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _, cleanup := setupService(t)
	defer cleanup()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"missing username", "", "a@x.com", "longenough", ErrUsernameRequired},
		{"missing email", "alice77", "", "longenough", ErrEmailRequired},
		{"missing password", "alice77", "a@x.com", "", ErrPasswordRequired},
		{"short username", "ab", "a@x.com", "longenough", ErrUsernameLength},
		{"long username", strings.Repeat("a", 51), "a@x.com", "longenough", ErrUsernameLength},
		{"bad email", "alice77", "not-an-email", "longenough", ErrEmailInvalid},
		{"long email", "alice77", strings.Repeat("a", 45) + "@x.com", "longenough", ErrEmailInvalid},
		{"short password", "alice77", "a@x.com", "short", ErrPasswordTooShort},
		{"long password", "alice77", "a@x.com", strings.Repeat("p", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_RegisterRejectsDuplicates(t *testing.T) {
	svc, _, cleanup := setupService(t)
	defer cleanup()

	_, err := svc.Register("alice77", "a@x.com", "longenough")
	require.NoError(t, err)

	_, err = svc.Register("alice77", "other@x.com", "longenough")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register("someoneelse", "a@x.com", "longenough")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestService_Authenticate(t *testing.T) {
	svc, _, cleanup := setupService(t)
	defer cleanup()

	_, err := svc.Register("alice77", "a@x.com", "longenough")
	require.NoError(t, err)

	user, err := svc.Authenticate("alice77", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "alice77", user.Username)

	_, err = svc.Authenticate("alice77", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = svc.Authenticate("nobody", "longenough")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
