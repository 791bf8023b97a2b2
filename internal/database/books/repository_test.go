package books

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

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_books_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestUser(t *testing.T, db *gorm.DB, username, email string) *entities.User {
	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: "not-a-real-hash",
	}
	err := db.Create(user).Error
	require.NoError(t, err)
	return user
}

func TestRepository_CreateAndListOwned(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")
	bob := createTestUser(t, db, "bobby99", "b@y.com")

	_, err := repo.Create(alice.ID, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)
	_, err = repo.Create(bob.ID, "Dune", "Frank Herbert", "333")
	require.NoError(t, err)

	owned, err := repo.ListOwned(alice.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Moby Dick", owned[0].Title)
}

func TestRepository_CreateDuplicateISBN(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")
	bob := createTestUser(t, db, "bobby99", "b@y.com")

	_, err := repo.Create(alice.ID, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)

	// ISBN uniqueness is store-wide: a different owner cannot claim it
	_, err = repo.Create(bob.ID, "Another Title", "Another Author", "111")
	assert.ErrorIs(t, err, ErrISBNTaken)

	var count int64
	db.Model(&entities.Book{}).Where("isbn = ?", "111").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRepository_AddThenDeleteRoundTrip(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")

	before, err := repo.ListOwned(alice.ID)
	require.NoError(t, err)

	book, err := repo.Create(alice.ID, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(book.ID, alice.ID))

	after, err := repo.ListOwned(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRepository_UpdateRejectsForeignBooks(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")
	bob := createTestUser(t, db, "bobby99", "b@y.com")

	book, err := repo.Create(alice.ID, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)

	_, err = repo.Update(book.ID, bob.ID, "Hijacked", "Nobody", "999")
	assert.ErrorIs(t, err, ErrNotFound)

	// The record is untouched
	unchanged, err := repo.GetOwned(book.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Moby Dick", unchanged.Title)
}

func TestRepository_DeleteRejectsForeignBooks(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")
	bob := createTestUser(t, db, "bobby99", "b@y.com")

	book, err := repo.Create(alice.ID, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(book.ID, bob.ID), ErrNotFound)

	_, err = repo.GetOwned(book.ID, alice.ID)
	assert.NoError(t, err)
}

func TestRepository_UpdateOverwritesFields(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")

	book, err := repo.Create(alice.ID, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)

	updated, err := repo.Update(book.ID, alice.ID, "Moby-Dick; or, The Whale", "H. Melville", "112")
	require.NoError(t, err)
	assert.Equal(t, "Moby-Dick; or, The Whale", updated.Title)
	assert.Equal(t, "112", updated.ISBN)
}

func TestRepository_SearchTitleIsCaseSensitive(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")

	_, err := repo.Create(alice.ID, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)
	_, err = repo.Create(alice.ID, "Les Miserables", "Victor Hugo", "222")
	require.NoError(t, err)

	matches, err := repo.SearchTitle(alice.ID, "Moby")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Moby Dick", matches[0].Title)

	// Containment is case-sensitive
	matches, err = repo.SearchTitle(alice.ID, "moby")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRepository_SearchScopedToOwner(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")
	bob := createTestUser(t, db, "bobby99", "b@y.com")

	_, err := repo.Create(alice.ID, "Dune", "Frank Herbert", "333")
	require.NoError(t, err)
	_, err = repo.Create(bob.ID, "Dune Messiah", "Frank Herbert", "444")
	require.NoError(t, err)

	byTitle, err := repo.SearchTitle(alice.ID, "Dune")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Dune", byTitle[0].Title)

	byAuthor, err := repo.SearchAuthor(bob.ID, "Herbert")
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Dune Messiah", byAuthor[0].Title)

	byISBN, err := repo.SearchISBN(alice.ID, "444")
	require.NoError(t, err)
	assert.Empty(t, byISBN)
}

func TestRepository_ListAllSortingAndPagination(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")

	for _, b := range []struct{ title, author, isbn string }{
		{"Charlie", "Zola", "3"},
		{"Alpha", "Yeats", "1"},
		{"Bravo", "Xenophon", "2"},
	} {
		_, err := repo.Create(alice.ID, b.title, b.author, b.isbn)
		require.NoError(t, err)
	}

	sorted, total, err := repo.ListAll("title", "asc", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, sorted, 3)
	assert.Equal(t, "Alpha", sorted[0].Title)
	assert.Equal(t, "Charlie", sorted[2].Title)

	page, total, err := repo.ListAll("title", "desc", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "Bravo", page[0].Title)

	// Unknown sort field falls back to id
	fallback, _, err := repo.ListAll("bogus", "asc", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "Charlie", fallback[0].Title)
}

func TestRepository_OwnerJoins(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice77", "a@x.com")
	bob := createTestUser(t, db, "bobby99", "b@y.com")

	_, err := repo.Create(alice.ID, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)
	_, err = repo.Create(bob.ID, "Dune", "Frank Herbert", "333")
	require.NoError(t, err)
	_, err = repo.Create(alice.ID, "Les Miserables", "Victor Hugo", "222")
	require.NoError(t, err)

	all, err := repo.ListAllWithOwners()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a@x.com", all[0].OwnerEmail)
	assert.Equal(t, "b@y.com", all[1].OwnerEmail)

	row, err := repo.GetByISBNWithOwner("333")
	require.NoError(t, err)
	assert.Equal(t, "b@y.com", row.OwnerEmail)
	assert.Equal(t, "Dune", row.Title)

	_, err = repo.GetByISBNWithOwner("999")
	assert.ErrorIs(t, err, ErrNotFound)

	owned, err := repo.ListOwnedByEmail("a@x.com")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "Moby Dick", owned[0].Title)
	assert.Equal(t, "Les Miserables", owned[1].Title)
}
