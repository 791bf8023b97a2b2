package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/database/books"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// setupCatalogTest builds a gin engine with the catalog routes and a
// middleware that signs every request in as the given user.
func setupCatalogTest(t *testing.T, userID uint) (*gin.Engine, *books.Repository, func()) {
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Book{}))

	repo := books.NewRepository(db)
	controller := NewCatalogController(repo, newRenderer(""))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Set(auth.ContextKeyUsername, "tester")
		c.Next()
	})
	router.GET("/dashboard", controller.Dashboard)
	router.POST("/add_book", controller.AddBook)
	router.GET("/delete/:id", controller.Delete)
	router.POST("/update/:id", controller.Update)
	router.POST("/search", controller.Search)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return router, repo, cleanup
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCatalog_AddBookRedirects(t *testing.T) {
	router, repo, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	w := postForm(router, "/add_book", url.Values{
		"title":  {"Moby Dick"},
		"author": {"Herman Melville"},
		"isbn":   {"111"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	owned, err := repo.ListOwned(1)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Moby Dick", owned[0].Title)
}

func TestCatalog_AddBookValidation(t *testing.T) {
	router, _, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	w := postForm(router, "/add_book", url.Values{
		"title":  {""},
		"author": {"Herman Melville"},
		"isbn":   {"111"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Title is required")
}

func TestCatalog_AddBookDuplicateISBNConflicts(t *testing.T) {
	router, repo, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	_, err := repo.Create(2, "Walden", "Thoreau", "111")
	require.NoError(t, err)

	w := postForm(router, "/add_book", url.Values{
		"title":  {"Moby Dick"},
		"author": {"Herman Melville"},
		"isbn":   {"111"},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "There was an issue adding your book")
}

func TestCatalog_DashboardScopedToOwner(t *testing.T) {
	router, repo, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	_, err := repo.Create(1, "Mine", "Me", "111")
	require.NoError(t, err)
	_, err = repo.Create(2, "Theirs", "Them", "222")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mine")
	assert.NotContains(t, w.Body.String(), "Theirs")
}

func TestCatalog_DeleteForeignBookNotFound(t *testing.T) {
	router, repo, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	book, err := repo.Create(2, "Theirs", "Them", "222")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/delete/"+itoa(book.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	// The record still belongs to its owner.
	_, err = repo.GetOwned(book.ID, 2)
	assert.NoError(t, err)
}

func TestCatalog_DeleteOwnedBookRedirects(t *testing.T) {
	router, repo, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	book, err := repo.Create(1, "Mine", "Me", "111")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/delete/"+itoa(book.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)

	owned, err := repo.ListOwned(1)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestCatalog_UpdateForeignBookNotFound(t *testing.T) {
	router, repo, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	book, err := repo.Create(2, "Theirs", "Them", "222")
	require.NoError(t, err)

	w := postForm(router, "/update/"+itoa(book.ID), url.Values{
		"title":  {"Hijacked"},
		"author": {"Me"},
		"isbn":   {"222"},
	})

	assert.Equal(t, http.StatusNotFound, w.Code)

	unchanged, err := repo.GetOwned(book.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "Theirs", unchanged.Title)
}

func TestCatalog_SearchTitleCaseSensitive(t *testing.T) {
	router, repo, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	_, err := repo.Create(1, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)

	w := postForm(router, "/search", url.Values{"title": {"Moby"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Moby Dick")

	w = postForm(router, "/search", url.Values{"title": {"moby"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Moby Dick")
}

func TestCatalog_SearchISBNExactMatch(t *testing.T) {
	router, repo, cleanup := setupCatalogTest(t, 1)
	defer cleanup()

	_, err := repo.Create(1, "Moby Dick", "Herman Melville", "111")
	require.NoError(t, err)

	w := postForm(router, "/search", url.Values{"isbn": {"111"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Moby Dick")

	w = postForm(router, "/search", url.Values{"isbn": {"11"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Moby Dick")
}
