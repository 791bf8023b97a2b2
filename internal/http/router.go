package http

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(cfg.AuthMiddleware.Handler())

	if _, err := os.Stat(cfg.StaticPath); err == nil {
		router.Static("/static", cfg.StaticPath)
	}

	render := newRenderer(cfg.TemplatesPath)

	catalog := NewCatalogController(cfg.Books, render)
	notifier := NewNotifyController(cfg.Notifier, cfg.TaskClient, render)
	api := NewAPIController(cfg.Books)
	health := NewHealthController(cfg.Database, cfg.Version)

	// Landing and health
	router.GET("/", func(c *gin.Context) {
		render.render(c, http.StatusOK, "index.html", gin.H{
			"Title": "Book Catalog",
		})
	})
	router.GET("/health", health.Status)

	// Auth lifecycle
	cfg.AuthController.RegisterRoutes(router)

	// Catalog pages
	router.GET("/dashboard", catalog.Dashboard)
	router.POST("/dashboard", catalog.Dashboard)
	router.GET("/add_book", catalog.AddBookPage)
	router.POST("/add_book", catalog.AddBook)
	router.GET("/update/:id", catalog.UpdatePage)
	router.POST("/update/:id", catalog.Update)
	router.GET("/delete/:id", catalog.Delete)
	router.GET("/search", catalog.SearchPage)
	router.POST("/search", catalog.Search)
	router.GET("/results", catalog.Results)
	router.POST("/results", catalog.Results)

	// Notification fan-out
	router.GET("/isbn_list", notifier.ISBNListPage)
	router.POST("/isbn_list", notifier.NotifySelected)
	router.GET("/all_isbn", notifier.NotifyAll)
	router.GET("/tasks/:id", notifier.TaskStatus)

	// Catalog API
	router.GET("/books", api.ListBooks)
	router.GET("/books/:id", api.GetBook)

	return router
}
