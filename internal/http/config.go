package http

import (
	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/database"
	"github.com/mrlokans/bookcatalog/internal/database/books"
	"github.com/mrlokans/bookcatalog/internal/notify"
	"github.com/mrlokans/bookcatalog/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router. This replaces a long parameter list in
// NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Books    *books.Repository
	Notifier *notify.Service

	// Authentication
	AuthController *auth.Controller
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// Task queue client
	TaskClient *tasks.Client

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
}
