package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID    = "auth_user_id"
	ContextKeyUsername  = "auth_username"
	ContextKeyUserEmail = "auth_user_email"
)

// Middleware is the require-login guard. Every route outside the public
// set needs a valid session.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	publicPaths := map[string]bool{
		"/":            true,
		"/health":      true,
		"/login":       true,
		"/signup":      true,
		"/static":      true, // Static files prefix
		"/favicon.ico": true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
// Unauthenticated browsers are redirected to the login page; JSON
// clients get a 401.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		if user := m.trySessionAuth(c); user != nil {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUsername, user.Username)
			c.Set(ContextKeyUserEmail, user.Email)
			c.Next()
			return
		}

		if isJSONRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
		c.Abort()
	}
}

func (m *Middleware) isPublicPath(path string) bool {
	if m.publicPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// trySessionAuth resolves a session cookie to its account.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}

	return user
}

// isJSONRequest reports whether the client expects JSON rather than a
// login redirect.
func isJSONRequest(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") ||
		strings.HasPrefix(c.Request.URL.Path, "/books") ||
		strings.HasPrefix(c.Request.URL.Path, "/tasks")
}

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns 0 when no user is authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetUsername extracts the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if s, ok := name.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserEmail extracts the authenticated user's email from the context.
func GetUserEmail(c *gin.Context) string {
	if email, exists := c.Get(ContextKeyUserEmail); exists {
		if s, ok := email.(string); ok {
			return s
		}
	}
	return ""
}
