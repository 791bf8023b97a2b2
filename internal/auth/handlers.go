package auth

import (
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// isLocalPath validates that a redirect path is local to prevent open
// redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to the
// dashboard if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/dashboard"
}

// Controller handles the login, signup and logout endpoints.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
	templates      *template.Template
}

// NewController creates a new authentication controller.
func NewController(service *Service, sessionManager *SessionManager, templatesPath string) *Controller {
	// Templates are an external concern; when they are absent the
	// controller falls back to JSON responses.
	pattern := filepath.Join(templatesPath, "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		tmpl = nil
	}

	return &Controller{
		service:        service,
		sessionManager: sessionManager,
		templates:      tmpl,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/signup", ac.SignupPage)
	router.POST("/signup", ac.Signup)
	router.GET("/logout", ac.Logout)
}

// LoginPage renders the login form.
func (ac *Controller) LoginPage(c *gin.Context) {
	if ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	ac.renderTemplate(c, "login.html", gin.H{
		"Title":     "Login",
		"Next":      sanitizeRedirectPath(c.Query("next")),
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Login handles the login form submission. Unknown username and wrong
// password produce the same message.
func (ac *Controller) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	remember := c.PostForm("remember") != ""
	next := sanitizeRedirectPath(c.PostForm("next"))

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		ac.renderTemplate(c, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Invalid username or password",
		})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user, remember); err != nil {
		ac.renderTemplate(c, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Failed to create session",
		})
		return
	}

	c.Redirect(http.StatusFound, next)
}

// SignupPage renders the registration form.
func (ac *Controller) SignupPage(c *gin.Context) {
	ac.renderTemplate(c, "signup.html", gin.H{
		"Title":     "Sign Up",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Signup handles the registration form submission.
func (ac *Controller) Signup(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")

	_, err := ac.service.Register(username, email, password)
	if err != nil {
		errorMsg := "Failed to create account"
		switch {
		case errors.Is(err, ErrUsernameRequired):
			errorMsg = "Username is required"
		case errors.Is(err, ErrEmailRequired):
			errorMsg = "Email is required"
		case errors.Is(err, ErrPasswordRequired):
			errorMsg = "Password is required"
		case errors.Is(err, ErrUsernameLength):
			errorMsg = "Username must be 5-50 characters"
		case errors.Is(err, ErrEmailInvalid):
			errorMsg = "Invalid email address"
		case errors.Is(err, ErrPasswordTooShort):
			errorMsg = "Password must be at least 8 characters"
		case errors.Is(err, ErrPasswordTooLong):
			errorMsg = "Password exceeds maximum length of 72 characters"
		case errors.Is(err, ErrUserExists):
			errorMsg = "Username or email is already registered"
		}

		ac.renderTemplate(c, "signup.html", gin.H{
			"Title":     "Sign Up",
			"Username":  username,
			"Email":     email,
			"CSRFToken": GetCSRFToken(c),
			"Error":     errorMsg,
		})
		return
	}

	ac.renderTemplate(c, "signup_success.html", gin.H{
		"Title":   "Account Created",
		"Message": "New user has been created! Login now!",
	})
}

// Logout destroys the session and redirects to the landing page.
func (ac *Controller) Logout(c *gin.Context) {
	_ = ac.sessionManager.DestroySession(c.Request)
	c.Redirect(http.StatusFound, "/")
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *Controller) renderTemplate(c *gin.Context, name string, data gin.H) {
	if ac.templates == nil || ac.templates.Lookup(name) == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}
