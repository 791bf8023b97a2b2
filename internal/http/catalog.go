package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/database/books"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// Field bounds for book input.
const (
	MaxTitleLength  = 200
	MaxAuthorLength = 200
	MaxISBNLength   = 25
)

// CatalogController handles the per-user book CRUD and search pages.
type CatalogController struct {
	books    *books.Repository
	renderer *renderer
}

// NewCatalogController creates a new catalog controller.
func NewCatalogController(repo *books.Repository, r *renderer) *CatalogController {
	return &CatalogController{books: repo, renderer: r}
}

// validateBookForm checks the required fields and their bounds.
// Returns an empty string when the input is acceptable.
func validateBookForm(title, author, isbn string) string {
	switch {
	case title == "":
		return "Title is required"
	case author == "":
		return "Author is required"
	case isbn == "":
		return "ISBN is required"
	case len(title) > MaxTitleLength:
		return "Title is too long"
	case len(author) > MaxAuthorLength:
		return "Author is too long"
	case len(isbn) > MaxISBNLength:
		return "ISBN is too long"
	}
	return ""
}

// Dashboard renders the signed-in user's book list.
func (cc *CatalogController) Dashboard(c *gin.Context) {
	owned, err := cc.books.ListOwned(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	cc.renderer.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":     "Dashboard",
		"Name":      auth.GetUsername(c),
		"Books":     owned,
		"CSRFToken": auth.GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// AddBookPage renders the add-book form.
func (cc *CatalogController) AddBookPage(c *gin.Context) {
	cc.renderer.render(c, http.StatusOK, "add_book.html", gin.H{
		"Title":     "Add a Book",
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// AddBook creates a record owned by the caller.
func (cc *CatalogController) AddBook(c *gin.Context) {
	title := c.PostForm("title")
	author := c.PostForm("author")
	isbn := c.PostForm("isbn")

	if msg := validateBookForm(title, author, isbn); msg != "" {
		cc.renderer.render(c, http.StatusBadRequest, "add_book.html", gin.H{
			"Title":     "Add a Book",
			"BookTitle": title,
			"Author":    author,
			"ISBN":      isbn,
			"CSRFToken": auth.GetCSRFToken(c),
			"Error":     msg,
		})
		return
	}

	if _, err := cc.books.Create(GetUserID(c), title, author, isbn); err != nil {
		// The specific cause stays in the logs; the user sees the
		// generic failure message.
		status := http.StatusInternalServerError
		if errors.Is(err, books.ErrISBNTaken) {
			status = http.StatusConflict
		}
		cc.renderer.render(c, status, "add_book.html", gin.H{
			"Title":     "Add a Book",
			"BookTitle": title,
			"Author":    author,
			"ISBN":      isbn,
			"CSRFToken": auth.GetCSRFToken(c),
			"Error":     "There was an issue adding your book",
		})
		return
	}

	c.Redirect(http.StatusFound, "/dashboard")
}

// UpdatePage renders the edit form for an owned record.
func (cc *CatalogController) UpdatePage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := cc.books.GetOwned(id, GetUserID(c))
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "load book")
		return
	}

	cc.renderer.render(c, http.StatusOK, "update.html", gin.H{
		"Title":     "Update Book",
		"Book":      book,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// Update overwrites the fields of an owned record.
func (cc *CatalogController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	title := c.PostForm("title")
	author := c.PostForm("author")
	isbn := c.PostForm("isbn")

	if msg := validateBookForm(title, author, isbn); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	if _, err := cc.books.Update(id, GetUserID(c), title, author, isbn); err != nil {
		switch {
		case errors.Is(err, books.ErrNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, books.ErrISBNTaken):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "There was an issue updating your book"})
		default:
			respondInternalError(c, err, "update book")
		}
		return
	}

	c.Redirect(http.StatusFound, "/dashboard")
}

// Delete removes an owned record.
func (cc *CatalogController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.books.Delete(id, GetUserID(c)); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}

	c.Redirect(http.StatusFound, "/dashboard")
}

// SearchPage renders the search form.
func (cc *CatalogController) SearchPage(c *gin.Context) {
	cc.renderer.render(c, http.StatusOK, "search.html", gin.H{
		"Title":     "Search Books",
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// Search runs exactly one of the three criteria against the caller's
// catalog: title substring, author substring, or exact ISBN. Substring
// matching is case-sensitive. No criterion renders the form again.
func (cc *CatalogController) Search(c *gin.Context) {
	userID := GetUserID(c)

	var (
		found []entities.Book
		err   error
	)

	switch {
	case c.PostForm("title") != "":
		found, err = cc.books.SearchTitle(userID, c.PostForm("title"))
	case c.PostForm("author") != "":
		found, err = cc.books.SearchAuthor(userID, c.PostForm("author"))
	case c.PostForm("isbn") != "":
		found, err = cc.books.SearchISBN(userID, c.PostForm("isbn"))
	default:
		cc.SearchPage(c)
		return
	}

	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}

	cc.renderer.render(c, http.StatusOK, "results.html", gin.H{
		"Title": "Search Results",
		"Books": found,
		"Count": len(found),
	})
}

// Results is kept for links to the results view; without a submitted
// criterion it falls back to the search form.
func (cc *CatalogController) Results(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		cc.Search(c)
		return
	}
	cc.SearchPage(c)
}
