package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/database/books"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// APIController exposes the catalog as a read-only JSON resource. The
// collection is store-wide: every signed-in account can list all
// records, which is how the shared catalog has always worked.
type APIController struct {
	books *books.Repository
}

// NewAPIController creates a new catalog API controller.
func NewAPIController(repo *books.Repository) *APIController {
	return &APIController{books: repo}
}

// ListBooks handles GET /books. Supports sort (id, title, author, isbn),
// order (asc, desc) and limit/offset pagination.
func (api *APIController) ListBooks(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", "id")
	order := c.DefaultQuery("order", "asc")
	limit := parseIntQuery(c, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := parseIntQuery(c, "offset", 0)

	records, total, err := api.books.ListAll(sortBy, order, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    records,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(records)) < total,
	})
}

// GetBook handles GET /books/:id.
func (api *APIController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := api.books.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	c.JSON(http.StatusOK, book)
}
