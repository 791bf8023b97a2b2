// Package books provides database operations for catalog entries.
//
// All read and write operations that act on behalf of a signed-in user
// take the owning user's ID and are scoped to it. Store-wide reads
// (the JSON API and the notification fan-out) are explicit about it in
// their names.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	owned, err := repo.ListOwned(userID)
package books

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/bookcatalog/internal/entities"
)

var (
	// ErrNotFound is returned when no book matches the lookup. Lookups
	// scoped to an owner return it for foreign books too, so callers
	// cannot distinguish "absent" from "not yours".
	ErrNotFound = errors.New("book not found")

	// ErrISBNTaken is returned when a write would violate the store-wide
	// ISBN uniqueness constraint.
	ErrISBNTaken = errors.New("isbn already registered")
)

// sortColumns maps the API sort fields to their columns.
var sortColumns = map[string]string{
	"id":     "id",
	"title":  "title",
	"author": "author",
	"isbn":   "isbn",
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new book owned by the given user.
func (r *Repository) Create(userID uint, title, author, isbn string) (*entities.Book, error) {
	book := &entities.Book{
		Title:  title,
		Author: author,
		ISBN:   isbn,
		UserID: userID,
	}

	if err := r.db.Create(book).Error; err != nil {
		return nil, translateConstraint(err)
	}

	return book, nil
}

// GetOwned retrieves a book by ID, restricted to the given owner.
func (r *Repository) GetOwned(id, userID uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByID retrieves a book by ID regardless of owner. Used by the
// catalog API, which is not ownership-filtered.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByISBN retrieves a book by its ISBN regardless of owner.
func (r *Repository) GetByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListOwned retrieves all books owned by the given user.
func (r *Repository) ListOwned(userID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&books).Error
	return books, err
}

// Update overwrites the mutable fields of an owned book.
func (r *Repository) Update(id, userID uint, title, author, isbn string) (*entities.Book, error) {
	book, err := r.GetOwned(id, userID)
	if err != nil {
		return nil, err
	}

	book.Title = title
	book.Author = author
	book.ISBN = isbn

	if err := r.db.Save(book).Error; err != nil {
		return nil, translateConstraint(err)
	}

	return book, nil
}

// Delete removes an owned book.
func (r *Repository) Delete(id, userID uint) error {
	book, err := r.GetOwned(id, userID)
	if err != nil {
		return err
	}
	return r.db.Delete(book).Error
}

// SearchTitle returns the owner's books whose title contains the query.
// Matching is case-sensitive containment, hence instr() rather than
// LIKE (SQLite LIKE folds case for ASCII).
func (r *Repository) SearchTitle(userID uint, query string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("user_id = ? AND instr(title, ?) > 0", userID, query).
		Order("id ASC").Find(&books).Error
	return books, err
}

// SearchAuthor returns the owner's books whose author contains the query.
func (r *Repository) SearchAuthor(userID uint, query string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("user_id = ? AND instr(author, ?) > 0", userID, query).
		Order("id ASC").Find(&books).Error
	return books, err
}

// SearchISBN returns the owner's book exactly matching the ISBN, if any.
func (r *Repository) SearchISBN(userID uint, isbn string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("user_id = ? AND isbn = ?", userID, isbn).Find(&books).Error
	return books, err
}

// ListAll retrieves every book in the store with sorting and pagination,
// plus the total count. Unknown sort fields fall back to id.
func (r *Repository) ListAll(sortBy, order string, limit, offset int) ([]entities.Book, int64, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "id"
	}
	if order != "desc" {
		order = "asc"
	}

	var total int64
	if err := r.db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []entities.Book
	err := r.db.Order(column + " " + order).Limit(limit).Offset(offset).Find(&books).Error
	return books, total, err
}

// ListAllWithOwners retrieves every book joined with its owner's email,
// in insertion order. The fan-out grouping depends on that order.
func (r *Repository) ListAllWithOwners() ([]OwnedBook, error) {
	var rows []OwnedBook
	err := r.db.Model(&entities.Book{}).
		Select("books.id, books.title, books.author, books.isbn, users.email AS owner_email").
		Joins("JOIN users ON users.id = books.user_id").
		Order("books.id ASC").
		Scan(&rows).Error
	return rows, err
}

// GetByISBNWithOwner retrieves a single book with its owner's email.
func (r *Repository) GetByISBNWithOwner(isbn string) (*OwnedBook, error) {
	var row OwnedBook
	result := r.db.Model(&entities.Book{}).
		Select("books.id, books.title, books.author, books.isbn, users.email AS owner_email").
		Joins("JOIN users ON users.id = books.user_id").
		Where("books.isbn = ?", isbn).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &row, nil
}

// ListOwnedByEmail retrieves all books whose owner has the given email.
func (r *Repository) ListOwnedByEmail(email string) ([]OwnedBook, error) {
	var rows []OwnedBook
	err := r.db.Model(&entities.Book{}).
		Select("books.id, books.title, books.author, books.isbn, users.email AS owner_email").
		Joins("JOIN users ON users.id = books.user_id").
		Where("users.email = ?", email).
		Order("books.id ASC").
		Scan(&rows).Error
	return rows, err
}

// OwnedBook is a book row joined with its owner's email.
type OwnedBook struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	ISBN       string `json:"isbn"`
	OwnerEmail string `json:"owner_email"`
}

// translateConstraint maps a SQLite unique-constraint violation on the
// isbn column to ErrISBNTaken.
func translateConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrISBNTaken
	}
	return fmt.Errorf("failed to save book: %w", err)
}
