// Package notify implements the notification fan-out: matched catalog
// records are grouped by owner and each distinct owner receives exactly
// one digest of their books.
package notify

import (
	"errors"
	"fmt"

	"github.com/mrlokans/bookcatalog/internal/database/books"
)

// MaxSelectedISBNs is the number of ISBN slots on the selection form.
const MaxSelectedISBNs = 4

var (
	// ErrEmptyStore is returned by AllDigests when there are no books at all.
	ErrEmptyStore = errors.New("no books in the catalog")

	// ErrNoSelection is returned when every ISBN slot was left blank.
	ErrNoSelection = errors.New("no ISBNs provided")
)

// UnknownISBNError aborts a selected fan-out and carries the ISBN that
// had no matching record.
type UnknownISBNError struct {
	ISBN string
}

func (e *UnknownISBNError) Error() string {
	return fmt.Sprintf("no record found for ISBN %s", e.ISBN)
}

// Entry is one digest line. The JSON field names are part of the mail
// body format.
type Entry struct {
	Title  string `json:"Book"`
	Author string `json:"author"`
	ISBN   string `json:"ISBN"`
}

// Digest is the aggregated notification for one owner.
type Digest struct {
	Recipient string  `json:"recipient"`
	Entries   []Entry `json:"entries"`
}

// BookSource is the slice of the books repository the fan-out needs.
type BookSource interface {
	GetByISBNWithOwner(isbn string) (*books.OwnedBook, error)
	ListAllWithOwners() ([]books.OwnedBook, error)
	ListOwnedByEmail(email string) ([]books.OwnedBook, error)
}

// Service builds per-owner digests from the catalog.
type Service struct {
	books BookSource
}

// NewService creates a new fan-out service.
func NewService(source BookSource) *Service {
	return &Service{books: source}
}

// SelectedDigests resolves the given ISBNs (blank entries are skipped)
// and builds one digest per distinct owner among the matches. Any
// non-blank ISBN without a matching record aborts the whole operation
// with an UnknownISBNError naming it.
//
// Each digest lists the owner's entire catalog, not just the requested
// ISBNs. That matches the historical behavior of the mailer and is
// relied on by recipients treating the mail as a full inventory.
func (s *Service) SelectedDigests(isbns []string) ([]Digest, error) {
	var matched []books.OwnedBook
	for _, isbn := range isbns {
		if isbn == "" {
			continue
		}
		row, err := s.books.GetByISBNWithOwner(isbn)
		if err != nil {
			if errors.Is(err, books.ErrNotFound) {
				return nil, &UnknownISBNError{ISBN: isbn}
			}
			return nil, fmt.Errorf("failed to look up ISBN %s: %w", isbn, err)
		}
		matched = append(matched, *row)
	}

	if len(matched) == 0 {
		return nil, ErrNoSelection
	}

	digests := make([]Digest, 0, len(matched))
	for _, email := range uniqueEmails(matched) {
		owned, err := s.books.ListOwnedByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to load books for %s: %w", email, err)
		}
		digests = append(digests, Digest{Recipient: email, Entries: toEntries(owned)})
	}

	return digests, nil
}

// AllDigests groups the whole catalog by owner, one digest per distinct
// owner email in first-encounter order.
func (s *Service) AllDigests() ([]Digest, error) {
	rows, err := s.books.ListAllWithOwners()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyStore
	}

	return groupByOwner(rows), nil
}

// groupByOwner builds one digest per distinct owner email, preserving
// first-encounter order for both the owners and each owner's entries.
func groupByOwner(rows []books.OwnedBook) []Digest {
	emails := uniqueEmails(rows)

	digests := make([]Digest, 0, len(emails))
	for _, email := range emails {
		var entries []Entry
		for _, row := range rows {
			if row.OwnerEmail == email {
				entries = append(entries, Entry{Title: row.Title, Author: row.Author, ISBN: row.ISBN})
			}
		}
		digests = append(digests, Digest{Recipient: email, Entries: entries})
	}

	return digests
}

// uniqueEmails returns the owner emails in first-encounter order with
// duplicates removed.
func uniqueEmails(rows []books.OwnedBook) []string {
	seen := make(map[string]bool, len(rows))
	var emails []string
	for _, row := range rows {
		if !seen[row.OwnerEmail] {
			seen[row.OwnerEmail] = true
			emails = append(emails, row.OwnerEmail)
		}
	}
	return emails
}

func toEntries(rows []books.OwnedBook) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{Title: row.Title, Author: row.Author, ISBN: row.ISBN})
	}
	return entries
}
