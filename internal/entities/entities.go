package entities

import (
	"time"
)

// User is a registered account. Books reference it by foreign key; the
// email column is unique so one address cannot own two accounts.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:50" json:"email"`
	PasswordHash string    `gorm:"size:80" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Book is a catalog entry. ISBN is unique across the whole store, not
// per owner: two accounts cannot register the same ISBN.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200" json:"title"`
	Author    string    `gorm:"size:200" json:"author"`
	ISBN      string    `gorm:"uniqueIndex;size:25" json:"isbn"`
	UserID    uint      `gorm:"index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
