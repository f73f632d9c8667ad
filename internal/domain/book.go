package domain

import (
	"errors"
	"time"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnavailable = errors.New("book is already borrowed")
	ErrBookNotBorrowed = errors.New("book is not borrowed")
	ErrBookOnLoan      = errors.New("book has an active loan")
)

// Book holds up to two genre tags. The legacy API exposed them as
// "genre/0" and "genre/1"; those are derived aliases now, never stored.
type Book struct {
	ID              string
	Title           string
	Author          string
	Description     string
	PublicationYear int
	Genres          []string
	CoverImage      string
	IsAvailable     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Genre returns the i-th genre tag or "" when absent.
func (b *Book) Genre(i int) string {
	if i < 0 || i >= len(b.Genres) {
		return ""
	}
	return b.Genres[i]
}

const MaxGenres = 2
