package repository

import (
	"context"

	"github.com/bookhive/library-backend/internal/domain"
)

// Usecases depend on interfaces, not concrete implementations, so the
// Postgres layer can be swapped and tests can inject fakes.
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) (*domain.Book, error)
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	List(ctx context.Context) ([]*domain.Book, error)
	Update(ctx context.Context, book *domain.Book) (*domain.Book, error)

	// Delete refuses while an active loan references the book.
	Delete(ctx context.Context, id string) error

	// Acquire atomically flips is_available from true to false. When the
	// book is already unavailable it returns ErrBookUnavailable, so of two
	// concurrent borrows exactly one wins.
	Acquire(ctx context.Context, id string) (*domain.Book, error)

	// Release flips is_available back to true.
	Release(ctx context.Context, id string) (*domain.Book, error)
}
