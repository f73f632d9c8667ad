package repository

import (
	"context"
	"time"

	"github.com/bookhive/library-backend/internal/domain"
)

// LoanWithBook pairs an active loan with the current state of its book,
// for the borrowed-books listing.
type LoanWithBook struct {
	Loan *domain.Loan
	Book *domain.Book
}

type LoanRepository interface {
	// CreateActive inserts a new active loan. A partial unique index on
	// (book_id) over outstanding statuses backs the one-loan-per-book
	// invariant; a violation surfaces as ErrBookUnavailable.
	CreateActive(ctx context.Context, bookID, userID string, borrowedAt, dueAt time.Time) (*domain.Loan, error)

	// FindActiveByBook returns the active or overdue loan referencing the
	// book, or ErrLoanNotFound.
	FindActiveByBook(ctx context.Context, bookID string) (*domain.Loan, error)

	// MarkReturned closes the loan, conditioned on it still being
	// outstanding so a concurrent return cannot be applied twice.
	MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) (*domain.Loan, error)

	// ListActiveByUser returns the user's outstanding loans joined with
	// book data, ascending by due date.
	ListActiveByUser(ctx context.Context, userID string) ([]*LoanWithBook, error)

	// ActiveBookIDs is the derived borrowed-books list for a user.
	ActiveBookIDs(ctx context.Context, userID string) ([]string, error)

	// MarkOverdue flips every active loan whose due date has passed and
	// returns notice data for each flipped row. Conditioned on
	// status = 'active' at write time, so a concurrent return wins.
	MarkOverdue(ctx context.Context, now time.Time) ([]*domain.OverdueNotice, error)
}
