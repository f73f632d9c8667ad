package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookhive/library-backend/internal/domain"
	"github.com/bookhive/library-backend/internal/repository"
)

// LoanUsecase owns the loan lifecycle: it is the only writer of loans and
// the only code that toggles book availability.
type LoanUsecase struct {
	books  repository.BookRepository
	loans  repository.LoanRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewLoanUsecase(books repository.BookRepository, loans repository.LoanRepository, logger *slog.Logger) *LoanUsecase {
	return &LoanUsecase{
		books:  books,
		loans:  loans,
		logger: logger.With("component", "loan_usecase"),
		now:    time.Now,
	}
}

// BorrowResult bundles the created or closed loan with the book's updated
// state, matching the legacy response shape.
type BorrowResult struct {
	Loan *domain.Loan
	Book *domain.Book
}

// Borrow creates an active loan for (book, user) and flips the book to
// unavailable. The availability flip is a conditional update, so of two
// concurrent borrows exactly one gets past it.
func (u *LoanUsecase) Borrow(ctx context.Context, bookID, userID string) (*BorrowResult, error) {
	if _, err := u.books.GetByID(ctx, bookID); err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	book, err := u.books.Acquire(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("acquire book: %w", err)
	}

	borrowedAt := u.now()
	loan, err := u.loans.CreateActive(ctx, bookID, userID, borrowedAt, borrowedAt.Add(domain.LoanPeriod))
	if err != nil {
		// The book is already flagged unavailable with no loan backing it.
		// Undo the flip; if that fails too, log the stranded state so the
		// record can be repaired.
		if _, relErr := u.books.Release(ctx, bookID); relErr != nil {
			u.logger.ErrorContext(ctx, "borrow left partial state: book unavailable without loan",
				"book_id", bookID, "user_id", userID, "error", err, "release_error", relErr)
		}
		return nil, fmt.Errorf("create loan: %w", err)
	}

	return &BorrowResult{Loan: loan, Book: book}, nil
}

// Return closes the caller's loan on the book. Check order is fixed:
// "book is not borrowed" is reported before ownership, so a return against
// an available book never leaks whether someone else holds it.
func (u *LoanUsecase) Return(ctx context.Context, bookID, userID string) (*BorrowResult, error) {
	book, err := u.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	loan, err := u.loans.FindActiveByBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return nil, domain.ErrBookNotBorrowed
		}
		return nil, fmt.Errorf("find loan: %w", err)
	}
	if book.IsAvailable {
		// Should not happen while the loan exists; treat as not borrowed.
		return nil, domain.ErrBookNotBorrowed
	}

	if loan.UserID != userID {
		return nil, domain.ErrNotBorrower
	}

	returned, err := u.loans.MarkReturned(ctx, loan.ID, u.now())
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			// Lost a race with another return of the same loan.
			return nil, domain.ErrBookNotBorrowed
		}
		return nil, fmt.Errorf("mark returned: %w", err)
	}

	released, err := u.books.Release(ctx, bookID)
	if err != nil {
		u.logger.ErrorContext(ctx, "return left partial state: loan closed but book still unavailable",
			"book_id", bookID, "loan_id", loan.ID, "error", err)
		return nil, fmt.Errorf("release book: %w", err)
	}

	return &BorrowResult{Loan: returned, Book: released}, nil
}

// ListBorrowed returns the user's outstanding loans joined with book data,
// soonest due first.
func (u *LoanUsecase) ListBorrowed(ctx context.Context, userID string) ([]*repository.LoanWithBook, error) {
	loans, err := u.loans.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list borrowed: %w", err)
	}
	return loans, nil
}
