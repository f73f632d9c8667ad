package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookhive/library-backend/internal/domain"
	"github.com/bookhive/library-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const loanColumns = `id, book_id, user_id, borrowed_at, due_at, returned_at, status, created_at, updated_at`

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func (r *LoanRepository) CreateActive(ctx context.Context, bookID, userID string, borrowedAt, dueAt time.Time) (*domain.Loan, error) {
	query := `
		INSERT INTO loans (book_id, user_id, borrowed_at, due_at, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING ` + loanColumns

	row := r.pool.QueryRow(ctx, query, bookID, userID, borrowedAt, dueAt)
	loan, err := scanLoan(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// loans_one_active_per_book: somebody else holds the book.
			return nil, domain.ErrBookUnavailable
		}
		return nil, err
	}
	return loan, nil
}

func (r *LoanRepository) FindActiveByBook(ctx context.Context, bookID string) (*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE  book_id = $1
		  AND  status IN ('active', 'overdue')`

	return scanLoan(r.pool.QueryRow(ctx, query, bookID))
}

func (r *LoanRepository) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) (*domain.Loan, error) {
	// Conditioned on the loan still being outstanding: a concurrent return
	// (or a raced sweep followed by return) matches zero rows.
	query := `
		UPDATE loans
		SET    status      = 'returned',
		       returned_at = $2,
		       updated_at  = NOW()
		WHERE  id = $1
		  AND  status IN ('active', 'overdue')
		RETURNING ` + loanColumns

	return scanLoan(r.pool.QueryRow(ctx, query, loanID, returnedAt))
}

func (r *LoanRepository) ListActiveByUser(ctx context.Context, userID string) ([]*repository.LoanWithBook, error) {
	query := `
		SELECT l.id, l.book_id, l.user_id, l.borrowed_at, l.due_at, l.returned_at,
		       l.status, l.created_at, l.updated_at,
		       b.id, b.title, b.author, b.description, b.publication_year,
		       b.genres, b.cover_image, b.is_available, b.created_at, b.updated_at
		FROM loans l
		JOIN books b ON b.id = l.book_id
		WHERE l.user_id = $1
		  AND l.status IN ('active', 'overdue')
		ORDER BY l.due_at ASC, l.id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var out []*repository.LoanWithBook
	for rows.Next() {
		var l domain.Loan
		var b domain.Book
		err := rows.Scan(
			&l.ID, &l.BookID, &l.UserID, &l.BorrowedAt, &l.DueAt, &l.ReturnedAt,
			&l.Status, &l.CreatedAt, &l.UpdatedAt,
			&b.ID, &b.Title, &b.Author, &b.Description, &b.PublicationYear,
			&b.Genres, &b.CoverImage, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan loan with book: %w", err)
		}
		out = append(out, &repository.LoanWithBook{Loan: &l, Book: &b})
	}
	return out, rows.Err()
}

func (r *LoanRepository) ActiveBookIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT book_id FROM loans
		WHERE  user_id = $1
		  AND  status IN ('active', 'overdue')
		ORDER BY borrowed_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("active book ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan book id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *LoanRepository) MarkOverdue(ctx context.Context, now time.Time) ([]*domain.OverdueNotice, error) {
	// status = 'active' in the WHERE makes repeated runs idempotent and
	// keeps the sweep from clobbering a concurrent return.
	query := `
		WITH flipped AS (
			UPDATE loans
			SET    status     = 'overdue',
			       updated_at = NOW()
			WHERE  status = 'active'
			  AND  due_at < $1
			RETURNING id, book_id, user_id, due_at
		)
		SELECT f.id, u.name, u.email, b.title, f.due_at
		FROM flipped f
		JOIN users u ON u.id = f.user_id
		JOIN books b ON b.id = f.book_id`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	defer rows.Close()

	var notices []*domain.OverdueNotice
	for rows.Next() {
		var n domain.OverdueNotice
		if err := rows.Scan(&n.LoanID, &n.UserName, &n.UserEmail, &n.BookTitle, &n.DueAt); err != nil {
			return nil, fmt.Errorf("scan overdue notice: %w", err)
		}
		notices = append(notices, &n)
	}
	return notices, rows.Err()
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(
		&l.ID,
		&l.BookID,
		&l.UserID,
		&l.BorrowedAt,
		&l.DueAt,
		&l.ReturnedAt,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("scan loan: %w", err)
	}
	return &l, nil
}
