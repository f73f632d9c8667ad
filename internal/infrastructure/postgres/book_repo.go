package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookhive/library-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, title, author, description, publication_year,
	genres, cover_image, is_available, created_at, updated_at`

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	query := `
		INSERT INTO books (title, author, description, publication_year, genres, cover_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + bookColumns

	row := r.pool.QueryRow(ctx, query,
		book.Title,
		book.Author,
		book.Description,
		book.PublicationYear,
		book.Genres,
		book.CoverImage,
	)
	return scanBook(row)
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	return scanBook(r.pool.QueryRow(ctx, query, id))
}

func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *BookRepository) Update(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	query := `
		UPDATE books
		SET    title            = $2,
		       author           = $3,
		       description      = $4,
		       publication_year = $5,
		       genres           = $6,
		       cover_image      = $7,
		       updated_at       = NOW()
		WHERE id = $1
		RETURNING ` + bookColumns

	row := r.pool.QueryRow(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Description,
		book.PublicationYear,
		book.Genres,
		book.CoverImage,
	)
	return scanBook(row)
}

// Delete removes a book unless an active or overdue loan still references
// it. Historical (returned) loans keep their book_id, which dangles from
// then on; loans carry no FK to books.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM books
		WHERE id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM loans
			WHERE  book_id = $1
			  AND  status IN ('active', 'overdue')
		  )`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish "missing" from "still on loan".
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		if exists {
			return domain.ErrBookOnLoan
		}
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) Acquire(ctx context.Context, id string) (*domain.Book, error) {
	// Conditional flip: of two concurrent borrows, the loser matches zero
	// rows here and never reaches the loan insert.
	query := `
		UPDATE books
		SET    is_available = FALSE,
		       updated_at   = NOW()
		WHERE  id = $1
		  AND  is_available = TRUE
		RETURNING ` + bookColumns

	book, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, domain.ErrBookUnavailable
		}
		return nil, err
	}
	return book, nil
}

func (r *BookRepository) Release(ctx context.Context, id string) (*domain.Book, error) {
	query := `
		UPDATE books
		SET    is_available = TRUE,
		       updated_at   = NOW()
		WHERE  id = $1
		RETURNING ` + bookColumns

	return scanBook(r.pool.QueryRow(ctx, query, id))
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Description,
		&b.PublicationYear,
		&b.Genres,
		&b.CoverImage,
		&b.IsAvailable,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}
