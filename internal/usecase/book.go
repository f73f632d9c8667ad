package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookhive/library-backend/internal/domain"
	"github.com/bookhive/library-backend/internal/repository"
)

type BookUsecase struct {
	books repository.BookRepository
	loans repository.LoanRepository
}

func NewBookUsecase(books repository.BookRepository, loans repository.LoanRepository) *BookUsecase {
	return &BookUsecase{books: books, loans: loans}
}

type BookInput struct {
	Title           string
	Author          string
	Description     string
	PublicationYear int
	Genres          []string
	CoverImage      string
}

func (u *BookUsecase) Create(ctx context.Context, input BookInput) (*domain.Book, error) {
	if len(input.Genres) > domain.MaxGenres {
		input.Genres = input.Genres[:domain.MaxGenres]
	}
	book, err := u.books.Create(ctx, &domain.Book{
		Title:           input.Title,
		Author:          input.Author,
		Description:     input.Description,
		PublicationYear: input.PublicationYear,
		Genres:          input.Genres,
		CoverImage:      input.CoverImage,
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// BookDetail is a book plus its outstanding loan, populated only while the
// book is unavailable.
type BookDetail struct {
	Book       *domain.Book
	ActiveLoan *domain.Loan
}

func (u *BookUsecase) Get(ctx context.Context, id string) (*BookDetail, error) {
	book, err := u.books.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	detail := &BookDetail{Book: book}
	if !book.IsAvailable {
		loan, err := u.loans.FindActiveByBook(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrLoanNotFound) {
			return nil, fmt.Errorf("find loan: %w", err)
		}
		detail.ActiveLoan = loan
	}
	return detail, nil
}

func (u *BookUsecase) List(ctx context.Context) ([]*domain.Book, error) {
	books, err := u.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (u *BookUsecase) Update(ctx context.Context, id string, input BookInput) (*domain.Book, error) {
	book, err := u.books.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	if len(input.Genres) > domain.MaxGenres {
		input.Genres = input.Genres[:domain.MaxGenres]
	}
	book.Title = input.Title
	book.Author = input.Author
	book.Description = input.Description
	book.PublicationYear = input.PublicationYear
	book.Genres = input.Genres
	book.CoverImage = input.CoverImage

	updated, err := u.books.Update(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return updated, nil
}

func (u *BookUsecase) Delete(ctx context.Context, id string) error {
	if err := u.books.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}
