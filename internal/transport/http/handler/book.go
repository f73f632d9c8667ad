package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookhive/library-backend/internal/domain"
	"github.com/bookhive/library-backend/internal/metrics"
	"github.com/bookhive/library-backend/internal/repository"
	"github.com/bookhive/library-backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

type bookUsecaser interface {
	Create(ctx context.Context, input usecase.BookInput) (*domain.Book, error)
	Get(ctx context.Context, id string) (*usecase.BookDetail, error)
	List(ctx context.Context) ([]*domain.Book, error)
	Update(ctx context.Context, id string, input usecase.BookInput) (*domain.Book, error)
	Delete(ctx context.Context, id string) error
}

type loanUsecaser interface {
	Borrow(ctx context.Context, bookID, userID string) (*usecase.BorrowResult, error)
	Return(ctx context.Context, bookID, userID string) (*usecase.BorrowResult, error)
	ListBorrowed(ctx context.Context, userID string) ([]*repository.LoanWithBook, error)
}

type BookHandler struct {
	bookUsecase bookUsecaser
	loanUsecase loanUsecaser
	logger      *slog.Logger
}

func NewBookHandler(bookUsecase bookUsecaser, loanUsecase loanUsecaser, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		bookUsecase: bookUsecase,
		loanUsecase: loanUsecase,
		logger:      logger.With("component", "book_handler"),
	}
}

type bookRequest struct {
	Title           string   `json:"title"            binding:"required"`
	Author          string   `json:"author"           binding:"required"`
	Description     string   `json:"description"`
	PublicationYear int      `json:"publication_year"`
	Genres          []string `json:"genres"           binding:"max=2"`
	CoverImage      string   `json:"cover_image"`
}

type bookResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Description     string   `json:"description"`
	PublicationYear int      `json:"publication_year"`
	Genres          []string `json:"genres"`
	Genre0          string   `json:"genre0,omitempty"`
	Genre1          string   `json:"genre1,omitempty"`
	CoverImage      string   `json:"cover_image,omitempty"`
	IsAvailable     bool     `json:"isAvailable"`
}

type loanResponse struct {
	ID         string     `json:"id"`
	BookID     string     `json:"bookId"`
	UserID     string     `json:"userId"`
	BorrowedAt time.Time  `json:"borrowedDate"`
	DueAt      time.Time  `json:"dueDate"`
	ReturnedAt *time.Time `json:"returnedDate,omitempty"`
	Status     string     `json:"status"`
}

type borrowResponse struct {
	Loan loanResponse `json:"loan"`
	Book bookResponse `json:"book"`
}

// GET /books
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.bookUsecase.List(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list books", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	c.JSON(http.StatusOK, out)
}

// GET /books/:id
// When the book is out on loan the response carries the loan as well.
func (h *BookHandler) GetByID(c *gin.Context) {
	detail, err := h.bookUsecase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errBookNotFound})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get book", "book_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	if detail.ActiveLoan != nil {
		c.JSON(http.StatusOK, gin.H{
			"book":       toBookResponse(detail.Book),
			"activeLoan": toLoanResponse(detail.ActiveLoan),
		})
		return
	}
	c.JSON(http.StatusOK, toBookResponse(detail.Book))
}

// POST /books
func (h *BookHandler) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := h.bookUsecase.Create(c.Request.Context(), toBookInput(req))
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "create book", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusCreated, toBookResponse(book))
}

// PUT /books/:id
func (h *BookHandler) Update(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := h.bookUsecase.Update(c.Request.Context(), c.Param("id"), toBookInput(req))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errBookNotFound})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "update book", "book_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toBookResponse(book))
}

// DELETE /books/:id
// Loans are never cascaded; deletion is refused while one is outstanding.
func (h *BookHandler) Delete(c *gin.Context) {
	err := h.bookUsecase.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errBookNotFound})
		case errors.Is(err, domain.ErrBookOnLoan):
			c.JSON(http.StatusConflict, gin.H{"error": errBookOnLoan})
		default:
			h.logger.ErrorContext(c.Request.Context(), "delete book", "book_id", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book removed"})
}

// POST /books/:id/borrow
func (h *BookHandler) Borrow(c *gin.Context) {
	result, err := h.loanUsecase.Borrow(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errBookNotFound})
		case errors.Is(err, domain.ErrBookUnavailable):
			metrics.BorrowConflictsTotal.Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": errBookUnavailable})
		default:
			h.logger.ErrorContext(c.Request.Context(), "borrow", "book_id", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	metrics.LoansBorrowedTotal.Inc()
	c.JSON(http.StatusOK, toBorrowResponse(result))
}

// POST /books/:id/return
func (h *BookHandler) Return(c *gin.Context) {
	result, err := h.loanUsecase.Return(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errBookNotFound})
		case errors.Is(err, domain.ErrBookNotBorrowed):
			c.JSON(http.StatusNotFound, gin.H{"error": errBookNotBorrowed})
		case errors.Is(err, domain.ErrNotBorrower):
			c.JSON(http.StatusForbidden, gin.H{"error": errNotBorrower})
		default:
			h.logger.ErrorContext(c.Request.Context(), "return", "book_id", c.Param("id"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	metrics.LoansReturnedTotal.Inc()
	c.JSON(http.StatusOK, toBorrowResponse(result))
}

// GET /books/borrowed
func (h *BookHandler) ListBorrowed(c *gin.Context) {
	loans, err := h.loanUsecase.ListBorrowed(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list borrowed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]borrowResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, borrowResponse{
			Loan: toLoanResponse(l.Loan),
			Book: toBookResponse(l.Book),
		})
	}
	c.JSON(http.StatusOK, out)
}

func toBookInput(req bookRequest) usecase.BookInput {
	return usecase.BookInput{
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		PublicationYear: req.PublicationYear,
		Genres:          req.Genres,
		CoverImage:      req.CoverImage,
	}
}

func toBookResponse(b *domain.Book) bookResponse {
	genres := b.Genres
	if genres == nil {
		genres = []string{}
	}
	return bookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		PublicationYear: b.PublicationYear,
		Genres:          genres,
		Genre0:          b.Genre(0),
		Genre1:          b.Genre(1),
		CoverImage:      b.CoverImage,
		IsAvailable:     b.IsAvailable,
	}
}

func toBorrowResponse(r *usecase.BorrowResult) borrowResponse {
	return borrowResponse{
		Loan: toLoanResponse(r.Loan),
		Book: toBookResponse(r.Book),
	}
}

func toLoanResponse(l *domain.Loan) loanResponse {
	return loanResponse{
		ID:         l.ID,
		BookID:     l.BookID,
		UserID:     l.UserID,
		BorrowedAt: l.BorrowedAt,
		DueAt:      l.DueAt,
		ReturnedAt: l.ReturnedAt,
		Status:     string(l.Status),
	}
}
