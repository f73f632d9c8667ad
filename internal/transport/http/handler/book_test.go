package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookhive/library-backend/internal/domain"
	"github.com/bookhive/library-backend/internal/repository"
	"github.com/bookhive/library-backend/internal/transport/http/handler"
	"github.com/bookhive/library-backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---- fakes ----

type fakeBookUsecase struct {
	create func(ctx context.Context, input usecase.BookInput) (*domain.Book, error)
	get    func(ctx context.Context, id string) (*usecase.BookDetail, error)
	list   func(ctx context.Context) ([]*domain.Book, error)
	update func(ctx context.Context, id string, input usecase.BookInput) (*domain.Book, error)
	delete func(ctx context.Context, id string) error
}

func (u *fakeBookUsecase) Create(ctx context.Context, input usecase.BookInput) (*domain.Book, error) {
	return u.create(ctx, input)
}
func (u *fakeBookUsecase) Get(ctx context.Context, id string) (*usecase.BookDetail, error) {
	return u.get(ctx, id)
}
func (u *fakeBookUsecase) List(ctx context.Context) ([]*domain.Book, error) { return u.list(ctx) }
func (u *fakeBookUsecase) Update(ctx context.Context, id string, input usecase.BookInput) (*domain.Book, error) {
	return u.update(ctx, id, input)
}
func (u *fakeBookUsecase) Delete(ctx context.Context, id string) error { return u.delete(ctx, id) }

type fakeLoanUsecase struct {
	borrow       func(ctx context.Context, bookID, userID string) (*usecase.BorrowResult, error)
	returnBook   func(ctx context.Context, bookID, userID string) (*usecase.BorrowResult, error)
	listBorrowed func(ctx context.Context, userID string) ([]*repository.LoanWithBook, error)
}

func (u *fakeLoanUsecase) Borrow(ctx context.Context, bookID, userID string) (*usecase.BorrowResult, error) {
	return u.borrow(ctx, bookID, userID)
}
func (u *fakeLoanUsecase) Return(ctx context.Context, bookID, userID string) (*usecase.BorrowResult, error) {
	return u.returnBook(ctx, bookID, userID)
}
func (u *fakeLoanUsecase) ListBorrowed(ctx context.Context, userID string) ([]*repository.LoanWithBook, error) {
	return u.listBorrowed(ctx, userID)
}

// newBookEngine wires the handler behind routes with a stubbed-in user so
// the tests exercise status mapping without the auth middleware.
func newBookEngine(books *fakeBookUsecase, loans *fakeLoanUsecase, userID string) *gin.Engine {
	h := handler.NewBookHandler(books, loans, slog.Default())
	r := gin.New()
	setUser := func(c *gin.Context) { c.Set("userID", userID) }
	r.GET("/books/:id", h.GetByID)
	r.POST("/books/:id/borrow", setUser, h.Borrow)
	r.POST("/books/:id/return", setUser, h.Return)
	r.GET("/books/borrowed", setUser, h.ListBorrowed)
	r.DELETE("/books/:id", setUser, h.Delete)
	return r
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func sampleResult(status domain.LoanStatus) *usecase.BorrowResult {
	borrowed := time.Now()
	return &usecase.BorrowResult{
		Loan: &domain.Loan{
			ID: "loan-1", BookID: "book-1", UserID: "user-1",
			BorrowedAt: borrowed, DueAt: borrowed.Add(domain.LoanPeriod), Status: status,
		},
		Book: &domain.Book{ID: "book-1", Title: "Piranesi", IsAvailable: status == domain.LoanReturned},
	}
}

// ---- Borrow ----

func TestBorrow_Success_Returns200WithLoanAndBook(t *testing.T) {
	loans := &fakeLoanUsecase{
		borrow: func(_ context.Context, bookID, userID string) (*usecase.BorrowResult, error) {
			if bookID != "book-1" || userID != "user-1" {
				t.Errorf("borrow(%s, %s), want (book-1, user-1)", bookID, userID)
			}
			return sampleResult(domain.LoanActive), nil
		},
	}
	w := do(newBookEngine(&fakeBookUsecase{}, loans, "user-1"), http.MethodPost, "/books/book-1/borrow")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Loan struct {
			Status string `json:"status"`
		} `json:"loan"`
		Book struct {
			IsAvailable bool `json:"isAvailable"`
		} `json:"book"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Loan.Status != "active" {
		t.Errorf("loan status = %q, want active", body.Loan.Status)
	}
	if body.Book.IsAvailable {
		t.Error("book still available in borrow response")
	}
}

func TestBorrow_UnavailableBook_Returns400(t *testing.T) {
	loans := &fakeLoanUsecase{
		borrow: func(_ context.Context, _, _ string) (*usecase.BorrowResult, error) {
			return nil, domain.ErrBookUnavailable
		},
	}
	w := do(newBookEngine(&fakeBookUsecase{}, loans, "user-2"), http.MethodPost, "/books/book-1/borrow")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBorrow_MissingBook_Returns404(t *testing.T) {
	loans := &fakeLoanUsecase{
		borrow: func(_ context.Context, _, _ string) (*usecase.BorrowResult, error) {
			return nil, domain.ErrBookNotFound
		},
	}
	w := do(newBookEngine(&fakeBookUsecase{}, loans, "user-1"), http.MethodPost, "/books/missing/borrow")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---- Return ----

func TestReturn_NotTheBorrower_Returns403(t *testing.T) {
	loans := &fakeLoanUsecase{
		returnBook: func(_ context.Context, _, _ string) (*usecase.BorrowResult, error) {
			return nil, domain.ErrNotBorrower
		},
	}
	w := do(newBookEngine(&fakeBookUsecase{}, loans, "user-2"), http.MethodPost, "/books/book-1/return")

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestReturn_NotBorrowed_Returns404(t *testing.T) {
	loans := &fakeLoanUsecase{
		returnBook: func(_ context.Context, _, _ string) (*usecase.BorrowResult, error) {
			return nil, domain.ErrBookNotBorrowed
		},
	}
	w := do(newBookEngine(&fakeBookUsecase{}, loans, "user-1"), http.MethodPost, "/books/book-1/return")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestReturn_Success_MarksLoanReturned(t *testing.T) {
	loans := &fakeLoanUsecase{
		returnBook: func(_ context.Context, _, _ string) (*usecase.BorrowResult, error) {
			res := sampleResult(domain.LoanReturned)
			now := time.Now()
			res.Loan.ReturnedAt = &now
			return res, nil
		},
	}
	w := do(newBookEngine(&fakeBookUsecase{}, loans, "user-1"), http.MethodPost, "/books/book-1/return")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Loan struct {
			Status       string     `json:"status"`
			ReturnedDate *time.Time `json:"returnedDate"`
		} `json:"loan"`
		Book struct {
			IsAvailable bool `json:"isAvailable"`
		} `json:"book"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Loan.Status != "returned" || body.Loan.ReturnedDate == nil {
		t.Errorf("loan = %+v, want returned with returnedDate", body.Loan)
	}
	if !body.Book.IsAvailable {
		t.Error("book not available after return")
	}
}

// ---- GetByID ----

func TestGetBook_Borrowed_IncludesActiveLoan(t *testing.T) {
	books := &fakeBookUsecase{
		get: func(_ context.Context, id string) (*usecase.BookDetail, error) {
			res := sampleResult(domain.LoanActive)
			return &usecase.BookDetail{Book: res.Book, ActiveLoan: res.Loan}, nil
		},
	}
	w := do(newBookEngine(books, &fakeLoanUsecase{}, ""), http.MethodGet, "/books/book-1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["activeLoan"]; !ok {
		t.Error("borrowed book response has no activeLoan")
	}
}

func TestGetBook_Missing_Returns404(t *testing.T) {
	books := &fakeBookUsecase{
		get: func(_ context.Context, _ string) (*usecase.BookDetail, error) {
			return nil, domain.ErrBookNotFound
		},
	}
	w := do(newBookEngine(books, &fakeLoanUsecase{}, ""), http.MethodGet, "/books/missing")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---- Delete ----

func TestDeleteBook_OnlyReturnedLoans_Returns200(t *testing.T) {
	// Returned loans never block deletion; only an outstanding loan does.
	books := &fakeBookUsecase{
		delete: func(_ context.Context, id string) error {
			if id != "book-1" {
				t.Errorf("deleted %s, want book-1", id)
			}
			return nil
		},
	}
	w := do(newBookEngine(books, &fakeLoanUsecase{}, "user-1"), http.MethodDelete, "/books/book-1")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestDeleteBook_ActiveLoan_Returns409(t *testing.T) {
	books := &fakeBookUsecase{
		delete: func(_ context.Context, _ string) error {
			return domain.ErrBookOnLoan
		},
	}
	w := do(newBookEngine(books, &fakeLoanUsecase{}, "user-1"), http.MethodDelete, "/books/book-1")

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}
