package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bookhive/library-backend/internal/catalog"
	"github.com/bookhive/library-backend/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
)

type fakeSearcher struct {
	searchCalls int
	search      func(ctx context.Context, query string) ([]catalog.Book, error)
	getByID     func(ctx context.Context, id string) (*catalog.Book, error)
}

func (s *fakeSearcher) Search(ctx context.Context, query string) ([]catalog.Book, error) {
	s.searchCalls++
	return s.search(ctx, query)
}

func (s *fakeSearcher) GetByID(ctx context.Context, id string) (*catalog.Book, error) {
	return s.getByID(ctx, id)
}

func newCatalogEngine(s *fakeSearcher) *gin.Engine {
	h := handler.NewCatalogHandler(s, slog.Default())
	r := gin.New()
	r.GET("/books/google-books/search", h.Search)
	r.GET("/books/google-books/:id", h.GetByID)
	return r
}

func TestCatalogSearch_MissingQuery_Returns400WithoutUpstreamCall(t *testing.T) {
	s := &fakeSearcher{
		search: func(_ context.Context, _ string) ([]catalog.Book, error) {
			return nil, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/books/google-books/search", nil)
	newCatalogEngine(s).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if s.searchCalls != 0 {
		t.Errorf("upstream called %d times for a missing query", s.searchCalls)
	}
}

func TestCatalogSearch_UpstreamFailure_Returns502(t *testing.T) {
	s := &fakeSearcher{
		search: func(_ context.Context, _ string) ([]catalog.Book, error) {
			return nil, catalog.ErrUpstream
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/books/google-books/search?q=go", nil)
	newCatalogEngine(s).ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestCatalogSearch_Success_ReturnsMappedBooks(t *testing.T) {
	s := &fakeSearcher{
		search: func(_ context.Context, query string) ([]catalog.Book, error) {
			if query != "le guin" {
				t.Errorf("query = %q, want %q", query, "le guin")
			}
			return []catalog.Book{{ID: "vol-1", Title: "The Dispossessed", IsAvailable: true}}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/books/google-books/search?q=le+guin", nil)
	newCatalogEngine(s).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestCatalogGetByID_UpstreamFailure_Returns502(t *testing.T) {
	s := &fakeSearcher{
		getByID: func(_ context.Context, _ string) (*catalog.Book, error) {
			return nil, catalog.ErrUpstream
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/books/google-books/vol-1", nil)
	newCatalogEngine(s).ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
