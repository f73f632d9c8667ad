package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/bookhive/library-backend/internal/transport/http/handler"
	"github.com/bookhive/library-backend/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type RouterDeps struct {
	Logger         *slog.Logger
	AuthHandler    *handler.AuthHandler
	BookHandler    *handler.BookHandler
	CatalogHandler *handler.CatalogHandler
	UploadHandler  *handler.UploadHandler
	UploadDir      string
	JWTKey         []byte
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(deps.Logger))
	r.Use(middleware.Metrics())

	// MaxMultipartMemory only bounds in-memory buffering; the upload store
	// enforces the actual size ceiling.
	r.MaxMultipartMemory = 8 << 20

	authMW := middleware.Auth(deps.JWTKey)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Book Store API")
	})

	auth := r.Group("/auth")
	auth.POST("/register", deps.AuthHandler.Register)
	auth.POST("/login", deps.AuthHandler.Login)
	auth.GET("/me", authMW, deps.AuthHandler.Me)
	auth.PUT("/me", authMW, deps.AuthHandler.UpdateMe)

	books := r.Group("/books")
	// Static segments must be registered before the :id wildcard.
	books.GET("/google-books/search", deps.CatalogHandler.Search)
	books.GET("/google-books/:id", deps.CatalogHandler.GetByID)
	books.GET("/borrowed", authMW, deps.BookHandler.ListBorrowed)
	books.GET("", deps.BookHandler.List)
	books.GET("/:id", deps.BookHandler.GetByID)
	books.POST("", authMW, deps.BookHandler.Create)
	books.PUT("/:id", authMW, deps.BookHandler.Update)
	books.DELETE("/:id", authMW, deps.BookHandler.Delete)
	books.POST("/:id/borrow", authMW, deps.BookHandler.Borrow)
	books.POST("/:id/return", authMW, deps.BookHandler.Return)

	r.POST("/upload", authMW, deps.UploadHandler.Upload)
	r.Static("/uploads", deps.UploadDir)

	return r
}
