package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bookhive/library-backend/internal/domain"
	"github.com/bookhive/library-backend/internal/usecase"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	create      func(ctx context.Context, user *domain.User) (*domain.User, error)
	findByID    func(ctx context.Context, id string) (*domain.User, error)
	findByEmail func(ctx context.Context, email string) (*domain.User, error)
	update      func(ctx context.Context, user *domain.User) (*domain.User, error)
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return r.create(ctx, user)
}
func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id)
}
func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findByEmail(ctx, email)
}
func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	return r.update(ctx, user)
}

const testJWTKey = "test-jwt-secret-at-least-32-chars!!"

func newAuthUsecase(users *fakeUserRepo, loans *fakeLoanRepo) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(users, loans, []byte(testJWTKey))
}

func parseToken(t *testing.T, signed string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(signed, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected method")
		}
		return []byte(testJWTKey), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("returned JWT is invalid: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("could not cast claims")
	}
	return claims
}

// ---- Register ----

func TestRegister_HashesPasswordAndSignsToken(t *testing.T) {
	var storedHash string

	users := &fakeUserRepo{
		create: func(_ context.Context, user *domain.User) (*domain.User, error) {
			storedHash = user.PasswordHash
			user.ID = "user-1"
			return user, nil
		},
	}

	signed, err := newAuthUsecase(users, &fakeLoanRepo{}).Register(context.Background(), usecase.RegisterInput{
		Name:     "Reader",
		Email:    "reader@example.com",
		Password: "correct horse battery staple",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if storedHash == "correct horse battery staple" {
		t.Fatal("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("correct horse battery staple")) != nil {
		t.Error("stored hash does not match the password")
	}

	claims := parseToken(t, signed)
	if claims["sub"] != "user-1" {
		t.Errorf("sub = %v, want user-1", claims["sub"])
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatal("exp claim missing")
	}
	wantExp := time.Now().Add(24 * time.Hour)
	if got := time.Unix(int64(exp), 0); got.Before(wantExp.Add(-time.Minute)) || got.After(wantExp.Add(time.Minute)) {
		t.Errorf("token expiry %v not ~24h out", got)
	}
}

func TestRegister_DuplicateEmail_Propagates(t *testing.T) {
	users := &fakeUserRepo{
		create: func(_ context.Context, _ *domain.User) (*domain.User, error) {
			return nil, domain.ErrEmailTaken
		},
	}

	_, err := newAuthUsecase(users, &fakeLoanRepo{}).Register(context.Background(), usecase.RegisterInput{
		Name: "Reader", Email: "taken@example.com", Password: "hunter2hunter2",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("want ErrEmailTaken, got %v", err)
	}
}

// ---- Login ----

func loginUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &domain.User{ID: "user-1", Email: "reader@example.com", PasswordHash: string(hash)}
}

func TestLogin_ValidCredentials_ReturnsToken(t *testing.T) {
	user := loginUser(t, "opensesame123")
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
	}

	signed, err := newAuthUsecase(users, &fakeLoanRepo{}).Login(context.Background(), user.Email, "opensesame123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims := parseToken(t, signed); claims["sub"] != user.ID {
		t.Errorf("sub = %v, want %q", claims["sub"], user.ID)
	}
}

func TestLogin_WrongPassword_ReturnsInvalidCredentials(t *testing.T) {
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return loginUser(t, "opensesame123"), nil
		},
	}

	_, err := newAuthUsecase(users, &fakeLoanRepo{}).Login(context.Background(), "reader@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail_ReturnsInvalidCredentials(t *testing.T) {
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}

	_, err := newAuthUsecase(users, &fakeLoanRepo{}).Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

// ---- Profile ----

func TestProfile_DerivesBorrowedBooksFromLoans(t *testing.T) {
	users := &fakeUserRepo{
		findByID: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Name: "Reader", Email: "reader@example.com"}, nil
		},
	}
	loans := &fakeLoanRepo{
		activeBookIDs: func(_ context.Context, userID string) ([]string, error) {
			if userID != "user-1" {
				t.Errorf("borrowed books fetched for %s, want user-1", userID)
			}
			return []string{"book-1", "book-2"}, nil
		},
	}

	profile, err := newAuthUsecase(users, loans).Profile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profile.BorrowedBooks) != 2 {
		t.Errorf("borrowed books = %v, want two entries", profile.BorrowedBooks)
	}
}
