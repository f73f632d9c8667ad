package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookhive/library-backend/internal/domain"
	"github.com/bookhive/library-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type AuthUsecase struct {
	users  repository.UserRepository
	loans  repository.LoanRepository
	jwtKey []byte
}

func NewAuthUsecase(users repository.UserRepository, loans repository.LoanRepository, jwtKey []byte) *AuthUsecase {
	return &AuthUsecase{users: users, loans: loans, jwtKey: jwtKey}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates the user with a bcrypt-hashed password and returns a
// signed bearer token.
func (u *AuthUsecase) Register(ctx context.Context, input RegisterInput) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return u.signToken(user.ID)
}

// Login verifies credentials and returns a signed bearer token. A missing
// user and a wrong password both map to ErrInvalidCredentials so the
// response does not reveal which one it was.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	return u.signToken(user.ID)
}

// Profile returns the user together with the derived borrowed-books list,
// recomputed from outstanding loans so it can never diverge from them.
type Profile struct {
	User          *domain.User
	BorrowedBooks []string
}

func (u *AuthUsecase) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	bookIDs, err := u.loans.ActiveBookIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("borrowed books: %w", err)
	}

	return &Profile{User: user, BorrowedBooks: bookIDs}, nil
}

type UpdateProfileInput struct {
	Name         string
	Email        string
	ProfileImage string
}

func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*Profile, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.ProfileImage != "" {
		user.ProfileImage = input.ProfileImage
	}

	updated, err := u.users.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	bookIDs, err := u.loans.ActiveBookIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("borrowed books: %w", err)
	}

	return &Profile{User: updated, BorrowedBooks: bookIDs}, nil
}

func (u *AuthUsecase) signToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}
