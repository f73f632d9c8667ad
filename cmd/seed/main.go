// seed inserts a test reader and a shelf of books into the local dev
// database. Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bookhive/library-backend/internal/infrastructure/postgres"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	seedEmail    = "reader@test.local"
	seedPassword = "password123"
)

type bookSpec struct {
	title   string
	author  string
	year    int
	genres  []string
	borrow  bool // seed an active loan for the test reader
	overdue bool // backdate the loan so the sweep picks it up
}

var books = []bookSpec{
	{"The Go Programming Language", "Alan A. A. Donovan, Brian W. Kernighan", 2015, []string{"programming", "reference"}, false, false},
	{"Designing Data-Intensive Applications", "Martin Kleppmann", 2017, []string{"databases", "distributed systems"}, false, false},
	{"The Pragmatic Programmer", "Andrew Hunt, David Thomas", 1999, []string{"programming"}, false, false},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", 1968, []string{"fantasy"}, true, false},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", 1969, []string{"science fiction"}, true, true},
	{"Kafka on the Shore", "Haruki Murakami", 2002, []string{"fiction", "magical realism"}, false, false},
	{"Piranesi", "Susanna Clarke", 2020, []string{"fantasy", "mystery"}, false, false},
	{"The Name of the Wind", "Patrick Rothfuss", 2007, []string{"fantasy"}, false, false},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	var userID string
	err = pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ('Seed Reader', $1, $2)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id`,
		seedEmail, string(hash),
	).Scan(&userID)
	if err != nil {
		log.Fatalf("upsert user: %v", err)
	}

	var inserted, skipped, borrowed int
	for _, spec := range books {
		var bookID string
		err := pool.QueryRow(ctx, `
			INSERT INTO books (title, author, description, publication_year, genres, is_available)
			SELECT $1, $2, '', $3, $4, $5
			WHERE NOT EXISTS (SELECT 1 FROM books WHERE title = $1 AND author = $2)
			RETURNING id`,
			spec.title, spec.author, spec.year, spec.genres, !spec.borrow,
		).Scan(&bookID)
		if errors.Is(err, pgx.ErrNoRows) {
			// Already seeded on a previous run.
			skipped++
			continue
		}
		if err != nil {
			log.Fatalf("insert book %q: %v", spec.title, err)
		}
		inserted++

		if !spec.borrow {
			continue
		}

		borrowedAt := time.Now()
		if spec.overdue {
			// Backdated past the loan period so the next sweep flips it.
			borrowedAt = borrowedAt.Add(-20 * 24 * time.Hour)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO loans (book_id, user_id, borrowed_at, due_at, status)
			VALUES ($1, $2, $3, $4, 'active')`,
			bookID, userID, borrowedAt, borrowedAt.Add(14*24*time.Hour),
		)
		if err != nil {
			log.Fatalf("insert loan for %q: %v", spec.title, err)
		}
		borrowed++
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:     %s / %s\n", seedEmail, seedPassword)
	fmt.Printf("  Books:    %d inserted, %d already present\n", inserted, skipped)
	fmt.Printf("  Loans:    %d active (one overdue once the sweep runs)\n", borrowed)
}
