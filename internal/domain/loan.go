package domain

import (
	"errors"
	"time"
)

var (
	ErrLoanNotFound = errors.New("active loan not found")
	ErrNotBorrower  = errors.New("not authorized to return this book")
)

type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
	LoanOverdue  LoanStatus = "overdue"
)

// LoanPeriod is how long a borrowed book may be kept before it is overdue.
const LoanPeriod = 14 * 24 * time.Hour

type Loan struct {
	ID         string
	BookID     string
	UserID     string
	BorrowedAt time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
	Status     LoanStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OverdueNotice is what the sweep hands to the notifier for each loan it
// flips to overdue.
type OverdueNotice struct {
	LoanID    string
	UserName  string
	UserEmail string
	BookTitle string
	DueAt     time.Time
}
