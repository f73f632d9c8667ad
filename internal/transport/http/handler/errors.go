package handler

const (
	errInternalServer  = "Internal server error"
	errBookNotFound    = "Book not found"
	errBookUnavailable = "Book is already borrowed"
	errBookNotBorrowed = "Book is not borrowed"
	errBookOnLoan      = "Book has an active loan and cannot be removed"
	errNotBorrower     = "Not authorized to return this book"
	errUserNotFound    = "User not found"
	errUserExists      = "User already exists"
	errBadCredentials  = "Invalid credentials"
	errQueryRequired   = "Search query required"
	errUpstreamFailed  = "Failed to fetch books"
	errNoFile          = "No file uploaded"
	errFileTooLarge    = "File exceeds the 10 MB upload limit"
)
