// Package routes provides shared API route constants used by the SDK's
// service clients to prevent path mismatches.
package routes

const (
	// AuthRegister creates a new user account.
	AuthRegister = "/auth/register"

	// AuthLogin exchanges email/password credentials for an access/refresh token pair.
	AuthLogin = "/auth/login"

	// AuthRefresh exchanges a refresh token for a new token pair.
	AuthRefresh = "/auth/refresh" // #nosec G101 -- route path, not a credential

	// UsersMe returns the current authenticated user's profile.
	UsersMe = "/users/me"

	// Users updates or deletes the current authenticated user.
	Users = "/users"

	// Books lists the authenticated user's own books.
	Books = "/books"

	// BooksUpload creates a new book listing.
	BooksUpload = "/books/upload"

	// BooksByID updates or deletes a single book owned by the caller.
	BooksByID = "/books/{id}"

	// BooksCover uploads a cover image for a book (multipart).
	BooksCover = "/books/{id}/cover"

	// BooksAll returns the public, searchable, paginated catalog.
	BooksAll = "/books/all"

	// BooksStats returns per-genre catalog counts.
	BooksStats = "/books/stats"
)
