package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mindxandria/mindxandria-go/routes"
)

// Book is a catalog listing.
type Book struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ShortDescription string  `json:"shortDescription"`
	LongDescription  string  `json:"longDescription,omitempty"`
	Genres           []Genre `json:"genreType,omitempty"`
	CoverImageURL    string  `json:"coverImageUrl,omitempty"`
}

// BookRequest contains the fields to create a listing.
type BookRequest struct {
	Name             string  `json:"name"`
	ShortDescription string  `json:"shortDescription"`
	LongDescription  string  `json:"longDescription,omitempty"`
	Genres           []Genre `json:"genreType,omitempty"`
}

// BookUpdate is a partial update; nil fields are left unchanged.
type BookUpdate struct {
	Name             *string `json:"name,omitempty"`
	ShortDescription *string `json:"shortDescription,omitempty"`
	LongDescription  *string `json:"longDescription,omitempty"`
	Genres           []Genre `json:"genreType,omitempty"`
}

// BookPage is one page of the public catalog.
type BookPage struct {
	Content       []Book `json:"content"`
	TotalPages    int    `json:"totalPages"`
	TotalElements int64  `json:"totalElements"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
}

// SearchOptions narrows and paginates the public catalog.
type SearchOptions struct {
	// Search matches against title and descriptions. Empty returns everything.
	Search string
	// Page is zero-based.
	Page int
	// Size is the page size (server default when 0).
	Size int
}

// BooksClient provides methods for browsing the catalog and managing the
// authenticated user's own listings.
type BooksClient struct {
	client *Client
}

func (b *BooksClient) ensureInitialized() error {
	if b == nil || b.client == nil {
		return fmt.Errorf("sdk: books client not initialized")
	}
	return nil
}

// Mine lists the authenticated user's own books.
func (b *BooksClient) Mine(ctx context.Context) ([]Book, error) {
	if err := b.ensureInitialized(); err != nil {
		return nil, err
	}
	var resp []Book
	if err := b.client.sendAndDecode(ctx, http.MethodGet, routes.Books, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Upload creates a new listing owned by the authenticated user.
func (b *BooksClient) Upload(ctx context.Context, req BookRequest) (Book, error) {
	if err := b.ensureInitialized(); err != nil {
		return Book{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return Book{}, fmt.Errorf("sdk: name is required")
	}
	if strings.TrimSpace(req.ShortDescription) == "" {
		return Book{}, fmt.Errorf("sdk: shortDescription is required")
	}
	var resp Book
	if err := b.client.sendAndDecode(ctx, http.MethodPost, routes.BooksUpload, req, &resp); err != nil {
		return Book{}, err
	}
	return resp, nil
}

// Update modifies an owned listing. Only non-nil fields change.
func (b *BooksClient) Update(ctx context.Context, id string, req BookUpdate) (Book, error) {
	if err := b.ensureInitialized(); err != nil {
		return Book{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Book{}, fmt.Errorf("sdk: book id is required")
	}
	path := strings.Replace(routes.BooksByID, "{id}", url.PathEscape(id), 1)
	var resp Book
	if err := b.client.sendAndDecode(ctx, http.MethodPut, path, req, &resp); err != nil {
		return Book{}, err
	}
	return resp, nil
}

// Delete removes an owned listing.
func (b *BooksClient) Delete(ctx context.Context, id string) error {
	if err := b.ensureInitialized(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("sdk: book id is required")
	}
	path := strings.Replace(routes.BooksByID, "{id}", url.PathEscape(id), 1)
	return b.client.sendAndDecode(ctx, http.MethodDelete, path, nil, nil)
}

// UploadCover attaches a cover image to an owned listing. The file is
// buffered in memory so the request can be reissued after a token refresh.
func (b *BooksClient) UploadCover(ctx context.Context, id, filename string, cover io.Reader) (Book, error) {
	if err := b.ensureInitialized(); err != nil {
		return Book{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Book{}, fmt.Errorf("sdk: book id is required")
	}
	if strings.TrimSpace(filename) == "" {
		return Book{}, fmt.Errorf("sdk: filename is required")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return Book{}, err
	}
	if _, err := io.Copy(part, cover); err != nil {
		return Book{}, err
	}
	if err := form.Close(); err != nil {
		return Book{}, err
	}

	path := strings.Replace(routes.BooksCover, "{id}", url.PathEscape(id), 1)
	resp, err := b.client.do(ctx, apiRequest{
		method:      http.MethodPost,
		path:        path,
		contentType: form.FormDataContentType(),
		body:        buf.Bytes(),
	})
	if err != nil {
		return Book{}, err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return Book{}, decodeAPIError(resp)
	}
	var book Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return Book{}, err
	}
	return book, nil
}

// All returns a page of the public catalog, optionally filtered by a
// search term.
func (b *BooksClient) All(ctx context.Context, opts SearchOptions) (BookPage, error) {
	if err := b.ensureInitialized(); err != nil {
		return BookPage{}, err
	}
	path := routes.BooksAll
	params := url.Values{}
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Size > 0 {
		params.Set("size", strconv.Itoa(opts.Size))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var resp BookPage
	if err := b.client.sendAndDecode(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return BookPage{}, err
	}
	return resp, nil
}

// Stats returns the catalog's per-genre listing counts.
func (b *BooksClient) Stats(ctx context.Context) ([]GenreStat, error) {
	if err := b.ensureInitialized(); err != nil {
		return nil, err
	}
	var resp []GenreStat
	if err := b.client.sendAndDecode(ctx, http.MethodGet, routes.BooksStats, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
