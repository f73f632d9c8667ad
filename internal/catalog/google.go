// Package catalog proxies the Google Books volumes API and maps its
// responses into the library's book shape.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"
	maxResults     = 20
	requestTimeout = 5 * time.Second
)

// ErrUpstream covers failed calls and malformed upstream payloads alike;
// callers surface it as a 502.
var ErrUpstream = errors.New("catalog upstream failure")

// Book is the field-mapped projection of a Google Books volume. Proxied
// results are always "available" since they are not in the local catalog.
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Description     string `json:"description"`
	PublicationYear int    `json:"publication_year"`
	CoverImage      string `json:"cover_image"`
	IsAvailable     bool   `json:"isAvailable"`
	PreviewLink     string `json:"previewLink"`
	InfoLink        string `json:"infoLink"`
}

// Searcher is the subset handlers need; tests inject a fake.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Book, error)
	GetByID(ctx context.Context, id string) (*Book, error)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// NewClientWithBaseURL exists for tests pointing at an httptest server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		Description   string   `json:"description"`
		PublishedDate string   `json:"publishedDate"`
		ImageLinks    struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
		PreviewLink string `json:"previewLink"`
		InfoLink    string `json:"infoLink"`
	} `json:"volumeInfo"`
}

func (c *Client) Search(ctx context.Context, query string) ([]Book, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprint(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var payload struct {
		Items []volume `json:"items"`
	}
	if err := c.get(ctx, c.baseURL+"/volumes?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Items == nil {
		return nil, fmt.Errorf("%w: no items in response", ErrUpstream)
	}

	books := make([]Book, 0, len(payload.Items))
	for i := range payload.Items {
		books = append(books, mapVolume(&payload.Items[i]))
	}
	return books, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (*Book, error) {
	params := url.Values{}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u := c.baseURL + "/volumes/" + url.PathEscape(id)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var v volume
	if err := c.get(ctx, u, &v); err != nil {
		return nil, err
	}

	book := mapVolume(&v)
	return &book, nil
}

func (c *Client) get(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}

func mapVolume(v *volume) Book {
	author := "Unknown Author"
	if len(v.VolumeInfo.Authors) > 0 {
		author = strings.Join(v.VolumeInfo.Authors, ", ")
	}

	return Book{
		ID:              v.ID,
		Title:           v.VolumeInfo.Title,
		Author:          author,
		Description:     v.VolumeInfo.Description,
		PublicationYear: publicationYear(v.VolumeInfo.PublishedDate),
		CoverImage:      strings.Replace(v.VolumeInfo.ImageLinks.Thumbnail, "http://", "https://", 1),
		IsAvailable:     true,
		PreviewLink:     v.VolumeInfo.PreviewLink,
		InfoLink:        v.VolumeInfo.InfoLink,
	}
}

// publicationYear parses the leading year of a publishedDate, which the API
// returns as "2006", "2006-01" or "2006-01-02".
func publicationYear(published string) int {
	if len(published) < 4 {
		return 0
	}
	t, err := time.Parse("2006", published[:4])
	if err != nil {
		return 0
	}
	return t.Year()
}
