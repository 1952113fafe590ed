package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gwientjes/wall-cli/internal/wall"
)

// postRecord is the wire shape of a posts row. Nullable columns arrive as
// pointers and are normalized to absent when mapping into wall.Post.
type postRecord struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	Message   string  `json:"message"`
	CreatedAt string  `json:"created_at"`
	Image     *string `json:"image"`
}

func (r postRecord) toPost() wall.Post {
	post := wall.Post{
		ID:      r.ID,
		Message: r.Message,
	}
	if r.Name != nil {
		post.Author = *r.Name
	}
	if r.Image != nil {
		post.Image = *r.Image
	}
	if r.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
			post.CreatedAt = ts
		}
	}
	return post
}

// insertRecord is the write shape: id and created_at are assigned by the
// backend and never sent by the client.
type insertRecord struct {
	Name    *string `json:"name"`
	Message string  `json:"message"`
	Image   *string `json:"image"`
}

// Client talks to the wall's hosted backend over its REST interface.
// Construct one in main and inject it; there is no package-level instance.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

func NewClient(baseURL, anonKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    httpClient,
	}
}

// ListPosts fetches up to limit posts ordered by creation time descending.
func (c *Client) ListPosts(ctx context.Context, limit int) ([]wall.Post, error) {
	if limit < 1 {
		limit = 50
	}

	q := make(url.Values)
	q.Set("select", "id,name,message,created_at,image")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/posts?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list posts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("list posts failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var records []postRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode posts response: %w", err)
	}

	posts := make([]wall.Post, 0, len(records))
	for _, record := range records {
		posts = append(posts, record.toPost())
	}
	return posts, nil
}

// InsertPost writes one post record. The backend assigns id and
// created_at; the inserted row is not returned — it reaches the client
// again only through the realtime insert stream.
func (c *Client) InsertPost(ctx context.Context, author, message, image string) error {
	record := insertRecord{Message: message}
	if author != "" {
		record.Name = &author
	}
	if image != "" {
		record.Image = &image
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/rest/v1/posts", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("insert post request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("insert post failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
