package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DetailTimeout bounds a single article detail request.
const DetailTimeout = 10 * time.Second

// wordsPerMinute is the reading speed used for ReadingTime.
const wordsPerMinute = 200

// Article is the full record behind a ticker item.
type Article struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReadingTime estimates how long the body takes to read, at least one minute.
func (a *Article) ReadingTime() time.Duration {
	words := len(strings.Fields(a.Body))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

// APIError is a non-2xx backend response. Message comes from the body when
// the backend sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// DetailURL returns the backend URL of the article with id.
func DetailURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/api/news/" + url.PathEscape(id)
}

// Detail fetches one article from the backend rooted at baseURL.
func Detail(ctx context.Context, baseURL, id string) (*Article, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("detail: id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, DetailTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, DetailURL(baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("detail %s: %w", id, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detail %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("detail %s: read body: %w", id, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Message
		}
		return nil, apiErr
	}

	var wire struct {
		ID        wireID   `json:"_id"`
		Title     string   `json:"title"`
		Body      string   `json:"body"`
		Category  string   `json:"category"`
		Image     string   `json:"image"`
		CreatedAt wireTime `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("detail %s: decode: %w", id, err)
	}
	article := Article{
		ID:        string(wire.ID),
		Title:     wire.Title,
		Body:      wire.Body,
		Category:  wire.Category,
		Image:     wire.Image,
		CreatedAt: time.Time(wire.CreatedAt),
	}
	if article.ID == "" {
		article.ID = id
	}
	return &article, nil
}
