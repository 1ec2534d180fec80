package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/abhaya/internal/news"
)

const (
	restSourceName = "rest"
	digestFields   = "_id,title,createdAt,category"
)

// REST fetches the digest from the portal's news listing endpoint.
type REST struct {
	endpoint string
	limit    int
	timeout  time.Duration
}

// NewREST creates a REST fetcher for endpoint. Zero limit or timeout
// selects DefaultLimit and DefaultTimeout.
func NewREST(endpoint string, limit int, timeout time.Duration) (*REST, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("rest: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rest: endpoint %q must be http or https", endpoint)
	}
	if limit < 0 {
		return nil, errors.New("rest: limit must not be negative")
	}
	if timeout < 0 {
		return nil, errors.New("rest: timeout must not be negative")
	}
	return &REST{
		endpoint: u.String(),
		limit:    orDefault(limit, DefaultLimit),
		timeout:  orDefault(timeout, DefaultTimeout),
	}, nil
}

func (r *REST) Name() string {
	return restSourceName
}

// restItem is one entry of the backend listing. Older backends send _id,
// newer ones id. A malformed createdAt keeps the item with a zero time.
type restItem struct {
	MongoID   wireID   `json:"_id"`
	ID        wireID   `json:"id"`
	Title     string   `json:"title"`
	CreatedAt wireTime `json:"createdAt"`
	Category  string   `json:"category"`
	URL       string   `json:"url"`
}

type restDigest struct {
	News *[]restItem `json:"news"`
}

// digestURL builds the listing query, keeping any query the endpoint already has.
func (r *REST) digestURL() string {
	u, _ := url.Parse(r.endpoint)
	q := u.Query()
	q.Set("limit", strconv.Itoa(r.limit))
	q.Set("page", "1")
	q.Set("fields", digestFields)
	u.RawQuery = q.Encode()
	return u.String()
}

func (r *REST) Fetch(ctx context.Context) ([]news.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.digestURL(), nil)
	if err != nil {
		return nil, failed(restSourceName, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, failed(restSourceName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failed(restSourceName, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var body restDigest
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, failed(restSourceName, fmt.Errorf("decode digest: %w", err))
	}
	if body.News == nil {
		return nil, failed(restSourceName, errors.New("decode digest: missing news field"))
	}

	return itemsFromDigest(*body.News, r.limit), nil
}

func itemsFromDigest(entries []restItem, limit int) []news.Item {
	items := make([]news.Item, 0, len(entries))
	for _, e := range entries {
		id := string(e.MongoID)
		if id == "" {
			id = string(e.ID)
		}
		title := strings.TrimSpace(e.Title)
		if id == "" || title == "" {
			continue
		}
		items = append(items, news.Item{
			ID:        id,
			Title:     title,
			CreatedAt: time.Time(e.CreatedAt),
			Category:  e.Category,
			URL:       strings.TrimSpace(e.URL),
		})
		if len(items) == limit {
			break
		}
	}
	return items
}
