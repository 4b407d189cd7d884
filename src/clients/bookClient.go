package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var (
	// ErrRemoteNotFound is returned when the upstream service does not know the id.
	ErrRemoteNotFound = errors.New("resource not found upstream")

	// ErrRemoteUnavailable is returned on transport failures and upstream 5xx answers.
	ErrRemoteUnavailable = errors.New("upstream service unavailable")

	// ErrRemoteRejected is returned when the upstream refuses the request, e.g.
	// lending a book whose stock is already zero.
	ErrRemoteRejected = errors.New("upstream service rejected the request")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BookSummary is the subset of a Books service record the loans service uses.
type BookSummary struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	ISBN       string `json:"isbn"`
	StockCount int    `json:"stockCount"`
	Available  bool   `json:"available"`
}

// BookGateway checks and changes the lendable stock of a book in the Books service.
type BookGateway interface {
	IsAvailable(ctx context.Context, bookID int) (bool, error)
	FetchSummary(ctx context.Context, bookID int) (*BookSummary, error)
	DecrementStock(ctx context.Context, bookID int) error
	IncrementStock(ctx context.Context, bookID int) error
}

// BookClient talks to the Books service over HTTP.
type BookClient struct {
	baseURL string
	http    *http.Client
}

// NewBookClient returns a client for the Books service rooted at baseURL.
func NewBookClient(baseURL string, timeout time.Duration) *BookClient {
	return &BookClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *BookClient) IsAvailable(ctx context.Context, bookID int) (bool, error) {
	var available bool
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/books/%d/available", bookID), &available); err != nil {
		return false, errors.Wrapf(err, "checking availability of book %d", bookID)
	}
	return available, nil
}

func (c *BookClient) FetchSummary(ctx context.Context, bookID int) (*BookSummary, error) {
	var summary BookSummary
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/books/%d", bookID), &summary); err != nil {
		return nil, errors.Wrapf(err, "fetching book %d", bookID)
	}
	return &summary, nil
}

func (c *BookClient) DecrementStock(ctx context.Context, bookID int) error {
	return errors.Wrapf(c.do(ctx, http.MethodPost, fmt.Sprintf("/books/%d/loan", bookID), nil),
		"lending book %d", bookID)
}

func (c *BookClient) IncrementStock(ctx context.Context, bookID int) error {
	return errors.Wrapf(c.do(ctx, http.MethodPost, fmt.Sprintf("/books/%d/return", bookID), nil),
		"returning book %d", bookID)
}

// Ping checks that the Books service answers its health endpoint.
func (c *BookClient) Ping(ctx context.Context) error {
	return ping(ctx, c.http, c.baseURL)
}

func (c *BookClient) do(ctx context.Context, method, path string, out any) error {
	return call(ctx, c.http, method, c.baseURL+path, out)
}

// call performs one request and decodes a JSON body into out when out is non-nil.
func call(ctx context.Context, client *http.Client, method, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(ErrRemoteUnavailable, "%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return errors.Wrapf(err, "%s %s", method, url)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(ErrRemoteUnavailable, "decoding %s %s: %v", method, url, err)
	}
	return nil
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrRemoteNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return errors.Wrapf(ErrRemoteRejected, "status %d", resp.StatusCode)
	default:
		return errors.Wrapf(ErrRemoteUnavailable, "status %d", resp.StatusCode)
	}
}

func ping(ctx context.Context, client *http.Client, baseURL string) error {
	return call(ctx, client, http.MethodGet, baseURL+"/health", nil)
}
