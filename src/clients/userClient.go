package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// UserSummary is the part of a Users service record shown in diagnostics.
type UserSummary struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// UserClient talks to the Users service over HTTP.
type UserClient struct {
	baseURL string
	http    *http.Client
}

func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	return &UserClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchUser returns the user with the given id.
func (c *UserClient) FetchUser(ctx context.Context, userID int) (*UserSummary, error) {
	var user UserSummary
	url := fmt.Sprintf("%s/users/%d", c.baseURL, userID)
	if err := call(ctx, c.http, http.MethodGet, url, &user); err != nil {
		return nil, errors.Wrapf(err, "fetching user %d", userID)
	}
	return &user, nil
}

// Lookup returns a Pinger that reads the record of userID. A 404 still counts
// as reachable since the Users service answered.
func (c *UserClient) Lookup(userID int) UserLookup {
	return UserLookup{client: c, userID: userID}
}

// UserLookup checks the Users service by fetching one user.
type UserLookup struct {
	client *UserClient
	userID int
}

func (l UserLookup) Ping(ctx context.Context) error {
	if _, err := l.client.FetchUser(ctx, l.userID); err != nil && !errors.Is(err, ErrRemoteNotFound) {
		return err
	}
	return nil
}

// Ping checks that the Users service answers its health endpoint.
func (c *UserClient) Ping(ctx context.Context) error {
	return ping(ctx, c.http, c.baseURL)
}
