// Package directory talks to the user-profile service over plain HTTP.
// The voice core only ever needs one call from it: id -> display data.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Liberty76220/LibertyTalk/internal/core"
	"github.com/Liberty76220/LibertyTalk/internal/domain"
)

type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Lookup(ctx context.Context, id domain.UserID) (domain.User, error) {
	u := fmt.Sprintf("%s/api/users/%s/display", c.base, url.PathEscape(string(id)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("build display request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.User{}, fmt.Errorf("display lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.User{}, core.ErrUserNotFound
	default:
		return domain.User{}, fmt.Errorf("display lookup: unexpected status %d", resp.StatusCode)
	}

	var user domain.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return domain.User{}, fmt.Errorf("decode display response: %w", err)
	}
	user.ID = id
	return user, nil
}
