package reconciler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agora/internal/api"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Unauthorized reports whether the server rejected the session.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized
}

// Client talks to the agora HTTP API. It is both the cache Fetcher and the
// reconciler Transport.
type Client struct {
	baseURL     string
	sessionName string
	session     string
	http        *http.Client
}

func NewClient(baseURL, sessionName, session string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		sessionName: sessionName,
		session:     session,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SignedIn() bool {
	return c.session != ""
}

func (c *Client) CastVote(ctx context.Context, postID uint, direction api.Direction) (api.CastVoteResponse, error) {
	var resp api.CastVoteResponse
	err := c.do(ctx, http.MethodPost, "/api/vote", api.CastVoteRequest{PostID: postID, Direction: direction}, &resp)
	return resp, err
}

func (c *Client) Fetch(ctx context.Context, key Key) (*Entry, error) {
	path, err := keyPath(key)
	if err != nil {
		return nil, err
	}

	switch key.Kind {
	case KindPost:
		var post api.Post
		if err := c.do(ctx, http.MethodGet, path, nil, &post); err != nil {
			return nil, err
		}
		return &Entry{Post: &post}, nil
	case KindPostVote:
		var state api.VoteState
		if err := c.do(ctx, http.MethodGet, path, nil, &state); err != nil {
			return nil, err
		}
		return &Entry{Vote: &state}, nil
	default:
		posts := []api.Post{}
		if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
			return nil, err
		}
		return &Entry{Posts: posts}, nil
	}
}

func keyPath(key Key) (string, error) {
	switch key.Kind {
	case KindPosts:
		if key.Param == "top" {
			return "/api/posts?sort=top", nil
		}
		return "/api/posts", nil
	case KindPlacePosts:
		return "/api/places/" + url.PathEscape(key.Param) + "/posts", nil
	case KindDomainPosts:
		return "/api/domains/" + url.PathEscape(key.Param) + "/posts", nil
	case KindHomePosts:
		return "/api/home", nil
	case KindPost:
		return "/api/posts/" + url.PathEscape(key.Param), nil
	case KindPostVote:
		return "/api/posts/" + url.PathEscape(key.Param) + "/vote", nil
	}
	return "", errors.Errorf("unknown cache key %s", key)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: c.sessionName, Value: c.session})
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		return &StatusError{Code: res.StatusCode, Message: apiErr.Error}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
