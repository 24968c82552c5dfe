// Package client is the Go counterpart of the browser client: an HTTP
// transport for the user API plus an orchestrator that owns the list state
// (search, pagination, writes) behind a Presenter boundary.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// The two domain errors of the service contract. Everything else is either
// a *TransportError (connectivity) or a generic error.
var (
	ErrNotFound = fmt.Errorf("User not found")
	ErrConflict = fmt.Errorf("Email already exists")
)

// TransportError wraps network-level failures (connection refused, DNS,
// timeouts) so callers can distinguish them from domain errors.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport failure: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// User mirrors the wire representation of a user record.
type User struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Created time.Time `json:"created"`
}

// UserList is one page of results.
type UserList struct {
	Users []User `json:"users"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// Client talks to the user API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends the request with a correlation id and maps the response status
// onto the error taxonomy. The body is returned for 2xx responses.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(echoHeaderXRequestID, uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	// error payloads carry {"error": "..."}; tolerate empty or broken bodies
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusConflict:
		return nil, ErrConflict
	}
	if eb.Error != "" {
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, eb.Error)
	}
	return nil, fmt.Errorf("api error %d", resp.StatusCode)
}

const echoHeaderXRequestID = "X-Request-ID"

// FetchUsers lists users matching q, paginated.
func (c *Client) FetchUsers(ctx context.Context, q string, page, limit int) (UserList, error) {
	params := url.Values{}
	if q != "" {
		params.Set("q", q)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/api/users/all?"+params.Encode(), nil)
	if err != nil {
		return UserList{}, err
	}
	body, err := c.do(req)
	if err != nil {
		return UserList{}, err
	}

	var list UserList
	if err := json.Unmarshal(body, &list); err != nil {
		return UserList{}, fmt.Errorf("cannot decode user list: %w", err)
	}
	return list, nil
}

type userEnvelope struct {
	User User `json:"user"`
}

// AddUser creates a user. The id field is sent as the -1 sentinel; the
// stored record (with its assigned id) comes back.
func (c *Client) AddUser(ctx context.Context, u User) (User, error) {
	u.ID = -1
	if u.Created.IsZero() {
		u.Created = time.Now().UTC()
	}
	payload, err := json.Marshal(userEnvelope{User: u})
	if err != nil {
		return User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/users/add", bytes.NewReader(payload))
	if err != nil {
		return User{}, err
	}
	body, err := c.do(req)
	if err != nil {
		return User{}, err
	}

	var env userEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return User{}, fmt.Errorf("cannot decode created user: %w", err)
	}
	return env.User, nil
}

// UpdateUser saves changes to an existing user.
func (c *Client) UpdateUser(ctx context.Context, u User) error {
	payload, err := json.Marshal(userEnvelope{User: u})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.BaseURL+"/api/users/update", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// DeleteUser removes a user by id.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.BaseURL+"/api/users/delete/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}
