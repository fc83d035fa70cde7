// Package client is the Go client of the BookBarter API. It holds the session
// token returned by Login and sends it on every authenticated call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/pkg/circuit_breaker"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrNoSession = errors.New("not logged in")

// APIError is a non-2xx answer of the API.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bookbarter: %d %s", e.Code, e.Message)
}

type Session struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

type Client struct {
	baseURL string
	http    *http.Client
	cb      circuit_breaker.CircuitBreaker
	log     *zap.Logger

	mu      sync.RWMutex
	session *Session
}

type Option func(c *Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithCircuitBreaker(cb circuit_breaker.CircuitBreaker) Option {
	return func(c *Client) { c.cb = cb }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log.Named("client") }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: time.Minute},
		cb: circuit_breaker.New(circuit_breaker.Config{
			RecordLength:     10,
			Timeout:          10 * time.Second,
			Percentile:       0.5,
			RecoveryRequests: 2,
		}),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

func (c *Client) Logout() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// do sends the request through the breaker. Only transport failures and 5xx
// answers count against the breaker; 4xx are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out interface{}) error {
	var token string
	if authed {
		s, ok := c.Session()
		if !ok {
			return ErrNoSession
		}
		token = s.Token
	}

	var apiErr *APIError
	err := c.cb.Call(func() error {
		body := io.Reader(http.NoBody)
		if in != nil {
			data, err := json.Marshal(in)
			if err != nil {
				return err
			}
			body = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			var msg model.MessageResponse
			if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
				msg.Message = http.StatusText(resp.StatusCode)
			}
			e := &APIError{Code: resp.StatusCode, Message: msg.Message}
			if resp.StatusCode >= http.StatusInternalServerError {
				return e
			}
			apiErr = e
			return nil
		}
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return err
	}
	if apiErr != nil {
		return apiErr
	}
	return nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/users/register", false,
		model.RegisterRequest{Name: name, Email: email, Password: password}, nil)
}

// Login stores the returned token as the client session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var resp model.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/users/login", false,
		model.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return Session{}, err
	}
	s := Session{Token: resp.Token, UserID: resp.UserID, ExpiresAt: resp.ExpiresAt}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	return s, nil
}

func (c *Client) Books(ctx context.Context) ([]model.Book, error) {
	var books []model.Book
	if err := c.do(ctx, http.MethodGet, "/api/books", false, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) CreateBook(ctx context.Context, in model.BookInput) (model.Book, error) {
	var book model.Book
	if err := c.do(ctx, http.MethodPost, "/api/books", true, in, &book); err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func (c *Client) BuyRequest(ctx context.Context, req model.BuyRequest) error {
	return c.do(ctx, http.MethodPost, "/api/books/buy-request", true, req, nil)
}

func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	s, ok := c.Session()
	if !ok {
		return nil, ErrNoSession
	}
	var list []model.Notification
	if err := c.do(ctx, http.MethodGet, "/api/notifications/user/"+s.UserID.String(), true, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) MarkRead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/"+id.String()+"/read", true, nil, nil)
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	s, ok := c.Session()
	if !ok {
		return 0, ErrNoSession
	}
	var resp model.UnreadCount
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread/"+s.UserID.String(), true, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// PollUnread calls fn with the unread count right away and then every interval
// until ctx is done. Failed polls are logged and skipped.
func (c *Client) PollUnread(ctx context.Context, interval time.Duration, fn func(count int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		count, err := c.UnreadCount(ctx)
		switch {
		case err == nil:
			fn(count)
		case ctx.Err() != nil:
			return
		default:
			c.log.Warn("poll unread", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
