// Package api is the typed client for the Replay backend endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"replay/internal/gateway"
)

const (
	pathLogin         = "/api/v1/auth/login"
	pathSignup        = "/api/v1/auth/signup"
	pathLogout        = "/api/v1/auth/logout"
	pathProfile       = "/api/v1/mypage/profile"
	pathSchools       = "/api/v1/schools"
	pathNotifications = "/api/v1/notifications"
)

const DefaultPageSize = 100

// Caller is the gateway contract the client depends on.
type Caller interface {
	Call(ctx context.Context, path string, opts gateway.Options) (gateway.Result, error)
}

type Client struct {
	gw Caller
}

func NewClient(gw Caller) *Client {
	return &Client{gw: gw}
}

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	AdminCode string `json:"admin_code,omitempty"`
	SchoolID  int64  `json:"school_id"`
	ClubID    int64  `json:"club_id"`
}

type Profile struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	SchoolID *int64 `json:"school_id"`
	ClubID   *int64 `json:"club_id"`
}

type School struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Code   string `json:"code"`
}

type Club struct {
	ID          int64  `json:"id"`
	SchoolID    int64  `json:"school_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
}

type Notification struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	EntityID  *int64    `json:"entity_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type ListQuery struct {
	Page    int
	Size    int
	Keyword string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("size", strconv.Itoa(size))
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		v.Set("keyword", kw)
	}
	return v
}

// APIError is the error half of the {success, data, error} envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    *struct {
		Items []T `json:"items"`
	} `json:"data"`
	Error *APIError `json:"error"`
}

var ErrEmptyToken = errors.New("empty token in response")

func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	res, err := c.gw.Call(ctx, pathLogin, gateway.Options{Method: http.MethodPost, Body: creds})
	if err != nil {
		return "", err
	}
	return tokenFrom(res)
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	res, err := c.gw.Call(ctx, pathSignup, gateway.Options{Method: http.MethodPost, Body: req})
	if err != nil {
		return "", err
	}
	return tokenFrom(res)
}

func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.gw.Call(ctx, pathLogout, gateway.Options{Method: http.MethodPost, Token: token})
	return err
}

func (c *Client) Profile(ctx context.Context, token string) (Profile, error) {
	res, err := c.gw.Call(ctx, pathProfile, gateway.Options{Token: token})
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := res.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("profile: %w", err)
	}
	return p, nil
}

func (c *Client) Schools(ctx context.Context, q ListQuery) ([]School, error) {
	res, err := c.gw.Call(ctx, pathSchools, gateway.Options{Query: q.values()})
	if err != nil {
		return nil, err
	}
	return decodeList[School](res)
}

func (c *Client) Clubs(ctx context.Context, schoolID int64, q ListQuery) ([]Club, error) {
	path := pathSchools + "/" + strconv.FormatInt(schoolID, 10) + "/clubs"
	res, err := c.gw.Call(ctx, path, gateway.Options{Query: q.values()})
	if err != nil {
		return nil, err
	}
	return decodeList[Club](res)
}

func (c *Client) Notifications(ctx context.Context, token string, q ListQuery) ([]Notification, error) {
	q.Keyword = ""
	if q.Size <= 0 {
		q.Size = 20
	}
	res, err := c.gw.Call(ctx, pathNotifications, gateway.Options{Query: q.values(), Token: token})
	if err != nil {
		return nil, err
	}
	return decodeList[Notification](res)
}

// tokenFrom accepts a bare string, a JSON string or an object with a token field.
func tokenFrom(res gateway.Result) (string, error) {
	if s, ok := res.AsString(); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", ErrEmptyToken
		}
		return s, nil
	}
	if m, ok := res.Value.(map[string]any); ok {
		for _, key := range []string{"token", "access_token"} {
			if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), nil
			}
		}
		if data, ok := m["data"].(map[string]any); ok {
			if s, ok := data["token"].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), nil
			}
		}
	}
	return "", ErrEmptyToken
}

// decodeList accepts the paginated envelope or a bare JSON array.
func decodeList[T any](res gateway.Result) ([]T, error) {
	text := strings.TrimSpace(res.Text)
	if strings.HasPrefix(text, "[") {
		var items []T
		if err := json.Unmarshal([]byte(text), &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}
	var env envelope[T]
	if err := res.Decode(&env); err != nil {
		return nil, err
	}
	if !env.Success && env.Error != nil {
		return nil, env.Error
	}
	if env.Data == nil || env.Data.Items == nil {
		return []T{}, nil
	}
	return env.Data.Items, nil
}
