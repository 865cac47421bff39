// Package client is the HTTP client of the VidaPlus API used by the sign-up
// workflow.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vidaplus/internal/model"
	"vidaplus/internal/validation"
)

// APIError is a non-2xx response of the API
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, validation.Summary(e.Fields))
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// APIClient calls the registration and login endpoints
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewAPIClient creates a client for the API at baseURL
func NewAPIClient(baseURL string, timeout time.Duration, log *slog.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With(slog.String("component", "client")),
	}
}

// Register creates an account and returns it
func (c *APIClient) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	var result struct {
		Message string     `json:"message"`
		User    model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/register", "", req, &result); err != nil {
		return nil, err
	}
	c.log.Debug("account registered", slog.String("user_id", result.User.ID), slog.String("role", result.User.Role))
	return &result.User, nil
}

// Login authenticates and returns the user with a bearer token
func (c *APIClient) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	var result model.LoginResponse
	body := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me returns the account behind token
func (c *APIClient) Me(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *APIClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Fields = payload.Fields
	} else {
		apiErr.Message = fmt.Sprintf("API error (status %d)", resp.StatusCode)
	}
	return apiErr
}
