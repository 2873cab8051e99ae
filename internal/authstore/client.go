package authstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to a GoTrue-compatible auth backend over HTTP. Admin
// calls authenticate with the service key; user-facing calls with the
// anon key plus the caller's token where one exists.
type Client struct {
	baseURL    string
	serviceKey string
	anonKey    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

type Config struct {
	BaseURL    string
	ServiceKey string
	AnonKey    string
	Timeout    time.Duration
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		serviceKey: config.ServiceKey,
		anonKey:    config.AnonKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type storeError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Error2  string `json:"error_description"`
}

func (e *storeError) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error2
}

func (c *Client) do(ctx context.Context, method, path string, apiKey, bearer string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("authstore: marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("authstore: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", apiKey)
	if bearer == "" {
		bearer = apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("authstore: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var se storeError
		_ = json.NewDecoder(resp.Body).Decode(&se)
		return c.mapError(resp.StatusCode, se.message())
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("authstore: decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) mapError(status int, msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case strings.Contains(lower, "invalid login credentials"):
		return ErrInvalidCredentials
	case strings.Contains(lower, "already registered") || strings.Contains(lower, "already exists"):
		return ErrEmailExists
	case strings.Contains(lower, "user not found"):
		return ErrUserNotFound
	case strings.Contains(lower, "otp") || strings.Contains(lower, "token has expired") || strings.Contains(lower, "token is invalid"):
		return ErrOTPInvalid
	case status == http.StatusNotFound:
		return ErrUserNotFound
	}
	return fmt.Errorf("authstore: backend returned status %d: %s", status, msg)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*ExternalIdentity, error) {
	var identity ExternalIdentity
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", c.anonKey, accessToken, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*ExternalIdentity, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if metadata != nil {
		payload["data"] = metadata
	}
	var identity ExternalIdentity
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", c.anonKey, "", payload, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.anonKey, "", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// VerifyOTP checks a one-time code; otpType is "signup" or "recovery".
func (c *Client) VerifyOTP(ctx context.Context, email, token, otpType string) (*Session, error) {
	payload := map[string]any{
		"email": email,
		"token": token,
		"type":  otpType,
	}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/verify", c.anonKey, "", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	payload := map[string]any{"email": email}
	return c.do(ctx, http.MethodPost, "/auth/v1/recover", c.anonKey, "", payload, nil)
}

func (c *Client) AdminCreateUser(ctx context.Context, email, password string, confirmEmail bool, metadata map[string]any) (*ExternalIdentity, error) {
	payload := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": confirmEmail,
	}
	if metadata != nil {
		payload["user_metadata"] = metadata
	}
	var identity ExternalIdentity
	if err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceKey, "", payload, &identity); err != nil {
		return nil, err
	}
	c.logger.Info("created external identity", "auth_user_id", identity.ID, "email", email)
	return &identity, nil
}

func (c *Client) AdminGetUserByEmail(ctx context.Context, email string) (*ExternalIdentity, error) {
	var listing struct {
		Users []ExternalIdentity `json:"users"`
	}
	path := "/auth/v1/admin/users?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, c.serviceKey, "", nil, &listing); err != nil {
		return nil, err
	}
	for i := range listing.Users {
		if strings.EqualFold(listing.Users[i].Email, email) {
			return &listing.Users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (c *Client) AdminUpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	payload := map[string]any{"password": password}
	return c.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+id.String(), c.serviceKey, "", payload, nil)
}

func (c *Client) AdminDeleteUser(ctx context.Context, id uuid.UUID) error {
	err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+id.String(), c.serviceKey, "", nil, nil)
	if err != nil {
		c.logger.Error("failed to delete external identity", "auth_user_id", id, "error", err)
		return err
	}
	c.logger.Info("deleted external identity", "auth_user_id", id)
	return nil
}
