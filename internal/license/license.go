// Package license verifies an organization license against a license
// server before the decode engine is used.
package license

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

	"github.com/MeKo-Tech/bartune/internal/version"
	"github.com/google/uuid"
)

// TrialOrganizationID selects the public trial license.
const TrialOrganizationID = "200001"

// DefaultTimeout bounds a single verification attempt.
const DefaultTimeout = 10 * time.Second

const verifyPath = "/api/license/verify"

// ErrNoServer is returned when neither a main nor a standby server is set.
var ErrNoServer = errors.New("license: no license server configured")

// Params are the license connection parameters.
type Params struct {
	OrganizationID   string
	MainServerURL    string
	StandbyServerURL string
	HandshakeCode    string
	DeviceID         string
	Timeout          time.Duration
}

// DefaultParams returns the trial parameters with a fresh device id.
func DefaultParams() Params {
	return Params{
		OrganizationID: TrialOrganizationID,
		DeviceID:       uuid.NewString(),
		Timeout:        DefaultTimeout,
	}
}

// Error is a refusal reported by the license server.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("license: verification refused (code %d)", e.Code)
	}
	return fmt.Sprintf("license: verification refused (code %d): %s", e.Code, e.Message)
}

type verifyRequest struct {
	OrganizationID string `json:"organization_id"`
	HandshakeCode  string `json:"handshake_code,omitempty"`
	DeviceID       string `json:"device_id"`
	Product        string `json:"product"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client talks to the license servers.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// NewClient returns a client using httpClient, or http.DefaultClient when
// nil.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: httpClient, logger: logger}
}

// Authorize verifies p against the main server and falls back to the
// standby server when the main one cannot be reached. A refusal from a
// reachable server is final.
func (c *Client) Authorize(ctx context.Context, p Params) error {
	if strings.TrimSpace(p.OrganizationID) == "" {
		return &Error{Code: -1, Message: "organization id is required"}
	}
	var servers []string
	for _, s := range []string{p.MainServerURL, p.StandbyServerURL} {
		if s = strings.TrimRight(strings.TrimSpace(s), "/"); s != "" {
			servers = append(servers, s)
		}
	}
	if len(servers) == 0 {
		return ErrNoServer
	}
	if p.DeviceID == "" {
		p.DeviceID = uuid.NewString()
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var transportErrs []error
	for _, server := range servers {
		err := c.verify(ctx, server, p, timeout)
		var refused *Error
		switch {
		case err == nil:
			c.logger.Info("license verified", "server", server, "organization_id", p.OrganizationID)
			return nil
		case errors.As(err, &refused):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		}
		c.logger.Warn("license server unreachable", "server", server, "error", err)
		transportErrs = append(transportErrs, err)
	}
	return fmt.Errorf("license: no server reachable: %w", errors.Join(transportErrs...))
}

func (c *Client) verify(ctx context.Context, server string, p Params, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(verifyRequest{
		OrganizationID: p.OrganizationID,
		HandshakeCode:  p.HandshakeCode,
		DeviceID:       p.DeviceID,
		Product:        "bartune",
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+verifyPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", server, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("post %s: server returned %s", server, resp.Status)
	}

	var out verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return fmt.Errorf("decode response from %s: %w", server, err)
	}
	if !out.Success {
		return &Error{Code: out.Code, Message: out.Message}
	}
	return nil
}
