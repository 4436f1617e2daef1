// Package api implements the typed HTTP client for the bitbox service:
// challenge/response session establishment, the single transparent
// re-authentication retry, and one method per server operation. Expected
// server failures surface as bberrors.ServerError values; protocol and
// server faults surface as the fatal sentinels.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
)

// Version is the protocol version sent with every versioned request.
const Version = "0.1.0"

// Client talks to one bitbox server.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a Client for the given base URL, e.g. "https://host:8000".
// If httpClient is nil a default client with a timeout is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// post sends an unauthenticated JSON request and decodes a JSON response
// into out (when out is non-nil).
func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	resp, err := c.roundTrip(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return err
	}
	return c.finish(op, resp, out)
}

// text sends an unauthenticated JSON request and returns the plain-text
// response body.
func (c *Client) text(ctx context.Context, op, path string, body any) (string, error) {
	resp, err := c.roundTrip(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", c.asError(op, strings.TrimSpace(string(data)))
	}
	return strings.TrimSpace(string(data)), nil
}

// authed sends an authenticated request, replaying it exactly once after
// re-establishing the session if the server reports the session invalid.
// A second authentication failure is fatal for the command.
func (c *Client) authed(ctx context.Context, op, method, path string, body any, auth *Auth, out any) error {
	resp, err := c.roundTrip(ctx, method, path, body, auth.Session())
	if err != nil {
		return err
	}
	err = c.finish(op, resp, out)
	if !bberrors.IsCode(err, bberrors.CodeAuthenticationFailed) {
		return err
	}

	// Session expired or invalid: re-authenticate once and retry.
	priv, err := auth.PrivateKey()
	if err != nil {
		return err
	}
	session, err := c.EstablishSession(ctx, auth.KeyInfo.Username, priv)
	if err != nil {
		return err
	}
	auth.setSession(session)

	resp, err = c.roundTrip(ctx, method, path, body, auth.Session())
	if err != nil {
		return err
	}
	err = c.finish(op, resp, out)
	if bberrors.IsCode(err, bberrors.CodeAuthenticationFailed) {
		return bberrors.ErrAuthenticationFailed
	}
	return err
}

// authedText is authed for endpoints that answer with plain text.
func (c *Client) authedText(ctx context.Context, op, method, path string, body any, auth *Auth) (string, error) {
	var text textBody
	if err := c.authed(ctx, op, method, path, body, auth, &text); err != nil {
		return "", err
	}
	return text.value, nil
}

// textBody marks an output destination as plain text rather than JSON.
type textBody struct {
	value string
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, session string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("Cookie", session)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) finish(op string, resp *http.Response, out any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return c.asError(op, strings.TrimSpace(string(data)))
	}
	switch dst := out.(type) {
	case nil:
		return nil
	case *textBody:
		dst.value = strings.TrimSpace(string(data))
		return nil
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		return nil
	}
}

// asError maps a non-200 response body onto the error taxonomy. Protocol
// skew and server faults are fatal sentinels; everything else is a typed
// server-declared condition for the caller to handle.
func (c *Client) asError(op, body string) error {
	code := bberrors.Code(body)
	switch code {
	case bberrors.CodeInvalidVersion:
		return bberrors.ErrInvalidVersion
	case bberrors.CodeServerSideError:
		return bberrors.ErrServerSide
	case "":
		return fmt.Errorf("%s: empty error response", op)
	default:
		return bberrors.NewServer(op, code)
	}
}
