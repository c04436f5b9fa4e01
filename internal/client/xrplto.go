package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xrplto/wallet/internal/model"
)

const (
	defaultTimeout = 15 * time.Second

	// maxErrorBody bounds how much of a failed response is kept for the error message.
	maxErrorBody = 512
)

// ErrUnreachable wraps transport failures: DNS, refused connections, timeouts.
var ErrUnreachable = errors.New("provider API unreachable")

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsStatusError checks if the error is a StatusError
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Extension path segments of the browser-extension auth endpoints.
const (
	ExtensionGemWallet = "gemwallet"
	ExtensionCrossmark = "crossmark"
)

// Client talks to the xrpl.to account API.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a new API client. A zero timeout takes the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateLogin starts a push/QR pairing: POST /account/login
func (c *Client) CreateLogin(ctx context.Context) (*model.LoginTicket, error) {
	var ticket model.LoginTicket
	if err := c.do(ctx, http.MethodPost, "/account/login", struct{}{}, &ticket); err != nil {
		return nil, fmt.Errorf("failed to create login: %w", err)
	}
	return &ticket, nil
}

// LoginStatus polls a pairing: GET /account/login/{uuid}
func (c *Client) LoginStatus(ctx context.Context, uuid string) (*model.LoginStatus, error) {
	var status model.LoginStatus
	if err := c.do(ctx, http.MethodGet, "/account/login/"+url.PathEscape(uuid), nil, &status); err != nil {
		return nil, fmt.Errorf("failed to get login status: %w", err)
	}
	return &status, nil
}

// CancelLogin abandons a pairing: DELETE /account/cancellogin/{uuid}
func (c *Client) CancelLogin(ctx context.Context, uuid string) error {
	if err := c.do(ctx, http.MethodDelete, "/account/cancellogin/"+url.PathEscape(uuid), nil, nil); err != nil {
		return fmt.Errorf("failed to cancel login: %w", err)
	}
	return nil
}

// Logout ends a server session: DELETE /account/logout/{account}/{uuid}
func (c *Client) Logout(ctx context.Context, account, sessionToken string) error {
	path := fmt.Sprintf("/account/logout/%s/%s", url.PathEscape(account), url.PathEscape(sessionToken))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// Nonce fetches the GemWallet sign challenge:
// GET /account/auth/gemwallet/nonce?address=..&publicKey=..
func (c *Client) Nonce(ctx context.Context, address, publicKey string) (string, error) {
	resp, err := c.challenge(ctx, ExtensionGemWallet, "nonce", address, publicKey)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", emptyAnswer(http.MethodGet, "/account/auth/"+ExtensionGemWallet+"/nonce", "empty token")
	}
	return resp.Token, nil
}

// Hash fetches the Crossmark sign challenge:
// GET /account/auth/crossmark/hash?address=..&publicKey=..
func (c *Client) Hash(ctx context.Context, address, publicKey string) (string, error) {
	resp, err := c.challenge(ctx, ExtensionCrossmark, "hash", address, publicKey)
	if err != nil {
		return "", err
	}
	if resp.Hash == "" {
		return "", emptyAnswer(http.MethodGet, "/account/auth/"+ExtensionCrossmark+"/hash", "empty hash")
	}
	return resp.Hash, nil
}

func (c *Client) challenge(ctx context.Context, ext, kind, address, publicKey string) (*model.ChallengeResponse, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("publicKey", publicKey)
	path := fmt.Sprintf("/account/auth/%s/%s?%s", ext, kind, q.Encode())

	var resp model.ChallengeResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return &resp, nil
}

// CheckSign verifies an extension signature: POST /account/auth/{ext}/check-sign
func (c *Client) CheckSign(ctx context.Context, ext string, req model.CheckSignRequest) (*model.AccountProfile, error) {
	var resp model.ProfileResponse
	if err := c.do(ctx, http.MethodPost, "/account/auth/"+ext+"/check-sign", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to check signature: %w", err)
	}
	if resp.Profile == nil || resp.Profile.Address == "" {
		return nil, emptyAnswer(http.MethodPost, "/account/auth/"+ext+"/check-sign", "no profile in response")
	}
	return resp.Profile, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       strings.SplitN(path, "?", 2)[0],
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// the server answered, just not with what the endpoint promises
		return &StatusError{
			Method:     method,
			Path:       strings.SplitN(path, "?", 2)[0],
			StatusCode: resp.StatusCode,
			Body:       "undecodable response: " + err.Error(),
		}
	}
	return nil
}

// emptyAnswer reports a 2xx response that lacks the field the caller needs.
func emptyAnswer(method, path, reason string) error {
	return &StatusError{Method: method, Path: path, StatusCode: http.StatusOK, Body: reason}
}
