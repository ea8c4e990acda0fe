package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/netx"
	"github.com/dmitrijs2005/gophagenda/internal/wire"
)

type RelayClient struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	cookie  string
	refresh TokenRefresher
}

func NewRelayClient(baseURL string, timeout time.Duration, insecure bool) (*RelayClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // development flag
	}

	return &RelayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (c *RelayClient) SetTokenRefresher(fn TokenRefresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh = fn
}

func (c *RelayClient) cookieValue() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cookie
}

func (c *RelayClient) setCookie(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookie = v
}

func (c *RelayClient) refresher() TokenRefresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresh
}

// call sends one request. Authenticated calls that come back as a login
// redirect are retried once after a token refresh.
func (c *RelayClient) call(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = b
	}

	resp, err := c.do(ctx, method, path, body, authed)
	if err != nil {
		return err
	}

	if authed && isLoginRedirect(resp) {
		drain(resp)
		refresh := c.refresher()
		if refresh == nil {
			return common.ErrorUnauthorized
		}
		signed, err := refresh(ctx)
		if err != nil {
			return fmt.Errorf("%w: refresh: %v", common.ErrorUnauthorized, err)
		}
		if _, err := c.IssueCookie(ctx, signed); err != nil {
			return err
		}
		if resp, err = c.do(ctx, method, path, body, authed); err != nil {
			return err
		}
	}
	defer drain(resp)

	if err := mapStatus(resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: response: %v", common.ErrMalformedInput, err)
		}
	}
	return nil
}

func (c *RelayClient) do(ctx context.Context, method, path string, body []byte, authed bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		v := c.cookieValue()
		if v == "" {
			return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, ErrNoCookie)
		}
		req.AddCookie(&http.Cookie{Name: common.AuthCookieName, Value: v})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func isLoginRedirect(resp *http.Response) bool {
	return resp.StatusCode == http.StatusSeeOther && resp.Header.Get("Location") == common.AuthEntryPath
}

func mapStatus(resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusSeeOther:
		if isLoginRedirect(resp) {
			return common.ErrorUnauthorized
		}
		return nil
	case code == http.StatusBadRequest:
		return common.ErrMalformedInput
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return common.ErrorForbidden
	case code == http.StatusNotFound:
		return common.ErrorNotFound
	case code == http.StatusConflict:
		return common.ErrorAlreadyExists
	case code == http.StatusTooManyRequests:
		return common.ErrRateLimited
	case code >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}

func (c *RelayClient) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/healthz", nil, nil, false)
}

func (c *RelayClient) Register(ctx context.Context, req wire.RegisterRequest) error {
	return c.call(ctx, http.MethodPost, "/api/auth/register", req, nil, false)
}

// Login returns the encrypted private key. Bad credentials are
// common.ErrorUnauthorized.
func (c *RelayClient) Login(ctx context.Context, usernameHashed, passwordHashed string) (string, error) {
	var out wire.LoginResponse
	err := c.call(ctx, http.MethodPost, "/api/auth/login",
		wire.LoginRequest{UsernameHashed: usernameHashed, PasswordHashed: passwordHashed}, &out, false)
	if errors.Is(err, common.ErrorForbidden) {
		return "", common.ErrorUnauthorized
	}
	return out.PrivateKeyEncryptedArmored, err
}

// IssueCookie exchanges a signed payload for the auth cookie and keeps its
// value for later calls.
func (c *RelayClient) IssueCookie(ctx context.Context, payloadSigned string) (wire.CookieResponse, error) {
	body, err := json.Marshal(wire.CookieRequest{PayloadSigned: payloadSigned})
	if err != nil {
		return wire.CookieResponse{}, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/cookie", body, false)
	if err != nil {
		return wire.CookieResponse{}, err
	}
	defer drain(resp)

	if err := mapStatus(resp); err != nil {
		if errors.Is(err, common.ErrorForbidden) {
			return wire.CookieResponse{}, common.ErrorUnauthorized
		}
		return wire.CookieResponse{}, err
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == common.AuthCookieName && ck.Value != "" {
			c.setCookie(ck.Value)
		}
	}
	if c.cookieValue() == "" {
		return wire.CookieResponse{}, fmt.Errorf("%w: %w", common.ErrMalformedInput, ErrNoCookie)
	}

	var out wire.CookieResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return wire.CookieResponse{}, fmt.Errorf("%w: response: %v", common.ErrMalformedInput, err)
	}
	return out, nil
}

// Logout forgets the cookie even when the relay cannot be reached.
func (c *RelayClient) Logout(ctx context.Context) error {
	defer c.setCookie("")
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, false)
	if err != nil {
		return err
	}
	defer drain(resp)
	if isLoginRedirect(resp) {
		return nil
	}
	return mapStatus(resp)
}

func (c *RelayClient) PrivateKey(ctx context.Context) (string, error) {
	var out wire.PrivateKeyResponse
	err := c.call(ctx, http.MethodGet, "/api/user/me/privateKeyEncryptedArmored", nil, &out, true)
	return out.PrivateKeyEncryptedArmored, err
}

// PublicKey fetches the key of usernameHashed, or the caller's own key for "me".
func (c *RelayClient) PublicKey(ctx context.Context, usernameHashed string) (string, error) {
	var out wire.PublicKeyResponse
	err := c.call(ctx, http.MethodGet, "/api/user/"+url.PathEscape(usernameHashed)+"/publicKeyArmored", nil, &out, true)
	return out.PublicKeyArmored, err
}

func (c *RelayClient) Metadata(ctx context.Context) (string, error) {
	var out wire.Metadata
	err := c.call(ctx, http.MethodGet, "/api/user/me/metadataEncryptedSigned", nil, &out, true)
	return out.MetadataEncryptedSigned, err
}

func (c *RelayClient) PutMetadata(ctx context.Context, metadataEncryptedSigned string) error {
	return c.call(ctx, http.MethodPut, "/api/user/me/metadataEncryptedSigned",
		wire.Metadata{MetadataEncryptedSigned: metadataEncryptedSigned}, nil, true)
}

// DeleteAccount removes the account. The relay answers with a redirect to
// the app entry point, which counts as success.
func (c *RelayClient) DeleteAccount(ctx context.Context) error {
	if err := c.call(ctx, http.MethodDelete, "/api/user/me", nil, nil, true); err != nil {
		return err
	}
	c.setCookie("")
	return nil
}

func (c *RelayClient) Export(ctx context.Context) (string, error) {
	var out wire.ExportResponse
	err := c.call(ctx, http.MethodPost, "/api/user/me/export", nil, &out, true)
	return out.URL, err
}

// Download fetches a presigned export link. No cookie is sent.
func (c *RelayClient) Download(ctx context.Context, u string) ([]byte, error) {
	return netx.DownloadPresigned(ctx, c.http, u)
}

func (c *RelayClient) GetEvent(ctx context.Context, id, passwordHashed string) (string, error) {
	var out wire.EventGetResponse
	err := c.call(ctx, http.MethodPost, "/api/event/"+url.PathEscape(id),
		wire.EventGetRequest{PasswordHashed: passwordHashed}, &out, true)
	return out.EventEncryptedSigned, err
}

func (c *RelayClient) CreateEvent(ctx context.Context, req wire.EventPutRequest) error {
	return c.call(ctx, http.MethodPost, "/api/event", req, nil, true)
}

func (c *RelayClient) UpdateEvent(ctx context.Context, req wire.EventPutRequest) error {
	return c.call(ctx, http.MethodPut, "/api/event", req, nil, true)
}

func (c *RelayClient) DeleteEvent(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/event", wire.EventDeleteRequest{ID: id}, nil, true)
}

func (c *RelayClient) SendInvitation(ctx context.Context, receiverHashed, envelope string) error {
	return c.call(ctx, http.MethodPost, "/api/user/me/invitation", wire.InvitationSendRequest{
		ReceiverUsernameHashed:    receiverHashed,
		InvitationEncryptedSigned: envelope,
	}, nil, true)
}

func (c *RelayClient) Requests(ctx context.Context) ([]wire.Invitation, error) {
	var out wire.InvitationList
	err := c.call(ctx, http.MethodGet, "/api/user/me/invitation", nil, &out, true)
	return out.Invitations, err
}

func (c *RelayClient) Responses(ctx context.Context) ([]wire.Invitation, error) {
	var out wire.InvitationList
	err := c.call(ctx, http.MethodGet, "/api/user/me/invitation/response", nil, &out, true)
	return out.Invitations, err
}

func (c *RelayClient) Respond(ctx context.Context, senderHashed, envelope string) error {
	return c.call(ctx, http.MethodPut, "/api/user/me/invitation/"+url.PathEscape(senderHashed),
		wire.InvitationRespondRequest{InvitationEncryptedSigned: envelope}, nil, true)
}

func (c *RelayClient) DeleteInvitation(ctx context.Context, otherHashed string) error {
	return c.call(ctx, http.MethodDelete, "/api/user/me/invitation/"+url.PathEscape(otherHashed), nil, nil, true)
}
