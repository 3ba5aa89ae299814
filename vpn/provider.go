// Package vpn provides the VPN connection lifecycle for vpnkeeper.
// This file contains the profile provider abstraction and its HTTP
// implementation.
package vpn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/dcampos/vpnkeeper/common"
)

// Credentials identifies an account at the profile provider.
type Credentials struct {
	Username string
	Password string
}

// Session is the capability returned by a successful authentication
// and consumed by subsequent provider requests. It is never ambient:
// every call that needs one takes it explicitly.
type Session struct {
	Token string
}

// Server describes one server offered by the provider.
type Server struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Provider hands out connection profiles for named servers. The real
// provider lives behind an HTTP API; tests substitute fakes.
type Provider interface {
	// Authenticate exchanges credentials for a session.
	Authenticate(ctx context.Context, creds Credentials) (Session, error)
	// Servers lists the servers available to the account.
	Servers(ctx context.Context, session Session) ([]Server, error)
	// Profile returns the configuration blob for the named server.
	Profile(ctx context.Context, session Session, name string) ([]byte, error)
}

// HTTPProvider talks to the provider's REST API.
type HTTPProvider struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewHTTPProvider creates a provider client for the given base URL.
// A nil client gets a default one with a request timeout.
func NewHTTPProvider(baseURL string, client *http.Client) (*HTTPProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("provider URL is empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider URL: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: common.ProviderTimeout}
	}
	return &HTTPProvider{baseURL: parsed, httpClient: client}, nil
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate calls POST /v1/auth and returns the session token.
func (p *HTTPProvider) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	payload, err := json.Marshal(authRequest{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return Session{}, fmt.Errorf("encode auth request: %w", err)
	}

	resp, err := p.do(ctx, http.MethodPost, "/v1/auth", Session{}, bytes.NewReader(payload))
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return Session{}, common.ErrAuthFailed
	case http.StatusForbidden:
		return Session{}, common.ErrAccessDenied
	default:
		return Session{}, fmt.Errorf("auth: unexpected status %d", resp.StatusCode)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Session{}, fmt.Errorf("decode auth response: %w", err)
	}
	if strings.TrimSpace(body.Token) == "" {
		return Session{}, fmt.Errorf("auth: empty session token")
	}
	return Session{Token: body.Token}, nil
}

// Servers calls GET /v1/servers.
func (p *HTTPProvider) Servers(ctx context.Context, session Session) ([]Server, error) {
	resp, err := p.do(ctx, http.MethodGet, "/v1/servers", session, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, "servers"); err != nil {
		return nil, err
	}

	var servers []Server
	if err := json.NewDecoder(resp.Body).Decode(&servers); err != nil {
		return nil, fmt.Errorf("decode server list: %w", err)
	}
	return servers, nil
}

// Profile calls GET /v1/profiles/{name} and returns the raw blob.
func (p *HTTPProvider) Profile(ctx context.Context, session Session, name string) ([]byte, error) {
	name = common.NormalizeServerName(name)
	resp, err := p.do(ctx, http.MethodGet, "/v1/profiles/"+url.PathEscape(name), session, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownServer, name)
	}
	if err := checkStatus(resp.StatusCode, "profile"); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profile body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownServer, name)
	}
	return data, nil
}

func checkStatus(status int, op string) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return common.ErrAuthFailed
	case http.StatusForbidden:
		return common.ErrAccessDenied
	default:
		return fmt.Errorf("%s: unexpected status %d", op, status)
	}
}

// do issues one request with the session bearer token and a request ID
// for provider-side correlation.
func (p *HTTPProvider) do(ctx context.Context, method, path string, session Session, body io.Reader) (*http.Response, error) {
	u := p.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	return resp, nil
}
