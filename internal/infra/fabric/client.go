// Package fabric brokers organization identities into bearer tokens
// for the ledger's REST gateway and exposes the invoke/query chaincode
// primitives. It performs no retries; retry policy belongs to callers.
package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/config"
	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

const (
	requestTimeout = 30 * time.Second
	probeTimeout   = 2 * time.Second
)

type Client struct {
	orgs     map[string]config.OrgGateway
	tokens   domain.TokenStore
	tokenTTL time.Duration
	logger   *slog.Logger

	httpClient  *http.Client
	probeClient *http.Client

	mu       sync.Mutex
	inflight map[string]*enrollCall
}

type enrollCall struct {
	done  chan struct{}
	token string
	err   error
}

func New(orgs []config.OrgGateway, tokens domain.TokenStore, tokenTTL time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	index := make(map[string]config.OrgGateway, len(orgs))
	for _, org := range orgs {
		index[org.Name] = config.OrgGateway{
			Name:        org.Name,
			GatewayURL:  strings.TrimRight(org.GatewayURL, "/"),
			AdminUser:   org.AdminUser,
			AdminSecret: org.AdminSecret,
		}
	}
	return &Client{
		orgs:        index,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		logger:      logger,
		httpClient:  &http.Client{Timeout: requestTimeout},
		probeClient: &http.Client{Timeout: probeTimeout},
		inflight:    make(map[string]*enrollCall),
	}
}

// Enroll exchanges an identity's credentials for a bearer token.
func (c *Client) Enroll(ctx context.Context, org, username, secret string) (string, error) {
	gw, ok := c.orgs[org]
	if !ok {
		return "", fmt.Errorf("%w: unknown organization %q", domain.ErrEnrollment, org)
	}
	payload := map[string]string{"id": username, "secret": secret}
	var envelope struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, gw.GatewayURL+"/user/enroll", "", payload, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEnrollment, err)
	}
	if envelope.Token == "" {
		return "", fmt.Errorf("%w: gateway returned no token", domain.ErrEnrollment)
	}
	return envelope.Token, nil
}

// Reenroll trades a still-valid token for a fresh one.
func (c *Client) Reenroll(ctx context.Context, org, token string) (string, error) {
	gw, ok := c.orgs[org]
	if !ok {
		return "", fmt.Errorf("%w: unknown organization %q", domain.ErrEnrollment, org)
	}
	var envelope struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, gw.GatewayURL+"/user/reenroll", token, map[string]string{}, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEnrollment, err)
	}
	if envelope.Token == "" {
		return "", fmt.Errorf("%w: gateway returned no token", domain.ErrEnrollment)
	}
	if err := c.tokens.Put(ctx, org, envelope.Token, c.tokenTTL); err != nil {
		c.logger.Warn("token store put failed", "org", org, "err", err)
	}
	return envelope.Token, nil
}

// Invoke submits a state-changing chaincode call.
func (c *Client) Invoke(ctx context.Context, org, token, channel, chaincode, method string, args []string) (json.RawMessage, error) {
	return c.call(ctx, "invoke", org, token, channel, chaincode, method, args)
}

// Query submits a read-only chaincode call.
func (c *Client) Query(ctx context.Context, org, token, channel, chaincode, method string, args []string) (json.RawMessage, error) {
	return c.call(ctx, "query", org, token, channel, chaincode, method, args)
}

func (c *Client) call(ctx context.Context, kind, org, token, channel, chaincode, method string, args []string) (json.RawMessage, error) {
	gw, ok := c.orgs[org]
	if !ok {
		return nil, fmt.Errorf("%w: unknown organization %q", domain.ErrLedger, org)
	}
	if channel == "" || chaincode == "" || method == "" {
		return nil, fmt.Errorf("%w: channel, chaincode, and method are required", domain.ErrLedger)
	}
	if args == nil {
		args = []string{}
	}
	payload := map[string]any{"method": method, "args": args}
	var envelope struct {
		Response json.RawMessage `json:"response"`
	}
	url := gw.GatewayURL + "/" + kind + "/" + channel + "/" + chaincode
	if err := c.post(ctx, url, token, payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrLedger, method, org, err)
	}
	return envelope.Response, nil
}

// ValidateToken probes the gateway with a harmless read-only call.
func (c *Client) ValidateToken(ctx context.Context, org, token, channel, chaincode string) bool {
	if token == "" {
		return false
	}
	_, err := c.Query(ctx, org, token, channel, chaincode, "GetAllSignatures", nil)
	return err == nil
}

// HealthCheck reports gateway reachability per organization. Any HTTP
// response counts as healthy; only transport failures do not.
func (c *Client) HealthCheck(ctx context.Context) map[string]bool {
	health := make(map[string]bool, len(c.orgs))
	for name, gw := range c.orgs {
		health[name] = c.probe(ctx, gw.GatewayURL)
	}
	return health
}

func (c *Client) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return true
}

// EnrollAdmins eagerly enrolls one administrative identity per
// configured organization. Failures are logged and the broker starts
// degraded; admin-gated calls then fail until AdminToken recovers.
func (c *Client) EnrollAdmins(ctx context.Context) {
	for name := range c.orgs {
		if _, err := c.adminEnroll(ctx, name); err != nil {
			c.logger.Warn("admin enrollment failed, continuing degraded", "org", name, "err", err)
		}
	}
}

// AdminToken returns the cached admin token for org, re-enrolling
// (single-flight per organization) when the cache is empty or expired.
func (c *Client) AdminToken(ctx context.Context, org string) (string, error) {
	token, ok, err := c.tokens.Get(ctx, org)
	if err != nil {
		c.logger.Warn("token store get failed", "org", org, "err", err)
	}
	if ok {
		return token, nil
	}
	token, err = c.adminEnroll(ctx, org)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrAdminTokenUnavailable, org, err)
	}
	return token, nil
}

func (c *Client) adminEnroll(ctx context.Context, org string) (string, error) {
	c.mu.Lock()
	if call, ok := c.inflight[org]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &enrollCall{done: make(chan struct{})}
	c.inflight[org] = call
	c.mu.Unlock()

	defer func() {
		close(call.done)
		c.mu.Lock()
		delete(c.inflight, org)
		c.mu.Unlock()
	}()

	gw := c.orgs[org]
	token, err := c.Enroll(ctx, org, gw.AdminUser, gw.AdminSecret)
	if err != nil {
		call.err = err
		return "", err
	}
	if err := c.tokens.Put(ctx, org, token, c.tokenTTL); err != nil {
		c.logger.Warn("token store put failed", "org", org, "err", err)
	}
	call.token = token
	return token, nil
}

func (c *Client) post(ctx context.Context, url, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, truncate(respBody, 256))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
