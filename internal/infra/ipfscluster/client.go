// Package ipfscluster places and pins binary content in a
// content-addressed storage cluster over its REST API.
//
// Endpoint policy: health probes and read-side introspection try the
// primary endpoint and fail over to the fallback; adds, pins, and
// unpins always target the primary. A write that fails against the
// primary is never replayed on the fallback, so a partial primary
// success cannot duplicate content.
package ipfscluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

const (
	requestTimeout = 30 * time.Second
	probeTimeout   = 2 * time.Second
)

type Client struct {
	primary  string
	fallback string
	gateway  string
	username string
	password string
	logger   *slog.Logger

	httpClient  *http.Client
	probeClient *http.Client

	authMu sync.Mutex
	jwt    string
}

type Options struct {
	PrimaryURL  string
	FallbackURL string
	GatewayURL  string
	Username    string
	Password    string
	Logger      *slog.Logger
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		primary:     strings.TrimRight(opts.PrimaryURL, "/"),
		fallback:    strings.TrimRight(opts.FallbackURL, "/"),
		gateway:     strings.TrimRight(opts.GatewayURL, "/"),
		username:    opts.Username,
		password:    opts.Password,
		logger:      logger,
		httpClient:  &http.Client{Timeout: requestTimeout},
		probeClient: &http.Client{Timeout: probeTimeout},
	}
}

type AddOptions struct {
	Filename       string
	Local          bool
	Format         string
	StreamChannels bool
}

type AddResult struct {
	ContentAddress string
	URL            string
}

type PinStatus struct {
	Cid     string                 `json:"cid"`
	Name    string                 `json:"name"`
	PeerMap map[string]PeerPinInfo `json:"peer_map"`
}

type PeerPinInfo struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Pinned reports whether at least one cluster peer holds the content.
func (p *PinStatus) Pinned() bool {
	if p == nil {
		return false
	}
	for _, info := range p.PeerMap {
		if info.Status == "pinned" {
			return true
		}
	}
	return false
}

type Peer struct {
	ID       string `json:"id"`
	Peername string `json:"peername"`
}

type Alert struct {
	Peer       string `json:"peer"`
	Peername   string `json:"peername"`
	MetricName string `json:"metric_name"`
}

// Add uploads bytes to the primary endpoint and returns the assigned
// content address plus its public gateway URL.
func (c *Client) Add(ctx context.Context, data []byte, opts AddOptions) (*AddResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty content", domain.ErrUpload)
	}
	filename := opts.Filename
	if filename == "" {
		filename = "file"
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}

	format := opts.Format
	if format == "" {
		format = "unixfs"
	}
	url := c.primary + "/add?local=" + strconv.FormatBool(opts.Local) +
		"&format=" + format +
		"&stream-channels=" + strconv.FormatBool(opts.StreamChannels)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := c.authorize(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: cluster add returned status %d", domain.ErrUpload, resp.StatusCode)
	}

	cid := extractCid(respBody)
	if cid == "" {
		return nil, fmt.Errorf("%w: cluster returned no content address", domain.ErrUpload)
	}
	return &AddResult{ContentAddress: cid, URL: c.GatewayURL(cid)}, nil
}

// extractCid handles both the JSON-array and newline-delimited shapes
// the cluster emits depending on stream-channels.
func extractCid(body []byte) string {
	type addEntry struct {
		Cid  string `json:"cid"`
		Name string `json:"name"`
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '[' {
		var entries []addEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return ""
		}
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].Cid != "" {
				return entries[i].Cid
			}
		}
		return ""
	}
	var last string
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		var entry addEntry
		if err := json.Unmarshal(bytes.TrimSpace(line), &entry); err == nil && entry.Cid != "" {
			last = entry.Cid
		}
	}
	return last
}

// Pin asks the cluster to retain the content address. True only on a
// 2xx response.
func (c *Client) Pin(ctx context.Context, cid string) bool {
	return c.mutatePin(ctx, http.MethodPost, c.primary+"/pins/"+cid)
}

// Unpin releases the content address. Best effort; true only on 2xx.
func (c *Client) Unpin(ctx context.Context, cid string) bool {
	return c.mutatePin(ctx, http.MethodDelete, c.primary+"/pins/"+cid)
}

// Recover retriggers pinning for a failed allocation.
func (c *Client) Recover(ctx context.Context, cid string) bool {
	return c.mutatePin(ctx, http.MethodPost, c.primary+"/pins/"+cid+"/recover")
}

func (c *Client) mutatePin(ctx context.Context, method, url string) bool {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return false
	}
	if err := c.authorize(ctx, req); err != nil {
		c.logger.Warn("cluster auth failed", "err", err)
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("cluster pin call failed", "method", method, "url", url, "err", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// Status reports pin state for one content address, nil when the
// cluster does not track it.
func (c *Client) Status(ctx context.Context, cid string) (*PinStatus, error) {
	endpoint := c.activeEndpoint(ctx)
	var status PinStatus
	found, err := c.getJSON(ctx, endpoint+"/pins/"+cid, &status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &status, nil
}

func (c *Client) List(ctx context.Context) ([]PinStatus, error) {
	endpoint := c.activeEndpoint(ctx)
	return decodeListBody[PinStatus](c, ctx, endpoint+"/pins")
}

func (c *Client) Allocations(ctx context.Context) ([]json.RawMessage, error) {
	endpoint := c.activeEndpoint(ctx)
	return decodeListBody[json.RawMessage](c, ctx, endpoint+"/allocations")
}

func (c *Client) Peers(ctx context.Context) ([]Peer, error) {
	endpoint := c.activeEndpoint(ctx)
	return decodeListBody[Peer](c, ctx, endpoint+"/peers")
}

func (c *Client) HealthAlerts(ctx context.Context) ([]Alert, error) {
	endpoint := c.activeEndpoint(ctx)
	return decodeListBody[Alert](c, ctx, endpoint+"/health/alerts")
}

// Info combines /id, /version, and peer/alert counts into the
// introspection snapshot the health endpoint serves.
func (c *Client) Info(ctx context.Context) (*domain.ClusterInfo, error) {
	endpoint := c.activeEndpoint(ctx)
	var id struct {
		ID string `json:"id"`
	}
	if _, err := c.getJSON(ctx, endpoint+"/id", &id); err != nil {
		return nil, err
	}
	var version struct {
		Version string `json:"version"`
	}
	if _, err := c.getJSON(ctx, endpoint+"/version", &version); err != nil {
		return nil, err
	}
	info := &domain.ClusterInfo{
		ID:       id.ID,
		Version:  version.Version,
		Endpoint: endpoint,
	}
	if peers, err := decodeListBody[Peer](c, ctx, endpoint+"/peers"); err == nil {
		info.PeerCount = len(peers)
	}
	if alerts, err := decodeListBody[Alert](c, ctx, endpoint+"/health/alerts"); err == nil {
		for _, alert := range alerts {
			info.Alerts = append(info.Alerts, alert.Peername+": "+alert.MetricName)
		}
	}
	return info, nil
}

// GatewayURL resolves the public read URL for a content address.
func (c *Client) GatewayURL(cid string) string {
	return c.gateway + "/ipfs/" + cid
}

// activeEndpoint probes the primary with a short timeout and falls
// back when it is unreachable. Read paths only.
func (c *Client) activeEndpoint(ctx context.Context) string {
	if c.probeEndpoint(ctx, c.primary) {
		return c.primary
	}
	if c.fallback != "" && c.probeEndpoint(ctx, c.fallback) {
		c.logger.Warn("primary cluster endpoint unreachable, using fallback")
		return c.fallback
	}
	return c.primary
}

func (c *Client) probeEndpoint(ctx context.Context, endpoint string) bool {
	if endpoint == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/id", nil)
	if err != nil {
		return false
	}
	if err := c.authorize(ctx, req); err != nil {
		return false
	}
	resp, err := c.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

func (c *Client) getJSON(ctx context.Context, url string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	if err := c.authorize(ctx, req); err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("cluster returned status %d for %s", resp.StatusCode, url)
	}
	return true, json.Unmarshal(body, out)
}

func decodeListBody[T any](c *Client, ctx context.Context, url string) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("cluster returned status %d for %s", resp.StatusCode, url)
	}
	return decodeList[T](body)
}

// decodeList accepts both a JSON array and the newline-delimited
// stream older cluster versions emit.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []T
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// authorize attaches the cluster JWT, exchanging basic-auth
// credentials for one lazily on first use.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.username == "" {
		return nil
	}
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if c.jwt == "" {
		token, err := c.fetchToken(ctx)
		if err != nil {
			return err
		}
		c.jwt = token
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	return nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.primary+"/token", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.username, c.password)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("cluster token exchange returned status %d", resp.StatusCode)
	}
	var envelope struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", err
	}
	if envelope.Token == "" {
		return "", fmt.Errorf("cluster token exchange returned no token")
	}
	return envelope.Token, nil
}
