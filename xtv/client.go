// Package xtv is the client for the XTV remote-control API.
package xtv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"go.uber.org/zap"

	"github.com/xtvctl/xtv/auth"
	"github.com/xtvctl/xtv/directory"
	"github.com/xtvctl/xtv/fault"
	"github.com/xtvctl/xtv/transport"
)

// requestTimeout bounds one API call, retries included.
const requestTimeout = 15 * time.Second

// CredentialSource hands out a usable credential before every request.
type CredentialSource interface {
	Acquire(ctx context.Context) (auth.Credential, error)
}

// Client calls the API with a bearer credential and serves the channel and
// device directories.
type Client struct {
	baseURL string
	http    transport.Clients
	creds   CredentialSource
	log     *zap.Logger

	channelStore directory.Store[ChannelMap]
	deviceStore  directory.Store[DeviceMap]

	channels *directory.Lazy[ChannelMap]
	devices  *directory.Lazy[DeviceMap]
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithChannelStore sets where the channel directory snapshot lives.
func WithChannelStore(s directory.Store[ChannelMap]) Option {
	return func(c *Client) { c.channelStore = s }
}

// WithDeviceStore sets where the device directory snapshot lives.
func WithDeviceStore(s directory.Store[DeviceMap]) Option {
	return func(c *Client) { c.deviceStore = s }
}

// NewClient returns a client for apiHost, which may be a bare host (https)
// or a URL with a scheme. Directory fetches and remote-control posts are
// sent once; other reads may be retried.
func NewClient(apiHost string, clients transport.Clients, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL: transport.BaseURL(apiHost),
		http:    clients,
		creds:   creds,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.channels = directory.NewLazy[ChannelMap]("channels", c.channelStore, c.fetchChannels, c.log)
	c.devices = directory.NewLazy[DeviceMap]("devices", c.deviceStore, c.fetchDevices, c.log)
	return c
}

// Token returns the access token, acquiring a credential if needed.
func (c *Client) Token(ctx context.Context) (auth.Credential, error) {
	return c.creds.Acquire(ctx)
}

// Channels returns the channel directory.
func (c *Client) Channels(ctx context.Context) (ChannelMap, error) {
	return c.channels.Get(ctx)
}

// Devices returns the device directory.
func (c *Client) Devices(ctx context.Context) (DeviceMap, error) {
	return c.devices.Get(ctx)
}

// LookupDevice finds a device by its exact display name.
func (c *Client) LookupDevice(ctx context.Context, name string) (Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return Device{}, err
	}
	d, ok := devices[name]
	if !ok {
		return Device{}, fault.New(fault.NotFound, "lookup device", "no device named %q", name)
	}
	return d, nil
}

// LookupChannel returns the first channel listed for a call sign.
func (c *Client) LookupChannel(ctx context.Context, callSign string) (Channel, error) {
	channels, err := c.Channels(ctx)
	if err != nil {
		return Channel{}, err
	}
	chs, ok := channels.Lookup(callSign)
	if !ok {
		return Channel{}, fault.New(fault.NotFound, "lookup channel", "no channel with call sign %q", callSign)
	}
	return chs[0], nil
}

// FlushDirectories writes both populated directories to their stores. The
// device directory is written even if the channel one fails.
func (c *Client) FlushDirectories() (channelsErr, devicesErr error) {
	return c.channels.Flush(), c.devices.Flush()
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return c.do(ctx, c.http.Retrying, http.MethodGet, endpoint, query, nil)
}

// fetch reads a directory source. Its failures surface as-is.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	return c.do(ctx, c.http.Once, http.MethodGet, endpoint, nil, nil)
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	return c.do(ctx, c.http.Once, http.MethodPost, endpoint, nil, form)
}

func (c *Client) do(
	ctx context.Context,
	hc *retry.Client,
	method, endpoint string,
	query, form url.Values,
) ([]byte, error) {
	op := method + " " + endpoint

	cred, err := c.creds.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, fault.Wrap(fault.Protocol, op, fmt.Errorf("failed to create request: %w", err))
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Access)

	start := time.Now()
	// Once retries run out the last response comes back alongside the error;
	// its status decides the outcome.
	resp, err := hc.DoWithContext(reqCtx, req)
	if resp == nil {
		return nil, fault.Wrap(fault.Network, op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.Network, op, fmt.Errorf("failed to read response: %w", err))
	}

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return nil, fault.New(fault.Auth, op, "status %d: %s", code, snippet(data))
	case code == http.StatusNotFound:
		return nil, fault.New(fault.NotFound, op, "status %d: %s", code, snippet(data))
	case code < 200 || code > 299:
		return nil, fault.New(fault.Protocol, op, "status %d: %s", code, snippet(data))
	}
	return data, nil
}

// snippet trims a response body for an error message.
func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
