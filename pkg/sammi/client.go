// Package sammi is a client for the local SAMMI control-panel REST API.
//
// Every call is described by a Descriptor whose "request" field names an
// operation. The operation decides whether the descriptor travels as a GET
// query string or as a JSON POST body.
package sammi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/sammi-go/pkg/httpclient"
)

// DefaultHost is the host SAMMI is reached on.
const DefaultHost = "localhost"

// Config holds the construction-time settings. Zero values select defaults.
type Config struct {
	Host     string
	Port     int
	Password string
	// Timeout bounds each round trip. Zero leaves it to the transport.
	Timeout time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the resty-backed transport.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the sink for transport diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client sends descriptors to the SAMMI API. It is safe for concurrent use;
// calls are independent and uncoordinated.
type Client struct {
	mu       sync.RWMutex
	host     string
	port     int
	password string
	baseURL  string

	http httpclient.Client
	log  Logger
}

// New builds a client. An invalid cfg.Port is ignored in favour of DefaultPort.
func New(cfg Config, opts ...Option) *Client {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = DefaultHost
	}
	c := &Client{
		host:     host,
		port:     normalizePort(cfg.Port),
		password: cfg.Password,
		log:      noopLogger{},
	}
	c.baseURL = endpoint(c.host, c.port)
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(cfg.Timeout)
	}
	return c
}

func endpoint(host string, port int) string {
	return "http://" + host + ":" + strconv.Itoa(port) + "/api"
}

// ChangePort switches to port, or back to DefaultPort when port is invalid.
func (c *Client) ChangePort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.port = DefaultPort
	if ValidPort(port) {
		c.port = port
	}
	c.baseURL = endpoint(c.host, c.port)
}

// ChangePassword replaces the Authorization credential. An empty password
// stops the header from being sent.
func (c *Client) ChangePassword(password string) {
	c.mu.Lock()
	c.password = password
	c.mu.Unlock()
}

// Port returns the current port.
func (c *Client) Port() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.port
}

// BaseURL returns the API endpoint requests are sent to.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// target is the per-call view of the mutable client settings.
type target struct {
	port     int
	baseURL  string
	password string
}

func (c *Client) target() target {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return target{port: c.port, baseURL: c.baseURL, password: c.password}
}

func (t target) headers() map[string]string {
	if t.password == "" {
		return nil
	}
	return map[string]string{"Authorization": t.password}
}

// SendRequest performs the single HTTP call described by d. It never panics
// and reports every failure through Result.Err.
func (c *Client) SendRequest(ctx context.Context, d *Descriptor) Result {
	t := c.target()
	if !ValidPort(t.port) {
		return Result{Err: newInvalidPortError(t.port)}
	}

	method, ok := Lookup(d.Request())
	if !ok {
		return Result{Err: newUnknownRequestError()}
	}

	switch method {
	case MethodGet:
		return c.get(ctx, t, d)
	case MethodPost:
		return c.post(ctx, t, d)
	default:
		return Result{Err: newUnknownRequestError()}
	}
}

func (c *Client) get(ctx context.Context, t target, d *Descriptor) Result {
	url := d.queryURL(t.baseURL)
	resp, err := c.http.Get(ctx, url, t.headers())
	return c.handleResponse(http.MethodGet, url, d.Request(), resp, err)
}

func (c *Client) post(ctx context.Context, t target, d *Descriptor) Result {
	body, err := d.MarshalJSON()
	if err != nil {
		c.log.ErrorObj("sammi request encode failed", "sammi_encode_error", map[string]any{
			"request": d.Request(),
			"error":   err.Error(),
		})
		return Result{Err: &RequestError{Kind: KindEncode, Message: "encode descriptor", Err: err}}
	}
	resp, err := c.http.Post(ctx, t.baseURL, t.headers(), body)
	return c.handleResponse(http.MethodPost, t.baseURL, d.Request(), resp, err)
}

func (c *Client) handleResponse(method, url, request string, resp httpclient.Response, err error) Result {
	if err != nil {
		c.log.ErrorObj("sammi request failed", "sammi_transport_error", map[string]any{
			"method":  method,
			"url":     url,
			"request": request,
			"error":   err.Error(),
		})
		return Result{Err: &RequestError{Kind: KindTransport, Message: fmt.Sprintf("%s %s", method, url), Err: err}}
	}

	code := resp.StatusCode()
	if code < 200 || code > 299 {
		text := statusText(code, resp.Status())
		c.log.ErrorObj("sammi request rejected", "sammi_http_status", map[string]any{
			"method":      method,
			"request":     request,
			"status_code": code,
			"status_text": text,
		})
		return Result{Err: &RequestError{
			Kind:       KindStatus,
			Message:    fmt.Sprintf("HTTP Response Code: %d Response Text: %s", code, text),
			StatusCode: code,
			Status:     text,
		}}
	}

	value, err := unwrap(resp.Body())
	if err != nil {
		c.log.WarnObj("sammi response decode failed", "sammi_decode_error", map[string]any{
			"method":      method,
			"request":     request,
			"status_code": code,
			"error":       err.Error(),
		})
		return Result{Err: &RequestError{Kind: KindDecode, Message: "decode response", StatusCode: code, Err: err}}
	}

	c.log.DebugObj("sammi request completed", "sammi_response", map[string]any{
		"method":      method,
		"request":     request,
		"status_code": code,
	})
	return Result{Value: value}
}

// statusText strips the numeric code from a status line such as "404 Not Found".
func statusText(code int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	return text
}

// unwrap decodes body and returns its top-level "data" field when present.
// An empty body decodes to nil.
func unwrap(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if obj, ok := payload.(map[string]any); ok {
		if data, ok := obj["data"]; ok {
			return data, nil
		}
	}
	return payload, nil
}
