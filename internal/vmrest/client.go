// Package vmrest is a client for the VMware Workstation REST API (vmrest).
// It is the only code in vmm that talks to the hypervisor.
package vmrest

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/logger"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 10 * time.Second

	mediaType = "application/vnd.vmware.vmw.rest-v1+json"
)

// Directory is the set of hypervisor operations vmm needs.
type Directory interface {
	ListVMs(ctx context.Context) ([]VMSummary, error)
	PowerState(ctx context.Context, id string) (PowerState, error)
	Details(ctx context.Context, id string) (*Details, error)
	SetPower(ctx context.Context, id string, action Action) error
}

// APIError carries the HTTP status code from a vmrest response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Options configures a Client.
type Options struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration

	// RequestsPerSecond caps outgoing calls. Zero means unlimited.
	RequestsPerSecond float64
	Burst             int

	Insecure bool
	Logger   logger.Logger

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client talks to vmrest over HTTP with basic auth.
type Client struct {
	base     string
	username string
	password string
	hc       *http.Client
	limiter  *rate.Limiter
	log      logger.Logger
}

var _ Directory = (*Client)(nil)

// NewClient builds a client for the VM collection at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Host == "" {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid vmrest URL %q", opts.BaseURL),
			"Expected something like http://localhost:8697/api/vms")
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	hc := opts.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.Insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
		hc = &http.Client{Timeout: opts.Timeout, Transport: transport}
	}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		username: opts.Username,
		password: opts.Password,
		hc:       hc,
		limiter:  rate.NewLimiter(limit, burst),
		log:      opts.Logger,
	}, nil
}

// ListVMs returns every registered VM.
func (c *Client) ListVMs(ctx context.Context) ([]VMSummary, error) {
	var vms []VMSummary
	if err := c.getJSON(ctx, c.base, &vms); err != nil {
		return nil, err
	}
	return vms, nil
}

// PowerState returns the current power state of one VM.
func (c *Client) PowerState(ctx context.Context, id string) (PowerState, error) {
	var resp powerResponse
	if err := c.getJSON(ctx, c.vmURL(id)+"/power", &resp); err != nil {
		return PowerUnknown, err
	}
	return ParsePowerState(resp.PowerState), nil
}

// Details returns CPU and memory settings of one VM.
func (c *Client) Details(ctx context.Context, id string) (*Details, error) {
	var d Details
	if err := c.getJSON(ctx, c.vmURL(id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetPower asks vmrest to change a VM's power state. vmrest answers 200
// with the new state or 204; both count as success.
func (c *Client) SetPower(ctx context.Context, id string, action Action) error {
	target := c.vmURL(id) + "/power"
	resp, err := c.do(ctx, http.MethodPut, target, []byte(action))
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	c.apiLog(ctx).Info("PUT %s (%s) -> %d", target, action, resp.StatusCode)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(http.MethodPut, target, resp)
	}
	return nil
}

func (c *Client) vmURL(id string) string {
	return c.base + "/" + url.PathEscape(id)
}

func (c *Client) apiLog(ctx context.Context) logger.Logger {
	return logger.From(ctx, c.log).API()
}

func (c *Client) getJSON(ctx context.Context, target string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	c.apiLog(ctx).Debug("GET %s -> %d", target, resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return statusError(http.MethodGet, target, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapWithCode(err, errors.ErrInvalidResponse,
			fmt.Sprintf("Malformed response from GET %s", target),
			"Check that VMWARE_API_URL points at the /api/vms endpoint")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTimeout,
			fmt.Sprintf("%s %s gave up waiting for the rate limiter", method, target), "")
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Cannot build request %s %s", method, target), "")
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", mediaType)
	if body != nil {
		req.Header.Set("Content-Type", mediaType)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, transportError(method, target, err)
	}
	return resp, nil
}

func transportError(method, target string, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.WrapWithCode(err, errors.ErrTimeout,
			fmt.Sprintf("%s %s timed out", method, target),
			"vmrest may be busy; it will be retried on the next refresh")
	}
	return errors.WrapWithCode(err, errors.ErrNetwork,
		fmt.Sprintf("%s %s failed", method, target),
		"Is vmrest running? Start it with 'vmrest' and check VMWARE_API_URL")
}

func statusError(method, target string, resp *http.Response) error {
	rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{
		Code:    resp.StatusCode,
		Message: fmt.Sprintf("%s %s -> %d: %s", method, target, resp.StatusCode, strings.TrimSpace(string(rb))),
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errors.WrapWithCode(apiErr, errors.ErrAuth,
			"vmrest rejected the credentials",
			"Check VMWARE_USERNAME and VMWARE_PASSWORD (set them with 'vmrest --config')")
	}
	return errors.WrapWithCode(apiErr, errors.ErrRejected,
		fmt.Sprintf("vmrest refused %s %s", method, target), "")
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
