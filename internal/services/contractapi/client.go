package contractapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"custid/internal/customer"
	"custid/internal/services"
)

const (
	// Name identifies this backend in config and logs.
	Name = "contract_api"

	defaultTimeout = 5 * time.Second
)

// Contract is the payload returned by GET /api/contracts/{tenant}.
type Contract struct {
	PlanName      string `json:"plan_name"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
}

// HTTPDoer is the subset of *http.Client used by the client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches contract data keyed by tenant UID.
type Client struct {
	baseURL    string
	username   string
	password   string
	timeout    time.Duration
	httpClient HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBasicAuth attaches HTTP basic credentials to every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTimeout bounds each lookup.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a contract API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, Name, "new", "base url required", nil)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, Name, "new", "invalid base url", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the backend name.
func (c *Client) Name() string { return Name }

// Requires reports that lookups must be keyed by tenant UID.
func (c *Client) Requires() customer.Field { return customer.FieldTenantUID }

// Lookup fetches contract fields for the tenant UID carried in q.
func (c *Client) Lookup(ctx context.Context, q customer.Query) (*customer.Partial, error) {
	tenant := strings.TrimSpace(q.Value)
	if tenant == "" || customer.IsPlaceholder(tenant) {
		return nil, services.Wrap(services.ErrUnavailable, Name, "lookup", "tenant uid required", nil)
	}

	contract, err := c.Fetch(ctx, tenant)
	if err != nil {
		placeholder := customer.PlaceholderToConfirm
		if errors.Is(err, services.ErrTimeout) {
			placeholder = customer.PlaceholderTimeout
		}
		return &customer.Partial{
			TenantUID:      tenant,
			PlanName:       placeholder,
			PaymentMethod:  placeholder,
			ContractStatus: placeholder,
		}, err
	}

	return &customer.Partial{
		TenantUID:      tenant,
		PlanName:       orUnknown(contract.PlanName),
		PaymentMethod:  orUnknown(contract.PaymentMethod),
		ContractStatus: orUnknown(contract.Status),
	}, nil
}

// Fetch performs the raw contract request. Errors wrap services.ErrUnavailable,
// and additionally services.ErrTimeout when the deadline expired.
func (c *Client) Fetch(ctx context.Context, tenant string) (*Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/api/contracts/" + url.PathEscape(tenant)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, Name, "build request", "", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if isTimeout(err) {
			return nil, services.Wrap(services.ErrUnavailable, Name, "lookup",
				fmt.Sprintf("request timed out after %v", latency), fmt.Errorf("%w: %w", services.ErrTimeout, err))
		}
		return nil, services.Wrap(services.ErrUnavailable, Name, "lookup", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, services.Wrap(services.ErrUnavailable, Name, "lookup",
			fmt.Sprintf("contract api returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload Contract
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if isTimeout(err) {
			return nil, services.Wrap(services.ErrUnavailable, Name, "decode response", "", fmt.Errorf("%w: %w", services.ErrTimeout, err))
		}
		return nil, services.Wrap(services.ErrUnavailable, Name, "decode response", "", err)
	}
	return &payload, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return customer.PlaceholderUnknown
	}
	return strings.TrimSpace(value)
}
