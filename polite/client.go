// Package polite is the low-level client for the cookie-authenticated
// POLITEMall API surface (*.polite.edu.sg). One method per endpoint; every
// JSON response is validated against its expected shape before being
// returned.
package polite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/d2lgrab/d2lgrab/logger"
	"github.com/d2lgrab/d2lgrab/urlutil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// UnexpectedResponseError reports a response that violates the endpoint's
// contract: a non-2xx status, a body that fails shape validation, or an
// expected token pattern that is absent.
type UnexpectedResponseError struct {
	Status int // zero when the failure is not status-driven
	URL    string
	Reason string
	Body   string
}

func (e *UnexpectedResponseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("polite: %s (%s)", e.Reason, e.URL)
	}
	return fmt.Sprintf("polite: received %d for %s", e.Status, e.URL)
}

// Config configures a Client.
type Config struct {
	// SessionVal is the d2lSessionVal cookie value.
	SessionVal string
	// SecureSessionVal is the d2lSecureSessionVal cookie value.
	SecureSessionVal string
	// Domain is the site subdomain, e.g. "nplms" for nplms.polite.edu.sg.
	Domain string
	// BaseURL overrides the URL derived from Domain. Mostly for tests.
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration
}

// Client talks to the POLITEMall API using D2L session cookies. A single
// Abort call cancels every request the instance has issued or will issue.
type Client struct {
	log     *logger.Logger
	cfg     Config
	http    *http.Client
	baseURL string

	abortCtx context.Context
	abort    context.CancelFunc
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.SessionVal) == "" || strings.TrimSpace(cfg.SecureSessionVal) == "" {
		return nil, fmt.Errorf("missing session cookie values")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		if strings.TrimSpace(cfg.Domain) == "" {
			return nil, fmt.Errorf("missing domain")
		}
		baseURL = "https://" + cfg.Domain + ".polite.edu.sg"
	}
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	abortCtx, abort := context.WithCancel(context.Background())
	return &Client{
		log:      log.With("client", "polite"),
		cfg:      cfg,
		http:     cfg.HTTPClient,
		baseURL:  baseURL,
		abortCtx: abortCtx,
		abort:    abort,
	}, nil
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Abort cancels all in-flight and future requests issued by this client.
func (c *Client) Abort() { c.abort() }

// requestContext derives a context that is cancelled when either the caller's
// context is done or the client is aborted.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.abortCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Client) newRequest(ctx context.Context, method, urlOrPath string, body io.Reader) (*http.Request, error) {
	full, err := urlutil.DefaultToBase(urlOrPath, c.baseURL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", "d2lSessionVal="+c.cfg.SessionVal+"; d2lSecureSessionVal="+c.cfg.SecureSessionVal)
	return req, nil
}

// getJSON fetches urlOrPath, decodes the body into out and validates its
// shape. out must be a pointer to a struct or slice of structs.
func (c *Client) getJSON(ctx context.Context, urlOrPath string, out any) error {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UnexpectedResponseError{Status: resp.StatusCode, URL: req.URL.String(), Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UnexpectedResponseError{URL: req.URL.String(), Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if err := validateShape(out); err != nil {
		return &UnexpectedResponseError{URL: req.URL.String(), Reason: fmt.Sprintf("unexpected response shape: %v", err)}
	}
	return nil
}

// getText fetches urlOrPath and returns the raw response body.
func (c *Client) getText(ctx context.Context, urlOrPath string) (string, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &UnexpectedResponseError{Status: resp.StatusCode, URL: req.URL.String(), Body: string(body)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return string(body), nil
}

func validateShape(out any) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			if err := validate.Struct(v.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}
	return validate.Struct(v.Interface())
}
