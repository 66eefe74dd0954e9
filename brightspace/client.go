// Package brightspace is the low-level client for the bearer-token
// authenticated Brightspace API surface (*.api.brightspace.com). Responses
// are Siren entities, validated against the generic Siren schema.
package brightspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/d2lgrab/d2lgrab/logger"
	"github.com/d2lgrab/d2lgrab/siren"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StatusError reports a non-2xx response from the Brightspace API.
type StatusError struct {
	Status int
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("brightspace: received %d for %s", e.Status, e.URL)
}

// Config configures a Client.
type Config struct {
	// Token is the short-lived bearer JWT for *.api.brightspace.com.
	Token string
	// BaseURL overrides the tenant-scoped host construction. Mostly for
	// tests; when set, the service name is ignored.
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration
}

// Client talks to the Brightspace APIs. The bearer token is decoded at
// construction to recover the tenant id, user id and expiry; the payload is
// trusted only for request routing, never for authorization.
type Client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client

	// UserID is the sub claim of the token.
	UserID string
	// TenantID is the tenantid claim, a UUID used to build the
	// tenant-scoped API hostnames.
	TenantID string
	// TokenExpiry is the exp claim.
	TokenExpiry time.Time

	abortCtx context.Context
	abort    context.CancelFunc
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("missing bearer token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(cfg.Token, claims); err != nil {
		return nil, fmt.Errorf("malformed bearer token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("missing sub claim on bearer token")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("missing exp claim on bearer token")
	}
	rawTenant, ok := claims["tenantid"]
	if !ok {
		return nil, errors.New("missing tenantid claim on bearer token")
	}
	tenantID, ok := rawTenant.(string)
	if !ok {
		return nil, fmt.Errorf("tenantid claim is a %T", rawTenant)
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, fmt.Errorf("tenantid claim is not a UUID: %w", err)
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
		log:         log.With("client", "brightspace"),
		cfg:         cfg,
		http:        cfg.HTTPClient,
		UserID:      sub,
		TenantID:    tenantID,
		TokenExpiry: exp.Time,
		abortCtx:    abortCtx,
		abort:       abort,
	}, nil
}

// Abort cancels all in-flight and future requests issued by this client.
func (c *Client) Abort() { c.abort() }

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.abortCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// serviceURL builds the tenant-scoped base URL for a named Brightspace
// sub-service such as "sequences" or "content-service".
func (c *Client) serviceURL(service string) string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	return "https://" + c.TenantID + "." + service + ".api.brightspace.com"
}

// Entity fetches a Siren entity from the named sub-service at the given
// path.
func (c *Client) Entity(ctx context.Context, service, path string) (*siren.Entity, error) {
	return c.fetchSiren(ctx, c.serviceURL(service)+path)
}

// EntityAtURL fetches a Siren entity from an absolute URL, typically a href
// extracted from a previously fetched entity. The URL is used verbatim.
func (c *Client) EntityAtURL(ctx context.Context, absoluteURL string) (*siren.Entity, error) {
	return c.fetchSiren(ctx, absoluteURL)
}

func (c *Client) fetchSiren(ctx context.Context, url string) (*siren.Entity, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Status: resp.StatusCode, URL: url, Body: string(body)}
	}

	var ent siren.Entity
	if err := json.NewDecoder(resp.Body).Decode(&ent); err != nil {
		return nil, fmt.Errorf("malformed entity response from %s: %w", url, err)
	}
	if err := validate.Struct(&ent); err != nil {
		return nil, fmt.Errorf("unexpected entity shape from %s: %w", url, err)
	}
	return &ent, nil
}
