package d2lgrab

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/d2lgrab/d2lgrab/brightspace"
	"github.com/d2lgrab/d2lgrab/logger"
	"github.com/d2lgrab/d2lgrab/polite"
)

// Config configures a Client. SessionVal, SecureSessionVal and Domain are
// required; Token is an optional pre-existing bearer token (one is fetched
// through the session API when absent or expired).
type Config struct {
	SessionVal       string
	SecureSessionVal string
	Domain           string
	Token            string

	// BaseURL and BrightspaceBaseURL override the remote hosts. Mostly
	// for tests.
	BaseURL            string
	BrightspaceBaseURL string
	HTTPClient         *http.Client
}

// TokenError reports a failure to obtain or rebuild the bearer-token
// client. It is never a per-topic condition: callers treat it as fatal for
// the whole operation rather than skipping the node that surfaced it.
type TokenError struct {
	Err error
}

func (e *TokenError) Error() string { return "obtaining token client: " + e.Err.Error() }
func (e *TokenError) Unwrap() error { return e.Err }

// Client is the high-level API. It owns the bearer-token lifecycle: the
// token client is built lazily and rebuilt whenever its token has expired,
// so a single Client can serve a long-lived session.
type Client struct {
	log    *logger.Logger
	cfg    Config
	polite *polite.Client

	mu sync.Mutex
	bs *brightspace.Client
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	pc, err := polite.New(log, polite.Config{
		SessionVal:       cfg.SessionVal,
		SecureSessionVal: cfg.SecureSessionVal,
		Domain:           cfg.Domain,
		BaseURL:          cfg.BaseURL,
		HTTPClient:       cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{log: log.With("client", "d2lgrab"), cfg: cfg, polite: pc}
	if cfg.Token != "" {
		bs, err := brightspace.New(log, brightspace.Config{
			Token:      cfg.Token,
			BaseURL:    cfg.BrightspaceBaseURL,
			HTTPClient: cfg.HTTPClient,
		})
		if err != nil {
			return nil, fmt.Errorf("invalid pre-existing token: %w", err)
		}
		c.bs = bs
	}
	return c, nil
}

// Polite exposes the underlying session-API client so callers can reach
// endpoints not covered by the high-level methods.
func (c *Client) Polite() *polite.Client { return c.polite }

// brightspace returns the token-API client, reusing the cached instance
// while its token is unexpired and performing the token exchange otherwise.
// The check runs on every access because the Client is expected to outlive
// any single token.
func (c *Client) brightspace(ctx context.Context) (*brightspace.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bs != nil && c.bs.TokenExpiry.After(time.Now()) {
		return c.bs, nil
	}

	token, err := c.polite.NewFetchToken(ctx)
	if err != nil {
		return nil, &TokenError{Err: fmt.Errorf("refreshing bearer token: %w", err)}
	}
	bs, err := brightspace.New(c.log, brightspace.Config{
		Token:      token.AccessToken,
		BaseURL:    c.cfg.BrightspaceBaseURL,
		HTTPClient: c.cfg.HTTPClient,
	})
	if err != nil {
		return nil, &TokenError{Err: err}
	}
	c.log.Debug("token client refreshed", "expiry", bs.TokenExpiry)
	c.bs = bs
	return bs, nil
}

// Abort cancels every request on both underlying clients, in flight or
// future. Called internally when an unrecoverable error surfaces so that no
// further requests go out with a credential set known to be bad.
func (c *Client) Abort() {
	c.polite.Abort()
	c.mu.Lock()
	if c.bs != nil {
		c.bs.Abort()
	}
	c.mu.Unlock()
}

// abortOnError aborts both clients when err is non-nil, then returns it.
func (c *Client) abortOnError(err error) error {
	if err != nil {
		c.log.Error("unrecoverable error, aborting both clients", "error", err)
		c.Abort()
	}
	return err
}
