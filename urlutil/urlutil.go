// Package urlutil holds URL helpers shared by the API clients, including the
// expiry heuristics for time-limited resource URLs.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// amzDateLayout matches X-Amz-Date values like "20240101T000000Z".
const amzDateLayout = "20060102T150405Z0700"

// Expiry recovers the expiry instant encoded in a signed, time-limited
// resource URL.
//
// Two hosting schemes are recognised:
//   - S3 pre-signed URLs (*.amazonaws.com): X-Amz-Date plus a relative
//     X-Amz-Expires in seconds.
//   - Brightspace Content Service URLs (*content-service.brightspace.com):
//     an absolute Unix timestamp in the Expires parameter.
//
// Any other host, or a recognised host missing its parameters, yields
// ok=false. That is not an error: callers treat an unknown expiry as
// long-lived and re-derive it on the next crawl.
func Expiry(rawURL string) (expiry time.Time, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return time.Time{}, false
	}

	switch {
	case strings.HasSuffix(u.Hostname(), ".amazonaws.com"):
		q := u.Query()
		expiresIn, err := strconv.Atoi(q.Get("X-Amz-Expires"))
		if err != nil {
			return time.Time{}, false
		}
		signedAt, err := time.Parse(amzDateLayout, q.Get("X-Amz-Date"))
		if err != nil {
			return time.Time{}, false
		}
		return signedAt.Add(time.Duration(expiresIn) * time.Second), true

	case strings.HasSuffix(u.Hostname(), "content-service.brightspace.com"):
		expires, err := strconv.ParseInt(u.Query().Get("Expires"), 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(expires, 0), true
	}

	return time.Time{}, false
}

// LastPathComponent returns the final path component of a URL, e.g.
// "https://host/foo/123?q=0" yields "123".
func LastPathComponent(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("broken URL: %w", err)
	}

	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return "", errors.New("URL has no path components")
	}
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1], nil
}

// DefaultToBase resolves urlOrPath against base when it is not already an
// absolute URL. Absolute URLs are returned untouched.
func DefaultToBase(urlOrPath, base string) (string, error) {
	u, err := url.Parse(urlOrPath)
	if err != nil {
		return "", fmt.Errorf("broken URL %q: %w", urlOrPath, err)
	}
	if u.IsAbs() {
		return urlOrPath, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("broken base URL %q: %w", base, err)
	}
	return b.ResolveReference(u).String(), nil
}
