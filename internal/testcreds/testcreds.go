// Package testcreds loads live credentials for tests that hit a real
// Brightspace instance. Credentials come from the environment, with a
// .env file at the repository root honored for local runs.
package testcreds

import (
	"os"
	"sync"
	"testing"

	"github.com/joho/godotenv"
)

var loadEnv = sync.OnceFunc(func() {
	// Missing .env is fine; CI sets the variables directly.
	_ = godotenv.Load("../.env", ".env")
})

// Creds holds the live-test credentials.
type Creds struct {
	SessionVal       string
	SecureSessionVal string
	Domain           string
}

// Load returns live credentials, skipping the test when any of them is
// absent so the suite stays runnable offline.
func Load(t *testing.T) Creds {
	t.Helper()
	loadEnv()

	c := Creds{
		SessionVal:       os.Getenv("D2L_SESSION_VAL"),
		SecureSessionVal: os.Getenv("D2L_SECURE_SESSION_VAL"),
		Domain:           os.Getenv("D2L_DOMAIN"),
	}
	if c.SessionVal == "" || c.SecureSessionVal == "" || c.Domain == "" {
		t.Skip("live credentials not set (D2L_SESSION_VAL, D2L_SECURE_SESSION_VAL, D2L_DOMAIN)")
	}
	return c
}
