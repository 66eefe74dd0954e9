package brightspace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/d2lgrab/d2lgrab/logger"
)

const testTenantID = "746e9230-82d6-4d6b-bd68-5aa40aa19cce"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return token
}

func defaultClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":      "490586",
		"tenantid": testTenantID,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
}

func TestNewDecodesToken(t *testing.T) {
	c, err := New(logger.Nop(), Config{Token: signedToken(t, defaultClaims())})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.UserID != "490586" {
		t.Fatalf("UserID: got %q", c.UserID)
	}
	if c.TenantID != testTenantID {
		t.Fatalf("TenantID: got %q", c.TenantID)
	}
	if !c.TokenExpiry.After(time.Now()) {
		t.Fatalf("TokenExpiry should be in the future, got %v", c.TokenExpiry)
	}
}

func TestNewRejectsBadTokens(t *testing.T) {
	noTenant := defaultClaims()
	delete(noTenant, "tenantid")

	nonUUIDTenant := defaultClaims()
	nonUUIDTenant["tenantid"] = "not-a-uuid"

	noSub := defaultClaims()
	delete(noSub, "sub")

	noExp := defaultClaims()
	delete(noExp, "exp")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"missing tenantid", signedToken(t, noTenant)},
		{"non-uuid tenantid", signedToken(t, nonUUIDTenant)},
		{"missing sub", signedToken(t, noSub)},
		{"missing exp", signedToken(t, noExp)},
	}
	for _, tt := range tests {
		if _, err := New(logger.Nop(), Config{Token: tt.token}); err == nil {
			t.Errorf("%s: expected constructor error", tt.name)
		}
	}
}

func TestEntityFetch(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"class": ["sequenced-activity"], "properties": {"title": "Week 1"}}`))
	}))
	defer srv.Close()

	token := signedToken(t, defaultClaims())
	c, err := New(logger.Nop(), Config{Token: token, BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ent, err := c.Activity(context.Background(), "332000", 12345)
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if gotPath != "/332000/activity/12345?filterOnDatesAndDepth=0" {
		t.Fatalf("path: got %q", gotPath)
	}
	if gotAuth != "Bearer "+token {
		t.Fatalf("auth header: got %q", gotAuth)
	}
	if title, _ := ent.StringProperty("title"); title != "Week 1" {
		t.Fatalf("entity title: got %q", title)
	}
}

func TestEntityAtURLIsVerbatim(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"class": ["submission"]}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{Token: signedToken(t, defaultClaims())})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.EntityAtURL(context.Background(), srv.URL+"/already/resolved/42"); err != nil {
		t.Fatalf("EntityAtURL: %v", err)
	}
	if gotPath != "/already/resolved/42" {
		t.Fatalf("path: got %q", gotPath)
	}
}

func TestMalformedEntityIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing the mandatory class array.
		w.Write([]byte(`{"properties": {"title": "x"}}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{Token: signedToken(t, defaultClaims()), BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Entity(context.Background(), "sequences", "/x"); err == nil {
		t.Fatalf("expected shape error for entity without class")
	}
}

func TestNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{Token: signedToken(t, defaultClaims()), BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.Entity(context.Background(), "activities", "/x")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusForbidden {
		t.Fatalf("status: got %d", se.Status)
	}
}

func TestAbort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"class": ["x"]}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{Token: signedToken(t, defaultClaims()), BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Abort()
	if _, err := c.Entity(context.Background(), "sequences", "/x"); err == nil {
		t.Fatalf("expected error after abort")
	}
}
