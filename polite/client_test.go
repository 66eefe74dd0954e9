package polite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/d2lgrab/d2lgrab/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(logger.Nop(), Config{
		SessionVal:       "sv",
		SecureSessionVal: "ssv",
		Domain:           "nplms",
		BaseURL:          srv.URL,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestRequestsCarrySessionCookies(t *testing.T) {
	var gotCookie string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte(`{"Identifier": "490586", "FirstName": "Kai"}`))
	}))

	if _, err := c.WhoAmI(context.Background()); err != nil {
		t.Fatalf("WhoAmI: %v", err)
	}
	want := "d2lSessionVal=sv; d2lSecureSessionVal=ssv"
	if gotCookie != want {
		t.Fatalf("cookie header: got %q, want %q", gotCookie, want)
	}
}

func TestNewFetchToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/d2l/home", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><script>localStorage.setItem('XSRF.Token', 'tok-123');</script></html>`))
	})
	mux.HandleFunc("/d2l/lp/auth/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token exchange method: got %s", r.Method)
		}
		if got := r.Header.Get("X-Csrf-Token"); got != "tok-123" {
			t.Errorf("csrf header: got %q", got)
		}
		w.Write([]byte(`{"access_token": "jwt-abc", "expires_at": 1700003600}`))
	})

	c, _ := newTestClient(t, mux)
	token, err := c.NewFetchToken(context.Background())
	if err != nil {
		t.Fatalf("NewFetchToken: %v", err)
	}
	if token.AccessToken != "jwt-abc" || token.ExpiresAt != 1700003600 {
		t.Fatalf("token: got %+v", token)
	}
}

func TestNewFetchTokenMissingPattern(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>no token here</html>`))
	}))

	_, err := c.NewFetchToken(context.Background())
	var ure *UnexpectedResponseError
	if !errors.As(err, &ure) {
		t.Fatalf("expected UnexpectedResponseError, got %v", err)
	}
}

func TestMyEnrollmentsPagination(t *testing.T) {
	pages := map[string]string{
		"": `{"PagingInfo": {"Bookmark": "b1", "HasMoreItems": true},
		     "Items": [{"OrgUnit": {"Id": 1, "Type": {"Id": 3}, "Name": "A"}}]}`,
		"b1": `{"PagingInfo": {"Bookmark": "b2", "HasMoreItems": true},
		     "Items": [{"OrgUnit": {"Id": 2, "Type": {"Id": 3}, "Name": "B"}}]}`,
		"b2": `{"PagingInfo": {"Bookmark": "b3", "HasMoreItems": false},
		     "Items": [{"OrgUnit": {"Id": 3, "Type": {"Id": 5}, "Name": "Sem"}}]}`,
	}
	hits := map[string]int{}
	var mu sync.Mutex

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bookmark := r.URL.Query().Get("bookmark")
		mu.Lock()
		hits[bookmark]++
		mu.Unlock()
		w.Write([]byte(pages[bookmark]))
	}))

	ctx := context.Background()
	var total int
	bookmark := ""
	for {
		page, err := c.MyEnrollments(ctx, bookmark)
		if err != nil {
			t.Fatalf("MyEnrollments(%q): %v", bookmark, err)
		}
		total += len(page.Items)
		if !page.PagingInfo.HasMoreItems {
			break
		}
		bookmark = page.PagingInfo.Bookmark
	}

	if total != 3 {
		t.Fatalf("item total: got %d, want 3", total)
	}
	for bm, n := range hits {
		if n != 1 {
			t.Errorf("page %q fetched %d times", bm, n)
		}
	}
	if len(hits) != 3 {
		t.Fatalf("pages fetched: got %d, want 3", len(hits))
	}
}

func TestParentOrgUnitsLimit(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	ids := make([]string, 26)
	for i := range ids {
		ids[i] = "1"
	}
	if _, err := c.ParentOrgUnits(context.Background(), ids); err == nil {
		t.Fatalf("expected error for more than 25 ids")
	}
}

func TestParentOrgUnitsRequireDepartment(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Semester": {"Identifier": "2210", "Name": "AY2026 S1"}}]`))
	}))

	_, err := c.ParentOrgUnits(context.Background(), []string{"8042"})
	var ure *UnexpectedResponseError
	if !errors.As(err, &ure) {
		t.Fatalf("expected UnexpectedResponseError for a parent without a department, got %v", err)
	}
}

func TestModuleTOCDecodesToolIDs(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Modules": [{
			"ModuleId": 1, "Title": "Week 1", "SortOrder": 1,
			"Topics": [
				{"Identifier": "t5", "TopicId": 105, "Title": "Assignment 1",
				 "ActivityType": 3, "ToolId": 2000, "ToolItemId": 77, "SortOrder": 1},
				{"Identifier": "t1", "TopicId": 101, "Title": "Notes",
				 "ActivityType": 1, "TypeIdentifier": "File", "Url": "/x.html", "SortOrder": 2}
			],
			"Modules": []
		}]}`))
	}))

	toc, err := c.ModuleTOC(context.Background(), "8042")
	if err != nil {
		t.Fatalf("ModuleTOC: %v", err)
	}
	topics := toc.Modules[0].Topics
	if topics[0].ToolID == nil || *topics[0].ToolID != 2000 {
		t.Fatalf("ToolId: got %v", topics[0].ToolID)
	}
	if topics[0].ToolItemID == nil || *topics[0].ToolItemID != 77 {
		t.Fatalf("ToolItemId: got %v", topics[0].ToolItemID)
	}
	if topics[1].ToolID != nil || topics[1].ToolItemID != nil {
		t.Fatalf("tool ids must stay nil when absent, got %v %v", topics[1].ToolID, topics[1].ToolItemID)
	}
}

func TestDropboxSubmissionsAtMostOne(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"Submissions": [{"Id": 1, "SubmissionDate": null, "Comment": {"Text": "", "Html": ""}}]},
			{"Submissions": []}
		]`))
	}))

	_, err := c.DropboxSubmissions(context.Background(), "123", "456")
	var ure *UnexpectedResponseError
	if !errors.As(err, &ure) {
		t.Fatalf("expected UnexpectedResponseError for two entries, got %v", err)
	}
}

func TestDropboxSubmissionsNullDate(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Submissions": [{"Id": 9, "SubmissionDate": null, "Comment": {"Text": "", "Html": ""}}]}]`))
	}))

	entries, err := c.DropboxSubmissions(context.Background(), "123", "456")
	if err != nil {
		t.Fatalf("DropboxSubmissions: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Submissions) != 1 {
		t.Fatalf("entries: got %+v", entries)
	}
	if entries[0].Submissions[0].SubmissionDate != nil {
		t.Fatalf("not-yet-submitted entry must have nil SubmissionDate")
	}
}

func TestSchemaViolationFailsLoudly(t *testing.T) {
	// whoami without the mandatory Identifier field.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"FirstName": "Kai"}`))
	}))

	_, err := c.WhoAmI(context.Background())
	var ure *UnexpectedResponseError
	if !errors.As(err, &ure) {
		t.Fatalf("expected UnexpectedResponseError, got %v", err)
	}
}

func TestAbortCancelsInFlightRequests(t *testing.T) {
	started := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))

	errc := make(chan error, 1)
	go func() {
		_, err := c.WhoAmI(context.Background())
		errc <- err
	}()

	<-started
	c.Abort()

	select {
	case err := <-errc:
		if err == nil {
			t.Fatalf("expected error after abort")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("request did not abort")
	}

	// Future requests fail immediately too.
	if _, err := c.WhoAmI(context.Background()); err == nil {
		t.Fatalf("expected error for request after abort")
	}
}
