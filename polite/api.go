package polite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// xsrfTokenPattern matches the XSRF token embedded in an inline script on the
// site homepage: `.setItem('XSRF.Token', '<token>')`.
var xsrfTokenPattern = regexp.MustCompile(`\.setItem\(['"]XSRF\.Token['"],\s*['"](.+?)['"]\)`)

// NewFetchToken exchanges the session cookies for a short-lived bearer token
// usable with the *.api.brightspace.com APIs.
//
// The exchange endpoint requires a CSRF token which is only obtainable from
// the homepage HTML, so this performs two requests: GET /d2l/home to scrape
// the token, then POST /d2l/lp/auth/oauth2/token.
func (c *Client) NewFetchToken(ctx context.Context) (FetchToken, error) {
	homepage, err := c.getText(ctx, "/d2l/home")
	if err != nil {
		return FetchToken{}, fmt.Errorf("fetching homepage: %w", err)
	}

	m := xsrfTokenPattern.FindStringSubmatch(homepage)
	if m == nil {
		return FetchToken{}, &UnexpectedResponseError{
			URL:    c.baseURL + "/d2l/home",
			Reason: "no XSRF token found in homepage",
		}
	}
	xsrfToken := m[1]

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := c.newRequest(reqCtx, http.MethodPost, "/d2l/lp/auth/oauth2/token", strings.NewReader("scope=*%3A*%3A*"))
	if err != nil {
		return FetchToken{}, err
	}
	req.Header.Set("X-Csrf-Token", xsrfToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token FetchToken
	if err := c.doJSON(req, &token); err != nil {
		return FetchToken{}, fmt.Errorf("exchanging fetch token: %w", err)
	}
	c.log.Debug("obtained new fetch token", "expires_at", token.ExpiresAt)
	return token, nil
}

// WhoAmI returns basic information about the authenticated user.
func (c *Client) WhoAmI(ctx context.Context) (WhoAmIUser, error) {
	var user WhoAmIUser
	err := c.getJSON(ctx, "/d2l/api/lp/1.0/users/whoami", &user)
	return user, err
}

// OrganizationInfo returns information about the institution.
func (c *Client) OrganizationInfo(ctx context.Context) (Organization, error) {
	var org Organization
	err := c.getJSON(ctx, "/d2l/api/lp/1.46/organization/info", &org)
	return org, err
}

// MyEnrollments returns one page of the user's org-unit enrollments. Pass the
// bookmark of the previous page to continue; an empty bookmark fetches the
// first page.
func (c *Client) MyEnrollments(ctx context.Context, bookmark string) (EnrollmentPage, error) {
	path := "/d2l/api/lp/1.46/enrollments/myenrollments/"
	if bookmark != "" {
		path += "?bookmark=" + url.QueryEscape(bookmark)
	}
	var page EnrollmentPage
	err := c.getJSON(ctx, path, &page)
	return page, err
}

// maxParentOrgUnitIDs is the API-imposed limit on ids per parentorgunits
// request.
const maxParentOrgUnitIDs = 25

// ParentOrgUnits returns semester and department parent information for the
// given course-offering org units. The API accepts at most 25 ids per call.
func (c *Client) ParentOrgUnits(ctx context.Context, orgUnitIDs []string) ([]CourseParent, error) {
	if len(orgUnitIDs) == 0 {
		return nil, nil
	}
	if len(orgUnitIDs) > maxParentOrgUnitIDs {
		return nil, fmt.Errorf("at most %d org unit ids per request, got %d", maxParentOrgUnitIDs, len(orgUnitIDs))
	}
	path := "/d2l/api/lp/1.46/courses/parentorgunits?orgUnitIdsCSV=" + url.QueryEscape(strings.Join(orgUnitIDs, ","))
	var parents []CourseParent
	err := c.getJSON(ctx, path, &parents)
	return parents, err
}

// ModuleTOC returns the table of contents for a module, including all nested
// folders and topics.
func (c *Client) ModuleTOC(ctx context.Context, moduleID string) (TableOfContents, error) {
	var toc TableOfContents
	err := c.getJSON(ctx, "/d2l/api/le/1.75/"+moduleID+"/content/toc", &toc)
	return toc, err
}

// ContentHTML fetches a content URL as raw text. urlOrPath may be absolute or
// relative to the site base URL.
func (c *Client) ContentHTML(ctx context.Context, urlOrPath string) (string, error) {
	return c.getText(ctx, urlOrPath)
}

// ImageURL returns the image URL for a course or organization. Purely
// synchronous URL construction.
func (c *Client) ImageURL(id string, width, height int) string {
	u := c.baseURL + "/d2l/api/lp/1.46/courses/" + id + "/image"
	if width > 0 && height > 0 {
		u += "?width=" + strconv.Itoa(width) + "&height=" + strconv.Itoa(height)
	}
	return u
}

// DropboxFolders returns all submission dropbox folders in a module.
func (c *Client) DropboxFolders(ctx context.Context, moduleID string) ([]DropboxFolder, error) {
	var folders []DropboxFolder
	err := c.getJSON(ctx, "/d2l/api/le/1.75/"+moduleID+"/dropbox/folders/", &folders)
	return folders, err
}

// DropboxSubmissions returns the current user's submissions for a dropbox.
// The endpoint legitimately returns zero or one entries; more than one is a
// contract violation and fails loudly.
//
// Dropboxes whose availability window has closed answer this endpoint with
// HTTP 403; callers fall back to the Brightspace activities API in that case.
func (c *Client) DropboxSubmissions(ctx context.Context, moduleID, dropboxID string) ([]EntityDropbox, error) {
	// The remote API 404s without the trailing slash.
	path := "/d2l/api/le/1.75/" + moduleID + "/dropbox/folders/" + dropboxID + "/submissions/"
	var entries []EntityDropbox
	if err := c.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	if len(entries) > 1 {
		return nil, &UnexpectedResponseError{
			URL:    c.baseURL + path,
			Reason: fmt.Sprintf("expected at most one dropbox entry, got %d", len(entries)),
		}
	}
	return entries, nil
}

// QuizzesPage fetches one page of quizzes. For the first page pass
// "/d2l/api/le/1.75/{moduleId}/quizzes/"; follow the page's Next URL until it
// is null.
func (c *Client) QuizzesPage(ctx context.Context, urlOrPath string) (QuizListPage, error) {
	var page QuizListPage
	err := c.getJSON(ctx, urlOrPath, &page)
	return page, err
}
