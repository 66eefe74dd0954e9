package d2lgrab

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/d2lgrab/d2lgrab/polite"
)

// orgUnitTypeCourseOffering is the OrgUnit.Type.Id marking an enrollment as
// a course offering (as opposed to semesters, departments and the like).
const orgUnitTypeCourseOffering = 3

// Modules enumerates the course offerings the user is enrolled in, paging
// through enrollments bookmark by bookmark. SemesterID is left empty; use
// ModulesAndSemesters to resolve it.
func (c *Client) Modules(ctx context.Context) ([]Module, error) {
	var modules []Module
	bookmark := ""
	for {
		page, err := c.polite.MyEnrollments(ctx, bookmark)
		if err != nil {
			return nil, c.abortOnError(fmt.Errorf("paging enrollments: %w", err))
		}
		for _, item := range page.Items {
			if item.OrgUnit.Type.ID != orgUnitTypeCourseOffering {
				continue
			}
			var code string
			if item.OrgUnit.Code != nil {
				code = *item.OrgUnit.Code
			}
			modules = append(modules, Module{
				ID:   strconv.Itoa(item.OrgUnit.ID),
				Name: item.OrgUnit.Name,
				Code: code,
			})
		}
		if !page.PagingInfo.HasMoreItems {
			return modules, nil
		}
		bookmark = page.PagingInfo.Bookmark
	}
}

// ModulesAndSemesters enumerates the user's modules together with their
// semesters. Semesters are deduplicated by id, preserving first-seen order;
// every returned Module carries its SemesterID.
func (c *Client) ModulesAndSemesters(ctx context.Context) ([]Module, []Semester, error) {
	modules, err := c.Modules(ctx)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	semesters, err := c.semestersBatched(ctx, ids)
	if err != nil {
		return nil, nil, c.abortOnError(err)
	}
	// The batched lookup is index-paired with the request: semesters[i]
	// belongs to modules[i]. A length mismatch means the remote API broke
	// that contract and pairing would silently corrupt the result.
	if len(semesters) != len(modules) {
		return nil, nil, c.abortOnError(fmt.Errorf(
			"parent lookup returned %d semesters for %d modules", len(semesters), len(modules)))
	}

	for i := range modules {
		modules[i].SemesterID = semesters[i].ID
	}

	var unique []Semester
	seen := make(map[string]bool)
	for _, sem := range semesters {
		if !seen[sem.ID] {
			seen[sem.ID] = true
			unique = append(unique, sem)
		}
	}
	return modules, unique, nil
}

// semestersBatched resolves the parent semester of each module id, in
// batches of at most 25 ids (the API limit). Batches run in parallel but
// results keep request order, index for index.
func (c *Client) semestersBatched(ctx context.Context, moduleIDs []string) ([]Semester, error) {
	batches := chunk(moduleIDs, 25)
	results := make([][]polite.CourseParent, len(batches))

	eg, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		eg.Go(func() error {
			parents, err := c.polite.ParentOrgUnits(gctx, batch)
			if err != nil {
				return fmt.Errorf("resolving parent org units: %w", err)
			}
			results[i] = parents
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var semesters []Semester
	for _, parents := range results {
		for _, p := range parents {
			semesters = append(semesters, Semester{
				ID:   p.Semester.Identifier,
				Name: strings.TrimSpace(p.Semester.Name),
			})
		}
	}
	return semesters, nil
}

// chunk splits s into consecutive slices of at most size elements.
func chunk(s []string, size int) [][]string {
	var out [][]string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	if len(s) > 0 {
		out = append(out, s)
	}
	return out
}
