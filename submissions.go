package d2lgrab

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/d2lgrab/d2lgrab/brightspace"
	"github.com/d2lgrab/d2lgrab/urlutil"
)

// SubmissionDropboxes lists a module's assignment dropboxes.
func (c *Client) SubmissionDropboxes(ctx context.Context, moduleID string) ([]SubmissionDropbox, error) {
	folders, err := c.polite.DropboxFolders(ctx, moduleID)
	if err != nil {
		return nil, c.abortOnError(fmt.Errorf("fetching dropbox folders: %w", err))
	}

	dropboxes := make([]SubmissionDropbox, 0, len(folders))
	for _, f := range folders {
		d := SubmissionDropbox{
			ID:          strconv.Itoa(f.ID),
			ModuleID:    moduleID,
			Name:        f.Name,
			Description: f.CustomInstructions.HTML,
			DueAt:       f.DueDate,
		}
		if f.Availability != nil {
			d.OpensAt = f.Availability.StartDate
			d.ClosesAt = f.Availability.EndDate
		}
		dropboxes = append(dropboxes, d)
	}
	return dropboxes, nil
}

// Submissions fetches the current user's submissions for one dropbox.
//
// The session API is tried first. It stops listing submissions once a
// dropbox closes, so on any failure there the closed-activities API is
// queried instead; both paths produce the same records. orgID may be empty,
// in which case it is resolved when (and only when) the fallback runs.
func (c *Client) Submissions(ctx context.Context, moduleID, dropboxID, orgID string) ([]UserSubmission, error) {
	subs, err := c.politeSubmissions(ctx, moduleID, dropboxID)
	if err == nil {
		return subs, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	c.log.Debug("session submissions fetch failed, trying closed-activities fallback",
		"module_id", moduleID, "dropbox_id", dropboxID, "error", err)

	subs, err = c.closedSubmissions(ctx, moduleID, dropboxID, orgID)
	if err != nil {
		return nil, c.abortOnError(err)
	}
	return subs, nil
}

func (c *Client) politeSubmissions(ctx context.Context, moduleID, dropboxID string) ([]UserSubmission, error) {
	dropboxes, err := c.polite.DropboxSubmissions(ctx, moduleID, dropboxID)
	if err != nil {
		return nil, err
	}
	if len(dropboxes) == 0 {
		return []UserSubmission{}, nil
	}

	entries := dropboxes[0].Submissions
	subs := make([]UserSubmission, 0, len(entries))
	for _, s := range entries {
		subs = append(subs, UserSubmission{
			ID:          strconv.Itoa(s.ID),
			DropboxID:   dropboxID,
			SubmittedAt: s.SubmissionDate,
			Comment:     s.Comment.HTML,
		})
	}
	return subs, nil
}

func (c *Client) closedSubmissions(ctx context.Context, moduleID, dropboxID, orgID string) ([]UserSubmission, error) {
	if orgID == "" {
		org, err := c.Organization(ctx)
		if err != nil {
			return nil, err
		}
		orgID = org.ID
	}
	bs, err := c.brightspace(ctx)
	if err != nil {
		return nil, err
	}

	usage, err := bs.ClosedDropboxSubmissions(ctx, orgID, dropboxID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("fetching closed dropbox usage: %w", err)
	}
	list, err := usage.GetChildWithClass("assignment-submission-list")
	if err != nil {
		return nil, err
	}

	subs := make([]UserSubmission, len(list.Links))
	eg, gctx := errgroup.WithContext(ctx)
	for i, link := range list.Links {
		eg.Go(func() error {
			sub, err := c.closedSubmission(gctx, bs, dropboxID, link.Href)
			if err != nil {
				return err
			}
			subs[i] = sub
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return subs, nil
}

// closedSubmission resolves one submission detail entity. The submission id
// is the last path component of the detail URL; the entity itself does not
// repeat it.
func (c *Client) closedSubmission(ctx context.Context, bs *brightspace.Client, dropboxID, href string) (UserSubmission, error) {
	id, err := urlutil.LastPathComponent(href)
	if err != nil {
		return UserSubmission{}, fmt.Errorf("submission detail URL %q: %w", href, err)
	}
	ent, err := bs.SubmissionDetails(ctx, href)
	if err != nil {
		return UserSubmission{}, fmt.Errorf("fetching submission details: %w", err)
	}

	sub := UserSubmission{ID: id, DropboxID: dropboxID}
	if dateEnt := ent.FindChildContainingClass("submission-date"); dateEnt != nil {
		raw, ok := dateEnt.StringProperty("date")
		if !ok {
			return UserSubmission{}, errors.New("submission-date entity has no date property")
		}
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return UserSubmission{}, fmt.Errorf("parsing submission date %q: %w", raw, err)
		}
		sub.SubmittedAt = &at
	}
	if commentEnt := ent.FindChildContainingClass("submission-comment"); commentEnt != nil {
		if html, ok := commentEnt.StringProperty("html"); ok {
			sub.Comment = html
		}
	}
	return sub, nil
}
