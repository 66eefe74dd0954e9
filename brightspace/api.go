package brightspace

import (
	"context"
	"strconv"

	"github.com/d2lgrab/d2lgrab/siren"
)

// dropboxToolID is the Brightspace tool id for dropbox activities, a fixed
// segment of the activities-API usage path.
const dropboxToolID = "2000"

// Activity fetches the entity for a single topic in a module from the
// sequences API. Used to resolve document-embed preview links.
func (c *Client) Activity(ctx context.Context, moduleID string, topicID int) (*siren.Entity, error) {
	return c.Entity(ctx, "sequences", "/"+moduleID+"/activity/"+strconv.Itoa(topicID)+"?filterOnDatesAndDepth=0")
}

// ClosedDropboxSubmissions fetches submission information for a dropbox past
// its availability end date. The session API answers 403 for such dropboxes,
// so this activities-API path serves as the fallback.
func (c *Client) ClosedDropboxSubmissions(ctx context.Context, orgID, dropboxID, moduleID string) (*siren.Entity, error) {
	path := "/old/activities/" + orgID + "_" + dropboxToolID + "_" + dropboxID +
		"/usages/" + moduleID + "/users/" + c.UserID
	return c.Entity(ctx, "activities", path)
}

// SubmissionDetails fetches a submission entity from an absolute URL, as
// surfaced in the links of a ClosedDropboxSubmissions entity. Those hrefs are
// already fully resolved and must not be re-templated.
func (c *Client) SubmissionDetails(ctx context.Context, href string) (*siren.Entity, error) {
	return c.EntityAtURL(ctx, href)
}

// TopicThumbnail fetches thumbnail metadata for a content-service topic. The
// entity carries a "thumbnail" sub-entity whose src property is a
// time-limited image URL.
func (c *Client) TopicThumbnail(ctx context.Context, moduleID, activityID string) (*siren.Entity, error) {
	return c.Entity(ctx, "content-service", "/topics/"+moduleID+"/"+activityID)
}

// TopicMedia fetches media metadata for a content-service topic, typically a
// video. The entity's src property is a time-limited URL for the media file.
func (c *Client) TopicMedia(ctx context.Context, moduleID, activityID string) (*siren.Entity, error) {
	return c.Entity(ctx, "content-service", "/topics/"+moduleID+"/"+activityID+"/media")
}
