package d2lgrab

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/d2lgrab/d2lgrab/brightspace"
	"github.com/d2lgrab/d2lgrab/polite"
	"github.com/d2lgrab/d2lgrab/urlutil"
)

// TOCTopic.ActivityType values.
const (
	activityTypeContent    = 1 // File or ContentService
	activityTypeLink       = 2
	activityTypeSubmission = 3
	activityTypeQuiz       = 4
)

// ModuleContent fetches a module's table of contents and reconstructs it as
// a tree of folders and classified activities.
//
// Sibling folders and the topics within a folder are crawled in parallel.
// A topic that cannot be classified (missing link, failed sub-fetch) is
// dropped from its folder with a warning; it never aborts its siblings.
// Broken topics are skipped outright, before classification.
func (c *Client) ModuleContent(ctx context.Context, moduleID string) ([]Folder, error) {
	toc, err := c.polite.ModuleTOC(ctx, moduleID)
	if err != nil {
		return nil, c.abortOnError(fmt.Errorf("fetching table of contents: %w", err))
	}

	folders := make([]Folder, len(toc.Modules))
	eg, gctx := errgroup.WithContext(ctx)
	for i, m := range toc.Modules {
		eg.Go(func() error {
			folder, err := c.parseFolder(gctx, m, moduleID)
			if err != nil {
				return err
			}
			folders[i] = folder
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, c.abortOnError(err)
	}
	return folders, nil
}

// parseFolder parses one TOC folder node and, recursively and in parallel,
// everything below it.
func (c *Client) parseFolder(ctx context.Context, m polite.TOCModule, moduleID string) (Folder, error) {
	folderID := strconv.Itoa(m.ModuleID)

	activities := make([]Activity, len(m.Topics))
	parsed := make([]bool, len(m.Topics))
	subfolders := make([]Folder, len(m.Modules))

	eg, gctx := errgroup.WithContext(ctx)
	for i, topic := range m.Topics {
		if topic.IsBroken {
			// Broken topics are absent from the output, not "unknown".
			continue
		}
		eg.Go(func() error {
			activity, err := c.classifyTopic(gctx, topic, moduleID, folderID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				var tokenErr *TokenError
				if errors.As(err, &tokenErr) {
					return err
				}
				c.log.Warn("dropping unclassifiable topic",
					"module_id", moduleID, "topic_id", topic.Identifier, "error", err)
				return nil
			}
			activities[i] = activity
			parsed[i] = true
			return nil
		})
	}
	for i, sub := range m.Modules {
		eg.Go(func() error {
			folder, err := c.parseFolder(gctx, sub, moduleID)
			if err != nil {
				return err
			}
			subfolders[i] = folder
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Folder{}, err
	}

	contents := make([]Item, 0, len(m.Topics)+len(m.Modules))
	for i, ok := range parsed {
		if ok {
			contents = append(contents, activities[i])
		}
	}
	for _, sub := range subfolders {
		contents = append(contents, sub)
	}
	// Stable: equal sort orders keep the source order above.
	sort.SliceStable(contents, func(i, j int) bool {
		return contents[i].ItemSortOrder() < contents[j].ItemSortOrder()
	})

	return Folder{
		ID:          folderID,
		Name:        m.Title,
		Description: m.Description.HTML,
		SortOrder:   m.SortOrder,
		Contents:    contents,
	}, nil
}

// classifyTopic maps one TOC topic onto an Activity variant, issuing the
// variant's extra fetches as needed. Topics matching no rule come back as
// UnknownActivity rather than being dropped.
func (c *Client) classifyTopic(ctx context.Context, topic polite.TOCTopic, moduleID, folderID string) (Activity, error) {
	if topic.IsBroken {
		return nil, errors.New("cannot classify a broken topic")
	}

	base := ActivityBase{
		ID:        topic.Identifier,
		Name:      topic.Title,
		FolderID:  folderID,
		SortOrder: topic.SortOrder,
	}
	topicURL := ""
	if topic.URL != nil {
		topicURL = *topic.URL
	}

	switch {
	case topic.ActivityType == activityTypeContent && topic.TypeIdentifier == "File" && strings.HasSuffix(topicURL, ".html"):
		content, err := c.polite.ContentHTML(ctx, topicURL)
		if err != nil {
			return nil, fmt.Errorf("fetching inline content: %w", err)
		}
		return HTMLActivity{ActivityBase: base, Content: content}, nil

	case topic.ActivityType == activityTypeContent && topic.TypeIdentifier == "File":
		return c.classifyDocEmbed(ctx, topic, moduleID, base, topicURL)

	case topic.ActivityType == activityTypeContent && topic.TypeIdentifier == "ContentService":
		return c.classifyVideoEmbed(ctx, topic, moduleID, base)

	case topic.ActivityType == activityTypeLink:
		return WebEmbedActivity{ActivityBase: base, URL: topicURL}, nil

	case topic.ActivityType == activityTypeSubmission:
		if topic.ToolItemID == nil {
			return nil, errors.New("missing ToolItemId on submission topic")
		}
		// Name comes from the referenced dropbox, not the topic.
		base.Name = ""
		return SubmissionActivity{ActivityBase: base, DropboxID: strconv.Itoa(*topic.ToolItemID)}, nil

	case topic.ActivityType == activityTypeQuiz:
		if topic.ToolItemID == nil {
			return nil, errors.New("missing ToolItemId on quiz topic")
		}
		base.Name = ""
		return QuizActivity{ActivityBase: base, QuizID: strconv.Itoa(*topic.ToolItemID)}, nil
	}

	return UnknownActivity{ActivityBase: base}, nil
}

// classifyDocEmbed resolves the generated PDF preview of a document topic
// via the sequences API. The preview link is optional; when present its URL
// is time-limited and the expiry is derived from the URL itself.
func (c *Client) classifyDocEmbed(ctx context.Context, topic polite.TOCTopic, moduleID string, base ActivityBase, sourceURL string) (Activity, error) {
	bs, err := c.brightspace(ctx)
	if err != nil {
		return nil, err
	}
	ent, err := bs.Activity(ctx, moduleID, topic.TopicID)
	if err != nil {
		return nil, fmt.Errorf("fetching activity entity: %w", err)
	}

	fileActivity, err := ent.GetChildWithClass("activity", "file-activity")
	if err != nil {
		return nil, err
	}
	file, err := fileActivity.GetChildWithClass("file")
	if err != nil {
		return nil, err
	}

	activity := DocEmbedActivity{ActivityBase: base, SourceURL: sourceURL}
	if preview := file.FindLinkWithClass("pdf", "d2l-converted-doc"); preview != nil {
		activity.PreviewURL = preview.Href
		if expiry, ok := urlutil.Expiry(preview.Href); ok {
			activity.PreviewExpiry = &expiry
		}
	}
	return activity, nil
}

// classifyVideoEmbed resolves a content-service topic's media and thumbnail
// URLs with two parallel fetches; each carries its own expiry.
func (c *Client) classifyVideoEmbed(ctx context.Context, topic polite.TOCTopic, moduleID string, base ActivityBase) (Activity, error) {
	bs, err := c.brightspace(ctx)
	if err != nil {
		return nil, err
	}

	activity := VideoEmbedActivity{ActivityBase: base}
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		url, expiry, err := c.contentServiceMedia(gctx, bs, moduleID, topic.Identifier)
		if err != nil {
			return err
		}
		activity.SourceURL, activity.SourceExpiry = url, expiry
		return nil
	})
	eg.Go(func() error {
		url, expiry, err := c.contentServiceThumbnail(gctx, bs, moduleID, topic.Identifier)
		if err != nil {
			return err
		}
		activity.ThumbnailURL, activity.ThumbnailExpiry = url, expiry
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return activity, nil
}

func (c *Client) contentServiceMedia(ctx context.Context, bs *brightspace.Client, moduleID, activityID string) (string, *time.Time, error) {
	ent, err := bs.TopicMedia(ctx, moduleID, activityID)
	if err != nil {
		return "", nil, fmt.Errorf("fetching topic media: %w", err)
	}
	src, ok := ent.StringProperty("src")
	if !ok {
		return "", nil, errors.New("missing src property on media entity")
	}
	var expiry *time.Time
	if e, ok := urlutil.Expiry(src); ok {
		expiry = &e
	}
	return src, expiry, nil
}

func (c *Client) contentServiceThumbnail(ctx context.Context, bs *brightspace.Client, moduleID, activityID string) (string, *time.Time, error) {
	ent, err := bs.TopicThumbnail(ctx, moduleID, activityID)
	if err != nil {
		return "", nil, fmt.Errorf("fetching topic thumbnail: %w", err)
	}
	thumb, err := ent.GetChildWithClass("thumbnail")
	if err != nil {
		return "", nil, err
	}
	src, ok := thumb.StringProperty("src")
	if !ok {
		return "", nil, errors.New("missing src property on thumbnail entity")
	}

	// The content service exposes the expiry directly as a Unix timestamp
	// property; the URL heuristic is the fallback.
	var expiry *time.Time
	if expires, ok := thumb.NumberProperty("expires"); ok {
		e := time.Unix(int64(expires), 0)
		expiry = &e
	} else if e, ok := urlutil.Expiry(src); ok {
		expiry = &e
	}
	return src, expiry, nil
}
