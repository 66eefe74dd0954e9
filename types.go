// Package d2lgrab reconstructs a Brightspace-hosted learning-management
// system's content graph as a typed, navigable tree of folders and
// activities, plus the flat records a relational store consumes.
//
// It composes two low-level clients, one per API surface: polite
// (session-cookie authentication) and brightspace (bearer-token
// authentication, obtained lazily through the session client).
package d2lgrab

import "time"

// Every id in this package is the remote system's own opaque identifier, so
// upserting by id is always safe and idempotent.

// User identifies the authenticated user.
type User struct {
	ID   string
	Name string
}

// Organization identifies the institution operating the site.
type Organization struct {
	ID   string
	Name string
}

// Semester is a scheduling period that modules belong to.
type Semester struct {
	ID   string
	Name string
}

// Module is a course offering the user is enrolled in.
type Module struct {
	ID         string
	Name       string
	Code       string
	SemesterID string
}

// Item is a node in a module's content tree: either a Folder or an Activity.
type Item interface {
	isItem()
	// ItemSortOrder returns the node's integer sort order within its
	// parent folder.
	ItemSortOrder() int
}

// Folder is a recursive grouping node in a module's content tree. Folders
// form a forest per module; Contents holds the folder's activities and
// sub-folders sorted together by sort order.
type Folder struct {
	ID          string
	Name        string
	Description string
	SortOrder   int
	Contents    []Item
}

func (Folder) isItem()              {}
func (f Folder) ItemSortOrder() int { return f.SortOrder }

// FolderRecord is the flat storage shape of a Folder. ParentID is nil for
// roots of the module's folder forest.
type FolderRecord struct {
	ID          string
	ModuleID    string
	ParentID    *string
	Name        string
	Description string
	SortOrder   int
}

// ActivityKind discriminates the Activity variants.
type ActivityKind string

const (
	KindHTML       ActivityKind = "html"
	KindWebEmbed   ActivityKind = "web_embed"
	KindDocEmbed   ActivityKind = "doc_embed"
	KindVideoEmbed ActivityKind = "video_embed"
	KindSubmission ActivityKind = "submission"
	KindQuiz       ActivityKind = "quiz"
	KindUnknown    ActivityKind = "unknown"
)

// Activity is a single content item inside a module, one of seven variants.
// Submission and quiz activities carry no intrinsic name; it must be joined
// from the referenced dropbox or quiz (see JoinNames).
type Activity interface {
	Item
	// Base returns the fields common to every variant.
	Base() ActivityBase
	// Kind returns the variant tag.
	Kind() ActivityKind
}

// ActivityBase holds the fields every Activity variant carries.
type ActivityBase struct {
	ID        string
	Name      string
	FolderID  string
	SortOrder int
}

func (ActivityBase) isItem()              {}
func (b ActivityBase) Base() ActivityBase { return b }
func (b ActivityBase) ItemSortOrder() int { return b.SortOrder }

// HTMLActivity is inline text content.
type HTMLActivity struct {
	ActivityBase
	Content string
}

func (HTMLActivity) Kind() ActivityKind { return KindHTML }

// WebEmbedActivity embeds an external URL.
type WebEmbedActivity struct {
	ActivityBase
	URL string
}

func (WebEmbedActivity) Kind() ActivityKind { return KindWebEmbed }

// DocEmbedActivity is a document with an optional time-limited PDF preview.
type DocEmbedActivity struct {
	ActivityBase
	SourceURL     string
	PreviewURL    string
	PreviewExpiry *time.Time
}

func (DocEmbedActivity) Kind() ActivityKind { return KindDocEmbed }

// VideoEmbedActivity is hosted media with time-limited source and thumbnail
// URLs, each with an independently derived expiry.
type VideoEmbedActivity struct {
	ActivityBase
	SourceURL       string
	SourceExpiry    *time.Time
	ThumbnailURL    string
	ThumbnailExpiry *time.Time
}

func (VideoEmbedActivity) Kind() ActivityKind { return KindVideoEmbed }

// SubmissionActivity references a submission dropbox by id.
type SubmissionActivity struct {
	ActivityBase
	DropboxID string
}

func (SubmissionActivity) Kind() ActivityKind { return KindSubmission }

// QuizActivity references a quiz by id.
type QuizActivity struct {
	ActivityBase
	QuizID string
}

func (QuizActivity) Kind() ActivityKind { return KindQuiz }

// UnknownActivity preserves a topic that matched no classification rule.
type UnknownActivity struct {
	ActivityBase
}

func (UnknownActivity) Kind() ActivityKind { return KindUnknown }

// SubmissionDropbox is a submission collection point for an assignment,
// stored independently of the activities that reference it.
type SubmissionDropbox struct {
	ID          string
	ModuleID    string
	Name        string
	Description string
	DueAt       *time.Time
	OpensAt     *time.Time
	ClosesAt    *time.Time
}

// Quiz is a quiz in a module, stored independently of the activities that
// reference it.
type Quiz struct {
	ID          string
	ModuleID    string
	Name        string
	Description string
	DueAt       *time.Time
}

// UserSubmission is one user's submission record for a dropbox. SubmittedAt
// is nil when the entry exists but nothing has been submitted yet.
type UserSubmission struct {
	ID          string
	DropboxID   string
	SubmittedAt *time.Time
	Comment     string
}
