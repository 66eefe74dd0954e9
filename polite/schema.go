package polite

import "time"

// Response shapes for the POLITEMall API, after
// https://docs.valence.desire2learn.com/reference.html. Only the parts this
// module consumes are modelled; contract-mandatory fields carry validate
// tags and a violation surfaces as an UnexpectedResponseError.

// FetchToken is the response of the token-exchange endpoint.
type FetchToken struct {
	AccessToken string `json:"access_token" validate:"required"`
	ExpiresAt   int64  `json:"expires_at" validate:"required"`
}

// WhoAmIUser describes the authenticated user.
type WhoAmIUser struct {
	Identifier        string `json:"Identifier" validate:"required"`
	FirstName         string `json:"FirstName"`
	LastName          string `json:"LastName"`
	UniqueName        string `json:"UniqueName"`
	ProfileIdentifier string `json:"ProfileIdentifier"`
}

// Organization describes the institution that operates the tenant.
type Organization struct {
	Identifier string `json:"Identifier" validate:"required"`
	Name       string `json:"Name"`
	TimeZone   string `json:"TimeZone"`
}

type OrgUnitType struct {
	ID   int    `json:"Id"`
	Code string `json:"Code"`
	Name string `json:"Name"`
}

type OrgUnit struct {
	ID   int         `json:"Id" validate:"required"`
	Type OrgUnitType `json:"Type"`
	Name string      `json:"Name"`
	Code *string     `json:"Code"`
}

type MyOrgUnitInfo struct {
	OrgUnit OrgUnit `json:"OrgUnit"`
}

type PagingInfo struct {
	Bookmark     string `json:"Bookmark"`
	HasMoreItems bool   `json:"HasMoreItems"`
}

// EnrollmentPage is one bookmark-paginated page of the user's enrollments.
type EnrollmentPage struct {
	PagingInfo PagingInfo      `json:"PagingInfo"`
	Items      []MyOrgUnitInfo `json:"Items" validate:"omitempty,dive"`
}

type OrgUnitRef struct {
	Identifier string `json:"Identifier" validate:"required"`
	Name       string `json:"Name"`
	Code       string `json:"Code"`
}

// CourseParent pairs a course offering with its parent semester and
// department.
type CourseParent struct {
	CourseOfferingID string     `json:"CourseOfferingId"`
	Semester         OrgUnitRef `json:"Semester"`
	Department       OrgUnitRef `json:"Department"`
}

type RichText struct {
	Text string `json:"Text"`
	HTML string `json:"Html"`
}

// TOCTopic is a leaf of a module's table of contents.
//
// ActivityType values: 1 = File / ContentService, 2 = Link (web embed),
// 3 = Dropbox (submission), 4 = Quiz.
type TOCTopic struct {
	Identifier     string   `json:"Identifier" validate:"required"`
	TopicID        int      `json:"TopicId"`
	Title          string   `json:"Title"`
	Description    RichText `json:"Description"`
	ActivityType   int      `json:"ActivityType"`
	TypeIdentifier string   `json:"TypeIdentifier"`
	Unread         bool     `json:"Unread"`
	ToolID         *int     `json:"ToolId"`
	ToolItemID     *int     `json:"ToolItemId"`
	SortOrder      int      `json:"SortOrder"`
	IsBroken       bool     `json:"IsBroken"`
	// URL is null when the topic is broken.
	URL *string `json:"Url"`
}

// TOCModule is a grouping node of the table of contents. Brightspace calls
// these "Modules"; the rest of this library calls them activity folders to
// avoid clashing with course modules.
type TOCModule struct {
	ModuleID    int         `json:"ModuleId" validate:"required"`
	Title       string      `json:"Title"`
	Description RichText    `json:"Description"`
	SortOrder   int         `json:"SortOrder"`
	Topics      []TOCTopic  `json:"Topics" validate:"omitempty,dive"`
	Modules     []TOCModule `json:"Modules" validate:"omitempty,dive"`
}

type TableOfContents struct {
	Modules []TOCModule `json:"Modules" validate:"omitempty,dive"`
}

type DropboxAvailability struct {
	StartDate *time.Time `json:"StartDate"`
	EndDate   *time.Time `json:"EndDate"`
}

// DropboxFolder is a submission collection point for an assignment.
type DropboxFolder struct {
	ID                 int                  `json:"Id" validate:"required"`
	Name               string               `json:"Name"`
	CustomInstructions RichText             `json:"CustomInstructions"`
	DueDate            *time.Time           `json:"DueDate"`
	Availability       *DropboxAvailability `json:"Availability"`
}

// DropboxSubmission is a single submitted entry. SubmissionDate is null when
// the entry exists but nothing has been submitted yet.
type DropboxSubmission struct {
	ID             int        `json:"Id" validate:"required"`
	SubmissionDate *time.Time `json:"SubmissionDate"`
	Comment        RichText   `json:"Comment"`
}

// EntityDropbox groups the current user's submissions for one dropbox.
type EntityDropbox struct {
	CompletionDate *string             `json:"CompletionDate"`
	Submissions    []DropboxSubmission `json:"Submissions" validate:"omitempty,dive"`
}

type QuizDescription struct {
	Text        RichText `json:"Text"`
	IsDisplayed bool     `json:"IsDisplayed"`
}

type QuizReadData struct {
	QuizID      int             `json:"QuizId" validate:"required"`
	Name        string          `json:"Name"`
	Description QuizDescription `json:"Description"`
	StartDate   *time.Time      `json:"StartDate"`
	EndDate     *time.Time      `json:"EndDate"`
	DueDate     *time.Time      `json:"DueDate"`
	SortOrder   int             `json:"SortOrder"`
}

// QuizListPage is one cursor-paginated page of quizzes. Next is the absolute
// or site-relative URL of the following page, or null on the last page.
type QuizListPage struct {
	Next    *string        `json:"Next"`
	Objects []QuizReadData `json:"Objects" validate:"omitempty,dive"`
}
