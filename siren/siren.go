// Package siren models Siren hypermedia entities as returned by the
// Brightspace APIs, along with the lookup operations the rest of the module
// navigates them with.
package siren

import (
	"fmt"
	"strings"
)

// Link is an outbound navigational link on an entity.
type Link struct {
	Class []string `json:"class,omitempty"`
	Rel   []string `json:"rel" validate:"required"`
	Href  string   `json:"href" validate:"required"`
}

// Field is a named input of an Action.
type Field struct {
	Name  string `json:"name" validate:"required"`
	Type  string `json:"type" validate:"required"`
	Value any    `json:"value,omitempty"`
	Title string `json:"title,omitempty"`
}

// Action is a form-like operation exposed by an entity.
type Action struct {
	Href   string   `json:"href" validate:"required"`
	Method string   `json:"method" validate:"required"`
	Name   string   `json:"name" validate:"required"`
	Fields []Field  `json:"fields,omitempty" validate:"omitempty,dive"`
	Class  []string `json:"class,omitempty"`
	Title  string   `json:"title,omitempty"`
	Type   string   `json:"type,omitempty"`
}

// Entity is a node in the hypermedia graph. Brightspace sometimes emits
// literal nulls inside the class array; those decode to empty strings.
type Entity struct {
	Class      []string       `json:"class" validate:"required"`
	Rel        []string       `json:"rel,omitempty"`
	Actions    []Action       `json:"actions,omitempty" validate:"omitempty,dive"`
	Entities   []Entity       `json:"entities,omitempty" validate:"omitempty,dive"`
	Links      []Link         `json:"links,omitempty" validate:"omitempty,dive"`
	Properties map[string]any `json:"properties,omitempty"`
	Href       string         `json:"href,omitempty"`
}

// NotFoundError is returned by the Get* lookups when nothing matches.
type NotFoundError struct {
	Kind  string // "child entity", "link" or "action"
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("siren: no %s matching %s", e.Kind, e.Query)
}

// classEq reports whether two class arrays are equal element for element.
// Matching is deliberately order-sensitive: the remote system emits class
// arrays in a stable order and the callers rely on that.
func classEq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func classQuery(class []string) string {
	return fmt.Sprintf("class=[%s]", strings.Join(class, ","))
}

// FindChildWithClass returns the first sub-entity whose class array equals
// class exactly, or nil.
func (e *Entity) FindChildWithClass(class ...string) *Entity {
	for i := range e.Entities {
		if classEq(e.Entities[i].Class, class) {
			return &e.Entities[i]
		}
	}
	return nil
}

// GetChildWithClass is FindChildWithClass, failing with a NotFoundError when
// nothing matches.
func (e *Entity) GetChildWithClass(class ...string) (*Entity, error) {
	if child := e.FindChildWithClass(class...); child != nil {
		return child, nil
	}
	return nil, &NotFoundError{Kind: "child entity", Query: classQuery(class)}
}

// FindChildContainingClass returns the first sub-entity whose class array
// contains class, or nil.
func (e *Entity) FindChildContainingClass(class string) *Entity {
	for i := range e.Entities {
		if contains(e.Entities[i].Class, class) {
			return &e.Entities[i]
		}
	}
	return nil
}

// FindChildWithRel returns the first sub-entity whose rel array contains rel,
// or nil.
func (e *Entity) FindChildWithRel(rel string) *Entity {
	for i := range e.Entities {
		if contains(e.Entities[i].Rel, rel) {
			return &e.Entities[i]
		}
	}
	return nil
}

// GetChildWithRel is FindChildWithRel, failing with a NotFoundError when
// nothing matches.
func (e *Entity) GetChildWithRel(rel string) (*Entity, error) {
	if child := e.FindChildWithRel(rel); child != nil {
		return child, nil
	}
	return nil, &NotFoundError{Kind: "child entity", Query: "rel=" + rel}
}

// FindLinkWithClass returns the first link whose class array equals class
// exactly, or nil.
func (e *Entity) FindLinkWithClass(class ...string) *Link {
	for i := range e.Links {
		if classEq(e.Links[i].Class, class) {
			return &e.Links[i]
		}
	}
	return nil
}

// GetLinkWithClass is FindLinkWithClass, failing with a NotFoundError when
// nothing matches.
func (e *Entity) GetLinkWithClass(class ...string) (*Link, error) {
	if link := e.FindLinkWithClass(class...); link != nil {
		return link, nil
	}
	return nil, &NotFoundError{Kind: "link", Query: classQuery(class)}
}

// FindLinkWithRel returns the first link whose rel array contains rel, or nil.
func (e *Entity) FindLinkWithRel(rel string) *Link {
	for i := range e.Links {
		if contains(e.Links[i].Rel, rel) {
			return &e.Links[i]
		}
	}
	return nil
}

// GetLinkWithRel is FindLinkWithRel, failing with a NotFoundError when nothing
// matches.
func (e *Entity) GetLinkWithRel(rel string) (*Link, error) {
	if link := e.FindLinkWithRel(rel); link != nil {
		return link, nil
	}
	return nil, &NotFoundError{Kind: "link", Query: "rel=" + rel}
}

// FindAction returns the action with the given name, or nil.
func (e *Entity) FindAction(name string) *Action {
	for i := range e.Actions {
		if e.Actions[i].Name == name {
			return &e.Actions[i]
		}
	}
	return nil
}

// GetAction is FindAction, failing with a NotFoundError when nothing matches.
func (e *Entity) GetAction(name string) (*Action, error) {
	if a := e.FindAction(name); a != nil {
		return a, nil
	}
	return nil, &NotFoundError{Kind: "action", Query: "name=" + name}
}

// StringProperty returns the named property if it exists and is a string.
func (e *Entity) StringProperty(name string) (string, bool) {
	v, ok := e.Properties[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// NumberProperty returns the named property coerced to a float64. JSON
// numbers decode to float64; some endpoints emit numeric strings instead.
func (e *Entity) NumberProperty(name string) (float64, bool) {
	switch v := e.Properties[name].(type) {
	case float64:
		return v, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
