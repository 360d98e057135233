// Package catechism models ilmihal content: flat rows as stored and the
// chapter → section → subsection tree served to readers.
package catechism

import (
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/ilmihal/internal/domain"
)

// GeneralKey groups rows whose chapter or section is null or empty.
const GeneralKey = "general"

// ContentRow is one row of the content table.
type ContentRow struct {
	ID          string    `json:"id"`
	BookName    *string   `json:"book_name,omitempty"`
	AuthorName  *string   `json:"author_name,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Content     *string   `json:"content,omitempty"`
	Chapter     *string   `json:"chapter,omitempty"`
	Section     *string   `json:"section,omitempty"`
	SubSection  *string   `json:"subsection,omitempty"`
	Tags        *string   `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChapterKey returns the grouping key of the row's chapter.
func (r *ContentRow) ChapterKey() string { return keyOrGeneral(r.Chapter) }

// SectionKey returns the grouping key of the row's section.
func (r *ContentRow) SectionKey() string { return keyOrGeneral(r.Section) }

// Chapter is the top level of an assembled tree.
type Chapter struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section groups subsections inside a chapter.
type Section struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	SubSections []SubSection `json:"subSections"`
}

// SubSection is a single leaf content item. ID is the row's subsection key,
// or the row ID when the row has no subsection.
type SubSection struct {
	ID          string    `json:"id"`
	RowID       string    `json:"rowId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Tags        string    `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Filter restricts which rows the store returns.
// SectionID is honoured only with ChapterID, SubSectionID only with SectionID.
type Filter struct {
	ChapterID    string
	SectionID    string
	SubSectionID string
	Search       string
}

// Key returns a stable identifier of the filter, used for cache keys.
func (f Filter) Key() string {
	return fmt.Sprintf("c=%q;s=%q;ss=%q;q=%q", f.ChapterID, f.SectionID, f.SubSectionID, f.Search)
}

// NotFoundError names the chapter, section or subsection id that matched nothing.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return e.ID + " not found" }

// Unwrap lets callers match with errors.Is(err, domain.ErrNotFound).
func (e *NotFoundError) Unwrap() error { return domain.ErrNotFound }

// ErrSubSectionWithoutSection is returned when a subsection is requested
// without naming the section that contains it.
var ErrSubSectionWithoutSection = fmt.Errorf("%w: subsection requires section", domain.ErrValidation)

// RetrievalError wraps a failed store round-trip.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return "content retrieval failed: " + e.Err.Error() }

func (e *RetrievalError) Unwrap() error { return e.Err }

// Details returns the underlying store message for diagnostics.
func (e *RetrievalError) Details() string { return e.Err.Error() }

// IsRetrieval reports whether err is a store failure and returns it.
func IsRetrieval(err error) (*RetrievalError, bool) {
	var re *RetrievalError
	ok := errors.As(err, &re)
	return re, ok
}

func keyOrGeneral(s *string) string {
	if s == nil || *s == "" {
		return GeneralKey
	}
	return *s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
