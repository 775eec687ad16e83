package lookup

import (
	"time"

	"github.com/dgallion1/condlookup/internal/access"
	"github.com/dgallion1/condlookup/internal/search"
	"github.com/dgallion1/condlookup/internal/sections"
)

// Status is the overall outcome of a lookup.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Result is everything the condition page shows for one lookup.
type Result struct {
	ID       string          `json:"lookup_id"`
	Disease  string          `json:"disease"`
	Status   Status          `json:"status"`
	Cached   bool            `json:"cached"`
	Links    []search.Link   `json:"search_links"`
	Access   access.Decision `json:"access"`
	Summary  string          `json:"summary"`
	Details  string          `json:"details"`
	Sections *sections.Map   `json:"sections"`

	SummaryError string `json:"summary_error,omitempty"`
	DetailsError string `json:"details_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SectionList returns the sections as an ordered slice.
func (r *Result) SectionList() []sections.Section {
	return r.Sections.Sections()
}

// clone returns a shallow copy safe to hand out from the cache.
func (r *Result) clone() *Result {
	c := *r
	c.Links = append([]search.Link(nil), r.Links...)
	return &c
}
