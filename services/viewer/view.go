package viewer

import (
	"bingebase/models"
	"bingebase/services/metadata"
)

// Card is one render-ready grid entry: the content item plus its
// favorite flag at snapshot time.
type Card struct {
	Item     models.ContentItem `json:"item"`
	Favorite bool               `json:"favorite"`
}

// Section is a titled group of cards. Status distinguishes a valid
// zero-match section from one whose fetch failed.
type Section struct {
	Title  string              `json:"title"`
	Status metadata.FeedStatus `json:"status"`
	Cards  []Card              `json:"cards"`
}

// NoticeLevel classifies transient notifications.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a dismissable transient notification (the toast
// equivalent of the browser UI).
type Notice struct {
	ID      string      `json:"id"`
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// ViewModel is an immutable snapshot of everything a renderer needs.
// Mapping (state, data) to this structure is the whole rendering
// contract; no UI toolkit types leak in.
type ViewModel struct {
	View     View                 `json:"view"`
	Heading  string               `json:"heading"`
	Query    string               `json:"query"`
	Sections []Section            `json:"sections"`
	Detail   *models.DetailRecord `json:"detail,omitempty"`
	Notices  []Notice             `json:"notices"`
	History  []string             `json:"history"`
}

// Snapshot returns a copy of the current view state. Callers may hold
// it across later mutations without seeing them.
func (c *Controller) Snapshot() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()

	vm := ViewModel{
		View:    c.view,
		Heading: c.heading,
		Query:   c.query,
		History: c.prefs.History(),
	}

	vm.Sections = make([]Section, len(c.sections))
	for i, section := range c.sections {
		copied := section
		copied.Cards = make([]Card, len(section.Cards))
		copy(copied.Cards, section.Cards)
		vm.Sections[i] = copied
	}

	if c.detail != nil {
		detail := *c.detail
		vm.Detail = &detail
	}

	vm.Notices = make([]Notice, len(c.notices))
	copy(vm.Notices, c.notices)

	return vm
}
