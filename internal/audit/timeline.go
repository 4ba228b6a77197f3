package audit

import "time"

// SystemUsername labels entries whose user is absent or deleted.
const SystemUsername = "System"

// TimelineFilters menampung filter dasar untuk audit timeline.
type TimelineFilters struct {
	Query    string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// TimelineRow mewakili satu baris audit timeline.
type TimelineRow struct {
	ID       int64     `json:"id"`
	At       time.Time `json:"timestamp"`
	UserID   *int64    `json:"user_id"`
	Username string    `json:"username"`
	Action   string    `json:"action"`
	Details  string    `json:"details"`
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int  `json:"page"`
	HasNext  bool `json:"has_next"`
	PageSize int  `json:"page_size"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// WindowParams selects one page of the timeline. Limit is one more than the page
// size so the caller can detect a following page.
type WindowParams struct {
	Query  string
	From   time.Time
	To     time.Time
	Offset int
	Limit  int
}
