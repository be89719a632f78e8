package model

import (
	"time"
)

// Status tags a task's position in its lifecycle. The numeric values are
// stored as-is in the tasks table, so they must never be renumbered.
type Status int

const (
	StatusPending    Status = 0
	StatusSuccess    Status = 1
	StatusFailed     Status = -1
	StatusProcessing Status = 2
	StatusDeleted    Status = -99
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusProcessing:
		return "processing"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ParseStatus maps a lifecycle name back to its Status tag.
func ParseStatus(name string) (Status, bool) {
	switch name {
	case "pending":
		return StatusPending, true
	case "success":
		return StatusSuccess, true
	case "failed":
		return StatusFailed, true
	case "processing":
		return StatusProcessing, true
	case "deleted":
		return StatusDeleted, true
	}
	return 0, false
}

// Task is one download job, identified by its URL.
type Task struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	URL          string    `gorm:"size:500;not null;uniqueIndex" json:"url"`
	Title        string    `gorm:"size:200" json:"title,omitempty"`
	Duration     int       `json:"duration,omitempty"`
	Status       Status    `gorm:"not null;index" json:"status"`
	DownloadType int       `json:"download_type,omitempty"`
	Log          string    `json:"log,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	ModifiedAt   time.Time `gorm:"column:modified_at" json:"modified_at"`
}

// NewTask is the registration payload for a single entry.
type NewTask struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// StatusUpdate carries a status transition together with the optional
// fields that may accompany it. A nil field leaves the stored value alone;
// a non-nil field overwrites it, including overwriting with the zero value.
type StatusUpdate struct {
	Status       Status
	DownloadType *int
	Log          *string
}

// Stats is a consistent snapshot of task counts per status. The per-status
// counts always sum to Total.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Success    int64 `json:"success"`
	Failed     int64 `json:"failed"`
	Deleted    int64 `json:"deleted"`
}
