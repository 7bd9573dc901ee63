package models

import (
	"time"
)

type User struct {
	ID          int       `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	Password    string    `json:"-" db:"password"`
	DisplayName string    `json:"displayName" db:"display_name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Task is a row of the tasks table. CompletedAt is set iff Done,
// ArchivedAt iff Archived.
type Task struct {
	ID          int        `json:"id" db:"id"`
	UserID      int        `json:"userId" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Subject     *string    `json:"subject" db:"subject"`
	DueDate     *Date      `json:"dueDate" db:"due_date"`
	Done        bool       `json:"done" db:"done"`
	Notes       *string    `json:"notes" db:"notes"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	CompletedAt *time.Time `json:"completedAt" db:"completed_at"`
	Archived    bool       `json:"archived" db:"archived"`
	ArchivedAt  *time.Time `json:"archivedAt" db:"archived_at"`
}

// NewTask carries the caller-supplied fields of a task being created.
type NewTask struct {
	Title   string
	Subject *string
	DueDate *Date
	Notes   *string
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
