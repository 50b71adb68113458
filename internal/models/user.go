package models

import "time"

// Well-known role spellings. Deployments extend these through the role allow-lists.
const (
	RoleAdministrator = "administrator"
	RoleTeacher       = "teacher"
	RoleStudent       = "student"
	RoleParent        = "parent"
)

// Identity is a user known to the external identity directory.
type Identity struct {
	ID          int64     `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Roles       []string  `db:"-" json:"roles"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Name returns the display name, falling back to the numeric id.
func (i *Identity) Name() string {
	if i == nil {
		return ""
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return FallbackName(i.ID)
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	ID          int64
	Email       string
	DisplayName string
	Roles       []string
}

// ParentChildLink maps a parent identity to the students it may view.
type ParentChildLink struct {
	ParentID  int64     `db:"parent_id" json:"parent_id"`
	ChildIDs  []int64   `db:"-" json:"child_ids"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Dashboard summarises what the caller may do.
type Dashboard struct {
	UserID            int64  `json:"user_id"`
	DisplayName       string `json:"display_name"`
	CanSubmitMarks    bool   `json:"can_submit_marks"`
	CanViewOwn        bool   `json:"can_view_own"`
	CanViewChildren   bool   `json:"can_view_children"`
	CanViewAllReports bool   `json:"can_view_all_reports"`
}
