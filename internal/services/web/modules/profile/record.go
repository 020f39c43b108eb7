package profile

import (
	"strings"
	"time"
)

// JoinDateLayout formats account creation dates, always in UTC.
const JoinDateLayout = "January 2, 2006"

// UserRecord is one store user as the profile page sees it. Absent fields
// stay nil so renderers can fall back to placeholders.
type UserRecord struct {
	ID        string  `json:"user_id"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Email     *string `json:"email,omitempty"`
	CreatedAt *int64  `json:"created_at,omitempty"`
}

// FullName joins the present name parts with a single space.
func (u UserRecord) FullName() string {
	parts := make([]string, 0, 2)
	for _, part := range []*string{u.FirstName, u.LastName} {
		if value := trimmed(part); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, " ")
}

// JoinDate formats CreatedAt, reporting false when it is absent.
func (u UserRecord) JoinDate() (string, bool) {
	if u.CreatedAt == nil {
		return "", false
	}
	return time.Unix(*u.CreatedAt, 0).UTC().Format(JoinDateLayout), true
}

// Merge returns u with every field present in updated applied on top.
func (u UserRecord) Merge(updated UserRecord) UserRecord {
	if updated.ID != "" {
		u.ID = updated.ID
	}
	if updated.FirstName != nil {
		u.FirstName = updated.FirstName
	}
	if updated.LastName != nil {
		u.LastName = updated.LastName
	}
	if updated.Bio != nil {
		u.Bio = updated.Bio
	}
	if updated.Email != nil {
		u.Email = updated.Email
	}
	if updated.CreatedAt != nil {
		u.CreatedAt = updated.CreatedAt
	}
	return u
}

// UpdateRequest is a partial profile write. Nil fields are not sent.
type UpdateRequest struct {
	FirstName *string
	LastName  *string
	Bio       *string
}

// EditBuffer holds the draft values of the edit form.
type EditBuffer struct {
	FirstName string
	LastName  string
	Bio       string
}

// NewEditBuffer seeds a draft from record, defaulting absent fields to "".
func NewEditBuffer(record UserRecord) EditBuffer {
	return EditBuffer{
		FirstName: deref(record.FirstName),
		LastName:  deref(record.LastName),
		Bio:       deref(record.Bio),
	}
}

// Request converts the draft into an update carrying all three fields.
func (b EditBuffer) Request() UpdateRequest {
	firstName, lastName, bio := b.FirstName, b.LastName, b.Bio
	return UpdateRequest{FirstName: &firstName, LastName: &lastName, Bio: &bio}
}

// ViewState is the lifecycle of the profile page.
type ViewState int

const (
	StateLoading ViewState = iota
	StateViewing
	StateEditing
	StateSubmitting
	StateNotFound
)

func (s ViewState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func trimmed(value *string) string {
	return strings.TrimSpace(deref(value))
}
