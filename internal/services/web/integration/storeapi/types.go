package storeapi

import "encoding/json"

// User is a user record as returned by the store API. Optional fields are
// nil when the backend omits them.
type User struct {
	ID        string  `json:"id"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Email     *string `json:"email,omitempty"`
	CreatedAt *int64  `json:"created_at,omitempty"`
}

// UnmarshalJSON accepts either "id" or "user_id" as the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var wire struct {
		plain
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*u = User(wire.plain)
	if u.ID == "" {
		u.ID = wire.UserID
	}
	return nil
}

// UserUpdate is a partial update for the current user. Nil fields are not
// sent.
type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}
