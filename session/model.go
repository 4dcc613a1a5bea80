package session

// User is the authenticated-user identity consumed by the dashboard shell.
// The fields are opaque to this package beyond identity; they are stored and
// returned as the backend supplied them.
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Clone returns an independent copy, or nil for a nil receiver.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}
