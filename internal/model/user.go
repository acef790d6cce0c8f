package model

import "encoding/json"

// Browser storage keys written by the login screen.
const (
	KeyToken   = "token"
	KeyUser    = "user"
	KeyLabUser = "labUser"
)

// User is the account returned by the authentication service.
type User struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// LabUser is the reduced record kept under KeyLabUser.
type LabUser struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Session is the result of a successful login. RawUser keeps the user object
// exactly as the authentication service sent it.
type Session struct {
	Token   string
	User    User
	RawUser json.RawMessage
}

// LabUser derives the reduced user record.
func (s *Session) LabUser() LabUser {
	return LabUser{Name: s.User.Name, Role: s.User.Role}
}
