package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the profile returned by the auth endpoints and persisted with
// the session. The client only reflects the role; enforcement is the
// backend's job.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the data envelope of /auth/login and /auth/register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
