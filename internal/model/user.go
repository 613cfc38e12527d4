package model

// Role enumerates the user roles known to the remote data service.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// User is the identity returned by the remote data service at login.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     Role     `json:"role"`
	ClassIDs []string `json:"class_ids,omitempty"`
}

// InClass reports whether the user is enrolled in classID.
func (u *User) InClass(classID string) bool {
	for _, id := range u.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// Credential is the caller identity and remote data-service token passed
// explicitly to every store call.
type Credential struct {
	UserID string
	Token  string
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}
