package model

// User roles as issued by the portal's auth service.
const (
	RoleStudent  = "STUDENT"
	RoleAdmin    = "ADMIN"
	RoleExaminer = "EXAMINER"
)

// User identifies the authenticated portal user. ID comes from the JWT
// `id` claim, the rest from the login exchange.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// IsAdmin reports whether the user may access portal-wide result views.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleExaminer
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token   string `json:"token"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}
