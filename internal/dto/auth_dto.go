package dto

// SignupRequest describes the payload for account creation.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

// SigninRequest describes the payload for signing in.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the issued token alongside the user profile. The same
// token is also set as an http-only cookie.
type AuthResponse struct {
	Token string       `json:"jwt_token"`
	User  UserResponse `json:"user"`
}
