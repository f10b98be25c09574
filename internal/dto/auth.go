package dto

// RegisterRequest is the payload for POST /register.
type RegisterRequest struct {
	Name     string  `json:"name"`
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Role     string  `json:"role" validate:"required,user_role"`
	RollNo   *string `json:"rollno"`
	ClassID  *string `json:"class_id"`
	Semester *string `json:"semester"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// LoginRequest is the payload for POST /login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the authenticated user's profile.
type LoginResponse struct {
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	RollNo   *string `json:"rollno"`
	ClassID  *string `json:"class_id"`
	Semester *string `json:"semester"`
	Message  string  `json:"message"`
}
