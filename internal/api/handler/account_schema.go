package handler

type profileRequest struct {
	FullName       string `json:"full_name"`
	Company        string `json:"company"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
}

type registerRequest struct {
	Email    string         `json:"email"    validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8"`
	Role     string         `json:"role"     validate:"required,oneof=client consultant admin"`
	Profile  profileRequest `json:"profile"`
}

type registerResponse struct {
	AccountID string `json:"account_id"`
}

type rotatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}
