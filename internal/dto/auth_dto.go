package dto

// StudentVerifyRequest carries a student code login attempt.
type StudentVerifyRequest struct {
	Code        string `json:"code" validate:"required,min=3,max=64"`
	DeviceID    string `json:"device_id" validate:"required,max=255"`
	Fingerprint string `json:"fingerprint" validate:"omitempty,max=255"`
}

// StudentVerifyResponse reports a verification outcome. Reason is only
// populated for device-binding rejections; unknown codes get a generic
// unauthorized response with no detail.
type StudentVerifyResponse struct {
	Allowed  bool              `json:"allowed"`
	Token    string            `json:"token,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Student  *StudentResponse  `json:"student,omitempty"`
	Subjects []SubjectResponse `json:"subjects,omitempty"`
}

// StudentRefreshRequest renews a student session.
type StudentRefreshRequest struct {
	DeviceID string `json:"device_id" validate:"required,max=255"`
}

// ProfessorLoginRequest carries professor credentials.
type ProfessorLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ProfessorLoginResponse returns the token pair for a professor session.
type ProfessorLoginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	Professor    ProfessorResponse `json:"professor"`
}

// ProfessorRefreshRequest rotates a professor access token.
type ProfessorRefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ProfessorRefreshResponse carries the rotated access token.
type ProfessorRefreshResponse struct {
	AccessToken string `json:"access_token"`
}
