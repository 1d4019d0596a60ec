package models

// CommonResponse is the envelope wrapping every dashboard API response
type CommonResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// LoginRequest is the body of POST /api/v1/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by both login and refresh-token
type LoginResponse struct {
	Token  string `json:"token"`
	Expire string `json:"expire"`
}
