package model

// LoginRequest is what the portal accepts on POST /session/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Remember bool   `json:"remember,omitempty"`
}

// BackendLoginRequest is the body sent to the backend login endpoint.
type BackendLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type ListParams struct {
	Page     int
	PageSize int
	Name     string
}
