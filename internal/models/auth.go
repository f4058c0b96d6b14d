package models

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// LoginResponse represents a login response. The backend returns the
// token under "key".
type LoginResponse struct {
	Key    string `json:"key"`
	Detail string `json:"detail,omitempty"`
}

// PasswordRequest sets the first password of a registered organization user
type PasswordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthState is the persisted authentication state
type AuthState struct {
	IsAuthenticated bool   `json:"is_authenticated" yaml:"is_authenticated" mapstructure:"is_authenticated"`
	UserName        string `json:"user_name" yaml:"user_name" mapstructure:"user_name"`
	Token           string `json:"token" yaml:"token" mapstructure:"token"`
}
