package domain

// User is the remote profile record owned by the user-profile API. The
// gateway only ever holds request-scoped snapshots of it.
type User struct {
	ID      string `json:"_id,omitempty"`
	Auth0ID string `json:"auth0Id,omitempty"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// CreateUserRequest links an identity-provider subject to a profile record.
type CreateUserRequest struct {
	Auth0ID string `json:"auth0Id"`
	Email   string `json:"email"`
}

// UpdateUserRequest is the full editable profile. Identity is implied by the
// bearer token on the server side.
type UpdateUserRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}
