package handler

import (
	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/service"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// updateUserRequest is the body accepted by PUT /api/my/user.
type updateUserRequest struct {
	Name    string `json:"name"    validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city"    validate:"required"`
	Country string `json:"country" validate:"required"`
}

func (r updateUserRequest) toDomain() domain.UpdateUserRequest {
	return domain.UpdateUserRequest{
		Name:    r.Name,
		Address: r.Address,
		City:    r.City,
		Country: r.Country,
	}
}

// stateResponse maps operation names (fetchCurrentUser, createUser,
// updateUser) to their last known state.
type stateResponse map[string]service.OperationState

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

type provisioningResponse struct {
	Records []*domain.ProvisioningRecord `json:"records"`
}
