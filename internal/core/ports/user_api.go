package ports

import (
	"context"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

// TokenSource yields a bearer token for the session carried by ctx. It is
// called immediately before every outbound request.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// UserAPI is the remote user resource: the three /api/my/user operations.
type UserAPI interface {
	FetchCurrentUser(ctx context.Context) (*domain.User, error)
	CreateUser(ctx context.Context, req domain.CreateUserRequest) error
	UpdateUser(ctx context.Context, req domain.UpdateUserRequest) (*domain.User, error)
}
