package userapi

import (
	"context"
	"net/http"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

const myUserPath = "/api/my/user"

var _ ports.UserAPI = (*Client)(nil)

// FetchCurrentUser issues GET /api/my/user.
func (cl *Client) FetchCurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	err := cl.do(ctx, call{
		op:      domain.OpFetchCurrentUser,
		method:  http.MethodGet,
		path:    myUserPath,
		out:     &user,
		failure: domain.MsgFetchUserFailed,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser issues POST /api/my/user. The response body is ignored.
func (cl *Client) CreateUser(ctx context.Context, req domain.CreateUserRequest) error {
	return cl.do(ctx, call{
		op:      domain.OpCreateUser,
		method:  http.MethodPost,
		path:    myUserPath,
		body:    req,
		failure: domain.MsgCreateUserFailed,
	})
}

// UpdateUser issues PUT /api/my/user and returns the stored profile.
func (cl *Client) UpdateUser(ctx context.Context, req domain.UpdateUserRequest) (*domain.User, error) {
	var user domain.User
	err := cl.do(ctx, call{
		op:      domain.OpUpdateUser,
		method:  http.MethodPut,
		path:    myUserPath,
		body:    req,
		out:     &user,
		failure: domain.MsgUpdateUserFailed,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
