package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/service"
)

// UserService is the subset of service.UserService the handler needs.
type UserService interface {
	GetMyUser(ctx context.Context, sessionID string) (*domain.User, error)
	UpdateMyUser(ctx context.Context, sessionID string, req domain.UpdateUserRequest) (*domain.User, error)
	States(sessionID string) map[string]service.OperationState
}

// UserHandler exposes the caller's own user record.
type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetMyUser handles GET /api/my/user.
//
// @Summary      Get current user
// @Tags         my-user
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/my/user [get]
func (h *UserHandler) GetMyUser(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetMyUser(c.Request().Context(), sess.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMyUser handles PUT /api/my/user.
//
// @Summary      Update current user
// @Tags         my-user
// @Accept       json
// @Produce      json
// @Param        body  body      updateUserRequest  true  "Profile fields"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/my/user [put]
func (h *UserHandler) UpdateMyUser(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.UpdateMyUser(c.Request().Context(), sess.ID, req.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// States handles GET /api/my/user/state.
//
// @Summary      Operation states
// @Description  Loading, success and error state of each user operation for the current session.
// @Tags         my-user
// @Produce      json
// @Success      200  {object}  stateResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/my/user/state [get]
func (h *UserHandler) States(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stateResponse(h.users.States(sess.ID)))
}
