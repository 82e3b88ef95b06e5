package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

type NotificationHandler struct {
	inbox ports.NotificationInbox
}

func NewNotificationHandler(inbox ports.NotificationInbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// Drain handles GET /api/notifications. Each notification is returned once.
//
// @Summary      Drain notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  notificationsResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) Drain(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	items, err := h.inbox.Drain(c.Request().Context(), sess.ID)
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return c.JSON(http.StatusOK, notificationsResponse{Notifications: items})
}
