package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ProvisioningHistory reads the provisioning audit trail.
type ProvisioningHistory interface {
	History(ctx context.Context, subject string, limit int64) ([]*domain.ProvisioningRecord, error)
}

type ProvisioningHandler struct {
	history ProvisioningHistory
}

func NewProvisioningHandler(history ProvisioningHistory) *ProvisioningHandler {
	return &ProvisioningHandler{history: history}
}

// List handles GET /api/my/provisioning.
//
// @Summary      Provisioning attempts
// @Description  Background create-user attempts for the caller, newest first.
// @Tags         my-user
// @Produce      json
// @Param        limit  query     int  false  "Maximum records (1-100)"  default(20)
// @Success      200    {object}  provisioningResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /api/my/provisioning [get]
func (h *ProvisioningHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	limit := int64(defaultHistoryLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > maxHistoryLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 100")
		}
		limit = n
	}

	records, err := h.history.History(c.Request().Context(), sess.Identity.Subject, limit)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*domain.ProvisioningRecord{}
	}
	return c.JSON(http.StatusOK, provisioningResponse{Records: records})
}
