package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

type DeploymentLister interface {
	List(ctx context.Context, network string, limit int) ([]*model.DeploymentRecord, error)
}

type DeploymentHandler struct {
	svc DeploymentLister
}

func NewDeploymentHandler(svc DeploymentLister) *DeploymentHandler {
	return &DeploymentHandler{svc: svc}
}

// List GET /v1/deployments?network=&limit=
func (h *DeploymentHandler) List(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.Error(apperrors.NewInvalidRequest("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	records, err := h.svc.List(c.Request.Context(), c.Query("network"), limit)
	if err != nil {
		c.Error(apperrors.New(apperrors.ErrInternal, err.Error(), err))
		return
	}
	if records == nil {
		records = []*model.DeploymentRecord{}
	}
	c.JSON(http.StatusOK, records)
}
