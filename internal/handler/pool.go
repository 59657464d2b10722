package handler

import (
	"context"
	"net/http"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/service"
	"github.com/gin-gonic/gin"
)

// PoolReader is satisfied by *service.Protocol.
type PoolReader interface {
	PoolParams(name string) (*model.CreatePoolParams, error)
	Rates(ctx context.Context, pool, asset string) (*service.Rates, error)
}

type PoolHandler struct {
	pools PoolReader
}

// NewPoolHandler accepts a nil reader when the protocol could not be
// loaded; every request then fails with a config error.
func NewPoolHandler(pools PoolReader) *PoolHandler {
	return &PoolHandler{pools: pools}
}

// Params GET /v1/pools/:name
func (h *PoolHandler) Params(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	params, err := h.pools.PoolParams(c.Param("name"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, params)
}

// Rates GET /v1/pools/:name/rates/:asset
func (h *PoolHandler) Rates(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	rates, err := h.pools.Rates(c.Request.Context(), c.Param("name"), c.Param("asset"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rates)
}

func (h *PoolHandler) ready(c *gin.Context) bool {
	if h.pools == nil {
		c.Error(apperrors.NewConfig("protocol is not deployed on this network"))
		return false
	}
	return true
}
