package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/inventory-dashboard/services/common/errors"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/render"
)

// Storefront is the storefront behaviour the controller needs.
type Storefront interface {
	Mount(ctx context.Context) error
	View() render.Storefront
	Buy(ctx context.Context, req models.BuyRequest) error
}

type StorefrontController struct {
	storefront Storefront
}

func NewStorefrontController(storefront Storefront) *StorefrontController {
	return &StorefrontController{storefront: storefront}
}

// Get mounts the storefront on first use and returns its view. A failed stock
// read is logged by the service and shows as the loading view.
func (s *StorefrontController) Get(c *gin.Context) {
	_ = s.storefront.Mount(c.Request.Context())
	c.JSON(http.StatusOK, s.storefront.View())
}

// Buy accepts an order and returns before it has been placed.
func (s *StorefrontController) Buy(c *gin.Context) {
	var req models.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	if err := s.storefront.Buy(c.Request.Context(), req); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"sku":      req.SKU,
		"quantity": req.Quantity,
	})
}
