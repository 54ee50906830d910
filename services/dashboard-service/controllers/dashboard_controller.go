package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/inventory-dashboard/services/common/errors"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/render"
)

// DashboardViewer supplies the admin view.
type DashboardViewer interface {
	View() render.Dashboard
}

type DashboardController struct {
	dashboard DashboardViewer
}

func NewDashboardController(dashboard DashboardViewer) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

func (d *DashboardController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Admin returns the full dashboard view. Before hydration lands it is the
// loading view.
func (d *DashboardController) Admin(c *gin.Context) {
	c.JSON(http.StatusOK, d.dashboard.View())
}

// Activity returns the recent sales list only.
func (d *DashboardController) Activity(c *gin.Context) {
	view := d.dashboard.View()
	c.JSON(http.StatusOK, gin.H{"activity": view.Activity})
}

// NotFound answers unknown paths with the JSON error body.
func (d *DashboardController) NotFound(c *gin.Context) {
	_ = c.Error(apperrors.ErrNotFound)
}
