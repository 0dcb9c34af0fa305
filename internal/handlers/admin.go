package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/models"
	"github.com/example/wayra/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalCustomers int64
	if err := h.db.Model(&models.Customer{}).Count(&totalCustomers).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	// Orders by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	// Revenue only counts orders that were not rejected, cancelled or returned.
	revenueFilter := "status NOT IN (?, ?, ?)"
	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where(revenueFilter, models.OrderStatusRejected, models.OrderStatusCancelled, models.OrderStatusReturned).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var todayRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where(revenueFilter+" AND placed_at::date = CURRENT_DATE",
			models.OrderStatusRejected, models.OrderStatusCancelled, models.OrderStatusReturned).
		Select("COALESCE(SUM(total), 0)").
		Scan(&todayRevenue).Error; err != nil {
		return err
	}

	var pendingPayments int64
	if err := h.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPending).
		Count(&pendingPayments).Error; err != nil {
		return err
	}

	var activeCoupons int64
	if err := h.db.Model(&models.Coupon{}).
		Where("is_active = ? AND ends_at > NOW()", true).
		Count(&activeCoupons).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_customers":  totalCustomers,
			"total_orders":     totalOrders,
			"orders_by_status": ordersByStatus,
			"total_revenue":    totalRevenue,
			"today_revenue":    todayRevenue,
			"pending_payments": pendingPayments,
			"active_coupons":   activeCoupons,
		},
	})
}

// ListUsers returns registered accounts for the back office.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.User{})
	if search := c.Query("search"); search != "" {
		query = query.Where("email ILIKE ? OR display_name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   users,
		"total":   total,
		"page":    pagination.Page,
		"limit":   pagination.Limit,
	})
}

// ListCustomers returns checkout-side customer records.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.Customer{})
	if search := c.Query("search"); search != "" {
		query = query.Where("document_number ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var customers []models.Customer
	if err := query.Order("created_at desc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&customers).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"customers": customers,
		"total":     total,
		"page":      pagination.Page,
		"limit":     pagination.Limit,
	})
}
